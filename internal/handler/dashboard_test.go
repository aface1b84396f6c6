package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sslguardian/dashboard/internal/cache"
	"github.com/sslguardian/dashboard/internal/model"
)

type mockMetricsStore struct {
	dashboardMetricsFn func(ctx context.Context) (model.DashboardMetrics, error)
}

func (m *mockMetricsStore) DashboardMetrics(ctx context.Context) (model.DashboardMetrics, error) {
	return m.dashboardMetricsFn(ctx)
}

func sampleMetrics() model.DashboardMetrics {
	return model.DashboardMetrics{
		GlobalHealth:            model.GlobalHealth{Score: 85, MaxScore: 100, Status: "SECURE"},
		ActiveCertificates:      model.ActiveCount{Count: 90, Total: 100},
		ExpiringSoon:            model.ExpiringCount{Count: 4, DaysThreshold: 30},
		CriticalVulnerabilities: model.CriticalCount{Count: 1},
		ExpiredCertificates:     model.ExpiredCount{Count: 10},
	}
}

func TestGlobalHealth(t *testing.T) {
	store := &mockMetricsStore{
		dashboardMetricsFn: func(ctx context.Context) (model.DashboardMetrics, error) {
			return sampleMetrics(), nil
		},
	}

	r := chi.NewRouter()
	NewDashboardHandler(store, cache.Nop{}).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/global-health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var m model.DashboardMetrics
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if m.GlobalHealth.Score != 85 {
		t.Errorf("score = %d, want 85", m.GlobalHealth.Score)
	}
	if m.GlobalHealth.Status != "SECURE" {
		t.Errorf("status = %q, want SECURE", m.GlobalHealth.Status)
	}
}

func TestFutureRisk_Levels(t *testing.T) {
	tests := []struct {
		name           string
		critical       int
		expiring       int
		wantLevel      string
		wantConfidence int
	}{
		{"quiet estate", 0, 2, "Low", 65},
		{"some churn", 3, 5, "Medium", 78},
		{"expiring wave", 0, 11, "Medium", 78},
		{"critical pileup", 6, 0, "High", 92},
		{"mass expiry", 0, 25, "High", 92},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sampleMetrics()
			m.CriticalVulnerabilities.Count = tt.critical
			m.ExpiringSoon.Count = tt.expiring

			risk := futureRisk(m)
			if risk.RiskLevel != tt.wantLevel {
				t.Errorf("RiskLevel = %q, want %q", risk.RiskLevel, tt.wantLevel)
			}
			if risk.ConfidenceLevel != tt.wantConfidence {
				t.Errorf("ConfidenceLevel = %d, want %d", risk.ConfidenceLevel, tt.wantConfidence)
			}
			if len(risk.ProjectedThreats) != 2 {
				t.Errorf("got %d projected threats, want 2", len(risk.ProjectedThreats))
			}
		})
	}
}

func TestFutureRisk_Endpoint(t *testing.T) {
	store := &mockMetricsStore{
		dashboardMetricsFn: func(ctx context.Context) (model.DashboardMetrics, error) {
			m := sampleMetrics()
			m.CriticalVulnerabilities.Count = 7
			return m, nil
		},
	}

	r := chi.NewRouter()
	NewDashboardHandler(store, cache.Nop{}).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/future-risk", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var risk model.FutureRisk
	json.NewDecoder(rec.Body).Decode(&risk)
	if risk.RiskLevel != "High" {
		t.Errorf("RiskLevel = %q, want High", risk.RiskLevel)
	}
}
