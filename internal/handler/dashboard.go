package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sslguardian/dashboard/internal/cache"
	"github.com/sslguardian/dashboard/internal/metrics"
	"github.com/sslguardian/dashboard/internal/model"
)

type metricsStore interface {
	DashboardMetrics(ctx context.Context) (model.DashboardMetrics, error)
}

type DashboardHandler struct {
	repo  metricsStore
	cache cache.Cache
}

func NewDashboardHandler(repo metricsStore, c cache.Cache) *DashboardHandler {
	return &DashboardHandler{repo: repo, cache: c}
}

func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/global-health", h.GlobalHealth)
	r.Get("/future-risk", h.FutureRisk)
}

func (h *DashboardHandler) GlobalHealth(w http.ResponseWriter, r *http.Request) {
	respondCached(w, r, h.cache, "metrics", struct{}{}, func(ctx context.Context) (any, error) {
		m, err := h.repo.DashboardMetrics(ctx)
		if err == nil {
			metrics.ExpiringSoon.Set(float64(m.ExpiringSoon.Count))
		}
		return m, err
	})
}

// FutureRisk derives a coarse risk projection from the current metrics.
func (h *DashboardHandler) FutureRisk(w http.ResponseWriter, r *http.Request) {
	respondCached(w, r, h.cache, "future_risk", struct{}{}, func(ctx context.Context) (any, error) {
		m, err := h.repo.DashboardMetrics(ctx)
		if err != nil {
			return nil, err
		}
		return futureRisk(m), nil
	})
}

func futureRisk(m model.DashboardMetrics) model.FutureRisk {
	expiring := m.ExpiringSoon.Count
	critical := m.CriticalVulnerabilities.Count

	level, confidence := "Low", 65
	switch {
	case critical > 5 || expiring > 20:
		level, confidence = "High", 92
	case critical > 2 || expiring > 10:
		level, confidence = "Medium", 78
	}

	return model.FutureRisk{
		ConfidenceLevel: confidence,
		RiskLevel:       level,
		ProjectedThreats: []model.Threat{
			{
				ID:          "1",
				Title:       "Weak Key Rotation",
				Description: "Predicted in 3 months",
				Timeframe:   "3 months",
				Icon:        "key",
			},
			{
				ID:          "2",
				Title:       "Signature Expiry",
				Description: "Watch for SHA-1 risk",
				Timeframe:   "6 months",
				Icon:        "signature",
			},
		},
	}
}
