package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sslguardian/dashboard/internal/model"
)

func TestCertificateQuery_Values(t *testing.T) {
	q := CertificateQuery{
		Page:               2,
		PageSize:           50,
		Status:             model.StatusExpired,
		Country:            "Pakistan",
		Issuer:             "Sectigo",
		HasVulnerabilities: true,
		ExpiringDays:       7,
	}
	v := q.Values()

	if v.Get("page") != "2" || v.Get("page_size") != "50" {
		t.Errorf("pagination = %s/%s", v.Get("page"), v.Get("page_size"))
	}
	if v.Get("status") != "EXPIRED" {
		t.Errorf("status = %q", v.Get("status"))
	}
	// Country names are normalized to ISO codes in the query string.
	if v.Get("country") != "PK" {
		t.Errorf("country = %q, want PK", v.Get("country"))
	}
	if v.Get("has_vulnerabilities") != "true" {
		t.Errorf("has_vulnerabilities = %q", v.Get("has_vulnerabilities"))
	}
	if v.Get("expiring_days") != "7" {
		t.Errorf("expiring_days = %q", v.Get("expiring_days"))
	}
}

func TestCertificateQuery_ZeroValuesOmitted(t *testing.T) {
	if got := len(CertificateQuery{}.Values()); got != 0 {
		t.Errorf("zero query encoded %d parameters, want 0", got)
	}
}

func TestCertificates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/certificates" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("status") != "VALID" {
			t.Errorf("status param = %q", r.URL.Query().Get("status"))
		}
		json.NewEncoder(w).Encode(model.CertificatePage{
			Certificates: []model.Certificate{{Domain: "example.pk"}},
			Pagination:   model.Pagination{Page: 1, PageSize: 10, Total: 1, TotalPages: 1},
		})
	}))
	defer srv.Close()

	c := New(srv.URL + "/api")
	page, err := c.Certificates(context.Background(), CertificateQuery{Status: model.StatusValid})
	if err != nil {
		t.Fatalf("Certificates failed: %v", err)
	}
	if len(page.Certificates) != 1 || page.Certificates[0].Domain != "example.pk" {
		t.Errorf("page = %+v", page)
	}
}

func TestCertificate_ByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/certificates/65f1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(model.Certificate{ID: "65f1", Domain: "example.pk"})
	}))
	defer srv.Close()

	c := New(srv.URL + "/api")
	cert, err := c.Certificate(context.Background(), "65f1")
	if err != nil {
		t.Fatalf("Certificate failed: %v", err)
	}
	if cert.ID != "65f1" {
		t.Errorf("id = %q", cert.ID)
	}
}

func TestClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL + "/api")
	_, err := c.GlobalHealth(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL + "/api")
	_, err := c.Notifications(context.Background())
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestValidityTrends_Params(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("months_before") != "2" || r.URL.Query().Get("months_after") != "6" {
			t.Errorf("params = %v", r.URL.Query())
		}
		json.NewEncoder(w).Encode([]model.TrendPoint{{Month: "Jun 2026"}})
	}))
	defer srv.Close()

	c := New(srv.URL + "/api")
	points, err := c.ValidityTrends(context.Background(), 2, 6)
	if err != nil {
		t.Fatalf("ValidityTrends failed: %v", err)
	}
	if len(points) != 1 {
		t.Errorf("points = %v", points)
	}
}

func TestDownloadURL(t *testing.T) {
	c := New("http://api.local/api")

	u := c.DownloadURL(CertificateQuery{Status: model.StatusExpired})
	if u != "http://api.local/api/certificates/download?status=EXPIRED" {
		t.Errorf("DownloadURL = %q", u)
	}

	u = c.DownloadURL(CertificateQuery{})
	if u != "http://api.local/api/certificates/download" {
		t.Errorf("DownloadURL without filter = %q", u)
	}
}
