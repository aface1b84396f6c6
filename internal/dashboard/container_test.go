package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sslguardian/dashboard/internal/client"
	"github.com/sslguardian/dashboard/internal/model"
)

type mockFetcher struct {
	fn func(ctx context.Context, q client.CertificateQuery) (model.CertificatePage, error)
}

func (m *mockFetcher) Certificates(ctx context.Context, q client.CertificateQuery) (model.CertificatePage, error) {
	return m.fn(ctx, q)
}

// testCerts builds 25 certificates: every fifth one expired, every
// third issued by GlobalSign, the rest by Let's Encrypt.
func testCerts() []model.Certificate {
	certs := make([]model.Certificate, 25)
	for i := range certs {
		cert := model.Certificate{
			Domain: fmt.Sprintf("site%02d.example.pk", i),
			Issuer: "Let's Encrypt",
			Status: model.StatusValid,
			Grade:  "A+",
		}
		if i%5 == 0 {
			cert.Status = model.StatusExpired
		}
		if i%3 == 0 {
			cert.Issuer = "GlobalSign"
		}
		certs[i] = cert
	}
	return certs
}

func loadedContainer(t *testing.T) *Container {
	t.Helper()
	f := &mockFetcher{
		fn: func(ctx context.Context, q client.CertificateQuery) (model.CertificatePage, error) {
			return model.CertificatePage{Certificates: testCerts()}, nil
		},
	}
	c := New(f, 10)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return c
}

func TestLoad(t *testing.T) {
	c := loadedContainer(t)

	p := c.Pagination()
	if p.Total != 25 {
		t.Errorf("total = %d, want 25", p.Total)
	}
	if p.TotalPages != 3 {
		t.Errorf("totalPages = %d, want 3", p.TotalPages)
	}
	if got := len(c.Visible()); got != 10 {
		t.Errorf("visible page size = %d, want 10", got)
	}
}

func TestApplyFilters_StatusSubset(t *testing.T) {
	c := loadedContainer(t)

	c.ApplyFilters(model.FilterOptions{Statuses: []model.Status{model.StatusExpired}})

	matches := c.Matches()
	if len(matches) != 5 {
		t.Fatalf("matches = %d, want 5 expired", len(matches))
	}
	for _, cert := range matches {
		if cert.Status != model.StatusExpired {
			t.Errorf("visible cert %s has status %q, violates the filter", cert.Domain, cert.Status)
		}
	}
	if p := c.Pagination(); p.TotalPages != 1 || p.Page != 1 {
		t.Errorf("pagination = %+v, want page 1 of 1", p)
	}
}

func TestApplyFilters_ZeroMatches(t *testing.T) {
	c := loadedContainer(t)

	c.ApplyFilters(model.FilterOptions{Grades: []string{"F"}})

	if got := len(c.Matches()); got != 0 {
		t.Errorf("matches = %d, want 0", got)
	}
	p := c.Pagination()
	if p.TotalPages != 0 {
		t.Errorf("totalPages = %d, want 0", p.TotalPages)
	}
	if p.Page != 1 {
		t.Errorf("page = %d, want clamped to 1", p.Page)
	}
}

func TestSearch_MatchesDomainAndIssuer(t *testing.T) {
	f := &mockFetcher{
		fn: func(ctx context.Context, q client.CertificateQuery) (model.CertificatePage, error) {
			return model.CertificatePage{Certificates: []model.Certificate{
				{Domain: "example.pk", Issuer: "GlobalSign", Status: model.StatusValid},
				{Domain: "other.pk", Issuer: "Example Trust CA", Status: model.StatusValid},
				{Domain: "unrelated.pk", Issuer: "GlobalSign", Status: model.StatusValid},
			}}, nil
		},
	}
	c := New(f, 10)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	c.Search("example")

	matches := c.Matches()
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want domain hit + issuer hit", len(matches))
	}
}

func TestSearch_ClearRestoresBaseSet(t *testing.T) {
	c := loadedContainer(t)

	c.Search("site01")
	if got := len(c.Matches()); got != 1 {
		t.Fatalf("matches = %d, want 1", got)
	}

	c.Search("")
	if got := len(c.Matches()); got != 25 {
		t.Errorf("matches after clearing = %d, want the full base set", got)
	}
}

func TestSearch_StacksWithFilters(t *testing.T) {
	c := loadedContainer(t)

	c.ApplyFilters(model.FilterOptions{Issuers: []string{"GlobalSign"}})
	c.Search("expired")

	for _, cert := range c.Matches() {
		if cert.Issuer != "GlobalSign" {
			t.Errorf("cert %s leaked past the issuer filter", cert.Domain)
		}
		if cert.Status != model.StatusExpired {
			t.Errorf("cert %s does not match the search", cert.Domain)
		}
	}
}

func TestSetPage_Clamps(t *testing.T) {
	c := loadedContainer(t)

	c.SetPage(99)
	if p := c.Pagination(); p.Page != 3 {
		t.Errorf("page = %d, want clamped to 3", p.Page)
	}

	c.SetPage(-1)
	if p := c.Pagination(); p.Page != 1 {
		t.Errorf("page = %d, want clamped to 1", p.Page)
	}
}

func TestSelectCard_ReplacesBase(t *testing.T) {
	f := &mockFetcher{
		fn: func(ctx context.Context, q client.CertificateQuery) (model.CertificatePage, error) {
			if q.Status == model.StatusExpired {
				return model.CertificatePage{Certificates: []model.Certificate{
					{Domain: "expired.pk", Status: model.StatusExpired},
				}}, nil
			}
			return model.CertificatePage{Certificates: testCerts()}, nil
		},
	}
	c := New(f, 10)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := c.SelectCard(context.Background(), CardExpired, nil); err != nil {
		t.Fatalf("SelectCard failed: %v", err)
	}

	matches := c.Matches()
	if len(matches) != 1 || matches[0].Domain != "expired.pk" {
		t.Errorf("matches = %v, want the card's result set", matches)
	}
}

func TestSelectCard_StaleResponseDiscarded(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	f := &mockFetcher{
		fn: func(ctx context.Context, q client.CertificateQuery) (model.CertificatePage, error) {
			if q.Status == model.StatusExpired {
				close(firstStarted)
				<-releaseFirst
				return model.CertificatePage{Certificates: []model.Certificate{
					{Domain: "stale.pk", Status: model.StatusExpired},
				}}, nil
			}
			return model.CertificatePage{Certificates: []model.Certificate{
				{Domain: "current.pk", Status: model.StatusValid},
			}}, nil
		},
	}
	c := New(f, 10)

	firstDone := make(chan error)
	go func() {
		firstDone <- c.SelectCard(context.Background(), CardExpired, nil)
	}()
	<-firstStarted

	// A newer selection completes while the first is still in flight.
	if err := c.SelectCard(context.Background(), CardActive, nil); err != nil {
		t.Fatalf("second SelectCard failed: %v", err)
	}
	close(releaseFirst)
	if err := <-firstDone; err != nil {
		t.Fatalf("first SelectCard failed: %v", err)
	}

	matches := c.Matches()
	if len(matches) != 1 || matches[0].Domain != "current.pk" {
		t.Errorf("matches = %v, want the newer selection to win", matches)
	}
}

func TestLoad_StaleResponseDiscarded(t *testing.T) {
	loadStarted := make(chan struct{})
	releaseLoad := make(chan struct{})
	f := &mockFetcher{
		fn: func(ctx context.Context, q client.CertificateQuery) (model.CertificatePage, error) {
			if q.Status == "" {
				close(loadStarted)
				<-releaseLoad
				return model.CertificatePage{Certificates: []model.Certificate{
					{Domain: "stale-load.example.pk", Status: model.StatusValid},
				}}, nil
			}
			return model.CertificatePage{Certificates: []model.Certificate{
				{Domain: "expired.pk", Status: model.StatusExpired},
			}}, nil
		},
	}
	c := New(f, 10)

	loadDone := make(chan error)
	go func() {
		loadDone <- c.Load(context.Background())
	}()
	<-loadStarted

	// A card selection completes while the initial load is still in flight.
	if err := c.SelectCard(context.Background(), CardExpired, nil); err != nil {
		t.Fatalf("SelectCard failed: %v", err)
	}
	close(releaseLoad)
	if err := <-loadDone; err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	matches := c.Matches()
	if len(matches) != 1 || matches[0].Domain != "expired.pk" {
		t.Errorf("matches = %v, want the newer card selection to win", matches)
	}
}

func TestSelectCard_FetchFailure(t *testing.T) {
	f := &mockFetcher{
		fn: func(ctx context.Context, q client.CertificateQuery) (model.CertificatePage, error) {
			if q.Status == model.StatusExpired {
				return model.CertificatePage{}, errors.New("api unreachable")
			}
			return model.CertificatePage{Certificates: testCerts()}, nil
		},
	}
	c := New(f, 10)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := c.SelectCard(context.Background(), CardExpired, nil); err == nil {
		t.Fatal("expected SelectCard to surface the fetch error")
	}
	if c.Err() == nil {
		t.Error("Err should report the failure")
	}
	if got := len(c.Matches()); got != 0 {
		t.Errorf("matches = %d, want empty set on failure", got)
	}
}

func TestReset(t *testing.T) {
	c := loadedContainer(t)

	c.ApplyFilters(model.FilterOptions{Statuses: []model.Status{model.StatusExpired}})
	c.Search("site00")
	c.Reset()

	if got := len(c.Matches()); got != 25 {
		t.Errorf("matches after reset = %d, want the initial set", got)
	}
	if p := c.Pagination(); p.Page != 1 {
		t.Errorf("page = %d, want 1", p.Page)
	}
}

func TestCardQuery_PayloadOverrides(t *testing.T) {
	q := cardQuery(CardExpiring, map[string]string{"expiring_days": "2"})
	if q.ExpiringDays != 2 {
		t.Errorf("ExpiringDays = %d, want 2", q.ExpiringDays)
	}
	if q.Status != model.StatusExpiringSoon {
		t.Errorf("Status = %q, want EXPIRING_SOON", q.Status)
	}

	q = cardQuery(CardCritical, nil)
	if !q.HasVulnerabilities {
		t.Error("critical card should request vulnerable certificates")
	}
}
