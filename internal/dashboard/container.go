// Package dashboard holds the interactive view state of the dashboard:
// the loaded certificate set, the active search and filters, and the
// current page. All mutating operations keep the visible set a filtered
// subset of the base set and the page inside its valid range.
package dashboard

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/sslguardian/dashboard/internal/client"
	"github.com/sslguardian/dashboard/internal/model"
)

// Card identifies one of the clickable dashboard summary cards.
type Card string

const (
	CardActive   Card = "active"
	CardExpiring Card = "expiring"
	CardCritical Card = "critical"
	CardExpired  Card = "expired"
)

// baseFetchSize is how many certificates one card selection or initial
// load pulls in as the working set.
const baseFetchSize = 100

type fetcher interface {
	Certificates(ctx context.Context, q client.CertificateQuery) (model.CertificatePage, error)
}

// Container is the single source of truth for the visible result set.
// Safe for concurrent use.
type Container struct {
	fetcher  fetcher
	pageSize int

	mu         sync.Mutex
	initial    []model.Certificate
	base       []model.Certificate
	visible    []model.Certificate
	query      string
	filters    model.FilterOptions
	page       int
	totalPages int
	err        error
	generation uint64
}

func New(f fetcher, pageSize int) *Container {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Container{fetcher: f, pageSize: pageSize, page: 1}
}

// Load fetches the unfiltered certificate set and makes it both the
// base and the visible set. On failure the sets are emptied and the
// error stays visible via Err until a later load succeeds. Like card
// selections the fetch is generation-tagged, so a slow load cannot
// overwrite a newer selection.
func (c *Container) Load(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	page, err := c.fetcher.Certificates(ctx, client.CertificateQuery{PageSize: baseFetchSize})

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// A newer selection or load has superseded this response.
		return nil
	}
	if err != nil {
		slog.Error("initial certificate load failed", "error", err)
		c.setFailedLocked(err)
		return err
	}
	c.err = nil
	c.initial = page.Certificates
	c.base = page.Certificates
	c.query = ""
	c.filters = model.FilterOptions{}
	c.page = 1
	c.recomputeLocked()
	return nil
}

// Search narrows the visible set to certificates whose domain, issuer,
// status or grade contains q, case-insensitively. An empty q restores
// the filtered base set. Resets to page 1.
func (c *Container) Search(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
	c.page = 1
	c.recomputeLocked()
}

// ApplyFilters replaces the active filter set. Categories combine with
// AND, selections inside one category with OR. Resets to page 1.
func (c *Container) ApplyFilters(f model.FilterOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = f
	c.page = 1
	c.recomputeLocked()
}

// SelectCard fetches the certificate set behind a summary card and
// makes it the new base set. Selections race: each fetch is tagged
// with a generation, and a response that arrives after a newer
// selection is dropped.
func (c *Container) SelectCard(ctx context.Context, card Card, payload map[string]string) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	q := cardQuery(card, payload)
	q.PageSize = baseFetchSize
	page, err := c.fetcher.Certificates(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// A newer selection or load has superseded this response.
		return nil
	}
	if err != nil {
		slog.Error("card selection fetch failed", "card", card, "error", err)
		c.setFailedLocked(err)
		return err
	}
	c.err = nil
	c.base = page.Certificates
	c.query = ""
	c.filters = model.FilterOptions{}
	c.page = 1
	c.recomputeLocked()
	return nil
}

// SetPage moves to page p, clamped to [1, max(1, totalPages)].
func (c *Container) SetPage(p int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = model.ClampPage(p, c.totalPages)
}

// Reset restores the initially loaded set with no search, no filters
// and page 1.
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.initial
	c.query = ""
	c.filters = model.FilterOptions{}
	c.page = 1
	c.err = nil
	c.recomputeLocked()
}

// Visible returns the certificates on the current page.
func (c *Container) Visible() []model.Certificate {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := (c.page - 1) * c.pageSize
	if start >= len(c.visible) {
		return []model.Certificate{}
	}
	end := start + c.pageSize
	if end > len(c.visible) {
		end = len(c.visible)
	}
	out := make([]model.Certificate, end-start)
	copy(out, c.visible[start:end])
	return out
}

// Matches returns every certificate passing the active search and
// filters, across all pages.
func (c *Container) Matches() []model.Certificate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Certificate, len(c.visible))
	copy(out, c.visible)
	return out
}

// Pagination describes the visible set.
func (c *Container) Pagination() model.Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.Pagination{
		Page:       c.page,
		PageSize:   c.pageSize,
		Total:      len(c.visible),
		TotalPages: c.totalPages,
	}
}

// Err reports the most recent fetch failure, or nil.
func (c *Container) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Container) setFailedLocked(err error) {
	c.err = err
	c.base = []model.Certificate{}
	c.visible = []model.Certificate{}
	c.totalPages = 0
	c.page = 1
}

// recomputeLocked rebuilds the visible set from base + filters + query
// and clamps the page.
func (c *Container) recomputeLocked() {
	visible := make([]model.Certificate, 0, len(c.base))
	for _, cert := range c.base {
		if !c.filters.Matches(cert) {
			continue
		}
		if c.query != "" && !model.SearchMatches(cert, c.query) {
			continue
		}
		visible = append(visible, cert)
	}
	c.visible = visible
	c.totalPages = model.NewPagination(c.page, c.pageSize, len(visible)).TotalPages
	c.page = model.ClampPage(c.page, c.totalPages)
}

func cardQuery(card Card, payload map[string]string) client.CertificateQuery {
	var q client.CertificateQuery
	switch card {
	case CardActive:
		q.Status = model.StatusValid
	case CardExpiring:
		q.Status = model.StatusExpiringSoon
	case CardCritical:
		q.HasVulnerabilities = true
	case CardExpired:
		q.Status = model.StatusExpired
	}

	// Notification filter params refine the card query.
	if v, ok := payload["expiring_days"]; ok {
		if days, err := strconv.Atoi(v); err == nil {
			q.ExpiringDays = days
		}
	}
	if v, ok := payload["status"]; ok {
		q.Status = model.Status(v)
	}
	if v, ok := payload["issuer"]; ok {
		q.Issuer = v
	}
	if v, ok := payload["country"]; ok {
		q.Country = v
	}
	if v, ok := payload["encryption_type"]; ok {
		q.EncryptionType = v
	}
	if _, ok := payload["has_vulnerabilities"]; ok {
		q.HasVulnerabilities = true
	}
	return q
}
