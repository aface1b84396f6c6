package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sslguardian/dashboard/internal/model"
	"github.com/sslguardian/dashboard/internal/swr"
)

// refreshIntervals sets how long each resource is served without a
// refetch, mirroring the server-side cache TTLs.
var refreshIntervals = map[string]time.Duration{
	"/certificates":            time.Minute,
	"/dashboard/global-health": 5 * time.Minute,
	"/ca-analytics":            8 * time.Minute,
	"/encryption-strength":     8 * time.Minute,
	"/validity-trends":         8 * time.Minute,
	"/geographic-distribution": 8 * time.Minute,
	"/future-risk":             8 * time.Minute,
	"/notifications":           2 * time.Minute,
	"/unique-filters":          8 * time.Minute,
}

// CachedClient layers a stale-while-revalidate cache over Client for
// the read-heavy dashboard endpoints. Methods may return both a value
// and an error: the value is the last known good response and the
// error is the most recent fetch failure. Callers decide whether to
// keep showing the stale data.
type CachedClient struct {
	client *Client
	cache  *swr.Cache
}

func NewCached(baseURL string, opts swr.Options) *CachedClient {
	c := New(baseURL)
	return &CachedClient{
		client: c,
		cache:  swr.New(c.fetchBytes, opts),
	}
}

// Certificates fetches one page of the listing through the cache. Each
// distinct filter combination is its own cache key.
func (c *CachedClient) Certificates(ctx context.Context, q CertificateQuery) (model.CertificatePage, error) {
	var page model.CertificatePage
	err := c.getCached(ctx, "/certificates", c.client.requestURL("/certificates", q.Values()), &page)
	return page, err
}

func (c *CachedClient) GlobalHealth(ctx context.Context) (model.DashboardMetrics, error) {
	var m model.DashboardMetrics
	err := c.getCached(ctx, "/dashboard/global-health", c.client.requestURL("/dashboard/global-health", nil), &m)
	return m, err
}

func (c *CachedClient) CAAnalytics(ctx context.Context) ([]model.CAEntry, error) {
	var entries []model.CAEntry
	err := c.getCached(ctx, "/ca-analytics", c.client.requestURL("/ca-analytics", nil), &entries)
	return entries, err
}

func (c *CachedClient) EncryptionStrength(ctx context.Context) ([]model.EncryptionEntry, error) {
	var entries []model.EncryptionEntry
	err := c.getCached(ctx, "/encryption-strength", c.client.requestURL("/encryption-strength", nil), &entries)
	return entries, err
}

func (c *CachedClient) GeographicDistribution(ctx context.Context) ([]model.GeoEntry, error) {
	var entries []model.GeoEntry
	err := c.getCached(ctx, "/geographic-distribution", c.client.requestURL("/geographic-distribution", nil), &entries)
	return entries, err
}

func (c *CachedClient) FutureRisk(ctx context.Context) (model.FutureRisk, error) {
	var risk model.FutureRisk
	err := c.getCached(ctx, "/future-risk", c.client.requestURL("/future-risk", nil), &risk)
	return risk, err
}

func (c *CachedClient) Notifications(ctx context.Context) (model.NotificationList, error) {
	var list model.NotificationList
	err := c.getCached(ctx, "/notifications", c.client.requestURL("/notifications", nil), &list)
	return list, err
}

func (c *CachedClient) UniqueFilters(ctx context.Context) (model.UniqueFilters, error) {
	var filters model.UniqueFilters
	err := c.getCached(ctx, "/unique-filters", c.client.requestURL("/unique-filters", nil), &filters)
	return filters, err
}

// Invalidate drops one resource URL so the next read refetches.
func (c *CachedClient) Invalidate(url string) {
	c.cache.Invalidate(url)
}

// Wait blocks until pending background revalidations finish.
func (c *CachedClient) Wait() {
	c.cache.Wait()
}

func (c *CachedClient) getCached(ctx context.Context, resource, url string, out any) error {
	res := c.cache.GetWithInterval(ctx, url, refreshIntervals[resource])
	if res.Value == nil {
		return res.Err
	}
	if err := json.Unmarshal(res.Value, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", resource, err)
	}
	return res.Err
}
