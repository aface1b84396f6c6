// Package client is a typed HTTP client for the dashboard API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sslguardian/dashboard/internal/country"
	"github.com/sslguardian/dashboard/internal/model"
)

// Client talks to one dashboard API server. The zero value is not
// usable; construct with New.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewWithHTTPClient allows injecting a custom transport, used by tests.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: hc}
}

// CertificateQuery holds the list filters understood by /certificates.
// Zero fields are omitted from the request.
type CertificateQuery struct {
	Page               int
	PageSize           int
	Status             model.Status
	Country            string
	Issuer             string
	Search             string
	EncryptionType     string
	HasVulnerabilities bool
	ExpiringMonth      int
	ExpiringYear       int
	ExpiringDays       int
	IssuedMonth        int
	IssuedYear         int
}

// Values encodes the query as URL parameters. Country accepts either a
// display name or an ISO code; names are normalized to codes here so
// the server only ever sees codes.
func (q CertificateQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Country != "" {
		v.Set("country", country.Code(q.Country))
	}
	if q.Issuer != "" {
		v.Set("issuer", q.Issuer)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.EncryptionType != "" {
		v.Set("encryption_type", q.EncryptionType)
	}
	if q.HasVulnerabilities {
		v.Set("has_vulnerabilities", "true")
	}
	if q.ExpiringMonth > 0 {
		v.Set("expiring_month", strconv.Itoa(q.ExpiringMonth))
		v.Set("expiring_year", strconv.Itoa(q.ExpiringYear))
	}
	if q.ExpiringDays > 0 {
		v.Set("expiring_days", strconv.Itoa(q.ExpiringDays))
	}
	if q.IssuedMonth > 0 {
		v.Set("issued_month", strconv.Itoa(q.IssuedMonth))
		v.Set("issued_year", strconv.Itoa(q.IssuedYear))
	}
	return v
}

// Certificates fetches one page of the certificate listing.
func (c *Client) Certificates(ctx context.Context, q CertificateQuery) (model.CertificatePage, error) {
	var page model.CertificatePage
	err := c.get(ctx, "/certificates", q.Values(), &page)
	return page, err
}

// Certificate fetches one certificate by id.
func (c *Client) Certificate(ctx context.Context, id string) (model.Certificate, error) {
	var cert model.Certificate
	err := c.get(ctx, "/certificates/"+url.PathEscape(id), nil, &cert)
	return cert, err
}

func (c *Client) GlobalHealth(ctx context.Context) (model.DashboardMetrics, error) {
	var m model.DashboardMetrics
	err := c.get(ctx, "/dashboard/global-health", nil, &m)
	return m, err
}

func (c *Client) CAAnalytics(ctx context.Context) ([]model.CAEntry, error) {
	var entries []model.CAEntry
	err := c.get(ctx, "/ca-analytics", nil, &entries)
	return entries, err
}

func (c *Client) EncryptionStrength(ctx context.Context) ([]model.EncryptionEntry, error) {
	var entries []model.EncryptionEntry
	err := c.get(ctx, "/encryption-strength", nil, &entries)
	return entries, err
}

// ValidityTrends fetches expiration counts for the months around now.
func (c *Client) ValidityTrends(ctx context.Context, monthsBefore, monthsAfter int) ([]model.TrendPoint, error) {
	v := url.Values{}
	if monthsBefore > 0 {
		v.Set("months_before", strconv.Itoa(monthsBefore))
	}
	if monthsAfter > 0 {
		v.Set("months_after", strconv.Itoa(monthsAfter))
	}
	var points []model.TrendPoint
	err := c.get(ctx, "/validity-trends", v, &points)
	return points, err
}

func (c *Client) GeographicDistribution(ctx context.Context) ([]model.GeoEntry, error) {
	var entries []model.GeoEntry
	err := c.get(ctx, "/geographic-distribution", nil, &entries)
	return entries, err
}

func (c *Client) FutureRisk(ctx context.Context) (model.FutureRisk, error) {
	var risk model.FutureRisk
	err := c.get(ctx, "/future-risk", nil, &risk)
	return risk, err
}

func (c *Client) Notifications(ctx context.Context) (model.NotificationList, error) {
	var list model.NotificationList
	err := c.get(ctx, "/notifications", nil, &list)
	return list, err
}

func (c *Client) UniqueFilters(ctx context.Context) (model.UniqueFilters, error) {
	var filters model.UniqueFilters
	err := c.get(ctx, "/unique-filters", nil, &filters)
	return filters, err
}

// DownloadURL returns the CSV export URL for the given filter, suitable
// for handing to a browser or curl.
func (c *Client) DownloadURL(q CertificateQuery) string {
	u := c.baseURL + "/certificates/download"
	if values := q.Values(); len(values) > 0 {
		u += "?" + values.Encode()
	}
	return u
}

func (c *Client) get(ctx context.Context, path string, values url.Values, out any) error {
	body, err := c.fetchBytes(ctx, c.requestURL(path, values))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func (c *Client) requestURL(path string, values url.Values) string {
	u := c.baseURL + path
	if len(values) > 0 {
		u += "?" + values.Encode()
	}
	return u
}

// fetchBytes performs one GET and returns the raw body. It is also the
// fetch function behind the stale-while-revalidate wrapper.
func (c *Client) fetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", url, err)
	}
	return body, nil
}
