package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sslguardian/dashboard/internal/cache"
	"github.com/sslguardian/dashboard/internal/model"
)

type analyticsStore interface {
	CADistribution(ctx context.Context, limit int, global model.FilterOptions) ([]model.CAEntry, error)
	EncryptionStrength(ctx context.Context, global model.FilterOptions) ([]model.EncryptionEntry, error)
	ValidityTrends(ctx context.Context, monthsBefore, monthsAfter int) ([]model.TrendPoint, error)
	GeographicDistribution(ctx context.Context, limit int, global model.FilterOptions) ([]model.GeoEntry, error)
	UniqueFilters(ctx context.Context) (model.UniqueFilters, error)
}

type AnalyticsHandler struct {
	repo  analyticsStore
	cache cache.Cache
}

func NewAnalyticsHandler(repo analyticsStore, c cache.Cache) *AnalyticsHandler {
	return &AnalyticsHandler{repo: repo, cache: c}
}

func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ca-analytics", h.CAAnalytics)
	r.Get("/encryption-strength", h.EncryptionStrength)
	r.Get("/validity-trends", h.ValidityTrends)
	r.Get("/geographic-distribution", h.GeographicDistribution)
	r.Get("/unique-filters", h.UniqueFilters)
}

func (h *AnalyticsHandler) CAAnalytics(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 10)
	global := parseGlobalFilter(r)

	params := struct {
		Limit  int
		Global model.FilterOptions
	}{limit, global}
	respondCached(w, r, h.cache, "ca_analytics", params, func(ctx context.Context) (any, error) {
		return h.repo.CADistribution(ctx, limit, global)
	})
}

func (h *AnalyticsHandler) EncryptionStrength(w http.ResponseWriter, r *http.Request) {
	global := parseGlobalFilter(r)

	respondCached(w, r, h.cache, "encryption", global, func(ctx context.Context) (any, error) {
		return h.repo.EncryptionStrength(ctx, global)
	})
}

func (h *AnalyticsHandler) ValidityTrends(w http.ResponseWriter, r *http.Request) {
	before := intParam(r, "months_before", 4)
	after := intParam(r, "months_after", 4)
	if before < 0 || before > 24 {
		before = 4
	}
	if after < 0 || after > 24 {
		after = 4
	}

	params := struct{ Before, After int }{before, after}
	respondCached(w, r, h.cache, "validity_trends", params, func(ctx context.Context) (any, error) {
		return h.repo.ValidityTrends(ctx, before, after)
	})
}

func (h *AnalyticsHandler) GeographicDistribution(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 10)
	global := parseGlobalFilter(r)

	params := struct {
		Limit  int
		Global model.FilterOptions
	}{limit, global}
	respondCached(w, r, h.cache, "geographic", params, func(ctx context.Context) (any, error) {
		return h.repo.GeographicDistribution(ctx, limit, global)
	})
}

func (h *AnalyticsHandler) UniqueFilters(w http.ResponseWriter, r *http.Request) {
	respondCached(w, r, h.cache, "unique_filters", struct{}{}, func(ctx context.Context) (any, error) {
		return h.repo.UniqueFilters(ctx)
	})
}
