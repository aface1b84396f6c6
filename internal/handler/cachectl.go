package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sslguardian/dashboard/internal/cache"
)

// CacheHandler exposes cache introspection and invalidation, used after
// a new crawl lands in the certificates collection.
type CacheHandler struct {
	cache cache.Cache
}

func NewCacheHandler(c cache.Cache) *CacheHandler {
	return &CacheHandler{cache: c}
}

func (h *CacheHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cache/stats", h.Stats)
	r.Post("/cache/invalidate", h.Invalidate)
}

func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Stats(r.Context()))
}

// Invalidate clears the namespaces whose content changes with new scans.
func (h *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	for _, namespace := range []string{"certificates", "certificates_page1", "metrics", "notifications"} {
		if err := h.cache.Invalidate(r.Context(), namespace); err != nil {
			slog.Error("cache invalidation failed", "namespace", namespace, "error", err)
			writeError(w, http.StatusInternalServerError, "cache invalidation failed")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
