package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sslguardian/dashboard/internal/cache"
	"github.com/sslguardian/dashboard/internal/metrics"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeRawJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// respondCached serves a namespace entry from the response cache when
// present and otherwise computes, stores and serves it. Compute errors
// surface as 500s; cache failures only ever degrade to a miss.
func respondCached(w http.ResponseWriter, r *http.Request, c cache.Cache, namespace string, params any, compute func(ctx context.Context) (any, error)) {
	ctx := r.Context()

	if body, ok := c.Get(ctx, namespace, params); ok {
		metrics.CacheHits.WithLabelValues(namespace).Inc()
		writeRawJSON(w, body)
		return
	}
	metrics.CacheMisses.WithLabelValues(namespace).Inc()

	data, err := compute(ctx)
	if err != nil {
		slog.Error("query failed", "namespace", namespace, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load "+namespace)
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode "+namespace)
		return
	}
	c.Set(ctx, namespace, params, body)
	writeRawJSON(w, body)
}
