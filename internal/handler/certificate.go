package handler

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sslguardian/dashboard/internal/cache"
	"github.com/sslguardian/dashboard/internal/export"
	"github.com/sslguardian/dashboard/internal/model"
	"github.com/sslguardian/dashboard/internal/repository"
)

type certificateStore interface {
	List(ctx context.Context, q repository.ListQuery) (model.CertificatePage, error)
	GetByID(ctx context.Context, id string) (model.Certificate, error)
	Stream(ctx context.Context, q repository.ListQuery, fn func(model.Certificate) error) error
}

type CertificateHandler struct {
	repo  certificateStore
	cache cache.Cache
}

func NewCertificateHandler(repo certificateStore, c cache.Cache) *CertificateHandler {
	return &CertificateHandler{repo: repo, cache: c}
}

func (h *CertificateHandler) RegisterRoutes(r chi.Router) {
	r.Get("/certificates", h.List)
	r.Get("/certificates/download", h.Download)
	r.Get("/certificates/{id}", h.Detail)
}

func (h *CertificateHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)

	namespace := "certificates"
	if q.Page == 1 {
		namespace = "certificates_page1"
	}
	respondCached(w, r, h.cache, namespace, q, func(ctx context.Context) (any, error) {
		return h.repo.List(ctx, q)
	})
}

func (h *CertificateHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cert, err := h.repo.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "certificate not found")
		return
	}
	if err != nil {
		slog.Error("certificate lookup failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load certificate")
		return
	}
	writeJSON(w, http.StatusOK, cert)
}

// Download streams every certificate matching the active filter as CSV.
// Not cached: result sets can be arbitrarily large and the writer is
// already incremental.
func (h *CertificateHandler) Download(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadFilename(q)+".csv"))
	w.Header().Set("Cache-Control", "no-cache")

	writer := csv.NewWriter(w)

	err := writer.Write(export.Columns)
	if err == nil {
		err = h.repo.Stream(r.Context(), q, func(cert model.Certificate) error {
			return writer.Write(export.Record(cert))
		})
	}
	if err != nil {
		// Headers are gone; the truncated body is all we can signal with.
		slog.Error("certificate download aborted", "error", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Error("certificate download flush failed", "error", err)
	}
}

// downloadFilename derives a filename from the most specific active
// filter, e.g. expired_certificates.csv.
func downloadFilename(q repository.ListQuery) string {
	sanitize := func(s string) string {
		s = strings.ReplaceAll(strings.ReplaceAll(s, " ", "_"), "'", "")
		if len(s) > 20 {
			s = s[:20]
		}
		return strings.ToLower(s)
	}
	switch {
	case q.Status != "":
		return sanitize(string(q.Status)) + "_certificates"
	case q.Issuer != "":
		return sanitize(q.Issuer) + "_certificates"
	case q.Country != "":
		return sanitize(q.Country) + "_certificates"
	case q.HasVulnerabilities:
		return "vulnerable_certificates"
	default:
		return "certificates"
	}
}
