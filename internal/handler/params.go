package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sslguardian/dashboard/internal/model"
	"github.com/sslguardian/dashboard/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func intParam(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func boolParam(r *http.Request, key string) bool {
	return strings.EqualFold(r.URL.Query().Get(key), "true")
}

// csvParam splits a comma-separated multi-select parameter.
func csvParam(r *http.Request, key string) []string {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// parseListQuery reads every certificate listing filter from the query
// string. Invalid numbers fall back to defaults; page and page_size are
// clamped to sane bounds.
func parseListQuery(r *http.Request) repository.ListQuery {
	page := intParam(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := intParam(r, "page_size", defaultPageSize)
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	q := r.URL.Query()
	return repository.ListQuery{
		Page:               page,
		PageSize:           pageSize,
		Status:             model.Status(q.Get("status")),
		Country:            q.Get("country"),
		Issuer:             q.Get("issuer"),
		Search:             q.Get("search"),
		EncryptionType:     q.Get("encryption_type"),
		HasVulnerabilities: boolParam(r, "has_vulnerabilities"),
		ExpiringMonth:      intParam(r, "expiring_month", 0),
		ExpiringYear:       intParam(r, "expiring_year", 0),
		ExpiringDays:       intParam(r, "expiring_days", 0),
		IssuedMonth:        intParam(r, "issued_month", 0),
		IssuedYear:         intParam(r, "issued_year", 0),
		Global:             parseGlobalFilter(r),
	}
}

// parseGlobalFilter reads the multi-select filters shared by every
// dashboard page.
func parseGlobalFilter(r *http.Request) model.FilterOptions {
	q := r.URL.Query()
	var statuses []model.Status
	for _, s := range csvParam(r, "statuses") {
		statuses = append(statuses, model.Status(s))
	}
	return model.FilterOptions{
		StartDate:        q.Get("start_date"),
		EndDate:          q.Get("end_date"),
		Statuses:         statuses,
		Grades:           csvParam(r, "grades"),
		Issuers:          csvParam(r, "issuers"),
		Countries:        csvParam(r, "countries"),
		ValidationLevels: csvParam(r, "validation_levels"),
	}
}
