package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sslguardian/dashboard/internal/cache"
	"github.com/sslguardian/dashboard/internal/model"
)

type notificationStore interface {
	Notifications(ctx context.Context) (model.NotificationList, error)
}

type NotificationHandler struct {
	repo  notificationStore
	cache cache.Cache
}

func NewNotificationHandler(repo notificationStore, c cache.Cache) *NotificationHandler {
	return &NotificationHandler{repo: repo, cache: c}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.List)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	respondCached(w, r, h.cache, "notifications", struct{}{}, func(ctx context.Context) (any, error) {
		return h.repo.Notifications(ctx)
	})
}
