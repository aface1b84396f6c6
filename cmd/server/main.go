package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sslguardian/dashboard/internal/cache"
	"github.com/sslguardian/dashboard/internal/config"
	"github.com/sslguardian/dashboard/internal/database"
	"github.com/sslguardian/dashboard/internal/handler"
	"github.com/sslguardian/dashboard/internal/middleware"
	"github.com/sslguardian/dashboard/internal/repository"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()

	// Database
	client, err := database.Connect(cfg.MongoURL)
	if err != nil {
		slog.Error("mongodb connection failed", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	coll := client.Database(cfg.MongoDatabase).Collection(database.CertificatesCollection)
	if err := database.EnsureIndexes(context.Background(), coll); err != nil {
		slog.Error("index creation failed", "error", err)
		os.Exit(1)
	}

	// Cache, optional: the API serves straight from MongoDB without it.
	var responseCache cache.Cache = cache.Nop{}
	if cfg.ValkeyAddr != "" {
		vc, err := cache.NewValkey(cfg.ValkeyAddr, cfg.CacheKeyPrefix)
		if err != nil {
			slog.Warn("valkey unavailable, running without cache", "addr", cfg.ValkeyAddr, "error", err)
		} else {
			responseCache = vc
		}
	}
	defer responseCache.Close()

	// Repository
	certRepo := repository.NewCertificateRepository(coll)

	// Handlers
	certHandler := handler.NewCertificateHandler(certRepo, responseCache)
	analyticsHandler := handler.NewAnalyticsHandler(certRepo, responseCache)
	dashboardHandler := handler.NewDashboardHandler(certRepo, responseCache)
	notificationHandler := handler.NewNotificationHandler(certRepo, responseCache)
	cacheHandler := handler.NewCacheHandler(responseCache)

	// Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.CORSAllowOrigin))
	r.Use(chiMiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	r.Route("/api", func(r chi.Router) {
		certHandler.RegisterRoutes(r)
		analyticsHandler.RegisterRoutes(r)
		dashboardHandler.RegisterRoutes(r)
		notificationHandler.RegisterRoutes(r)
		cacheHandler.RegisterRoutes(r)
	})
	r.Handle("/metrics", promhttp.Handler())

	// Server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "port", cfg.ServerPort, "database", cfg.MongoDatabase)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	// Give in-flight requests time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
