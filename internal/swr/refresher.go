package swr

import (
	"context"
	"log/slog"
	"time"
)

const refreshTimeout = 30 * time.Second

// Refresher keeps a fixed set of URLs warm by refetching them on a
// ticker, so interactive reads rarely pay a synchronous fetch.
type Refresher struct {
	cache    *Cache
	urls     []string
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewRefresher(cache *Cache, urls []string, interval time.Duration) *Refresher {
	return &Refresher{
		cache:    cache,
		urls:     urls,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *Refresher) Start() {
	slog.Info("starting background refresher", "urls", len(r.urls), "interval", r.interval)
	go r.run()
}

func (r *Refresher) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.refresh()
		}
	}
}

func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	for _, url := range r.urls {
		value, err := r.cache.fetchWithRetry(ctx, url)
		if err != nil {
			slog.Warn("background refresh failed", "url", url, "error", err)
			continue
		}
		r.cache.Store(url, value)
	}
}

// Stop halts the ticker loop and waits for the current pass to finish,
// bounded by ctx.
func (r *Refresher) Stop(ctx context.Context) error {
	close(r.stop)
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
