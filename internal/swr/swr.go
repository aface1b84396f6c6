// Package swr is a stale-while-revalidate response cache keyed by
// request URL. Reads always return immediately: a fresh entry as-is, a
// stale entry together with one background revalidation, and only a
// cold miss blocks on the network.
package swr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// FetchFunc loads the raw response body for a URL.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

const (
	defaultInterval  = time.Minute
	defaultRetries   = 2
	defaultBackoff   = 500 * time.Millisecond
	revalidateWindow = 30 * time.Second
)

// Options tune a Cache. Zero fields fall back to package defaults.
type Options struct {
	// Interval is the default age past which an entry is considered
	// stale. GetWithInterval overrides it per key.
	Interval time.Duration
	// Retries is the number of additional attempts after a failed
	// fetch; Backoff is the fixed pause between attempts.
	Retries int
	Backoff time.Duration
	// Now lets tests control the clock.
	Now func() time.Time
}

// Result is what a read observes. Err carries the most recent fetch
// failure and persists alongside the stale value until a fetch
// succeeds again.
type Result struct {
	Value     []byte
	Err       error
	Stale     bool
	FetchedAt time.Time
}

type entry struct {
	value     []byte
	err       error
	fetchedAt time.Time
	interval  time.Duration
	inflight  bool
	// done is closed when a cold-miss fetch finishes, so concurrent
	// readers of a key that has never loaded can wait for its result.
	done chan struct{}
}

type Cache struct {
	fetch    FetchFunc
	now      func() time.Time
	interval time.Duration
	retries  int
	backoff  time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	wg      sync.WaitGroup
}

func New(fetch FetchFunc, opts Options) *Cache {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		fetch:    fetch,
		now:      opts.Now,
		interval: opts.Interval,
		retries:  opts.Retries,
		backoff:  opts.Backoff,
		entries:  make(map[string]*entry),
	}
}

// Get reads url with the cache's default staleness interval.
func (c *Cache) Get(ctx context.Context, url string) Result {
	return c.GetWithInterval(ctx, url, 0)
}

// GetWithInterval reads url, treating entries older than interval as
// stale. A stale read returns the cached value immediately and spawns
// at most one background revalidation; concurrent stale reads of the
// same key share that one revalidation.
func (c *Cache) GetWithInterval(ctx context.Context, url string, interval time.Duration) Result {
	if interval <= 0 {
		interval = c.interval
	}

	c.mu.Lock()
	e, ok := c.entries[url]
	if !ok {
		e = &entry{interval: interval}
		c.entries[url] = e
	}
	e.interval = interval

	if e.value == nil && !e.inflight {
		// Cold miss: fetch synchronously so the caller never sees an
		// empty result for a key that has simply not loaded yet.
		e.inflight = true
		e.done = make(chan struct{})
		c.mu.Unlock()

		value, err := c.fetchWithRetry(ctx, url)

		c.mu.Lock()
		e.inflight = false
		if err == nil {
			e.value = value
			e.fetchedAt = c.now()
		}
		e.err = err
		close(e.done)
		res := c.resultLocked(e)
		c.mu.Unlock()
		return res
	}

	if e.value == nil && e.inflight {
		// Another reader owns the cold-miss fetch; wait for its result
		// instead of reporting an empty value with no error.
		done := e.done
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return Result{Err: ctx.Err()}
		}
		c.mu.Lock()
		res := c.resultLocked(e)
		c.mu.Unlock()
		return res
	}

	if c.staleLocked(e) && !e.inflight {
		e.inflight = true
		c.wg.Add(1)
		go c.revalidate(url)
	}

	res := c.resultLocked(e)
	c.mu.Unlock()
	return res
}

func (c *Cache) staleLocked(e *entry) bool {
	if e.fetchedAt.IsZero() {
		return true
	}
	return c.now().Sub(e.fetchedAt) > e.interval
}

func (c *Cache) resultLocked(e *entry) Result {
	return Result{
		Value:     e.value,
		Err:       e.err,
		Stale:     c.staleLocked(e),
		FetchedAt: e.fetchedAt,
	}
}

func (c *Cache) revalidate(url string) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), revalidateWindow)
	defer cancel()

	value, err := c.fetchWithRetry(ctx, url)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[url]
	if !ok {
		return
	}
	e.inflight = false
	if err != nil {
		// Keep serving the stale value; the error rides along with it.
		e.err = err
		slog.Warn("revalidation failed", "url", url, "error", err)
		return
	}
	e.value = value
	e.err = nil
	e.fetchedAt = c.now()
}

func (c *Cache) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff):
			}
		}
		value, err := c.fetch(ctx, url)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetching %s: %w", url, lastErr)
}

// Invalidate drops one key; the next read refetches synchronously.
func (c *Cache) Invalidate(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
}

// Store primes a key without a fetch, used by the periodic refresher.
func (c *Cache) Store(url string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[url]
	if !ok {
		e = &entry{interval: c.interval}
		c.entries[url] = e
	}
	e.value = value
	e.err = nil
	e.fetchedAt = c.now()
}

// Wait blocks until all in-flight background revalidations finish.
// Intended for tests and shutdown.
func (c *Cache) Wait() {
	c.wg.Wait()
}
