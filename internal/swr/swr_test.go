package swr

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a settable clock safe to share with background
// revalidations.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestGet_ColdMissFetchesSynchronously(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		return []byte(`{"ok":true}`), nil
	}
	cache := New(fetch, Options{Interval: time.Minute, Now: newFakeClock().Now})

	res := cache.Get(context.Background(), "http://api/certificates")
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if string(res.Value) != `{"ok":true}` {
		t.Errorf("value = %q", res.Value)
	}
	if res.Stale {
		t.Error("freshly fetched entry should not be stale")
	}
	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", calls.Load())
	}
}

func TestGet_ConcurrentColdMissSharesOneFetch(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		close(started)
		<-release
		return []byte("v1"), nil
	}
	cache := New(fetch, Options{Interval: time.Minute, Now: newFakeClock().Now})

	first := make(chan Result)
	go func() {
		first <- cache.Get(context.Background(), "http://api/certificates")
	}()
	<-started

	// A second reader arrives while the first fetch is still in flight.
	second := make(chan Result)
	go func() {
		second <- cache.Get(context.Background(), "http://api/certificates")
	}()

	close(release)
	for _, res := range []Result{<-first, <-second} {
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if string(res.Value) != "v1" {
			t.Errorf("value = %q, want the shared fetch result", res.Value)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", calls.Load())
	}
}

func TestGet_ConcurrentColdMissHonorsContext(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context, url string) ([]byte, error) {
		close(started)
		<-release
		return []byte("v1"), nil
	}
	cache := New(fetch, Options{Interval: time.Minute, Now: newFakeClock().Now})

	first := make(chan Result)
	go func() {
		first <- cache.Get(context.Background(), "http://api/metrics")
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := cache.Get(ctx, "http://api/metrics")
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", res.Err)
	}

	close(release)
	<-first
}

func TestGet_FreshHitSkipsFetch(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		return []byte("v1"), nil
	}
	cache := New(fetch, Options{Interval: time.Minute, Now: newFakeClock().Now})

	cache.Get(context.Background(), "http://api/metrics")
	cache.Get(context.Background(), "http://api/metrics")
	cache.Get(context.Background(), "http://api/metrics")

	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", calls.Load())
	}
}

func TestGet_StaleServesImmediatelyAndRevalidatesOnce(t *testing.T) {
	clock := newFakeClock()
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("v2"), nil
	}
	cache := New(fetch, Options{Interval: time.Minute, Now: clock.Now})
	cache.Store("http://api/metrics", []byte("v1"))

	clock.Advance(2 * time.Minute)

	// Two stale reads share one in-flight revalidation.
	res1 := cache.Get(context.Background(), "http://api/metrics")
	res2 := cache.Get(context.Background(), "http://api/metrics")

	if string(res1.Value) != "v1" || string(res2.Value) != "v1" {
		t.Errorf("stale reads = %q, %q, want v1", res1.Value, res2.Value)
	}
	if !res1.Stale {
		t.Error("read past the interval should be flagged stale")
	}

	close(release)
	cache.Wait()

	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want exactly 1 revalidation", calls.Load())
	}

	res3 := cache.Get(context.Background(), "http://api/metrics")
	if string(res3.Value) != "v2" {
		t.Errorf("post-revalidation value = %q, want v2", res3.Value)
	}
	if res3.Err != nil {
		t.Errorf("unexpected error: %v", res3.Err)
	}
}

func TestGet_ColdMissRetriesWithBackoff(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	}
	cache := New(fetch, Options{
		Interval: time.Minute,
		Retries:  2,
		Backoff:  time.Millisecond,
		Now:      newFakeClock().Now,
	})

	res := cache.Get(context.Background(), "http://api/down")
	if res.Err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if res.Value != nil {
		t.Errorf("value = %q, want nil", res.Value)
	}
	if calls.Load() != 3 {
		t.Errorf("fetch calls = %d, want 1 + 2 retries", calls.Load())
	}
}

func TestGet_StaleValueSurvivesFailedRevalidation(t *testing.T) {
	clock := newFakeClock()
	fetch := func(ctx context.Context, url string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	cache := New(fetch, Options{
		Interval: time.Minute,
		Retries:  1,
		Backoff:  time.Millisecond,
		Now:      clock.Now,
	})
	cache.Store("http://api/metrics", []byte("v1"))

	clock.Advance(2 * time.Minute)
	cache.Get(context.Background(), "http://api/metrics")
	cache.Wait()

	res := cache.Get(context.Background(), "http://api/metrics")
	if string(res.Value) != "v1" {
		t.Errorf("value = %q, want the stale v1 to stay visible", res.Value)
	}
	if res.Err == nil {
		t.Error("expected the revalidation failure to surface in Err")
	}
	cache.Wait()
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		return []byte("v"), nil
	}
	cache := New(fetch, Options{Interval: time.Minute, Now: newFakeClock().Now})

	cache.Get(context.Background(), "http://api/metrics")
	cache.Invalidate("http://api/metrics")
	cache.Get(context.Background(), "http://api/metrics")

	if calls.Load() != 2 {
		t.Errorf("fetch calls = %d, want 2", calls.Load())
	}
}

func TestRefresher_StopRespectsContext(t *testing.T) {
	fetch := func(ctx context.Context, url string) ([]byte, error) {
		return []byte("v"), nil
	}
	cache := New(fetch, Options{Interval: time.Minute})
	r := NewRefresher(cache, []string{"http://api/metrics"}, 10*time.Millisecond)
	r.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop returned %v", err)
	}

	if res := cache.Get(context.Background(), "http://api/metrics"); string(res.Value) != "v" {
		t.Errorf("refresher did not prime the cache, value = %q", res.Value)
	}
}
