// Package cache provides the server-side response cache fronting the
// MongoDB aggregation queries. Entries are grouped into namespaces with
// per-namespace TTLs and keyed by a digest of the query parameters.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// TTLs holds the per-namespace expiry. First-page certificate listings
// live longer than deeper pages since they take nearly all the traffic.
var TTLs = map[string]time.Duration{
	"metrics":            5 * time.Minute,
	"certificates":       5 * time.Minute,
	"certificates_page1": 15 * time.Minute,
	"ca_analytics":       8 * time.Minute,
	"encryption":         8 * time.Minute,
	"validity_trends":    8 * time.Minute,
	"geographic":         8 * time.Minute,
	"future_risk":        8 * time.Minute,
	"notifications":      2 * time.Minute,
	"unique_filters":     8 * time.Minute,
}

const defaultTTL = 5 * time.Minute

// TTLFor returns the configured TTL for a namespace.
func TTLFor(namespace string) time.Duration {
	if ttl, ok := TTLs[namespace]; ok {
		return ttl
	}
	return defaultTTL
}

// Stats summarizes the cache contents for the admin endpoint.
type Stats struct {
	Status      string         `json:"status"`
	TotalKeys   int            `json:"totalKeys"`
	ByNamespace map[string]int `json:"byNamespace,omitempty"`
	Reason      string         `json:"reason,omitempty"`
}

// Cache is the response cache consumed by the handlers. Implementations
// must treat every failure as a miss so the API keeps serving from the
// database when the cache backend is down.
type Cache interface {
	Get(ctx context.Context, namespace string, params any) ([]byte, bool)
	Set(ctx context.Context, namespace string, params any, value []byte)
	Invalidate(ctx context.Context, namespace string) error
	Stats(ctx context.Context) Stats
	Close() error
}

// Key builds the cache key: prefix:namespace:digest. The digest covers
// the JSON encoding of params so distinct queries never collide.
func Key(prefix, namespace string, params any) string {
	encoded, err := json.Marshal(params)
	if err != nil {
		encoded = []byte(fmt.Sprintf("%v", params))
	}
	sum := md5.Sum(encoded)
	return fmt.Sprintf("%s:%s:%s", prefix, namespace, hex.EncodeToString(sum[:])[:12])
}

// Nop is the fallback cache used when no backend is configured. All
// reads miss and all writes are discarded.
type Nop struct{}

func (Nop) Get(context.Context, string, any) ([]byte, bool) { return nil, false }
func (Nop) Set(context.Context, string, any, []byte)        {}
func (Nop) Invalidate(context.Context, string) error        { return nil }
func (Nop) Stats(context.Context) Stats {
	return Stats{Status: "unavailable", Reason: "no cache backend configured"}
}
func (Nop) Close() error { return nil }
