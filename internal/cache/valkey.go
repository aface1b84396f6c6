package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	valkey "github.com/valkey-io/valkey-go"
)

const pingTimeout = 2 * time.Second

// ValkeyCache implements Cache on a Valkey server. Errors are logged and
// degraded to misses; the dashboard must never fail because the cache did.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkey connects to the given address and verifies it with a PING.
func NewValkey(addr, prefix string) (*ValkeyCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}
	return &ValkeyCache{client: client, prefix: prefix}, nil
}

func (c *ValkeyCache) Get(ctx context.Context, namespace string, params any) ([]byte, bool) {
	key := Key(c.prefix, namespace, params)
	resp := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if err := resp.Error(); err != nil {
		if !valkey.IsValkeyNil(err) {
			slog.Error("cache get failed", "namespace", namespace, "error", err)
		}
		return nil, false
	}
	value, err := resp.AsBytes()
	if err != nil {
		slog.Error("cache value decode failed", "namespace", namespace, "error", err)
		return nil, false
	}
	return value, true
}

func (c *ValkeyCache) Set(ctx context.Context, namespace string, params any, value []byte) {
	key := Key(c.prefix, namespace, params)
	cmd := c.client.B().Set().Key(key).Value(string(value)).Ex(TTLFor(namespace)).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		slog.Error("cache set failed", "namespace", namespace, "error", err)
	}
}

// Invalidate removes every entry in a namespace, e.g. after a new scan
// lands in the certificates collection.
func (c *ValkeyCache) Invalidate(ctx context.Context, namespace string) error {
	keys, err := c.keys(ctx, c.prefix+":"+namespace+":*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Do(ctx, c.client.B().Del().Key(keys...).Build()).Error()
}

func (c *ValkeyCache) Stats(ctx context.Context) Stats {
	keys, err := c.keys(ctx, c.prefix+":*")
	if err != nil {
		return Stats{Status: "error", Reason: err.Error()}
	}
	byNamespace := make(map[string]int)
	for _, key := range keys {
		parts := strings.Split(key, ":")
		if len(parts) >= 2 {
			byNamespace[parts[1]]++
		}
	}
	return Stats{Status: "connected", TotalKeys: len(keys), ByNamespace: byNamespace}
}

func (c *ValkeyCache) keys(ctx context.Context, pattern string) ([]string, error) {
	resp := c.client.Do(ctx, c.client.B().Keys().Pattern(pattern).Build())
	if err := resp.Error(); err != nil {
		return nil, err
	}
	return resp.AsStrSlice()
}

func (c *ValkeyCache) Close() error {
	c.client.Close()
	return nil
}
