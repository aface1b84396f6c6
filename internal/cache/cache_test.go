package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	params := map[string]int{"page": 1, "size": 10}

	k1 := Key("ssl_guardian", "certificates", params)
	k2 := Key("ssl_guardian", "certificates", map[string]int{"page": 1, "size": 10})
	if k1 != k2 {
		t.Errorf("identical params produced different keys: %q vs %q", k1, k2)
	}

	if !strings.HasPrefix(k1, "ssl_guardian:certificates:") {
		t.Errorf("key %q missing prefix:namespace", k1)
	}

	digest := strings.TrimPrefix(k1, "ssl_guardian:certificates:")
	if len(digest) != 12 {
		t.Errorf("digest length = %d, want 12", len(digest))
	}

	k3 := Key("ssl_guardian", "certificates", map[string]int{"page": 2, "size": 10})
	if k1 == k3 {
		t.Error("distinct params must produce distinct keys")
	}
}

func TestTTLFor(t *testing.T) {
	if got := TTLFor("certificates_page1"); got != 15*time.Minute {
		t.Errorf("TTLFor(certificates_page1) = %v, want 15m", got)
	}
	if got := TTLFor("notifications"); got != 2*time.Minute {
		t.Errorf("TTLFor(notifications) = %v, want 2m", got)
	}
	if got := TTLFor("unheard-of"); got != defaultTTL {
		t.Errorf("TTLFor(unknown) = %v, want default %v", got, defaultTTL)
	}
}

func TestNopCache(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()

	c.Set(ctx, "metrics", nil, []byte("ignored"))
	if _, ok := c.Get(ctx, "metrics", nil); ok {
		t.Error("Nop cache should always miss")
	}
	if err := c.Invalidate(ctx, "metrics"); err != nil {
		t.Errorf("Invalidate returned %v, want nil", err)
	}
	if stats := c.Stats(ctx); stats.Status != "unavailable" {
		t.Errorf("Stats.Status = %q, want unavailable", stats.Status)
	}
}
