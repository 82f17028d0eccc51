package rediscache

import (
	"context"
	"os"
	"testing"
	"time"

	"physquiz/internal/domain"
)

// openTestCache connects to PHYSQUIZ_TEST_REDIS_ADDR, skipping when unset.
func openTestCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("PHYSQUIZ_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PHYSQUIZ_TEST_REDIS_ADDR not set")
	}
	client, err := Dial(context.Background(), addr, "", 0)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	prefix := "physquiz-test:" + t.Name() + ":"
	c := New(client, prefix, time.Minute)
	t.Cleanup(func() {
		_ = c.Invalidate(context.Background(), domain.Modes...)
		_ = client.Close()
	})
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, domain.ModeBasics, 10); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	rows := []domain.ScoreRow{
		{UserID: 1, Username: "A", Mode: domain.ModeBasics, HighScore: 3},
		{UserID: 2, Username: "B", Mode: domain.ModeBasics, HighScore: 2},
	}
	if err := c.Put(ctx, domain.ModeBasics, 10, rows); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.Put(ctx, domain.ModeBasics, 1, rows[:1]); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := c.Get(ctx, domain.ModeBasics, 10)
	if err != nil || !ok || len(got) != 2 || got[0] != rows[0] || got[1] != rows[1] {
		t.Fatalf("unexpected cached rows %+v ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := c.Get(ctx, domain.ModeTrig, 10); ok {
		t.Fatal("cache leaked across modes")
	}

	if err := c.Invalidate(ctx, domain.ModeBasics); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	for _, limit := range []int{1, 10} {
		if _, ok, _ := c.Get(ctx, domain.ModeBasics, limit); ok {
			t.Fatalf("limit %d survived invalidation", limit)
		}
	}
}

func TestNewDefaultsTTL(t *testing.T) {
	if c := New(nil, "", 0); c.ttl != DefaultTTL {
		t.Fatalf("expected default ttl, got %v", c.ttl)
	}
}
