package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisad "pms_sync/internal/adapters/redis"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	var v bool
	ok, err := c.Get(ctx, "breakfast:mews:R1", &v)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "breakfast:mews:R1", true, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	ok, err = c.Get(ctx, "breakfast:mews:R1", &v)
	if err != nil || !ok || !v {
		t.Fatalf("expected hit=true, got ok=%v v=%v err=%v", ok, v, err)
	}

	if err := c.Del(ctx, "breakfast:mews:R1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "breakfast:mews:R1", &v); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCache_TTLExpires(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 10); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("pms_sync:k") {
		t.Fatalf("expected prefixed key in redis")
	}
	mr.FastForward(11 * time.Second)

	var s string
	if ok, _ := c.Get(ctx, "k", &s); ok {
		t.Fatalf("expected key to expire")
	}
}
