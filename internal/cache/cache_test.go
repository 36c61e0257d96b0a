package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewMemory()
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	val, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(val) != "v" {
		t.Fatalf("expected hit, got %q %v %v", val, ok, err)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	_ = c.Set(ctx, "k", []byte("v"), 0)
	_ = c.Delete(ctx, "k")
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'

	val, _, _ := c.Get(ctx, "k")
	if string(val) != "abc" {
		t.Fatalf("expected stored copy, got %q", val)
	}
}

func TestNoopCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	c := NewNoop()
	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("noop cache should never hit")
	}
}
