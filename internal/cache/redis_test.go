// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test if Redis is not configured.
func skipIfNoRedis(t *testing.T) string {
	t.Helper()
	url := os.Getenv("MC_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: MC_TEST_REDIS_URL not set")
	}
	return url
}

func newTestRedisCache(t *testing.T) *RedisCache {
	t.Helper()
	opts := DefaultRedisCacheOptions()
	opts.URL = skipIfNoRedis(t)
	opts.Prefix = "mc-test:"
	c, err := NewRedisCache(opts)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Clear(context.Background())
		_ = c.Close()
	})
	_ = c.Clear(context.Background())
	return c
}

func TestRedisCache_Basic(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want v", got)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete err = %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_DeletePrefix(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "menu_count:3:count", []byte("1"), 0)
	_ = c.Set(ctx, "menu_count:3:draft", []byte("1"), 0)
	_ = c.Set(ctx, "menu_count:4:count", []byte("1"), 0)

	if err := c.DeletePrefix(ctx, "menu_count:3:"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if _, err := c.Get(ctx, "menu_count:3:count"); !errors.Is(err, ErrCacheMiss) {
		t.Error("menu 3 entry should be gone")
	}
	if _, err := c.Get(ctx, "menu_count:4:count"); err != nil {
		t.Errorf("menu 4 entry should survive: %v", err)
	}
}

func TestNewRedisCache_RequiresURL(t *testing.T) {
	if _, err := NewRedisCache(RedisCacheOptions{}); err == nil {
		t.Error("expected error for empty URL")
	}
}
