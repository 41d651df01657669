// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestMemoryCache(maxSize int) (*MemoryCache, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute, MaxSize: maxSize})
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryCache_SetGet(t *testing.T) {
	c, _ := newTestMemoryCache(0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get(missing) err = %v, want ErrCacheMiss", err)
	}

	value := []byte("42")
	if err := c.Set(ctx, "k", value, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value[0] = 'x'

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "42" {
		t.Errorf("Get = %q, want %q", got, "42")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Sets != 1 || stats.Entries != 1 {
		t.Errorf("Stats = %+v", stats)
	}
	if stats.HitRate != 50 {
		t.Errorf("HitRate = %v, want 50", stats.HitRate)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, now := newTestMemoryCache(0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	_ = c.Set(ctx, "short", []byte("v"), time.Second)
	*now = now.Add(2 * time.Second)

	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expired Get err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	c, _ := newTestMemoryCache(0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	for _, k := range []string{"menu_count:1:count", "menu_count:1:draft", "menu_count:10:count"} {
		_ = c.Set(ctx, k, []byte("1"), 0)
	}
	if err := c.DeletePrefix(ctx, "menu_count:1:"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if _, err := c.Get(ctx, "menu_count:1:draft"); !errors.Is(err, ErrCacheMiss) {
		t.Error("menu 1 entry should be gone")
	}
	if _, err := c.Get(ctx, "menu_count:10:count"); err != nil {
		t.Errorf("menu 10 entry should survive: %v", err)
	}
}

func TestMemoryCache_MaxSizeEvicts(t *testing.T) {
	c, now := newTestMemoryCache(2)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), time.Minute)
	*now = now.Add(time.Second)
	_ = c.Set(ctx, "b", []byte("2"), time.Minute)
	_ = c.Set(ctx, "c", []byte("3"), time.Minute)

	if c.Stats().Entries != 2 {
		t.Errorf("Entries = %d, want 2", c.Stats().Entries)
	}
	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Error("oldest entry should have been evicted")
	}
}

func TestMemoryCache_Closed(t *testing.T) {
	c, _ := newTestMemoryCache(0)
	_ = c.Close()
	_ = c.Close()

	if err := c.Set(context.Background(), "k", nil, 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set after Close err = %v, want ErrCacheClosed", err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute, CleanupInterval: time.Millisecond})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Set(ctx, "k", []byte("v"), 0)
				_, _ = c.Get(ctx, "k")
				_ = c.DeletePrefix(ctx, "k")
			}
		}()
	}
	wg.Wait()
}
