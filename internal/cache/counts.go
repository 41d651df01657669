// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// CountCache caches per-menu item counts keyed by mode.
type CountCache struct {
	c   Cacher
	ttl time.Duration
}

// NewCountCache wraps c. A zero ttl uses the backend default.
func NewCountCache(c Cacher, ttl time.Duration) *CountCache {
	return &CountCache{c: c, ttl: ttl}
}

func menuPrefix(menuID int64) string {
	return "menu_count:" + strconv.FormatInt(menuID, 10) + ":"
}

func countKey(menuID int64, mode string) string {
	return menuPrefix(menuID) + mode
}

// GetOrLoad returns the cached count or calls load and caches its result.
// Cache failures fall through to load.
func (cc *CountCache) GetOrLoad(ctx context.Context, menuID int64, mode string, load func(context.Context) (int, error)) (int, error) {
	key := countKey(menuID, mode)

	b, err := cc.c.Get(ctx, key)
	if err == nil {
		if n, convErr := strconv.Atoi(string(b)); convErr == nil {
			return n, nil
		}
		_ = cc.c.Delete(ctx, key)
	} else if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("count cache read failed", "key", key, "error", err)
	}

	n, err := load(ctx)
	if err != nil {
		return 0, err
	}
	if err := cc.c.Set(ctx, key, []byte(strconv.Itoa(n)), cc.ttl); err != nil {
		slog.Warn("count cache write failed", "key", key, "error", err)
	}
	return n, nil
}

// Invalidate drops every cached count for menuID.
func (cc *CountCache) Invalidate(ctx context.Context, menuID int64) error {
	if err := cc.c.DeletePrefix(ctx, menuPrefix(menuID)); err != nil {
		return fmt.Errorf("invalidating counts for menu %d: %w", menuID, err)
	}
	return nil
}

// InvalidateAll drops the cached counts of every menu.
func (cc *CountCache) InvalidateAll(ctx context.Context) error {
	if err := cc.c.DeletePrefix(ctx, "menu_count:"); err != nil {
		return fmt.Errorf("invalidating menu counts: %w", err)
	}
	return nil
}
