// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/olegiv/menu-cleaner/internal/model"
	"github.com/olegiv/menu-cleaner/internal/store"
)

// APIKeyAuth requires a valid "Authorization: Bearer <key>" header.
func APIKeyAuth(db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, rawKey, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(rawKey) == "" {
				WriteJSONError(w, http.StatusUnauthorized, "Missing or malformed bearer token.")
				return
			}

			row, err := queries.GetAPIKeyByHash(r.Context(), model.HashAPIKey(strings.TrimSpace(rawKey)))
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					WriteJSONError(w, http.StatusUnauthorized, "Invalid API key.")
					return
				}
				slog.Error("failed to validate API key", "error", err)
				WriteJSONError(w, http.StatusInternalServerError, "Failed to validate API key.")
				return
			}

			key := toModelKey(row)
			if !key.IsValid() {
				WriteJSONError(w, http.StatusUnauthorized, "API key is inactive or expired.")
				return
			}

			touchAPIKey(queries, key.ID)
			ctx := context.WithValue(r.Context(), ContextKeyAPIKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func toModelKey(k store.ApiKey) model.APIKey {
	return model.APIKey{
		ID:          k.ID,
		Name:        k.Name,
		KeyHash:     k.KeyHash,
		KeyPrefix:   k.KeyPrefix,
		Permissions: k.Permissions,
		LastUsedAt:  k.LastUsedAt,
		ExpiresAt:   k.ExpiresAt,
		IsActive:    k.IsActive,
		CreatedAt:   k.CreatedAt,
	}
}

// touchAPIKey records last use without delaying the request.
func touchAPIKey(queries *store.Queries, id int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queries.UpdateAPIKeyLastUsed(ctx, store.UpdateAPIKeyLastUsedParams{
			LastUsedAt: sql.NullTime{Time: time.Now().UTC(), Valid: true},
			ID:         id,
		})
	}()
}

// GetAPIKey returns the authenticated API key, or nil.
func GetAPIKey(r *http.Request) *model.APIKey {
	key, ok := r.Context().Value(ContextKeyAPIKey).(model.APIKey)
	if !ok {
		return nil
	}
	return &key
}

// RequirePermission requires the API key to hold permission. Use after APIKeyAuth.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetAPIKey(r)
			if key == nil {
				WriteJSONError(w, http.StatusUnauthorized, "API key required.")
				return
			}
			if !key.HasPermission(permission) {
				WriteJSONError(w, http.StatusForbidden, "API key lacks required permission: "+permission)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limiterCache hands out one token bucket per key.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()
	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds resets the cache once it grows past maxSize.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

// APIRateLimit limits requests per API key. Requests without a key pass.
func APIRateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiters := newLimiterCache[int64](rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetAPIKey(r)
			if key != nil && !limiters.get(key.ID).Allow() {
				w.Header().Set("Retry-After", "1")
				WriteJSONError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
