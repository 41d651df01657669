// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// LoginProtection combines per-IP rate limiting with per-account lockout.
type LoginProtection struct {
	ipLimiters *limiterCache[string]

	mu       sync.Mutex
	attempts map[string]*loginAttempt

	maxFailed     int
	lockout       time.Duration
	attemptWindow time.Duration
	now           func() time.Time
}

type loginAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	IPRateLimit       float64 // requests per second per IP
	IPBurst           int
	MaxFailedAttempts int
	// LockoutDuration doubles with every repeated lockout, capped at 24h.
	LockoutDuration time.Duration
	AttemptWindow   time.Duration
}

// DefaultLoginProtectionConfig returns sensible defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// NewLoginProtection creates a LoginProtection. Zero fields take the defaults.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}
	return &LoginProtection{
		ipLimiters:    newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		attempts:      make(map[string]*loginAttempt),
		maxFailed:     cfg.MaxFailedAttempts,
		lockout:       cfg.LockoutDuration,
		attemptWindow: cfg.AttemptWindow,
		now:           time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsLocked reports whether email is locked out and for how much longer.
func (lp *LoginProtection) IsLocked(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	a, ok := lp.attempts[normalizeEmail(email)]
	if !ok {
		return false, 0
	}
	if now := lp.now(); now.Before(a.lockedUntil) {
		return true, a.lockedUntil.Sub(now)
	}
	return false, 0
}

// RecordFailure counts a failed login and reports whether it locked the account.
func (lp *LoginProtection) RecordFailure(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	email = normalizeEmail(email)
	now := lp.now()
	a, ok := lp.attempts[email]
	if !ok || now.Sub(a.firstFailed) > lp.attemptWindow {
		if !ok {
			a = &loginAttempt{}
			lp.attempts[email] = a
		}
		a.count = 0
		a.firstFailed = now
	}
	a.count++
	if a.count < lp.maxFailed {
		return false, 0
	}

	d := lp.lockout
	for i := 0; i < a.lockouts && d < 24*time.Hour; i++ {
		d *= 2
	}
	d = min(d, 24*time.Hour)
	a.lockedUntil = now.Add(d)
	a.lockouts++
	a.count = 0

	slog.Warn("account locked due to failed attempts", "email", email, "lockouts", a.lockouts, "duration", d)
	return true, d
}

// RecordSuccess clears the failure history for email.
func (lp *LoginProtection) RecordSuccess(email string) {
	lp.mu.Lock()
	delete(lp.attempts, normalizeEmail(email))
	lp.mu.Unlock()
}

// Prune drops expired attempts and resets the IP limiters once they grow large.
func (lp *LoginProtection) Prune() {
	if lp.ipLimiters.clearIfExceeds(10000) {
		slog.Info("cleared login IP rate limiters due to size")
	}
	now := lp.now()
	lp.mu.Lock()
	for email, a := range lp.attempts {
		if now.After(a.lockedUntil) && now.Sub(a.firstFailed) > lp.attemptWindow {
			delete(lp.attempts, email)
		}
	}
	lp.mu.Unlock()
}

// Middleware rate limits POST requests per client IP.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			ip := GetClientIP(r)
			if !lp.ipLimiters.get(ip).Allow() {
				slog.Warn("login rate limit exceeded", "ip", ip)
				WriteJSONError(w, http.StatusTooManyRequests, "Too many login attempts. Please wait and try again.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
