// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads service configuration from MC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains example secrets that must never be used.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"MC_DB_PATH" envDefault:"./data/menucleaner.db"`
	SessionSecret string `env:"MC_SESSION_SECRET,required"`
	ServerHost    string `env:"MC_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"MC_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"MC_ENV" envDefault:"development"`
	LogLevel      string `env:"MC_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"MC_REDIS_URL"`                        // Optional Redis URL for shared menu counts
	CachePrefix  string `env:"MC_CACHE_PREFIX" envDefault:"mc:"`    // Redis key prefix
	CacheTTL     int    `env:"MC_CACHE_TTL" envDefault:"300"`       // Cache TTL in seconds
	CacheMaxSize int    `env:"MC_CACHE_MAX_SIZE" envDefault:"1000"` // Max memory cache entries

	// Cleaner behaviour
	DefaultBatchSize     int `env:"MC_DEFAULT_BATCH_SIZE" envDefault:"10"`
	HistoryRetentionDays int `env:"MC_HISTORY_RETENTION_DAYS" envDefault:"90"` // 0 disables pruning
	EventRetentionDays   int `env:"MC_EVENT_RETENTION_DAYS" envDefault:"30"`

	// API rate limit per key
	APIRateLimit float64 `env:"MC_API_RATE_LIMIT" envDefault:"5"`
	APIRateBurst int     `env:"MC_API_RATE_BURST" envDefault:"10"`

	// Seeding configuration
	DoSeed   bool `env:"MC_DO_SEED" envDefault:"false"`   // Create the default admin user
	DemoSeed bool `env:"MC_DEMO_SEED" envDefault:"false"` // Create demo menus and items
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns the cache TTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// HistoryRetention returns how long restored history is kept, zero for forever.
func (c Config) HistoryRetention() time.Duration {
	return time.Duration(c.HistoryRetentionDays) * 24 * time.Hour
}

// EventRetention returns how long event log rows are kept.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("MC_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("MC_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}
	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return errors.New("MC_SESSION_SECRET is a known default value and must not be used")
		}
	}
	if c.DefaultBatchSize < 1 || c.DefaultBatchSize > 50 {
		return fmt.Errorf("MC_DEFAULT_BATCH_SIZE must be between 1 and 50, got %d", c.DefaultBatchSize)
	}
	if c.HistoryRetentionDays < 0 || c.EventRetentionDays < 0 {
		return errors.New("retention days must not be negative")
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
