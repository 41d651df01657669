// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "test-Secret-key-32-bytes-long!!!"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MC_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/menucleaner.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/menucleaner.db")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.DefaultBatchSize != 10 {
		t.Errorf("DefaultBatchSize = %d, want 10", cfg.DefaultBatchSize)
	}
	if cfg.HistoryRetention() != 90*24*time.Hour {
		t.Errorf("HistoryRetention() = %v", cfg.HistoryRetention())
	}
	if cfg.UseRedisCache() {
		t.Error("UseRedisCache() = true without MC_REDIS_URL")
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false by default")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("MC_SESSION_SECRET", testSecret)
	t.Setenv("MC_DB_PATH", "/custom/path.db")
	t.Setenv("MC_SERVER_HOST", "0.0.0.0")
	t.Setenv("MC_SERVER_PORT", "3000")
	t.Setenv("MC_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("MC_DEFAULT_BATCH_SIZE", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if !cfg.UseRedisCache() {
		t.Error("UseRedisCache() = false")
	}
	if cfg.DefaultBatchSize != 25 {
		t.Errorf("DefaultBatchSize = %d, want 25", cfg.DefaultBatchSize)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"short secret", map[string]string{"MC_SESSION_SECRET": "short"}, "at least 32 bytes"},
		{"weak secret", map[string]string{"MC_SESSION_SECRET": "change-me-to-32-byte-secret-key!"}, "known default"},
		{"batch too big", map[string]string{"MC_SESSION_SECRET": testSecret, "MC_DEFAULT_BATCH_SIZE": "51"}, "MC_DEFAULT_BATCH_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("MC_SESSION_SECRET", "")
	if _, err := Load(); err == nil {
		t.Error("Load() without secret should fail")
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	if hasMinimumEntropy("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Error("single class secret accepted")
	}
	if !hasMinimumEntropy(testSecret) {
		t.Error("mixed secret rejected")
	}
}
