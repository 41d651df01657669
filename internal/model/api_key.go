// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants and small value types shared by the
// store, middleware and cleaner packages.
package model

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"slices"
	"time"
)

// API permissions
const (
	PermissionCleanerRead  = "cleaner:read"
	PermissionCleanerWrite = "cleaner:write"
)

// AllPermissions returns all available API permissions.
func AllPermissions() []string {
	return []string{PermissionCleanerRead, PermissionCleanerWrite}
}

// APIKey represents an API authentication key.
type APIKey struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	KeyHash     string       `json:"-"`
	KeyPrefix   string       `json:"key_prefix"`
	Permissions string       `json:"-"` // JSON array stored as string
	LastUsedAt  sql.NullTime `json:"last_used_at,omitempty"`
	ExpiresAt   sql.NullTime `json:"expires_at,omitempty"`
	IsActive    bool         `json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
}

// GenerateAPIKey returns a new random key and its display prefix.
// Only the hash of the key is stored.
func GenerateAPIKey() (rawKey string, prefix string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	rawKey = "mc_" + base64.RawURLEncoding.EncodeToString(buf)
	return rawKey, rawKey[:11], nil
}

// HashAPIKey creates a SHA-256 hash of the API key for storage.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// GetPermissions parses the JSON permissions string into a slice.
func (k *APIKey) GetPermissions() []string {
	var perms []string
	if k.Permissions == "" || k.Permissions == "[]" {
		return perms
	}
	_ = json.Unmarshal([]byte(k.Permissions), &perms)
	return perms
}

// HasPermission checks if the API key has a specific permission.
// Write access implies read access.
func (k *APIKey) HasPermission(perm string) bool {
	perms := k.GetPermissions()
	if slices.Contains(perms, perm) {
		return true
	}
	return perm == PermissionCleanerRead && slices.Contains(perms, PermissionCleanerWrite)
}

// IsExpired checks if the API key has expired.
func (k *APIKey) IsExpired() bool {
	return k.ExpiresAt.Valid && time.Now().After(k.ExpiresAt.Time)
}

// IsValid checks if the API key is active and not expired.
func (k *APIKey) IsValid() bool {
	return k.IsActive && !k.IsExpired()
}

// PermissionsToJSON converts a slice of permissions to a JSON string.
func PermissionsToJSON(perms []string) string {
	if len(perms) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(perms)
	return string(data)
}

// ValidPermissions drops unknown permission names.
func ValidPermissions(perms []string) []string {
	known := AllPermissions()
	var out []string
	for _, p := range perms {
		if slices.Contains(known, p) && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
