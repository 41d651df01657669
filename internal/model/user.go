// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// User roles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// CanClean reports whether a role may run deletions and restores.
func CanClean(role string) bool {
	return role == RoleAdmin
}
