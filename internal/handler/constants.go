// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route prefixes.
const (
	RouteAdminCleaner = "/admin/cleaner"
	RouteAPICleaner   = "/api/v1/cleaner"
)

// Cleaner routes, relative to either prefix.
const (
	RouteMenus        = "/menus"
	RouteCount        = "/count"
	RouteDeleteBatch  = "/delete-batch"
	RouteSessions     = "/sessions"
	RouteSessionItems = "/session-items"
	RouteRestore      = "/restore"
)

// Top-level routes.
const (
	RouteLogin  = "/login"
	RouteLogout = "/logout"
	RouteHealth = "/health"
	RouteLive   = "/health/live"
)
