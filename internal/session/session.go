// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures cookie sessions for the admin cleaner screens.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// KeyUserID is the session key holding the authenticated user's id.
const KeyUserID = "user_id"

// Cookie names. The __Host- prefix requires Secure and Path=/, so it is only
// used outside development.
const (
	CookieName       = "mc_session"
	SecureCookieName = "__Host-mc_session"
)

// Lifetime is the absolute session lifetime; IdleTimeout logs out idle operators.
const (
	Lifetime    = 12 * time.Hour
	IdleTimeout = 2 * time.Hour
)

// New creates a session manager backed by the sessions table.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.NewWithCleanupInterval(db, 30*time.Minute)

	sm.Lifetime = Lifetime
	sm.IdleTimeout = IdleTimeout
	sm.Cookie.Name = CookieName
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev
	if !isDev {
		sm.Cookie.Name = SecureCookieName
	}

	return sm
}
