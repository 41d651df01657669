// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/menu-cleaner/internal/auth"
	"github.com/olegiv/menu-cleaner/internal/middleware"
	"github.com/olegiv/menu-cleaner/internal/model"
	"github.com/olegiv/menu-cleaner/internal/service"
	"github.com/olegiv/menu-cleaner/internal/session"
	"github.com/olegiv/menu-cleaner/internal/store"
)

const msgInvalidCredentials = "Invalid email or password."

// AuthHandler handles login and logout for the admin screens.
type AuthHandler struct {
	queries         *store.Queries
	sessionManager  *scs.SessionManager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler. lp may be nil.
func NewAuthHandler(db *sql.DB, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		sessionManager:  sm,
		eventService:    service.NewEventService(db),
		loginProtection: lp,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /login with a JSON or form body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	ctx := r.Context()
	clientIP := middleware.GetClientIP(r)

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsLocked(email); locked {
			_ = h.eventService.LogAuthEvent(ctx, model.EventLevelWarning, "Login attempt on locked account", nil, clientIP, map[string]any{"email": email})
			writeJSONError(w, http.StatusTooManyRequests, fmt.Sprintf("Account locked. Try again in %s.", remaining.Round(time.Second)))
			return
		}
	}

	user, err := h.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("database error during login", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "An internal error occurred.")
			return
		}
		slog.Debug("login attempt for non-existent user", "email", email)
		_ = h.eventService.LogAuthEvent(ctx, model.EventLevelWarning, "Login failed: user not found", nil, clientIP, map[string]any{"email": email})
		// Unknown accounts count too, so probing cannot tell them apart.
		h.failLogin(w, r, email, nil)
		return
	}

	valid, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err, "user_id", user.ID)
	}
	if !valid {
		_ = h.eventService.LogAuthEvent(ctx, model.EventLevelWarning, "Login failed: invalid password", &user.ID, clientIP, map[string]any{"email": email})
		h.failLogin(w, r, email, &user.ID)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccess(email)
	}

	if err := h.sessionManager.RenewToken(ctx); err != nil {
		slog.Error("failed to renew session token", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "An internal error occurred.")
		return
	}
	h.sessionManager.Put(ctx, session.KeyUserID, user.ID)

	now := time.Now().UTC()
	if err := h.queries.UpdateUserLastLogin(ctx, store.UpdateUserLastLoginParams{
		LastLoginAt: now,
		UpdatedAt:   now,
		ID:          user.ID,
	}); err != nil {
		slog.Warn("failed to update last login", "error", err, "user_id", user.ID)
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(req.Password); err == nil {
			if err := h.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
				PasswordHash: hash,
				UpdatedAt:    now,
				ID:           user.ID,
			}); err != nil {
				slog.Warn("failed to upgrade password hash", "error", err, "user_id", user.ID)
			}
		}
	}

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	_ = h.eventService.LogAuthEvent(ctx, model.EventLevelInfo, "User logged in", &user.ID, clientIP, nil)

	writeJSONSuccess(w, map[string]any{
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, email string, userID *int64) {
	if h.loginProtection != nil {
		if locked, d := h.loginProtection.RecordFailure(email); locked {
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Account locked due to failed attempts",
				userID, middleware.GetClientIP(r), map[string]any{"email": email, "duration": d.String()})
			writeJSONError(w, http.StatusTooManyRequests, fmt.Sprintf("Too many failed attempts. Try again in %s.", d.Round(time.Second)))
			return
		}
	}
	writeJSONError(w, http.StatusUnauthorized, msgInvalidCredentials)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if userID := h.sessionManager.GetInt64(ctx, session.KeyUserID); userID > 0 {
		_ = h.eventService.LogAuthEvent(ctx, model.EventLevelInfo, "User logged out", &userID, middleware.GetClientIP(r), nil)
	}
	if err := h.sessionManager.Destroy(ctx); err != nil {
		slog.Error("failed to destroy session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "An internal error occurred.")
		return
	}
	writeJSONSuccess(w, map[string]any{"message": "Logged out."})
}
