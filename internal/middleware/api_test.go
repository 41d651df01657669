// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/menu-cleaner/internal/model"
	"github.com/olegiv/menu-cleaner/internal/store"
	"github.com/olegiv/menu-cleaner/internal/testutil"
)

// simpleOKHandler returns an http.Handler that writes 200 OK.
var simpleOKHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// createTestKey stores a key and returns the raw bearer token.
func createTestKey(t *testing.T, db *sql.DB, perms []string, active bool, expiresAt sql.NullTime) string {
	t.Helper()
	raw, prefix, err := model.GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	_, err = store.New(db).CreateAPIKey(context.Background(), store.CreateAPIKeyParams{
		Name:        "test",
		KeyHash:     model.HashAPIKey(raw),
		KeyPrefix:   prefix,
		Permissions: model.PermissionsToJSON(perms),
		IsActive:    active,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}
	return raw
}

func bearerRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cleaner/menus", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Success {
		t.Error("success = true on an error response")
	}
	return body.Data.Message
}

func TestAPIKeyAuth(t *testing.T) {
	db := testutil.TestMemDB(t)

	valid := createTestKey(t, db, []string{model.PermissionCleanerRead}, true, sql.NullTime{})
	inactive := createTestKey(t, db, nil, false, sql.NullTime{})
	expired := createTestKey(t, db, nil, true, sql.NullTime{Time: time.Now().Add(-time.Hour), Valid: true})

	var seen *model.APIKey
	h := APIKeyAuth(db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAPIKey(r)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"unknown key", "Bearer mc_nope", http.StatusUnauthorized},
		{"inactive key", "Bearer " + inactive, http.StatusUnauthorized},
		{"expired key", "Bearer " + expired, http.StatusUnauthorized},
		{"valid key", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				if seen == nil || !seen.HasPermission(model.PermissionCleanerRead) {
					t.Errorf("API key not in context: %+v", seen)
				}
			} else if msg := decodeMessage(t, rec); msg == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	db := testutil.TestMemDB(t)
	readOnly := createTestKey(t, db, []string{model.PermissionCleanerRead}, true, sql.NullTime{})
	writer := createTestKey(t, db, []string{model.PermissionCleanerWrite}, true, sql.NullTime{})

	write := APIKeyAuth(db)(RequirePermission(model.PermissionCleanerWrite)(simpleOKHandler))
	read := APIKeyAuth(db)(RequirePermission(model.PermissionCleanerRead)(simpleOKHandler))

	cases := []struct {
		name    string
		handler http.Handler
		token   string
		want    int
	}{
		{"read key on write route", write, readOnly, http.StatusForbidden},
		{"write key on write route", write, writer, http.StatusOK},
		{"write key implies read", read, writer, http.StatusOK},
		{"read key on read route", read, readOnly, http.StatusOK},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		tc.handler.ServeHTTP(rec, bearerRequest(tc.token))
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}

	rec := httptest.NewRecorder()
	RequirePermission(model.PermissionCleanerRead)(simpleOKHandler).ServeHTTP(rec, bearerRequest(""))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no key in context: status = %d, want 401", rec.Code)
	}
}

func TestAPIRateLimit(t *testing.T) {
	h := APIRateLimit(0.001, 2)(simpleOKHandler)

	withKey := func(id int64) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := context.WithValue(req.Context(), ContextKeyAPIKey, model.APIKey{ID: id})
		return req.WithContext(ctx)
	}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withKey(1))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withKey(1))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// other keys have their own bucket
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withKey(2))
	if rec.Code != http.StatusOK {
		t.Errorf("key 2 status = %d, want 200", rec.Code)
	}

	// requests without a key are not limited here
	for i := 0; i < 5; i++ {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("anonymous request status = %d, want 200", rec.Code)
		}
	}
}

func TestLimiterCache_ClearIfExceeds(t *testing.T) {
	lc := newLimiterCache[string](1, 1)
	for _, k := range []string{"a", "b", "c"} {
		lc.get(k)
	}
	if lc.clearIfExceeds(5) {
		t.Error("should not clear below the limit")
	}
	if !lc.clearIfExceeds(2) {
		t.Error("should clear above the limit")
	}
	if len(lc.limiters) != 0 {
		t.Errorf("len = %d after clear", len(lc.limiters))
	}
}
