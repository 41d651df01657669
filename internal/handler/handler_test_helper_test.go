// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/menu-cleaner/internal/cache"
	"github.com/olegiv/menu-cleaner/internal/cleaner"
	"github.com/olegiv/menu-cleaner/internal/itemstore"
	"github.com/olegiv/menu-cleaner/internal/model"
	"github.com/olegiv/menu-cleaner/internal/service"
	"github.com/olegiv/menu-cleaner/internal/testutil"
)

type testEnv struct {
	db     *sql.DB
	router chi.Router
	counts *cache.CountCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	items := itemstore.New(db)
	svc := cleaner.NewService(items, items, testutil.DiscardLogger())
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	counts := cache.NewCountCache(mem, time.Minute)

	h := NewCleanerHandler(svc, counts, service.NewEventService(db), testutil.DiscardLogger(), 0)
	r := chi.NewRouter()
	h.Routes(r, r)
	return &testEnv{db: db, router: r, counts: counts}
}

// seedLeaves creates n custom items with positions 1..n.
func seedLeaves(t *testing.T, db *sql.DB, menuID int64, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, testutil.CreateItem(t, db, menuID, testutil.Item{
			Title: "Item " + strings.Repeat("x", i),
			Order: int64(i),
			URL:   "/",
			Type:  model.ItemTypeCustom,
		}))
	}
	return ids
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// decodeEnvelope decodes {"success":..,"data":..} into data.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) bool {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env.Success
}

type messageData struct {
	Message string `json:"message"`
}
