// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/menu-cleaner/internal/cleaner"
	"github.com/olegiv/menu-cleaner/internal/testutil"
)

func TestCleanerHandler_Menus(t *testing.T) {
	env := newTestEnv(t)
	menuID := testutil.CreateMenu(t, env.db, "Main")
	seedLeaves(t, env.db, menuID, 3)

	rec := env.get(t, RouteMenus)
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Menus []cleaner.Menu `json:"menus"`
	}
	require.True(t, decodeEnvelope(t, rec, &data))
	require.Len(t, data.Menus, 1)
	assert.Equal(t, menuID, data.Menus[0].ID)
	assert.Equal(t, int64(3), data.Menus[0].ItemCount)
}

func TestCleanerHandler_MenusEmpty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, RouteMenus)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"menus":[]}}`, rec.Body.String())
}

func TestCleanerHandler_Count(t *testing.T) {
	env := newTestEnv(t)
	menuID := testutil.CreateMenu(t, env.db, "Main")
	seedLeaves(t, env.db, menuID, 4)

	rec := env.postJSON(t, RouteCount, map[string]any{"menu_id": menuID, "mode": "count"})
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Count int `json:"count"`
	}
	require.True(t, decodeEnvelope(t, rec, &data))
	assert.Equal(t, 4, data.Count)
}

func TestCleanerHandler_CountValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing menu", map[string]any{"mode": "count"}, http.StatusBadRequest},
		{"zero menu", map[string]any{"menu_id": 0}, http.StatusBadRequest},
		{"garbage menu", map[string]any{"menu_id": "abc"}, http.StatusBadRequest},
		{"unknown menu", map[string]any{"menu_id": 999}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.postJSON(t, RouteCount, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			var msg messageData
			assert.False(t, decodeEnvelope(t, rec, &msg))
			assert.NotEmpty(t, msg.Message)
		})
	}
}

func TestCleanerHandler_DeleteBatchInvalidatesCount(t *testing.T) {
	env := newTestEnv(t)
	menuID := testutil.CreateMenu(t, env.db, "Main")
	seedLeaves(t, env.db, menuID, 5)

	countBody := map[string]any{"menu_id": menuID, "mode": "count"}
	var before struct {
		Count int `json:"count"`
	}
	decodeEnvelope(t, env.postJSON(t, RouteCount, countBody), &before)
	require.Equal(t, 5, before.Count)

	rec := env.postJSON(t, RouteDeleteBatch, map[string]any{
		"menu_id":    menuID,
		"mode":       "count",
		"batch_size": 2,
		"offset":     40,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res cleaner.BatchResult
	require.True(t, decodeEnvelope(t, rec, &res))
	assert.Equal(t, 2, res.Count)
	require.Len(t, res.Deleted, 2)
	// Highest positions go first.
	assert.Equal(t, int64(5), res.Deleted[0].Order)
	assert.Equal(t, int64(4), res.Deleted[1].Order)
	assert.True(t, res.HasMore)
	assert.NotEmpty(t, res.Session)

	var after struct {
		Count int `json:"count"`
	}
	decodeEnvelope(t, env.postJSON(t, RouteCount, countBody), &after)
	assert.Equal(t, 3, after.Count)
}

func TestCleanerHandler_DeleteBatchTargetLimitsSelection(t *testing.T) {
	env := newTestEnv(t)
	menuID := testutil.CreateMenu(t, env.db, "Main")
	seedLeaves(t, env.db, menuID, 10)

	rec := env.postJSON(t, RouteDeleteBatch, map[string]any{
		"menu_id":        menuID,
		"batch_size":     10,
		"target_count":   5,
		"deleted_so_far": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res cleaner.BatchResult
	require.True(t, decodeEnvelope(t, rec, &res))
	assert.Equal(t, 2, res.Count)
}

func TestCleanerHandler_DeleteBatchForm(t *testing.T) {
	env := newTestEnv(t)
	menuID := testutil.CreateMenu(t, env.db, "Main")
	parent := testutil.CreateItem(t, env.db, menuID, testutil.Item{Title: "Parent", Order: 1, URL: "/"})
	testutil.CreateItem(t, env.db, menuID, testutil.Item{Title: "Child", Order: 2, Parent: parent, URL: "/c"})
	testutil.CreateItem(t, env.db, menuID, testutil.Item{Title: "Leaf", Order: 3, URL: "/l"})

	rec := env.postForm(t, RouteDeleteBatch, url.Values{
		"menu_id":      {itoa(menuID)},
		"mode":         {"count"},
		"skip_parents": {"1"},
		"batch_size":   {"not-a-number"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res cleaner.BatchResult
	require.True(t, decodeEnvelope(t, rec, &res))
	require.Len(t, res.Deleted, 1)
	assert.Equal(t, "Leaf", res.Deleted[0].Title)
	assert.Equal(t, 2, res.SkippedCount)
}

func TestCleanerHandler_DeleteBatchNonPositiveSizeUsesDefault(t *testing.T) {
	for _, size := range []any{0, -3, "0"} {
		env := newTestEnv(t)
		menuID := testutil.CreateMenu(t, env.db, "Main")
		seedLeaves(t, env.db, menuID, 12)

		rec := env.postJSON(t, RouteDeleteBatch, map[string]any{
			"menu_id":    menuID,
			"batch_size": size,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res cleaner.BatchResult
		require.True(t, decodeEnvelope(t, rec, &res))
		assert.Equal(t, cleaner.DefaultBatchSize, res.Count, "batch_size=%v", size)
		assert.True(t, res.HasMore, "batch_size=%v", size)
	}
}

func TestCleanerHandler_DeleteBatchErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, RouteDeleteBatch, map[string]any{"mode": "count"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.postJSON(t, RouteDeleteBatch, map[string]any{"menu_id": 12345})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCleanerHandler_SessionsAndRestore(t *testing.T) {
	env := newTestEnv(t)
	menuID := testutil.CreateMenu(t, env.db, "Main")
	seedLeaves(t, env.db, menuID, 3)

	var batch cleaner.BatchResult
	decodeEnvelope(t, env.postJSON(t, RouteDeleteBatch, map[string]any{"menu_id": menuID}), &batch)
	require.Equal(t, 3, batch.Count)

	rec := env.get(t, RouteSessions)
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions struct {
		Sessions []cleaner.SessionSummary `json:"sessions"`
	}
	require.True(t, decodeEnvelope(t, rec, &sessions))
	require.Len(t, sessions.Sessions, 1)
	assert.Equal(t, batch.Session, sessions.Sessions[0].Session)
	assert.Equal(t, int64(3), sessions.Sessions[0].Unrestored)

	rec = env.postJSON(t, RouteSessionItems, map[string]any{"session": batch.Session})
	require.Equal(t, http.StatusOK, rec.Code)
	var items struct {
		Items []cleaner.HistoryRecord `json:"items"`
	}
	require.True(t, decodeEnvelope(t, rec, &items))
	require.Len(t, items.Items, 3)

	rec = env.postJSON(t, RouteRestore, map[string]any{
		"session": batch.Session,
		"items":   []int64{items.Items[0].ID},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var restored cleaner.RestoreResult
	require.True(t, decodeEnvelope(t, rec, &restored))
	assert.Equal(t, 1, restored.RestoredCount)

	rec = env.postForm(t, RouteRestore, url.Values{"session": {batch.Session}, "items": {"all"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decodeEnvelope(t, rec, &restored))
	assert.Equal(t, 2, restored.RestoredCount)

	var count struct {
		Count int `json:"count"`
	}
	decodeEnvelope(t, env.postJSON(t, RouteCount, map[string]any{"menu_id": menuID}), &count)
	assert.Equal(t, 3, count.Count)
}

func TestCleanerHandler_SessionItemsErrors(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.postJSON(t, RouteSessionItems, map[string]any{}).Code)
	assert.Equal(t, http.StatusNotFound, env.postJSON(t, RouteSessionItems, map[string]any{"session": "nope"}).Code)
}

func TestCleanerHandler_RestoreErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"no session", map[string]any{"items": "all"}, http.StatusBadRequest},
		{"no items", map[string]any{"session": "abc"}, http.StatusBadRequest},
		{"bad ids", map[string]any{"session": "abc", "items": []any{"x"}}, http.StatusBadRequest},
		{"unknown session", map[string]any{"session": "abc", "items": "all"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, env.postJSON(t, RouteRestore, tt.body).Code)
		})
	}
}

func TestCleanerHandler_RestoreMalformedBodyMessage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, RouteRestore, map[string]any{"session": "abc", "items": []any{"x"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var msg messageData
	assert.False(t, decodeEnvelope(t, rec, &msg))
	assert.Equal(t, "Invalid request body.", msg.Message)
}
