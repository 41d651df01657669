// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/olegiv/menu-cleaner/internal/model"
	"github.com/olegiv/menu-cleaner/internal/store"
	"github.com/olegiv/menu-cleaner/internal/testutil"
)

func TestLogCleanerEvent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewEventService(db)

	err := svc.LogCleanerEvent(ctx, model.EventLevelInfo, "Menu items deleted", nil, "127.0.0.1",
		map[string]any{"menu_id": 3, "count": 10})
	if err != nil {
		t.Fatalf("LogCleanerEvent: %v", err)
	}

	events, err := store.New(db).ListEventsByCategory(ctx, store.ListEventsByCategoryParams{Category: model.EventCategoryCleaner, Limit: 5})
	if err != nil {
		t.Fatalf("ListEventsByCategory: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].IpAddress != "127.0.0.1" || events[0].UserID.Valid {
		t.Errorf("event = %+v", events[0])
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(events[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta["count"] != float64(10) {
		t.Errorf("metadata = %v", meta)
	}
}

func TestLogAuthEvent_WithUser(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewEventService(db)

	now := time.Now().UTC()
	user, err := store.New(db).CreateUser(ctx, store.CreateUserParams{
		Email: "a@example.com", PasswordHash: "x", Role: model.RoleAdmin, Name: "A", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := svc.LogAuthEvent(ctx, model.EventLevelInfo, "User logged in", &user.ID, "", nil); err != nil {
		t.Fatalf("LogAuthEvent: %v", err)
	}
	events, _ := store.New(db).ListEventsByCategory(ctx, store.ListEventsByCategoryParams{Category: model.EventCategoryAuth, Limit: 5})
	if len(events) != 1 || events[0].UserID.Int64 != user.ID || events[0].Metadata != "{}" {
		t.Errorf("events = %+v", events)
	}
}

func TestDeleteOldEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()
	q := store.New(db)

	_, err := q.CreateEvent(ctx, store.CreateEventParams{
		Level: model.EventLevelInfo, Category: model.EventCategorySystem, Message: "old", Metadata: "{}",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	svc := NewEventService(db)
	if err := svc.LogEvent(ctx, model.EventLevelInfo, model.EventCategorySystem, "new", nil, "", nil); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}

	n, err := svc.DeleteOldEvents(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}
