// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/olegiv/menu-cleaner/internal/itemstore"
	"github.com/olegiv/menu-cleaner/internal/service"
	"github.com/olegiv/menu-cleaner/internal/store"
	"github.com/olegiv/menu-cleaner/internal/testutil"
)

func insertHistory(t *testing.T, db *sql.DB, deletedAt time.Time, restored bool) int64 {
	t.Helper()
	q := store.New(db)
	snap, _ := json.Marshal(map[string]any{})
	rec, err := q.CreateHistoryRecord(context.Background(), store.CreateHistoryRecordParams{
		SessionID: "retention",
		ItemID:    1,
		MenuID:    1,
		MenuName:  "Main",
		ItemTitle: "Old",
		ItemData:  string(snap),
		DeletedAt: deletedAt,
	})
	if err != nil {
		t.Fatalf("CreateHistoryRecord: %v", err)
	}
	if restored {
		if _, err := q.MarkHistoryRestored(context.Background(), store.MarkHistoryRestoredParams{
			RestoredAt: sql.NullTime{Time: deletedAt, Valid: true},
			Ids:        []int64{rec.ID},
		}); err != nil {
			t.Fatalf("MarkHistoryRestored: %v", err)
		}
	}
	return rec.ID
}

func TestRetentionJobs(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	old := time.Now().UTC().AddDate(0, 0, -100)
	insertHistory(t, db, old, true)
	insertHistory(t, db, old, false)
	insertHistory(t, db, time.Now().UTC(), true)

	events := service.NewEventService(db)
	if err := events.LogCleanerEvent(context.Background(), "info", "recent", nil, "", nil); err != nil {
		t.Fatalf("LogCleanerEvent: %v", err)
	}

	pruned := false
	s := New(testutil.DiscardLogger())
	err := AddRetentionJobs(s, RetentionConfig{
		History:     itemstore.New(db),
		HistoryDays: 90,
		Events:      events,
		EventDays:   30,
		PruneLogins: func() { pruned = true },
	}, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("AddRetentionJobs: %v", err)
	}
	if got := len(s.List()); got != 3 {
		t.Fatalf("jobs = %d, want 3", got)
	}

	for _, name := range []string{JobPruneHistory, JobPruneEvents, JobPruneLogins} {
		if err := s.Trigger(name); err != nil {
			t.Errorf("Trigger(%s): %v", name, err)
		}
	}
	if !pruned {
		t.Error("login prune not called")
	}

	var left int
	if err := db.QueryRow(`SELECT COUNT(*) FROM menu_cleaner_history`).Scan(&left); err != nil {
		t.Fatalf("counting history: %v", err)
	}
	if left != 2 {
		t.Errorf("history rows = %d, want 2 (unrestored and recent kept)", left)
	}

	var evs int
	if err := db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&evs); err != nil {
		t.Fatalf("counting events: %v", err)
	}
	if evs != 1 {
		t.Errorf("events = %d, want 1", evs)
	}
}

func TestRetentionJobs_Disabled(t *testing.T) {
	s := New(testutil.DiscardLogger())
	if err := AddRetentionJobs(s, RetentionConfig{HistoryDays: 0, EventDays: 30}, nil); err != nil {
		t.Fatalf("AddRetentionJobs: %v", err)
	}
	if got := len(s.List()); got != 0 {
		t.Errorf("jobs = %d, want 0", got)
	}
}
