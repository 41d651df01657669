// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cleaner implements batch deletion of navigation menu items and
// restoration of deleted items from their recorded snapshots.
//
// The package talks to the content store only through the ItemStore and
// HistoryStore interfaces. A deletion run is a sequence of independent
// DeleteBatch calls driven by a client; every deleted item is snapshotted
// first so a whole session, or part of it, can be restored later with the
// parent links remapped to the new item ids.
package cleaner

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	ErrValidation = errors.New("invalid request")
	ErrNotFound   = errors.New("not found")
	ErrStore      = errors.New("store failure")
)

// Mode selects which items of a menu qualify for deletion.
type Mode string

const (
	ModeCount    Mode = "count"
	ModeDraft    Mode = "draft"
	ModeOrphaned Mode = "orphaned"
)

// ParseMode maps a request string to a Mode. Unknown values select ModeCount.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeDraft:
		return ModeDraft
	case ModeOrphaned:
		return ModeOrphaned
	default:
		return ModeCount
	}
}

// Batch size bounds.
const (
	DefaultBatchSize = 10
	MaxBatchSize     = 50
	maxSkippedShown  = 20
)

// ClampBatchSize bounds n to [1, MaxBatchSize].
func ClampBatchSize(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxBatchSize {
		return MaxBatchSize
	}
	return n
}

// MenuItem is a menu item as seen by the selection engine.
type MenuItem struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Order        int64  `json:"order"`
	ParentID     int64  `json:"parent_id"`
	Type         string `json:"type"`
	Object       string `json:"object"`
	ObjectID     int64  `json:"object_id"`
	ObjectStatus string `json:"object_status"`
	ObjectExists bool   `json:"object_exists"`
	HasChildren  bool   `json:"has_children"`
}

// Menu is a navigation menu.
type Menu struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	ItemCount int64  `json:"item_count"`
}

// ItemFields are the native columns of a menu item.
type ItemFields struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	Status    string    `json:"status"`
	Order     int64     `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// ListFilter restricts ListItems. A Limit of zero or less returns every match.
type ListFilter struct {
	Mode   Mode
	Limit  int
	Offset int
}

// ItemStore is the adapter to the content store holding menus and items.
type ItemStore interface {
	ListItems(ctx context.Context, menuID int64, filter ListFilter) ([]MenuItem, error)
	CountItems(ctx context.Context, menuID int64, mode Mode) (int64, error)
	// ResolveTitle returns a display title and never fails.
	ResolveTitle(ctx context.Context, itemID int64) string
	DeleteItem(ctx context.Context, itemID int64) error
	CreateItem(ctx context.Context, fields ItemFields) (int64, error)
	GetItemFields(ctx context.Context, itemID int64) (ItemFields, error)
	GetAllMetadata(ctx context.Context, itemID int64) (map[string][]string, error)
	AddMetadata(ctx context.Context, itemID int64, key, value string) error
	// UpdateMetadata replaces every value of key, adding it when absent.
	UpdateMetadata(ctx context.Context, itemID int64, key, value string) error
	AssignToMenu(ctx context.Context, itemID, menuID int64) error
	// GetMenu wraps ErrNotFound for a missing menu and ErrStore otherwise.
	GetMenu(ctx context.Context, menuID int64) (Menu, error)
	ListMenus(ctx context.Context) ([]Menu, error)
}

// HistoryRecord is one deleted item kept for restore.
type HistoryRecord struct {
	ID        int64     `json:"id"`
	Session   string    `json:"session"`
	ItemID    int64     `json:"item_id"`
	MenuID    int64     `json:"menu_id"`
	MenuName  string    `json:"menu_name"`
	ItemTitle string    `json:"item_title"`
	Snapshot  []byte    `json:"-"`
	DeletedAt time.Time `json:"deleted_at"`
	Restored  bool      `json:"restored"`
}

// SessionSummary describes one deletion session.
type SessionSummary struct {
	Session    string    `json:"session"`
	MenuID     int64     `json:"menu_id"`
	MenuName   string    `json:"menu_name"`
	ItemCount  int64     `json:"item_count"`
	Unrestored int64     `json:"unrestored"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryStore persists deletion history.
type HistoryStore interface {
	InsertRecord(ctx context.Context, rec HistoryRecord) (int64, error)
	// DeleteRecord discards a record whose item was never deleted.
	DeleteRecord(ctx context.Context, recordID int64) error
	// ListSessionRecords returns the unrestored records of a session. A nil
	// recordIDs selects all of them.
	ListSessionRecords(ctx context.Context, session string, recordIDs []int64) ([]HistoryRecord, error)
	SessionExists(ctx context.Context, session string) (bool, error)
	MarkRestored(ctx context.Context, recordIDs []int64) error
	ListSessions(ctx context.Context) ([]SessionSummary, error)
}
