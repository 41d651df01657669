// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers: databases, loggers and
// menu fixtures.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/olegiv/menu-cleaner/internal/model"
	"github.com/olegiv/menu-cleaner/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// DiscardLogger drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary file database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "menucleaner-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

// TestMemDB opens an in-memory database through the cgo sqlite3 driver with
// migrations applied. A single connection keeps the schema alive.
func TestMemDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Item describes a menu item fixture.
type Item struct {
	Title    string
	Order    int64
	Parent   int64
	Type     string // defaults to custom
	Object   string
	ObjectID int64
	URL      string
	Extra    map[string][]string
}

// CreateMenu inserts a menu and returns its id.
func CreateMenu(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	now := time.Now().UTC()
	m, err := store.New(db).CreateMenu(context.Background(), store.CreateMenuParams{
		Name:      name,
		Slug:      fmt.Sprintf("%s-%d", name, now.UnixNano()),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateMenu: %v", err)
	}
	return m.ID
}

// CreatePost inserts a page with the given status and returns its id.
func CreatePost(t *testing.T, db *sql.DB, title, status string) int64 {
	t.Helper()
	now := time.Now().UTC()
	p, err := store.New(db).CreatePost(context.Background(), store.CreatePostParams{
		Title:     title,
		PostType:  "page",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return p.ID
}

// CreateTerm inserts a category and returns its id.
func CreateTerm(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	term, err := store.New(db).CreateTerm(context.Background(), store.CreateTermParams{
		Name:      name,
		Taxonomy:  "category",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateTerm: %v", err)
	}
	return term.ID
}

// CreateItem inserts a menu item with its navigation meta and returns its id.
func CreateItem(t *testing.T, db *sql.DB, menuID int64, it Item) int64 {
	t.Helper()
	ctx := context.Background()
	q := store.New(db)
	now := time.Now().UTC()

	row, err := q.CreateMenuItem(ctx, store.CreateMenuItemParams{
		MenuID:    sql.NullInt64{Int64: menuID, Valid: true},
		Title:     it.Title,
		Status:    "publish",
		Position:  it.Order,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateMenuItem: %v", err)
	}

	itemType := it.Type
	if itemType == "" {
		itemType = model.ItemTypeCustom
	}
	object := it.Object
	if object == "" {
		object = "custom"
	}
	meta := [][2]string{
		{model.MetaItemType, itemType},
		{model.MetaItemObject, object},
		{model.MetaItemObjectID, strconv.FormatInt(it.ObjectID, 10)},
		{model.MetaItemParent, strconv.FormatInt(it.Parent, 10)},
		{model.MetaItemURL, it.URL},
		{model.MetaItemTarget, ""},
		{model.MetaItemClasses, ""},
		{model.MetaItemXFN, ""},
	}
	for k, values := range it.Extra {
		for _, v := range values {
			meta = append(meta, [2]string{k, v})
		}
	}
	for _, m := range meta {
		if err := q.AddMenuItemMeta(ctx, store.AddMenuItemMetaParams{ItemID: row.ID, MetaKey: m[0], MetaValue: m[1]}); err != nil {
			t.Fatalf("AddMenuItemMeta: %v", err)
		}
	}
	return row.ID
}
