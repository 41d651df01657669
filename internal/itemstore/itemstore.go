// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package itemstore adapts the SQLite content schema to the cleaner's
// ItemStore and HistoryStore interfaces.
package itemstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/menu-cleaner/internal/cleaner"
	"github.com/olegiv/menu-cleaner/internal/store"
)

// NoTitle is shown for items without any resolvable title.
const NoTitle = "(no title)"

// Store implements cleaner.ItemStore and cleaner.HistoryStore.
type Store struct {
	db     *sql.DB
	q      *store.Queries
	strict *bluemonday.Policy
	now    func() time.Time
}

// New creates a Store over db.
func New(db *sql.DB) *Store {
	return &Store{
		db:     db,
		q:      store.New(db),
		strict: bluemonday.StrictPolicy(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func wrapErr(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, cleaner.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", what, cleaner.ErrStore, err)
}

// plainText strips markup and entities from a stored title.
func (s *Store) plainText(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(v)))
}

// displayTitle prefers the item's own label, then the linked object's title.
func (s *Store) displayTitle(label, objectTitle string) string {
	if t := s.plainText(label); t != "" {
		return t
	}
	if t := s.plainText(objectTitle); t != "" {
		return t
	}
	return NoTitle
}

func (s *Store) toMenuItem(r store.MenuItemNavRow) cleaner.MenuItem {
	return cleaner.MenuItem{
		ID:           r.ID,
		Title:        s.displayTitle(r.Title, r.ObjectTitle),
		Order:        r.Position,
		ParentID:     r.ParentID,
		Type:         r.ItemType,
		Object:       r.Object,
		ObjectID:     r.ObjectID,
		ObjectStatus: r.ObjectStatus,
		ObjectExists: r.ObjectExists,
		HasChildren:  r.HasChildren,
	}
}

func (s *Store) ListItems(ctx context.Context, menuID int64, filter cleaner.ListFilter) ([]cleaner.MenuItem, error) {
	limit := int64(-1)
	if filter.Limit > 0 {
		limit = int64(filter.Limit)
	}
	rows, err := s.q.ListMenuItemNav(ctx, store.ListMenuItemNavParams{
		MenuID: menuID,
		Mode:   string(cleaner.ParseMode(string(filter.Mode))),
		Limit:  limit,
		Offset: int64(max(filter.Offset, 0)),
	})
	if err != nil {
		return nil, wrapErr("listing menu items", err)
	}
	items := make([]cleaner.MenuItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, s.toMenuItem(r))
	}
	return items, nil
}

func (s *Store) CountItems(ctx context.Context, menuID int64, mode cleaner.Mode) (int64, error) {
	n, err := s.q.CountMenuItemNav(ctx, store.CountMenuItemNavParams{
		MenuID: menuID,
		Mode:   string(cleaner.ParseMode(string(mode))),
	})
	if err != nil {
		return 0, wrapErr("counting menu items", err)
	}
	return n, nil
}

func (s *Store) ResolveTitle(ctx context.Context, itemID int64) string {
	row, err := s.q.GetMenuItemNav(ctx, itemID)
	if err == nil {
		return s.displayTitle(row.Title, row.ObjectTitle)
	}
	item, err := s.q.GetMenuItem(ctx, itemID)
	if err == nil {
		return s.displayTitle(item.Title, "")
	}
	return NoTitle
}

// DeleteItem removes the item and its metadata in one transaction.
func (s *Store) DeleteItem(ctx context.Context, itemID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("starting transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.q.WithTx(tx)
	if err := qtx.DeleteMenuItemMeta(ctx, itemID); err != nil {
		return wrapErr("deleting menu item meta", err)
	}
	n, err := qtx.DeleteMenuItem(ctx, itemID)
	if err != nil {
		return wrapErr("deleting menu item", err)
	}
	if n == 0 {
		return fmt.Errorf("menu item %d: %w", itemID, cleaner.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return wrapErr("committing delete", err)
	}
	return nil
}

func (s *Store) CreateItem(ctx context.Context, fields cleaner.ItemFields) (int64, error) {
	now := s.now()
	created := fields.CreatedAt
	if created.IsZero() {
		created = now
	}
	status := fields.Status
	if status == "" {
		status = "publish"
	}
	item, err := s.q.CreateMenuItem(ctx, store.CreateMenuItemParams{
		Title:     fields.Title,
		Content:   fields.Content,
		Excerpt:   fields.Excerpt,
		Status:    status,
		Position:  fields.Order,
		CreatedAt: created.UTC(),
		UpdatedAt: now,
	})
	if err != nil {
		return 0, wrapErr("creating menu item", err)
	}
	return item.ID, nil
}

func (s *Store) GetItemFields(ctx context.Context, itemID int64) (cleaner.ItemFields, error) {
	item, err := s.q.GetMenuItem(ctx, itemID)
	if err != nil {
		return cleaner.ItemFields{}, wrapErr(fmt.Sprintf("menu item %d", itemID), err)
	}
	return cleaner.ItemFields{
		Title:     item.Title,
		Content:   item.Content,
		Excerpt:   item.Excerpt,
		Status:    item.Status,
		Order:     item.Position,
		CreatedAt: item.CreatedAt.UTC(),
	}, nil
}

func (s *Store) GetAllMetadata(ctx context.Context, itemID int64) (map[string][]string, error) {
	rows, err := s.q.ListMenuItemMeta(ctx, itemID)
	if err != nil {
		return nil, wrapErr("listing menu item meta", err)
	}
	meta := make(map[string][]string)
	for _, r := range rows {
		meta[r.MetaKey] = append(meta[r.MetaKey], r.MetaValue)
	}
	return meta, nil
}

func (s *Store) AddMetadata(ctx context.Context, itemID int64, key, value string) error {
	err := s.q.AddMenuItemMeta(ctx, store.AddMenuItemMetaParams{ItemID: itemID, MetaKey: key, MetaValue: value})
	if err != nil {
		return wrapErr("adding menu item meta", err)
	}
	return nil
}

func (s *Store) UpdateMetadata(ctx context.Context, itemID int64, key, value string) error {
	n, err := s.q.UpdateMenuItemMeta(ctx, store.UpdateMenuItemMetaParams{MetaValue: value, ItemID: itemID, MetaKey: key})
	if err != nil {
		return wrapErr("updating menu item meta", err)
	}
	if n == 0 {
		return s.AddMetadata(ctx, itemID, key, value)
	}
	return nil
}

func (s *Store) AssignToMenu(ctx context.Context, itemID, menuID int64) error {
	n, err := s.q.AssignMenuItemToMenu(ctx, store.AssignMenuItemToMenuParams{
		MenuID:    sql.NullInt64{Int64: menuID, Valid: true},
		UpdatedAt: s.now(),
		ID:        itemID,
	})
	if err != nil {
		return wrapErr("assigning menu item", err)
	}
	if n == 0 {
		return fmt.Errorf("menu item %d: %w", itemID, cleaner.ErrNotFound)
	}
	return nil
}

func (s *Store) GetMenu(ctx context.Context, menuID int64) (cleaner.Menu, error) {
	m, err := s.q.GetMenuByID(ctx, menuID)
	if err != nil {
		return cleaner.Menu{}, wrapErr(fmt.Sprintf("menu %d", menuID), err)
	}
	return cleaner.Menu{ID: m.ID, Name: m.Name, Slug: m.Slug}, nil
}

func (s *Store) ListMenus(ctx context.Context) ([]cleaner.Menu, error) {
	rows, err := s.q.ListMenusWithItemCount(ctx)
	if err != nil {
		return nil, wrapErr("listing menus", err)
	}
	menus := make([]cleaner.Menu, 0, len(rows))
	for _, r := range rows {
		menus = append(menus, cleaner.Menu{ID: r.ID, Name: r.Name, Slug: r.Slug, ItemCount: r.ItemCount})
	}
	return menus, nil
}

var _ cleaner.ItemStore = (*Store)(nil)
