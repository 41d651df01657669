// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cleaner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/olegiv/menu-cleaner/internal/model"
)

var errInjected = errors.New("injected failure")

type fakeItem struct {
	id     int64
	menuID int64
	fields ItemFields
	meta   map[string][]string
}

// fakeStore is an in-memory ItemStore and HistoryStore.
type fakeStore struct {
	mu sync.Mutex

	nextID     int64
	nextRecord int64
	menus      map[int64]Menu
	items      map[int64]*fakeItem
	posts      map[int64]string // id -> status
	terms      map[int64]bool

	records []HistoryRecord

	failList    error
	failDelete  map[int64]bool
	failFields  map[int64]bool
	failAssign  bool
	markCalls   int
	deleteCalls []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:     100,
		menus:      map[int64]Menu{},
		items:      map[int64]*fakeItem{},
		posts:      map[int64]string{},
		terms:      map[int64]bool{},
		failDelete: map[int64]bool{},
		failFields: map[int64]bool{},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fakeStore) addMenu(id int64, name string) {
	f.menus[id] = Menu{ID: id, Name: name, Slug: fmt.Sprintf("menu-%d", id)}
}

func (f *fakeStore) addPost(id int64, status string) { f.posts[id] = status }

func (f *fakeStore) addTerm(id int64) { f.terms[id] = true }

// addItem creates an item and returns its id. objectID is ignored for custom items.
func (f *fakeStore) addItem(menuID int64, title string, order, parent int64, itemType string, objectID int64) int64 {
	f.nextID++
	id := f.nextID
	meta := map[string][]string{
		model.MetaItemType:     {itemType},
		model.MetaItemParent:   {strconv.FormatInt(parent, 10)},
		model.MetaItemObjectID: {strconv.FormatInt(objectID, 10)},
	}
	switch itemType {
	case model.ItemTypePostType:
		meta[model.MetaItemObject] = []string{"page"}
	case model.ItemTypeTaxonomy:
		meta[model.MetaItemObject] = []string{"category"}
	default:
		meta[model.MetaItemObject] = []string{"custom"}
		meta[model.MetaItemURL] = []string{"https://example.com/" + title}
	}
	f.items[id] = &fakeItem{
		id:     id,
		menuID: menuID,
		fields: ItemFields{Title: title, Status: "publish", Order: order, CreatedAt: time.Unix(1700000000, 0).UTC()},
		meta:   meta,
	}
	return id
}

func (f *fakeStore) custom(menuID int64, title string, order, parent int64) int64 {
	return f.addItem(menuID, title, order, parent, model.ItemTypeCustom, 0)
}

func (f *fakeStore) toMenuItem(it *fakeItem) MenuItem {
	mi := MenuItem{
		ID:           it.id,
		Title:        it.fields.Title,
		Order:        it.fields.Order,
		ParentID:     metaInt(it.meta, model.MetaItemParent),
		Type:         firstMeta(it.meta, model.MetaItemType),
		Object:       firstMeta(it.meta, model.MetaItemObject),
		ObjectID:     metaInt(it.meta, model.MetaItemObjectID),
		ObjectExists: true,
	}
	switch mi.Type {
	case model.ItemTypePostType:
		status, ok := f.posts[mi.ObjectID]
		mi.ObjectExists = ok
		mi.ObjectStatus = status
	case model.ItemTypeTaxonomy:
		mi.ObjectExists = f.terms[mi.ObjectID]
	}
	for _, other := range f.items {
		if other.menuID == it.menuID && metaInt(other.meta, model.MetaItemParent) == it.id {
			mi.HasChildren = true
		}
	}
	if mi.Title == "" {
		mi.Title = "(no title)"
	}
	return mi
}

func matchesMode(it MenuItem, mode Mode) bool {
	switch mode {
	case ModeDraft:
		return it.Type == model.ItemTypePostType && it.ObjectExists && model.IsDraftStatus(it.ObjectStatus)
	case ModeOrphaned:
		return model.IsLinkedType(it.Type) && !it.ObjectExists
	default:
		return true
	}
}

func (f *fakeStore) matching(menuID int64, mode Mode) []MenuItem {
	var out []MenuItem
	for _, it := range f.items {
		if it.menuID != menuID {
			continue
		}
		mi := f.toMenuItem(it)
		if matchesMode(mi, mode) {
			out = append(out, mi)
		}
	}
	slices.SortFunc(out, func(a, b MenuItem) int {
		if a.Order != b.Order {
			return int(b.Order - a.Order)
		}
		return int(b.ID - a.ID)
	})
	return out
}

func (f *fakeStore) ListItems(_ context.Context, menuID int64, filter ListFilter) ([]MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	all := f.matching(menuID, filter.Mode)
	if filter.Offset >= len(all) {
		return nil, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, nil
}

func (f *fakeStore) CountItems(_ context.Context, menuID int64, mode Mode) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.matching(menuID, mode))), nil
}

func (f *fakeStore) ResolveTitle(_ context.Context, itemID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[itemID]
	if !ok || it.fields.Title == "" {
		return "(no title)"
	}
	return it.fields.Title
}

func (f *fakeStore) DeleteItem(ctx context.Context, itemID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, itemID)
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.failDelete[itemID] {
		return errInjected
	}
	if _, ok := f.items[itemID]; !ok {
		return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	delete(f.items, itemID)
	return nil
}

func (f *fakeStore) CreateItem(_ context.Context, fields ItemFields) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.items[f.nextID] = &fakeItem{id: f.nextID, fields: fields, meta: map[string][]string{}}
	return f.nextID, nil
}

func (f *fakeStore) GetItemFields(_ context.Context, itemID int64) (ItemFields, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFields[itemID] {
		return ItemFields{}, errInjected
	}
	it, ok := f.items[itemID]
	if !ok {
		return ItemFields{}, ErrNotFound
	}
	return it.fields, nil
}

func (f *fakeStore) GetAllMetadata(_ context.Context, itemID int64) (map[string][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[itemID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(map[string][]string, len(it.meta))
	for k, v := range it.meta {
		out[k] = slices.Clone(v)
	}
	return out, nil
}

func (f *fakeStore) AddMetadata(_ context.Context, itemID int64, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[itemID]
	if !ok {
		return ErrNotFound
	}
	it.meta[key] = append(it.meta[key], value)
	return nil
}

func (f *fakeStore) UpdateMetadata(_ context.Context, itemID int64, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[itemID]
	if !ok {
		return ErrNotFound
	}
	it.meta[key] = []string{value}
	return nil
}

func (f *fakeStore) AssignToMenu(_ context.Context, itemID, menuID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAssign {
		return errInjected
	}
	it, ok := f.items[itemID]
	if !ok {
		return ErrNotFound
	}
	it.menuID = menuID
	return nil
}

func (f *fakeStore) GetMenu(_ context.Context, menuID int64) (Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.menus[menuID]
	if !ok {
		return Menu{}, fmt.Errorf("menu %d: %w", menuID, ErrNotFound)
	}
	return m, nil
}

func (f *fakeStore) ListMenus(_ context.Context) ([]Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Menu
	for _, m := range f.menus {
		for _, it := range f.items {
			if it.menuID == m.ID {
				m.ItemCount++
			}
		}
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b Menu) int { return int(a.ID - b.ID) })
	return out, nil
}

func (f *fakeStore) InsertRecord(_ context.Context, rec HistoryRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRecord++
	rec.ID = f.nextRecord
	f.records = append(f.records, rec)
	return rec.ID, nil
}

func (f *fakeStore) DeleteRecord(_ context.Context, recordID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = slices.DeleteFunc(f.records, func(r HistoryRecord) bool { return r.ID == recordID })
	return nil
}

func (f *fakeStore) ListSessionRecords(_ context.Context, session string, recordIDs []int64) ([]HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []HistoryRecord
	for _, r := range f.records {
		if r.Session != session || r.Restored {
			continue
		}
		if recordIDs != nil && !slices.Contains(recordIDs, r.ID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) SessionExists(_ context.Context, session string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.Session == session {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) MarkRestored(_ context.Context, recordIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	for i := range f.records {
		if slices.Contains(recordIDs, f.records[i].ID) {
			f.records[i].Restored = true
		}
	}
	return nil
}

func (f *fakeStore) ListSessions(_ context.Context) ([]SessionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []SessionSummary
	index := map[string]int{}
	for _, r := range f.records {
		i, ok := index[r.Session]
		if !ok {
			index[r.Session] = len(out)
			out = append(out, SessionSummary{Session: r.Session, MenuID: r.MenuID, MenuName: r.MenuName, CreatedAt: r.DeletedAt})
			i = len(out) - 1
		}
		out[i].ItemCount++
		if !r.Restored {
			out[i].Unrestored++
		}
	}
	return out, nil
}

// itemsIn returns the ids of items currently assigned to menuID.
func (f *fakeStore) itemsIn(menuID int64) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for id, it := range f.items {
		if it.menuID == menuID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (f *fakeStore) itemByTitle(title string) *fakeItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.fields.Title == title {
			return it
		}
	}
	return nil
}

var (
	_ ItemStore    = (*fakeStore)(nil)
	_ HistoryStore = (*fakeStore)(nil)
)
