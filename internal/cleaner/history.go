// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cleaner

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/olegiv/menu-cleaner/internal/model"
)

// Snapshot is the serialized state of a menu item captured before deletion.
type Snapshot struct {
	Post SnapshotPost        `json:"post"`
	Meta map[string][]string `json:"meta"`
	Nav  SnapshotNav         `json:"nav"`
}

// SnapshotPost holds the native fields.
type SnapshotPost struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	Status    string    `json:"status"`
	Order     int64     `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotNav holds the navigation fields in denormalized form.
type SnapshotNav struct {
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	URL         string   `json:"url"`
	Object      string   `json:"object"`
	ObjectID    int64    `json:"object_id"`
	Parent      int64    `json:"parent"`
	Position    int64    `json:"position"`
	Target      string   `json:"target"`
	AttrTitle   string   `json:"attr_title"`
	Description string   `json:"description"`
	Classes     []string `json:"classes"`
	XFN         string   `json:"xfn"`
}

// BuildSnapshot assembles a snapshot from an item's fields, its metadata and
// its resolved display title.
func BuildSnapshot(fields ItemFields, meta map[string][]string, label string) Snapshot {
	if meta == nil {
		meta = map[string][]string{}
	}
	return Snapshot{
		Post: SnapshotPost(fields),
		Meta: meta,
		Nav: SnapshotNav{
			Type:        firstMeta(meta, model.MetaItemType),
			Label:       label,
			URL:         firstMeta(meta, model.MetaItemURL),
			Object:      firstMeta(meta, model.MetaItemObject),
			ObjectID:    metaInt(meta, model.MetaItemObjectID),
			Parent:      metaInt(meta, model.MetaItemParent),
			Position:    fields.Order,
			Target:      firstMeta(meta, model.MetaItemTarget),
			AttrTitle:   fields.Excerpt,
			Description: fields.Content,
			Classes:     model.SplitClasses(firstMeta(meta, model.MetaItemClasses)),
			XFN:         firstMeta(meta, model.MetaItemXFN),
		},
	}
}

// DecodeSnapshot parses a stored snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return s, nil
}

// Fields returns the native fields to recreate the item with.
func (s Snapshot) Fields() ItemFields {
	return ItemFields(s.Post)
}

func firstMeta(meta map[string][]string, key string) string {
	if v := meta[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func metaInt(meta map[string][]string, key string) int64 {
	n, _ := strconv.ParseInt(firstMeta(meta, key), 10, 64)
	return n
}

// Recorder writes a history record for an item before it is deleted.
type Recorder struct {
	items   ItemStore
	history HistoryStore
	now     func() time.Time
}

// NewRecorder creates a Recorder.
func NewRecorder(items ItemStore, history HistoryStore) *Recorder {
	return &Recorder{items: items, history: history, now: time.Now}
}

// Record snapshots the item and stores it under session. It returns the id
// of the new history record.
func (r *Recorder) Record(ctx context.Context, itemID, menuID int64, menuName, session string) (int64, error) {
	fields, err := r.items.GetItemFields(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("reading item %d: %w", itemID, err)
	}
	meta, err := r.items.GetAllMetadata(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("reading metadata of item %d: %w", itemID, err)
	}
	title := r.items.ResolveTitle(ctx, itemID)

	data, err := json.Marshal(BuildSnapshot(fields, meta, title))
	if err != nil {
		return 0, fmt.Errorf("encoding snapshot: %w", err)
	}

	id, err := r.history.InsertRecord(ctx, HistoryRecord{
		Session:   session,
		ItemID:    itemID,
		MenuID:    menuID,
		MenuName:  menuName,
		ItemTitle: title,
		Snapshot:  data,
		DeletedAt: r.now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("inserting history record: %w", err)
	}
	return id, nil
}
