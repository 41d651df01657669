// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cleaner

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/olegiv/menu-cleaner/internal/model"
)

// RestoreRequest selects the records to restore.
type RestoreRequest struct {
	Session string
	// TargetMenuID overrides the recorded menu when positive.
	TargetMenuID int64
	// RecordIDs are history record ids, not original item ids.
	RecordIDs []int64
	All       bool
}

// RestoredItem maps a history record to the recreated item.
type RestoredItem struct {
	RecordID int64  `json:"record_id"`
	OldID    int64  `json:"old_id"`
	NewID    int64  `json:"new_id"`
	Title    string `json:"title"`
}

// RestoreResult reports the outcome of a restore.
type RestoreResult struct {
	RestoredCount int            `json:"restored_count"`
	Restored      []RestoredItem `json:"restored"`
	Failed        []int64        `json:"failed,omitempty"`
}

// Restorer recreates deleted items from history.
type Restorer struct {
	items   ItemStore
	history HistoryStore
	logger  *slog.Logger
}

// NewRestorer creates a Restorer.
func NewRestorer(items ItemStore, history HistoryStore, logger *slog.Logger) *Restorer {
	return &Restorer{items: items, history: history, logger: logger}
}

type pendingRelink struct {
	newID  int64
	parent int64
}

// Restore recreates the selected records in two passes. The first pass
// creates every item with its metadata and menu assignment. The second pass
// rewrites parent links through the old to new id map so a parent restored in
// the same call is found regardless of record order. Processed records are
// marked restored in a single update.
func (r *Restorer) Restore(ctx context.Context, req RestoreRequest) (RestoreResult, error) {
	if req.Session == "" {
		return RestoreResult{}, fmt.Errorf("session is required: %w", ErrValidation)
	}
	if !req.All && len(req.RecordIDs) == 0 {
		return RestoreResult{}, fmt.Errorf("no items selected: %w", ErrValidation)
	}

	exists, err := r.history.SessionExists(ctx, req.Session)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("checking session: %w: %w", ErrStore, err)
	}
	if !exists {
		return RestoreResult{}, fmt.Errorf("session %q: %w", req.Session, ErrNotFound)
	}
	if req.TargetMenuID > 0 {
		if _, err := r.items.GetMenu(ctx, req.TargetMenuID); err != nil {
			return RestoreResult{}, err
		}
	}

	var ids []int64
	if !req.All {
		ids = req.RecordIDs
	}
	records, err := r.history.ListSessionRecords(ctx, req.Session, ids)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("listing session records: %w: %w", ErrStore, err)
	}

	res := RestoreResult{Restored: []RestoredItem{}}
	idMap := make(map[int64]int64, len(records))
	var relinks []pendingRelink
	var done []int64

	for _, rec := range records {
		snap, err := DecodeSnapshot(rec.Snapshot)
		if err != nil {
			r.logger.Warn("skipping history record with unreadable snapshot", "record_id", rec.ID, "error", err)
			res.Failed = append(res.Failed, rec.ID)
			continue
		}

		menuID := rec.MenuID
		if req.TargetMenuID > 0 {
			menuID = req.TargetMenuID
		}

		newID, err := r.recreate(ctx, snap, menuID)
		if err != nil {
			r.logger.Warn("failed to restore menu item", "record_id", rec.ID, "item_id", rec.ItemID, "error", err)
			res.Failed = append(res.Failed, rec.ID)
			continue
		}

		idMap[rec.ItemID] = newID
		relinks = append(relinks, pendingRelink{newID: newID, parent: snapshotParent(snap)})
		done = append(done, rec.ID)
		res.Restored = append(res.Restored, RestoredItem{
			RecordID: rec.ID,
			OldID:    rec.ItemID,
			NewID:    newID,
			Title:    rec.ItemTitle,
		})
	}

	for _, rl := range relinks {
		parent := idMap[rl.parent]
		value := strconv.FormatInt(parent, 10)
		if err := r.items.UpdateMetadata(ctx, rl.newID, model.MetaItemParent, value); err != nil {
			r.logger.Warn("failed to relink restored menu item", "item_id", rl.newID, "error", err)
		}
	}

	if len(done) > 0 {
		if err := r.history.MarkRestored(ctx, done); err != nil {
			return res, fmt.Errorf("marking records restored: %w: %w", ErrStore, err)
		}
	}
	res.RestoredCount = len(done)
	return res, nil
}

// recreate creates the item, copies its metadata except the parent link and
// assigns it to menuID.
func (r *Restorer) recreate(ctx context.Context, snap Snapshot, menuID int64) (int64, error) {
	newID, err := r.items.CreateItem(ctx, snap.Fields())
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	keys := make([]string, 0, len(snap.Meta))
	for k := range snap.Meta {
		if k != model.MetaItemParent {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range snap.Meta[k] {
			if err := r.items.AddMetadata(ctx, newID, k, v); err != nil {
				r.logger.Warn("failed to copy menu item metadata", "item_id", newID, "key", k, "error", err)
			}
		}
	}

	if err := r.items.AssignToMenu(ctx, newID, menuID); err != nil {
		if derr := r.items.DeleteItem(ctx, newID); derr != nil {
			r.logger.Warn("failed to remove unassigned menu item", "item_id", newID, "error", derr)
		}
		return 0, fmt.Errorf("assigning to menu %d: %w", menuID, err)
	}
	return newID, nil
}

func snapshotParent(s Snapshot) int64 {
	if s.Nav.Parent != 0 {
		return s.Nav.Parent
	}
	return metaInt(s.Meta, model.MetaItemParent)
}
