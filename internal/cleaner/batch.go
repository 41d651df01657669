// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cleaner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// BatchRequest is one batch of a deletion run.
type BatchRequest struct {
	MenuID      int64
	Mode        Mode
	SkipParents bool
	// BatchSize of zero or less selects DefaultBatchSize.
	BatchSize int
	Offset    int
	// Session is empty on the first batch of a run.
	Session string
	// Run, when set on a count run, limits selection to the remaining target.
	Run *RunState
}

// DeletedItem is an item removed by a batch.
type DeletedItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Order int64  `json:"order"`
}

// BatchResult reports what one batch did.
type BatchResult struct {
	Deleted      []DeletedItem `json:"deleted"`
	Count        int           `json:"count"`
	Skipped      []SkippedItem `json:"skipped"`
	SkippedCount int           `json:"skipped_count"`
	HasMore      bool          `json:"has_more"`
	Session      string        `json:"session"`
}

// Orchestrator runs single deletion batches.
type Orchestrator struct {
	items    ItemStore
	selector *Selector
	recorder *Recorder
	logger   *slog.Logger
	newToken func() string
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(items ItemStore, selector *Selector, recorder *Recorder, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		items:    items,
		selector: selector,
		recorder: recorder,
		logger:   logger,
		newToken: uuid.NewString,
	}
}

// DeleteBatch selects up to one batch of items, records each and deletes it.
// Per-item failures are logged and leave the item out of the result; a
// failed selection aborts the batch.
func (o *Orchestrator) DeleteBatch(ctx context.Context, req BatchRequest) (BatchResult, error) {
	if req.MenuID <= 0 {
		return BatchResult{}, fmt.Errorf("menu id is required: %w", ErrValidation)
	}
	size := DefaultBatchSize
	if req.BatchSize > 0 {
		size = ClampBatchSize(req.BatchSize)
	}

	menu, err := o.items.GetMenu(ctx, req.MenuID)
	if err != nil {
		return BatchResult{}, err
	}

	session := req.Session
	if session == "" {
		session = o.newToken()
	}
	res := BatchResult{Deleted: []DeletedItem{}, Skipped: []SkippedItem{}, Session: session}

	limit := 0
	if req.Run != nil && req.Mode == ModeCount {
		remaining := req.Run.Remaining()
		if remaining == 0 {
			return res, nil
		}
		limit = remaining
	}

	sel, err := o.selector.Select(ctx, SelectParams{
		MenuID:      req.MenuID,
		Mode:        req.Mode,
		SkipParents: req.SkipParents,
		BatchSize:   size,
		Limit:       limit,
		Offset:      req.Offset,
	})
	if err != nil {
		return BatchResult{}, err
	}

	// Once items are selected the batch runs to completion.
	ctx = context.WithoutCancel(ctx)
	for _, it := range sel.Candidates {
		recordID, err := o.recorder.Record(ctx, it.ID, menu.ID, menu.Name, session)
		if err != nil {
			o.logger.Warn("failed to record menu item before deletion",
				"item_id", it.ID, "menu_id", menu.ID, "error", err)
		}
		if err := o.items.DeleteItem(ctx, it.ID); err != nil {
			o.logger.Warn("failed to delete menu item", "item_id", it.ID, "menu_id", menu.ID, "error", err)
			o.discardRecord(ctx, recordID)
			continue
		}
		res.Deleted = append(res.Deleted, DeletedItem{ID: it.ID, Title: it.Title, Order: it.Order})
	}

	res.Count = len(res.Deleted)
	if sel.Skipped != nil {
		res.Skipped = sel.Skipped
	}
	res.SkippedCount = len(res.Skipped)
	res.HasMore = sel.HasMore

	o.logger.Debug("menu batch processed",
		"menu_id", menu.ID, "mode", req.Mode, "deleted", res.Count,
		"skipped", res.SkippedCount, "has_more", res.HasMore, "session", session)

	return res, nil
}

// discardRecord drops the history record of an item that is still in its
// menu, so a later restore does not duplicate it.
func (o *Orchestrator) discardRecord(ctx context.Context, recordID int64) {
	if recordID == 0 {
		return
	}
	if err := o.recorder.history.DeleteRecord(ctx, recordID); err != nil {
		o.logger.Error("failed to discard history record of undeleted item",
			"record_id", recordID, "error", err)
	}
}
