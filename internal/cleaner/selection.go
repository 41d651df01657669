// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cleaner

import (
	"context"
	"fmt"
)

// Skip reasons reported for items excluded by SkipParents.
const (
	ReasonHasChildren     = "has sub-items"
	ReasonProtectedParent = "child of protected parent"
)

// SelectParams describes one selection request.
type SelectParams struct {
	MenuID      int64
	Mode        Mode
	SkipParents bool
	BatchSize   int
	// Limit caps the number of candidates below BatchSize when positive.
	Limit  int
	Offset int
}

// SkippedItem is an item excluded from deletion, with the reason.
type SkippedItem struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Order  int64  `json:"order"`
	Reason string `json:"reason"`
}

// Selection is the outcome of Select.
type Selection struct {
	Candidates []MenuItem
	Skipped    []SkippedItem
	// HasMore is true when the candidates filled the whole batch.
	HasMore bool
}

// Selector picks the items a batch deletes.
type Selector struct {
	items ItemStore
}

// NewSelector creates a Selector over the given store.
func NewSelector(items ItemStore) *Selector {
	return &Selector{items: items}
}

// Select returns up to BatchSize candidates in position-descending order.
// SkipParents only applies to ModeCount.
func (s *Selector) Select(ctx context.Context, p SelectParams) (Selection, error) {
	size := ClampBatchSize(p.BatchSize)
	take := size
	if p.Limit > 0 && p.Limit < take {
		take = p.Limit
	}
	offset := max(p.Offset, 0)

	if p.SkipParents && p.Mode == ModeCount {
		return s.selectLeaves(ctx, p.MenuID, size, take, offset)
	}

	items, err := s.items.ListItems(ctx, p.MenuID, ListFilter{Mode: p.Mode, Limit: take, Offset: offset})
	if err != nil {
		return Selection{}, fmt.Errorf("listing items: %w: %w", ErrStore, err)
	}
	return Selection{Candidates: items, HasMore: len(items) == size}, nil
}

func (s *Selector) selectLeaves(ctx context.Context, menuID int64, size, take, offset int) (Selection, error) {
	items, err := s.items.ListItems(ctx, menuID, ListFilter{Mode: ModeCount})
	if err != nil {
		return Selection{}, fmt.Errorf("listing items: %w: %w", ErrStore, err)
	}

	protected := protectedItems(items)
	skipCap := min(2*size, maxSkippedShown)

	var eligible []MenuItem
	var skipped []SkippedItem
	for _, it := range items {
		reason := exclusionReason(it, protected)
		if reason == "" {
			eligible = append(eligible, it)
			continue
		}
		if len(skipped) < skipCap {
			skipped = append(skipped, SkippedItem{ID: it.ID, Title: it.Title, Order: it.Order, Reason: reason})
		}
	}

	var page []MenuItem
	if offset < len(eligible) {
		page = eligible[offset:min(offset+take, len(eligible))]
	}
	return Selection{Candidates: page, Skipped: skipped, HasMore: len(page) == size}, nil
}

// protectedItems returns the ids of items that are the parent of another
// item in the same menu.
func protectedItems(items []MenuItem) map[int64]bool {
	present := make(map[int64]bool, len(items))
	for _, it := range items {
		present[it.ID] = true
	}
	protected := make(map[int64]bool)
	for _, it := range items {
		if it.ParentID != 0 && present[it.ParentID] {
			protected[it.ParentID] = true
		}
	}
	return protected
}

// exclusionReason is the single predicate behind SkipParents. An empty
// result means the item may be deleted.
func exclusionReason(it MenuItem, protected map[int64]bool) string {
	if protected[it.ID] {
		return ReasonHasChildren
	}
	if it.ParentID != 0 && protected[it.ParentID] {
		return ReasonProtectedParent
	}
	return ""
}

// Count returns how many items of the menu match mode.
func (s *Selector) Count(ctx context.Context, menuID int64, mode Mode) (int64, error) {
	n, err := s.items.CountItems(ctx, menuID, mode)
	if err != nil {
		return 0, fmt.Errorf("counting items: %w: %w", ErrStore, err)
	}
	return n, nil
}
