// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cleaner

import (
	"context"
	"fmt"
	"log/slog"
)

// Service bundles the selection, deletion and restore components behind the
// operations exposed over HTTP.
type Service struct {
	items        ItemStore
	history      HistoryStore
	selector     *Selector
	orchestrator *Orchestrator
	restorer     *Restorer
}

// NewService wires a Service over the given stores.
func NewService(items ItemStore, history HistoryStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	selector := NewSelector(items)
	recorder := NewRecorder(items, history)
	return &Service{
		items:        items,
		history:      history,
		selector:     selector,
		orchestrator: NewOrchestrator(items, selector, recorder, logger),
		restorer:     NewRestorer(items, history, logger),
	}
}

// Menus lists menus with their item counts.
func (s *Service) Menus(ctx context.Context) ([]Menu, error) {
	menus, err := s.items.ListMenus(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing menus: %w: %w", ErrStore, err)
	}
	return menus, nil
}

// Count returns how many items of an existing menu match mode.
func (s *Service) Count(ctx context.Context, menuID int64, mode Mode) (int64, error) {
	if menuID <= 0 {
		return 0, fmt.Errorf("menu id is required: %w", ErrValidation)
	}
	if _, err := s.items.GetMenu(ctx, menuID); err != nil {
		return 0, err
	}
	return s.selector.Count(ctx, menuID, mode)
}

// DeleteBatch runs one deletion batch.
func (s *Service) DeleteBatch(ctx context.Context, req BatchRequest) (BatchResult, error) {
	return s.orchestrator.DeleteBatch(ctx, req)
}

// Sessions lists deletion sessions, newest first.
func (s *Service) Sessions(ctx context.Context) ([]SessionSummary, error) {
	sessions, err := s.history.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w: %w", ErrStore, err)
	}
	return sessions, nil
}

// SessionItems returns the unrestored records of a session.
func (s *Service) SessionItems(ctx context.Context, session string) ([]HistoryRecord, error) {
	if session == "" {
		return nil, fmt.Errorf("session is required: %w", ErrValidation)
	}
	exists, err := s.history.SessionExists(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("checking session: %w: %w", ErrStore, err)
	}
	if !exists {
		return nil, fmt.Errorf("session %q: %w", session, ErrNotFound)
	}
	records, err := s.history.ListSessionRecords(ctx, session, nil)
	if err != nil {
		return nil, fmt.Errorf("listing session records: %w: %w", ErrStore, err)
	}
	return records, nil
}

// Restore recreates deleted items of a session.
func (s *Service) Restore(ctx context.Context, req RestoreRequest) (RestoreResult, error) {
	return s.restorer.Restore(ctx, req)
}
