// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package itemstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/menu-cleaner/internal/cleaner"
	"github.com/olegiv/menu-cleaner/internal/store"
)

const maxSessionsListed = 200

func toRecord(h store.MenuCleanerHistory) cleaner.HistoryRecord {
	return cleaner.HistoryRecord{
		ID:        h.ID,
		Session:   h.SessionID,
		ItemID:    h.ItemID,
		MenuID:    h.MenuID,
		MenuName:  h.MenuName,
		ItemTitle: h.ItemTitle,
		Snapshot:  []byte(h.ItemData),
		DeletedAt: h.DeletedAt,
		Restored:  h.Restored,
	}
}

func (s *Store) InsertRecord(ctx context.Context, rec cleaner.HistoryRecord) (int64, error) {
	deletedAt := rec.DeletedAt
	if deletedAt.IsZero() {
		deletedAt = s.now()
	}
	row, err := s.q.CreateHistoryRecord(ctx, store.CreateHistoryRecordParams{
		SessionID: rec.Session,
		ItemID:    rec.ItemID,
		MenuID:    rec.MenuID,
		MenuName:  rec.MenuName,
		ItemTitle: rec.ItemTitle,
		ItemData:  string(rec.Snapshot),
		DeletedAt: deletedAt.UTC(),
	})
	if err != nil {
		return 0, wrapErr("inserting history record", err)
	}
	return row.ID, nil
}

func (s *Store) ListSessionRecords(ctx context.Context, session string, recordIDs []int64) ([]cleaner.HistoryRecord, error) {
	var rows []store.MenuCleanerHistory
	var err error
	if recordIDs == nil {
		rows, err = s.q.ListUnrestoredHistoryBySession(ctx, session)
	} else {
		rows, err = s.q.ListUnrestoredHistoryByIDs(ctx, store.ListUnrestoredHistoryByIDsParams{
			SessionID: session,
			Ids:       recordIDs,
		})
	}
	if err != nil {
		return nil, wrapErr("listing history records", err)
	}
	records := make([]cleaner.HistoryRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, toRecord(r))
	}
	return records, nil
}

func (s *Store) DeleteRecord(ctx context.Context, recordID int64) error {
	if err := s.q.DeleteHistoryRecord(ctx, recordID); err != nil {
		return wrapErr("deleting history record", err)
	}
	return nil
}

func (s *Store) SessionExists(ctx context.Context, session string) (bool, error) {
	n, err := s.q.CountHistoryBySession(ctx, session)
	if err != nil {
		return false, wrapErr("counting history records", err)
	}
	return n > 0, nil
}

func (s *Store) MarkRestored(ctx context.Context, recordIDs []int64) error {
	if len(recordIDs) == 0 {
		return nil
	}
	_, err := s.q.MarkHistoryRestored(ctx, store.MarkHistoryRestoredParams{
		RestoredAt: sql.NullTime{Time: s.now(), Valid: true},
		Ids:        recordIDs,
	})
	if err != nil {
		return wrapErr("marking history restored", err)
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context) ([]cleaner.SessionSummary, error) {
	rows, err := s.q.ListHistorySessions(ctx, maxSessionsListed)
	if err != nil {
		return nil, wrapErr("listing history sessions", err)
	}
	sessions := make([]cleaner.SessionSummary, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, cleaner.SessionSummary{
			Session:    r.SessionID,
			MenuID:     r.MenuID,
			MenuName:   r.MenuName,
			ItemCount:  r.ItemCount,
			Unrestored: r.ItemCount - r.RestoredCount,
			CreatedAt:  r.DeletedAt,
		})
	}
	return sessions, nil
}

// PruneRestored deletes restored records older than cutoff.
func (s *Store) PruneRestored(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.q.DeleteRestoredHistoryBefore(ctx, cutoff.UTC())
	if err != nil {
		return 0, wrapErr("pruning history", err)
	}
	return n, nil
}

var _ cleaner.HistoryStore = (*Store)(nil)
