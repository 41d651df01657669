// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const historyColumns = `id, session_id, item_id, menu_id, menu_name, item_title, item_data, deleted_at, restored, restored_at`

func scanHistory(row interface{ Scan(...any) error }) (MenuCleanerHistory, error) {
	var i MenuCleanerHistory
	err := row.Scan(
		&i.ID,
		&i.SessionID,
		&i.ItemID,
		&i.MenuID,
		&i.MenuName,
		&i.ItemTitle,
		&i.ItemData,
		&i.DeletedAt,
		&i.Restored,
		&i.RestoredAt,
	)
	return i, err
}

func collectHistory(rows *sql.Rows) ([]MenuCleanerHistory, error) {
	defer rows.Close()
	var items []MenuCleanerHistory
	for rows.Next() {
		i, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// expandSlice replaces the /*SLICE:name*/? marker with one placeholder per id
// and appends the ids to args.
func expandSlice(query, name string, ids []int64, args []any) (string, []any) {
	marker := "/*SLICE:" + name + "*/?"
	if len(ids) == 0 {
		return strings.Replace(query, marker, "NULL", 1), args
	}
	for _, id := range ids {
		args = append(args, id)
	}
	return strings.Replace(query, marker, strings.Repeat(",?", len(ids))[1:], 1), args
}

const createHistoryRecord = `-- name: CreateHistoryRecord :one
INSERT INTO menu_cleaner_history (session_id, item_id, menu_id, menu_name, item_title, item_data, deleted_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + historyColumns

type CreateHistoryRecordParams struct {
	SessionID string    `json:"session_id"`
	ItemID    int64     `json:"item_id"`
	MenuID    int64     `json:"menu_id"`
	MenuName  string    `json:"menu_name"`
	ItemTitle string    `json:"item_title"`
	ItemData  string    `json:"item_data"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (q *Queries) CreateHistoryRecord(ctx context.Context, arg CreateHistoryRecordParams) (MenuCleanerHistory, error) {
	row := q.db.QueryRowContext(ctx, createHistoryRecord,
		arg.SessionID,
		arg.ItemID,
		arg.MenuID,
		arg.MenuName,
		arg.ItemTitle,
		arg.ItemData,
		arg.DeletedAt,
	)
	return scanHistory(row)
}

const countHistoryBySession = `-- name: CountHistoryBySession :one
SELECT COUNT(*) FROM menu_cleaner_history WHERE session_id = ?
`

func (q *Queries) CountHistoryBySession(ctx context.Context, sessionID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countHistoryBySession, sessionID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listUnrestoredHistoryBySession = `-- name: ListUnrestoredHistoryBySession :many
SELECT ` + historyColumns + ` FROM menu_cleaner_history
WHERE session_id = ? AND restored = 0
ORDER BY id
`

func (q *Queries) ListUnrestoredHistoryBySession(ctx context.Context, sessionID string) ([]MenuCleanerHistory, error) {
	rows, err := q.db.QueryContext(ctx, listUnrestoredHistoryBySession, sessionID)
	if err != nil {
		return nil, err
	}
	return collectHistory(rows)
}

const listUnrestoredHistoryByIDs = `-- name: ListUnrestoredHistoryByIDs :many
SELECT ` + historyColumns + ` FROM menu_cleaner_history
WHERE session_id = ? AND restored = 0 AND id IN (/*SLICE:ids*/?)
ORDER BY id
`

type ListUnrestoredHistoryByIDsParams struct {
	SessionID string  `json:"session_id"`
	Ids       []int64 `json:"ids"`
}

func (q *Queries) ListUnrestoredHistoryByIDs(ctx context.Context, arg ListUnrestoredHistoryByIDsParams) ([]MenuCleanerHistory, error) {
	query, args := expandSlice(listUnrestoredHistoryByIDs, "ids", arg.Ids, []any{arg.SessionID})
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectHistory(rows)
}

const markHistoryRestored = `-- name: MarkHistoryRestored :execrows
UPDATE menu_cleaner_history SET restored = 1, restored_at = ?
WHERE id IN (/*SLICE:ids*/?)
`

type MarkHistoryRestoredParams struct {
	RestoredAt sql.NullTime `json:"restored_at"`
	Ids        []int64      `json:"ids"`
}

func (q *Queries) MarkHistoryRestored(ctx context.Context, arg MarkHistoryRestoredParams) (int64, error) {
	query, args := expandSlice(markHistoryRestored, "ids", arg.Ids, []any{arg.RestoredAt})
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listHistorySessions = `-- name: ListHistorySessions :many
SELECT h.session_id, h.menu_id, h.menu_name, h.deleted_at, s.item_count, s.restored_count
FROM (
    SELECT session_id, MIN(id) AS first_id, COUNT(*) AS item_count, SUM(restored) AS restored_count
    FROM menu_cleaner_history
    GROUP BY session_id
) s
JOIN menu_cleaner_history h ON h.id = s.first_id
ORDER BY h.id DESC
LIMIT ?
`

type ListHistorySessionsRow struct {
	SessionID     string    `json:"session_id"`
	MenuID        int64     `json:"menu_id"`
	MenuName      string    `json:"menu_name"`
	DeletedAt     time.Time `json:"deleted_at"`
	ItemCount     int64     `json:"item_count"`
	RestoredCount int64     `json:"restored_count"`
}

func (q *Queries) ListHistorySessions(ctx context.Context, limit int64) ([]ListHistorySessionsRow, error) {
	rows, err := q.db.QueryContext(ctx, listHistorySessions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListHistorySessionsRow
	for rows.Next() {
		var i ListHistorySessionsRow
		if err := rows.Scan(
			&i.SessionID,
			&i.MenuID,
			&i.MenuName,
			&i.DeletedAt,
			&i.ItemCount,
			&i.RestoredCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteRestoredHistoryBefore = `-- name: DeleteRestoredHistoryBefore :execrows
DELETE FROM menu_cleaner_history WHERE restored = 1 AND deleted_at < ?
`

func (q *Queries) DeleteRestoredHistoryBefore(ctx context.Context, deletedAt time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRestoredHistoryBefore, deletedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteHistoryRecord = `-- name: DeleteHistoryRecord :exec
DELETE FROM menu_cleaner_history WHERE id = ?
`

func (q *Queries) DeleteHistoryRecord(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteHistoryRecord, id)
	return err
}
