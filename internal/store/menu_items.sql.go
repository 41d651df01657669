// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// navPivot flattens the navigation meta rows of each item into columns.
const navPivot = `
SELECT i.id, i.menu_id, i.title, i.status, i.position,
       COALESCE(MAX(CASE WHEN m.meta_key = '_menu_item_type' THEN m.meta_value END), 'custom') AS item_type,
       COALESCE(MAX(CASE WHEN m.meta_key = '_menu_item_object' THEN m.meta_value END), '') AS object,
       CAST(COALESCE(MAX(CASE WHEN m.meta_key = '_menu_item_object_id' THEN m.meta_value END), '0') AS INTEGER) AS object_id,
       CAST(COALESCE(MAX(CASE WHEN m.meta_key = '_menu_item_menu_item_parent' THEN m.meta_value END), '0') AS INTEGER) AS parent_id
FROM menu_items i
LEFT JOIN menu_item_meta m ON m.item_id = i.id
`

const navSelect = `
SELECT n.id, n.menu_id, n.title, n.status, n.position, n.item_type, n.object, n.object_id, n.parent_id,
       CASE n.item_type WHEN 'post_type' THEN COALESCE(p.title, '') WHEN 'taxonomy' THEN COALESCE(t.name, '') ELSE '' END AS object_title,
       CASE n.item_type WHEN 'post_type' THEN COALESCE(p.status, '') ELSE '' END AS object_status,
       CASE n.item_type WHEN 'post_type' THEN p.id IS NOT NULL WHEN 'taxonomy' THEN t.id IS NOT NULL ELSE 1 END AS object_exists,
       EXISTS (
           SELECT 1 FROM menu_item_meta pm
           JOIN menu_items c ON c.id = pm.item_id
           WHERE pm.meta_key = '_menu_item_menu_item_parent'
             AND pm.meta_value = CAST(n.id AS TEXT)
             AND c.menu_id = n.menu_id
       ) AS has_children
FROM nav n
LEFT JOIN posts p ON n.item_type = 'post_type' AND p.id = n.object_id
LEFT JOIN terms t ON n.item_type = 'taxonomy' AND t.id = n.object_id
`

// navModeFilter takes the mode three times.
const navModeFilter = `
WHERE (? = 'count'
   OR (? = 'draft' AND n.item_type = 'post_type' AND p.status IN ('draft', 'pending', 'auto-draft'))
   OR (? = 'orphaned' AND n.item_type IN ('post_type', 'taxonomy') AND p.id IS NULL AND t.id IS NULL))
`

const listMenuItemNav = `-- name: ListMenuItemNav :many
WITH nav AS (` + navPivot + `WHERE i.menu_id = ? GROUP BY i.id)` + navSelect + navModeFilter + `
ORDER BY n.position DESC, n.id DESC
LIMIT ? OFFSET ?
`

type ListMenuItemNavParams struct {
	MenuID int64  `json:"menu_id"`
	Mode   string `json:"mode"`
	Limit  int64  `json:"limit"`
	Offset int64  `json:"offset"`
}

type MenuItemNavRow struct {
	ID           int64         `json:"id"`
	MenuID       sql.NullInt64 `json:"menu_id"`
	Title        string        `json:"title"`
	Status       string        `json:"status"`
	Position     int64         `json:"position"`
	ItemType     string        `json:"item_type"`
	Object       string        `json:"object"`
	ObjectID     int64         `json:"object_id"`
	ParentID     int64         `json:"parent_id"`
	ObjectTitle  string        `json:"object_title"`
	ObjectStatus string        `json:"object_status"`
	ObjectExists bool          `json:"object_exists"`
	HasChildren  bool          `json:"has_children"`
}

func scanMenuItemNav(row interface{ Scan(...any) error }) (MenuItemNavRow, error) {
	var i MenuItemNavRow
	err := row.Scan(
		&i.ID,
		&i.MenuID,
		&i.Title,
		&i.Status,
		&i.Position,
		&i.ItemType,
		&i.Object,
		&i.ObjectID,
		&i.ParentID,
		&i.ObjectTitle,
		&i.ObjectStatus,
		&i.ObjectExists,
		&i.HasChildren,
	)
	return i, err
}

// ListMenuItemNav returns the items of a menu matching mode, highest
// position first. A negative Limit returns every row.
func (q *Queries) ListMenuItemNav(ctx context.Context, arg ListMenuItemNavParams) ([]MenuItemNavRow, error) {
	rows, err := q.db.QueryContext(ctx, listMenuItemNav,
		arg.MenuID,
		arg.Mode,
		arg.Mode,
		arg.Mode,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItemNavRow
	for rows.Next() {
		i, err := scanMenuItemNav(rows)
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

const countMenuItemNav = `-- name: CountMenuItemNav :one
WITH nav AS (` + navPivot + `WHERE i.menu_id = ? GROUP BY i.id)
SELECT COUNT(*) FROM (` + navSelect + navModeFilter + `)
`

type CountMenuItemNavParams struct {
	MenuID int64  `json:"menu_id"`
	Mode   string `json:"mode"`
}

func (q *Queries) CountMenuItemNav(ctx context.Context, arg CountMenuItemNavParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countMenuItemNav, arg.MenuID, arg.Mode, arg.Mode, arg.Mode)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getMenuItemNav = `-- name: GetMenuItemNav :one
WITH nav AS (` + navPivot + `WHERE i.id = ? GROUP BY i.id)` + navSelect

func (q *Queries) GetMenuItemNav(ctx context.Context, id int64) (MenuItemNavRow, error) {
	return scanMenuItemNav(q.db.QueryRowContext(ctx, getMenuItemNav, id))
}

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu_items (menu_id, title, content, excerpt, status, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, menu_id, title, content, excerpt, status, position, created_at, updated_at
`

type CreateMenuItemParams struct {
	MenuID    sql.NullInt64 `json:"menu_id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Excerpt   string        `json:"excerpt"`
	Status    string        `json:"status"`
	Position  int64         `json:"position"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRowContext(ctx, createMenuItem,
		arg.MenuID,
		arg.Title,
		arg.Content,
		arg.Excerpt,
		arg.Status,
		arg.Position,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.MenuID,
		&i.Title,
		&i.Content,
		&i.Excerpt,
		&i.Status,
		&i.Position,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getMenuItem = `-- name: GetMenuItem :one
SELECT id, menu_id, title, content, excerpt, status, position, created_at, updated_at FROM menu_items
WHERE id = ?
`

func (q *Queries) GetMenuItem(ctx context.Context, id int64) (MenuItem, error) {
	row := q.db.QueryRowContext(ctx, getMenuItem, id)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.MenuID,
		&i.Title,
		&i.Content,
		&i.Excerpt,
		&i.Status,
		&i.Position,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteMenuItem = `-- name: DeleteMenuItem :execrows
DELETE FROM menu_items WHERE id = ?
`

func (q *Queries) DeleteMenuItem(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMenuItem, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const assignMenuItemToMenu = `-- name: AssignMenuItemToMenu :execrows
UPDATE menu_items SET menu_id = ?, updated_at = ? WHERE id = ?
`

type AssignMenuItemToMenuParams struct {
	MenuID    sql.NullInt64 `json:"menu_id"`
	UpdatedAt time.Time     `json:"updated_at"`
	ID        int64         `json:"id"`
}

func (q *Queries) AssignMenuItemToMenu(ctx context.Context, arg AssignMenuItemToMenuParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, assignMenuItemToMenu, arg.MenuID, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
