// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const countMenus = `-- name: CountMenus :one
SELECT COUNT(*) FROM menus
`

func (q *Queries) CountMenus(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countMenus)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createMenu = `-- name: CreateMenu :one
INSERT INTO menus (name, slug, created_at, updated_at)
VALUES (?, ?, ?, ?)
RETURNING id, name, slug, created_at, updated_at
`

type CreateMenuParams struct {
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Queries) CreateMenu(ctx context.Context, arg CreateMenuParams) (Menu, error) {
	row := q.db.QueryRowContext(ctx, createMenu,
		arg.Name,
		arg.Slug,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i Menu
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Slug,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getMenuByID = `-- name: GetMenuByID :one
SELECT id, name, slug, created_at, updated_at FROM menus
WHERE id = ?
`

func (q *Queries) GetMenuByID(ctx context.Context, id int64) (Menu, error) {
	row := q.db.QueryRowContext(ctx, getMenuByID, id)
	var i Menu
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Slug,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listMenusWithItemCount = `-- name: ListMenusWithItemCount :many
SELECT m.id, m.name, m.slug, m.created_at, m.updated_at,
       (SELECT COUNT(*) FROM menu_items i WHERE i.menu_id = m.id) AS item_count
FROM menus m
ORDER BY m.name, m.id
`

type ListMenusWithItemCountRow struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ItemCount int64     `json:"item_count"`
}

func (q *Queries) ListMenusWithItemCount(ctx context.Context) ([]ListMenusWithItemCountRow, error) {
	rows, err := q.db.QueryContext(ctx, listMenusWithItemCount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListMenusWithItemCountRow
	for rows.Next() {
		var i ListMenusWithItemCountRow
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Slug,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.ItemCount,
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
