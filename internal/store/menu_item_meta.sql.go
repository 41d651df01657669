// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import "context"

const addMenuItemMeta = `-- name: AddMenuItemMeta :exec
INSERT INTO menu_item_meta (item_id, meta_key, meta_value) VALUES (?, ?, ?)
`

type AddMenuItemMetaParams struct {
	ItemID    int64  `json:"item_id"`
	MetaKey   string `json:"meta_key"`
	MetaValue string `json:"meta_value"`
}

func (q *Queries) AddMenuItemMeta(ctx context.Context, arg AddMenuItemMetaParams) error {
	_, err := q.db.ExecContext(ctx, addMenuItemMeta, arg.ItemID, arg.MetaKey, arg.MetaValue)
	return err
}

const deleteMenuItemMeta = `-- name: DeleteMenuItemMeta :exec
DELETE FROM menu_item_meta WHERE item_id = ?
`

func (q *Queries) DeleteMenuItemMeta(ctx context.Context, itemID int64) error {
	_, err := q.db.ExecContext(ctx, deleteMenuItemMeta, itemID)
	return err
}

const listMenuItemMeta = `-- name: ListMenuItemMeta :many
SELECT id, item_id, meta_key, meta_value FROM menu_item_meta
WHERE item_id = ?
ORDER BY id
`

func (q *Queries) ListMenuItemMeta(ctx context.Context, itemID int64) ([]MenuItemMetum, error) {
	rows, err := q.db.QueryContext(ctx, listMenuItemMeta, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItemMetum
	for rows.Next() {
		var i MenuItemMetum
		if err := rows.Scan(
			&i.ID,
			&i.ItemID,
			&i.MetaKey,
			&i.MetaValue,
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

const updateMenuItemMeta = `-- name: UpdateMenuItemMeta :execrows
UPDATE menu_item_meta SET meta_value = ? WHERE item_id = ? AND meta_key = ?
`

type UpdateMenuItemMetaParams struct {
	MetaValue string `json:"meta_value"`
	ItemID    int64  `json:"item_id"`
	MetaKey   string `json:"meta_key"`
}

func (q *Queries) UpdateMenuItemMeta(ctx context.Context, arg UpdateMenuItemMetaParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateMenuItemMeta, arg.MetaValue, arg.ItemID, arg.MetaKey)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
