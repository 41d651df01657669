// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"password_hash"`
	Role         string       `json:"role"`
	Name         string       `json:"name"`
	LastLoginAt  sql.NullTime `json:"last_login_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type ApiKey struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	KeyHash     string       `json:"key_hash"`
	KeyPrefix   string       `json:"key_prefix"`
	Permissions string       `json:"permissions"`
	IsActive    bool         `json:"is_active"`
	LastUsedAt  sql.NullTime `json:"last_used_at"`
	ExpiresAt   sql.NullTime `json:"expires_at"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Event struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	UserID    sql.NullInt64 `json:"user_id"`
	IpAddress string        `json:"ip_address"`
	Metadata  string        `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	PostType  string    `json:"post_type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Term struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Taxonomy  string    `json:"taxonomy"`
	CreatedAt time.Time `json:"created_at"`
}

type Menu struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MenuItem struct {
	ID        int64         `json:"id"`
	MenuID    sql.NullInt64 `json:"menu_id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Excerpt   string        `json:"excerpt"`
	Status    string        `json:"status"`
	Position  int64         `json:"position"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type MenuItemMetum struct {
	ID        int64  `json:"id"`
	ItemID    int64  `json:"item_id"`
	MetaKey   string `json:"meta_key"`
	MetaValue string `json:"meta_value"`
}

type MenuCleanerHistory struct {
	ID         int64        `json:"id"`
	SessionID  string       `json:"session_id"`
	ItemID     int64        `json:"item_id"`
	MenuID     int64        `json:"menu_id"`
	MenuName   string       `json:"menu_name"`
	ItemTitle  string       `json:"item_title"`
	ItemData   string       `json:"item_data"`
	DeletedAt  time.Time    `json:"deleted_at"`
	Restored   bool         `json:"restored"`
	RestoredAt sql.NullTime `json:"restored_at"`
}
