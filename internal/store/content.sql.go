// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createPost = `-- name: CreatePost :one
INSERT INTO posts (title, post_type, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, title, post_type, status, created_at, updated_at
`

type CreatePostParams struct {
	Title     string    `json:"title"`
	PostType  string    `json:"post_type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.Title,
		arg.PostType,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i Post
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.PostType,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deletePost = `-- name: DeletePost :exec
DELETE FROM posts WHERE id = ?
`

func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePost, id)
	return err
}

const updatePostStatus = `-- name: UpdatePostStatus :exec
UPDATE posts SET status = ?, updated_at = ? WHERE id = ?
`

type UpdatePostStatusParams struct {
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        int64     `json:"id"`
}

func (q *Queries) UpdatePostStatus(ctx context.Context, arg UpdatePostStatusParams) error {
	_, err := q.db.ExecContext(ctx, updatePostStatus, arg.Status, arg.UpdatedAt, arg.ID)
	return err
}

const createTerm = `-- name: CreateTerm :one
INSERT INTO terms (name, taxonomy, created_at)
VALUES (?, ?, ?)
RETURNING id, name, taxonomy, created_at
`

type CreateTermParams struct {
	Name      string    `json:"name"`
	Taxonomy  string    `json:"taxonomy"`
	CreatedAt time.Time `json:"created_at"`
}

func (q *Queries) CreateTerm(ctx context.Context, arg CreateTermParams) (Term, error) {
	row := q.db.QueryRowContext(ctx, createTerm, arg.Name, arg.Taxonomy, arg.CreatedAt)
	var i Term
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Taxonomy,
		&i.CreatedAt,
	)
	return i, err
}

const deleteTerm = `-- name: DeleteTerm :exec
DELETE FROM terms WHERE id = ?
`

func (q *Queries) DeleteTerm(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTerm, id)
	return err
}
