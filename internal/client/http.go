// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/menu-cleaner/internal/cleaner"
)

// APIError is a failure envelope returned by the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status to the matching cleaner sentinel, so callers can
// use errors.Is the same way for remote and in-process runs.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest:
		return cleaner.ErrValidation
	case e.StatusCode == http.StatusNotFound:
		return cleaner.ErrNotFound
	case e.StatusCode >= 500:
		return cleaner.ErrStore
	}
	return nil
}

// HTTPClient calls the /api/v1/cleaner endpoints with a bearer API key.
type HTTPClient struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

// NewHTTPClient creates a client for baseURL, e.g.
// "http://localhost:8080/api/v1/cleaner". hc may be nil.
func NewHTTPClient(baseURL, apiKey string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, hc: hc}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("decoding response: %w", err)
	}
	if !env.Success || resp.StatusCode >= 400 {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(env.Data, &msg)
		status := resp.StatusCode
		if status < 400 {
			status = http.StatusInternalServerError
		}
		return &APIError{StatusCode: status, Message: msg.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}
	return nil
}

// Menus lists menus with their item counts.
func (c *HTTPClient) Menus(ctx context.Context) ([]cleaner.Menu, error) {
	var out struct {
		Menus []cleaner.Menu `json:"menus"`
	}
	if err := c.do(ctx, http.MethodGet, "/menus", nil, &out); err != nil {
		return nil, err
	}
	return out.Menus, nil
}

// Count returns how many items of the menu match mode.
func (c *HTTPClient) Count(ctx context.Context, menuID int64, mode cleaner.Mode) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	err := c.do(ctx, http.MethodPost, "/count", map[string]any{"menu_id": menuID, "mode": mode}, &out)
	return out.Count, err
}

// DeleteBatch runs one batch. Run progress is sent along when req.Run has a
// target.
func (c *HTTPClient) DeleteBatch(ctx context.Context, req cleaner.BatchRequest) (cleaner.BatchResult, error) {
	body := map[string]any{
		"menu_id":      req.MenuID,
		"mode":         req.Mode,
		"skip_parents": req.SkipParents,
		"batch_size":   req.BatchSize,
		"offset":       0,
		"session":      req.Session,
	}
	if req.Run != nil && req.Run.TargetCount > 0 {
		body["target_count"] = req.Run.TargetCount
		body["deleted_so_far"] = req.Run.DeletedSoFar
		body["skipped_so_far"] = req.Run.SkippedSoFar
	}

	var res cleaner.BatchResult
	if err := c.do(ctx, http.MethodPost, "/delete-batch", body, &res); err != nil {
		return cleaner.BatchResult{}, err
	}
	return res, nil
}

// Sessions lists deletion sessions, newest first.
func (c *HTTPClient) Sessions(ctx context.Context) ([]cleaner.SessionSummary, error) {
	var out struct {
		Sessions []cleaner.SessionSummary `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// SessionItems lists the unrestored records of a session.
func (c *HTTPClient) SessionItems(ctx context.Context, session string) ([]cleaner.HistoryRecord, error) {
	var out struct {
		Items []cleaner.HistoryRecord `json:"items"`
	}
	if err := c.do(ctx, http.MethodPost, "/session-items", map[string]any{"session": session}, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Restore recreates records of a session.
func (c *HTTPClient) Restore(ctx context.Context, req cleaner.RestoreRequest) (cleaner.RestoreResult, error) {
	body := map[string]any{"session": req.Session}
	if req.All {
		body["items"] = "all"
	} else {
		body["items"] = req.RecordIDs
	}
	if req.TargetMenuID > 0 {
		body["menu_id"] = req.TargetMenuID
	}

	var res cleaner.RestoreResult
	if err := c.do(ctx, http.MethodPost, "/restore", body, &res); err != nil {
		return cleaner.RestoreResult{}, err
	}
	return res, nil
}

var (
	_ BatchAPI = (*HTTPClient)(nil)
	_ BatchAPI = (*cleaner.Service)(nil)
)
