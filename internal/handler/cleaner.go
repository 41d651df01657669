// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/menu-cleaner/internal/cache"
	"github.com/olegiv/menu-cleaner/internal/cleaner"
	"github.com/olegiv/menu-cleaner/internal/middleware"
	"github.com/olegiv/menu-cleaner/internal/model"
	"github.com/olegiv/menu-cleaner/internal/service"
)

// CleanerHandler serves the menu cleaner endpoints for both the admin
// session routes and the API key routes.
type CleanerHandler struct {
	svc              *cleaner.Service
	counts           *cache.CountCache
	events           *service.EventService
	logger           *slog.Logger
	defaultBatchSize int
}

// NewCleanerHandler creates a CleanerHandler. counts and events may be nil.
func NewCleanerHandler(svc *cleaner.Service, counts *cache.CountCache, events *service.EventService, logger *slog.Logger, defaultBatchSize int) *CleanerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultBatchSize <= 0 {
		defaultBatchSize = cleaner.DefaultBatchSize
	}
	return &CleanerHandler{
		svc:              svc,
		counts:           counts,
		events:           events,
		logger:           logger,
		defaultBatchSize: cleaner.ClampBatchSize(defaultBatchSize),
	}
}

// Routes registers the read routes on r and the write routes on w. The two
// may be the same router.
func (h *CleanerHandler) Routes(read, write chi.Router) {
	read.Get(RouteMenus, h.Menus)
	read.Post(RouteCount, h.Count)
	read.Get(RouteSessions, h.Sessions)
	read.Post(RouteSessionItems, h.SessionItems)
	write.Post(RouteDeleteBatch, h.DeleteBatch)
	write.Post(RouteRestore, h.Restore)
}

// Menus handles GET /menus.
func (h *CleanerHandler) Menus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.svc.Menus(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if menus == nil {
		menus = []cleaner.Menu{}
	}
	writeJSONSuccess(w, map[string]any{"menus": menus})
}

type countRequest struct {
	MenuID flexInt `json:"menu_id"`
	Mode   string  `json:"mode"`
}

// Count handles POST /count.
func (h *CleanerHandler) Count(w http.ResponseWriter, r *http.Request) {
	var req countRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	menuID := req.MenuID.Or(0)
	if menuID <= 0 {
		writeJSONError(w, http.StatusBadRequest, "Invalid menu ID.")
		return
	}
	mode := cleaner.ParseMode(req.Mode)

	load := func(ctx context.Context) (int, error) {
		n, err := h.svc.Count(ctx, menuID, mode)
		return int(n), err
	}

	var (
		n   int
		err error
	)
	if h.counts != nil {
		n, err = h.counts.GetOrLoad(r.Context(), menuID, string(mode), load)
	} else {
		n, err = load(r.Context())
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"count": n, "mode": mode})
}

type deleteBatchRequest struct {
	MenuID      flexInt  `json:"menu_id"`
	Mode        string   `json:"mode"`
	SkipParents flexBool `json:"skip_parents"`
	BatchSize   flexInt  `json:"batch_size"`
	Session     string   `json:"session"`

	// Optional run progress. A positive target limits the batch to the
	// items still missing from it.
	TargetCount  flexInt `json:"target_count"`
	DeletedSoFar flexInt `json:"deleted_so_far"`
	SkippedSoFar flexInt `json:"skipped_so_far"`
}

// batchSize maps an absent, unparsable or non-positive size to the default
// and clamps the rest.
func (h *CleanerHandler) batchSize(f flexInt) int {
	if !f.Set || f.Value <= 0 {
		return h.defaultBatchSize
	}
	return cleaner.ClampBatchSize(int(f.Value))
}

// DeleteBatch handles POST /delete-batch. The offset is always zero since
// deleted items drop out of the next query.
func (h *CleanerHandler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	var req deleteBatchRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	menuID := req.MenuID.Or(0)
	if menuID <= 0 {
		writeJSONError(w, http.StatusBadRequest, "Invalid menu ID.")
		return
	}

	mode := cleaner.ParseMode(req.Mode)
	batch := cleaner.BatchRequest{
		MenuID:      menuID,
		Mode:        mode,
		SkipParents: bool(req.SkipParents),
		BatchSize:   h.batchSize(req.BatchSize),
		Offset:      0,
		Session:     strings.TrimSpace(req.Session),
	}
	if target := req.TargetCount.Or(0); target > 0 {
		run := cleaner.NewRunState(mode, int(target))
		run.DeletedSoFar = int(max(req.DeletedSoFar.Or(0), 0))
		run.SkippedSoFar = int(max(req.SkippedSoFar.Or(0), 0))
		batch.Run = run
	}

	// A started batch finishes even if the client goes away or the request
	// times out.
	res, err := h.svc.DeleteBatch(context.WithoutCancel(r.Context()), batch)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	if res.Count > 0 {
		if h.counts != nil {
			if err := h.counts.Invalidate(r.Context(), menuID); err != nil {
				h.logger.Warn("failed to invalidate menu counts", "menu_id", menuID, "error", err)
			}
		}
		h.logEvent(r, "Menu items deleted", map[string]any{
			"menu_id": menuID,
			"mode":    string(mode),
			"session": res.Session,
			"count":   res.Count,
			"skipped": res.SkippedCount,
		})
	}

	writeJSONSuccess(w, res)
}

// Sessions handles GET /sessions.
func (h *CleanerHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.Sessions(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if sessions == nil {
		sessions = []cleaner.SessionSummary{}
	}
	writeJSONSuccess(w, map[string]any{"sessions": sessions})
}

type sessionItemsRequest struct {
	Session string `json:"session"`
}

// SessionItems handles POST /session-items.
func (h *CleanerHandler) SessionItems(w http.ResponseWriter, r *http.Request) {
	var req sessionItemsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	items, err := h.svc.SessionItems(r.Context(), strings.TrimSpace(req.Session))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if items == nil {
		items = []cleaner.HistoryRecord{}
	}
	writeJSONSuccess(w, map[string]any{"items": items})
}

type restoreRequest struct {
	Session string       `json:"session"`
	MenuID  flexInt      `json:"menu_id"`
	Items   restoreItems `json:"items"`
}

// Restore handles POST /restore.
func (h *CleanerHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	res, err := h.svc.Restore(r.Context(), cleaner.RestoreRequest{
		Session:      strings.TrimSpace(req.Session),
		TargetMenuID: max(req.MenuID.Or(0), 0),
		RecordIDs:    req.Items.IDs,
		All:          req.Items.All,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	if res.RestoredCount > 0 {
		if h.counts != nil {
			if err := h.counts.InvalidateAll(r.Context()); err != nil {
				h.logger.Warn("failed to invalidate menu counts", "error", err)
			}
		}
		h.logEvent(r, "Menu items restored", map[string]any{
			"session":  req.Session,
			"restored": res.RestoredCount,
			"failed":   len(res.Failed),
		})
	}
	if res.Restored == nil {
		res.Restored = []cleaner.RestoredItem{}
	}
	writeJSONSuccess(w, res)
}

// logEvent records a cleaner event attributed to the session user or API key.
func (h *CleanerHandler) logEvent(r *http.Request, message string, metadata map[string]any) {
	if h.events == nil {
		return
	}
	if key := middleware.GetAPIKey(r); key != nil {
		metadata["api_key"] = key.KeyPrefix
	}
	if err := h.events.LogCleanerEvent(r.Context(), model.EventLevelInfo, message,
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), metadata); err != nil {
		h.logger.Debug("failed to record cleaner event", "error", err)
	}
}
