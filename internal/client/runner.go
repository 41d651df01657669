// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package client drives deletion runs as a sequence of batch calls, either
// against the HTTP API or an in-process cleaner.Service.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/menu-cleaner/internal/cleaner"
)

// DefaultDelay is the pause between two batches of a run.
const DefaultDelay = 100 * time.Millisecond

// BatchAPI is the part of the cleaner a run needs. *cleaner.Service and
// *HTTPClient both implement it.
type BatchAPI interface {
	Count(ctx context.Context, menuID int64, mode cleaner.Mode) (int64, error)
	DeleteBatch(ctx context.Context, req cleaner.BatchRequest) (cleaner.BatchResult, error)
}

// ErrNoTarget is returned for a count run without a positive target.
var ErrNoTarget = errors.New("count mode needs a positive target")

// RunOptions describes one deletion run.
type RunOptions struct {
	MenuID      int64
	Mode        cleaner.Mode
	SkipParents bool
	// Target is the number of items to delete in count mode. Draft and
	// orphaned runs ignore it and use the upfront count instead.
	Target int
}

// Progress is reported after every batch.
type Progress struct {
	Result cleaner.BatchResult
	State  cleaner.RunState
}

// Summary is the outcome of a run.
type Summary struct {
	Session string
	State   cleaner.RunState
	Deleted []cleaner.DeletedItem
}

// Runner issues the batches of a run strictly one after another.
type Runner struct {
	api        BatchAPI
	BatchSize  int
	Delay      time.Duration
	OnProgress func(Progress)
	logger     *slog.Logger
}

// NewRunner creates a Runner with the default batch size and delay.
func NewRunner(api BatchAPI, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		api:       api,
		BatchSize: cleaner.DefaultBatchSize,
		Delay:     DefaultDelay,
		logger:    logger,
	}
}

// Run deletes items until the target is reached or nothing is left. A
// cancelled ctx stops the run between batches; a batch already sent always
// completes. Failed batches end the run and are not retried.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	if opts.MenuID <= 0 {
		return Summary{}, fmt.Errorf("menu id is required: %w", cleaner.ErrValidation)
	}
	mode := opts.Mode
	if mode == "" {
		mode = cleaner.ModeCount
	}

	target := opts.Target
	if mode == cleaner.ModeCount {
		if target <= 0 {
			return Summary{}, ErrNoTarget
		}
	} else {
		n, err := r.api.Count(ctx, opts.MenuID, mode)
		if err != nil {
			return Summary{}, fmt.Errorf("counting %s items: %w", mode, err)
		}
		target = int(n)
	}

	state := cleaner.NewRunState(mode, target)
	sum := Summary{Deleted: []cleaner.DeletedItem{}}
	if target == 0 {
		state.Status = cleaner.RunCompleted
		sum.State = *state
		return sum, nil
	}
	state.Status = cleaner.RunRunning

	for {
		if err := ctx.Err(); err != nil {
			sum.State = *state
			return sum, err
		}

		res, err := r.api.DeleteBatch(context.WithoutCancel(ctx), cleaner.BatchRequest{
			MenuID:      opts.MenuID,
			Mode:        mode,
			SkipParents: opts.SkipParents,
			BatchSize:   r.BatchSize,
			Session:     sum.Session,
			Run:         state,
		})
		if err != nil {
			state.Fail()
			sum.State = *state
			return sum, fmt.Errorf("batch %d: %w", state.Batches+1, err)
		}

		sum.Session = res.Session
		sum.Deleted = append(sum.Deleted, res.Deleted...)
		next := state.Continue(res)
		sum.State = *state

		r.logger.Debug("batch done", "batch", state.Batches, "deleted", res.Count,
			"skipped", res.SkippedCount, "has_more", res.HasMore, "session", res.Session)
		if r.OnProgress != nil {
			r.OnProgress(Progress{Result: res, State: *state})
		}
		if !next {
			return sum, nil
		}

		if err := sleep(ctx, r.Delay); err != nil {
			return sum, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
