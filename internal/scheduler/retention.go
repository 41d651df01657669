// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Retention job names.
const (
	JobPruneHistory = "prune-history"
	JobPruneEvents  = "prune-events"
	JobPruneLogins  = "prune-login-attempts"
)

// Default schedules.
const (
	DailySchedule     = "0 3 * * *"
	QuarterlySchedule = "*/15 * * * *"
)

// HistoryPruner removes restored history records older than a cutoff.
type HistoryPruner interface {
	PruneRestored(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventPruner removes event log entries older than a duration.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RetentionConfig controls the maintenance jobs. A zero retention disables
// the matching job; a nil dependency does too.
type RetentionConfig struct {
	History     HistoryPruner
	HistoryDays int
	Events      EventPruner
	EventDays   int
	// PruneLogins drops expired login lockout state.
	PruneLogins func()
}

// AddRetentionJobs registers the maintenance jobs enabled by cfg.
func AddRetentionJobs(s *Scheduler, cfg RetentionConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.History != nil && cfg.HistoryDays > 0 {
		days := cfg.HistoryDays
		err := s.Add(Job{
			Name:        JobPruneHistory,
			Description: "Delete restored deletion history",
			Schedule:    DailySchedule,
			Run: func(ctx context.Context) error {
				cutoff := time.Now().UTC().AddDate(0, 0, -days)
				n, err := cfg.History.PruneRestored(ctx, cutoff)
				if err != nil {
					return err
				}
				if n > 0 {
					logger.Info("pruned restored history", "records", n, "older_than_days", days)
				}
				return nil
			},
		})
		if err != nil {
			return err
		}
	}

	if cfg.Events != nil && cfg.EventDays > 0 {
		age := time.Duration(cfg.EventDays) * 24 * time.Hour
		err := s.Add(Job{
			Name:        JobPruneEvents,
			Description: "Delete old event log entries",
			Schedule:    DailySchedule,
			Run: func(ctx context.Context) error {
				n, err := cfg.Events.DeleteOldEvents(ctx, age)
				if err != nil {
					return err
				}
				if n > 0 {
					logger.Info("pruned events", "events", n, "older_than_days", cfg.EventDays)
				}
				return nil
			},
		})
		if err != nil {
			return err
		}
	}

	if cfg.PruneLogins != nil {
		return s.Add(Job{
			Name:        JobPruneLogins,
			Description: "Forget expired login lockouts",
			Schedule:    QuarterlySchedule,
			Run: func(context.Context) error {
				cfg.PruneLogins()
				return nil
			},
		})
	}
	return nil
}
