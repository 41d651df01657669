// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cleaner

// RunStatus is the lifecycle state of a deletion run.
type RunStatus string

const (
	RunIdle      RunStatus = "idle"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunErrored   RunStatus = "errored"
)

// RunState carries the progress of a deletion run from one batch to the next.
type RunState struct {
	Mode         Mode      `json:"mode"`
	TargetCount  int       `json:"target_count"`
	DeletedSoFar int       `json:"deleted_so_far"`
	SkippedSoFar int       `json:"skipped_so_far"`
	Batches      int       `json:"batches"`
	Status       RunStatus `json:"status"`

	stalled int
}

// maxStalledBatches bounds consecutive full batches that deleted nothing,
// which happens only when every delete in them failed.
const maxStalledBatches = 3

// NewRunState starts a run. For count runs target is the number of items to
// delete. For draft and orphaned runs it is the upfront count of matching
// items and only serves as the progress total.
func NewRunState(mode Mode, target int) *RunState {
	return &RunState{Mode: mode, TargetCount: target, Status: RunIdle}
}

// Processed is the number of items deleted or skipped so far.
func (s *RunState) Processed() int {
	return s.DeletedSoFar + s.SkippedSoFar
}

// Remaining returns how many items the next batch may still select.
// Zero means the target is reached; -1 means there is no limit, which is
// always the case for draft and orphaned runs.
func (s *RunState) Remaining() int {
	if s.TargetCount <= 0 || s.Mode == ModeDraft || s.Mode == ModeOrphaned {
		return -1
	}
	return max(s.TargetCount-s.Processed(), 0)
}

// Continue folds a batch result into the state and reports whether another
// batch should be issued.
func (s *RunState) Continue(res BatchResult) bool {
	s.DeletedSoFar += res.Count
	s.SkippedSoFar += res.SkippedCount
	s.Batches++

	produced := res.Count > 0 || res.SkippedCount > 0
	if produced {
		s.stalled = 0
	} else {
		s.stalled++
	}
	var next bool
	switch s.Mode {
	case ModeDraft, ModeOrphaned:
		next = produced || (res.HasMore && s.stalled < maxStalledBatches)
	default:
		next = s.TargetCount > 0 && s.Processed() < s.TargetCount && produced
	}

	if next {
		s.Status = RunRunning
	} else {
		s.Status = RunCompleted
	}
	return next
}

// Fail marks the run as errored. Failed batches are not retried.
func (s *RunState) Fail() {
	s.Status = RunErrored
}

// Done reports whether the run reached a terminal state.
func (s *RunState) Done() bool {
	return s.Status == RunCompleted || s.Status == RunErrored
}
