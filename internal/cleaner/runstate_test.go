// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunState_CountMode(t *testing.T) {
	run := NewRunState(ModeCount, 12)
	assert.Equal(t, RunIdle, run.Status)
	assert.Equal(t, 12, run.Remaining())

	assert.True(t, run.Continue(BatchResult{Count: 10, HasMore: true}))
	assert.Equal(t, RunRunning, run.Status)
	assert.Equal(t, 2, run.Remaining())

	assert.False(t, run.Continue(BatchResult{Count: 2}))
	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, 12, run.Processed())
	assert.Zero(t, run.Remaining())
	assert.True(t, run.Done())
}

func TestRunState_CountModeStopsWhenNothingProduced(t *testing.T) {
	run := NewRunState(ModeCount, 100)
	assert.True(t, run.Continue(BatchResult{Count: 3}))
	assert.False(t, run.Continue(BatchResult{}))
	assert.Equal(t, RunCompleted, run.Status)
}

func TestRunState_SkippedCountsAsProgress(t *testing.T) {
	run := NewRunState(ModeCount, 5)
	assert.True(t, run.Continue(BatchResult{SkippedCount: 2}))
	assert.Equal(t, 3, run.Remaining())
	assert.False(t, run.Continue(BatchResult{Count: 1, SkippedCount: 2}))
}

func TestRunState_DraftContinuesOnHasMore(t *testing.T) {
	run := NewRunState(ModeDraft, 30)
	assert.True(t, run.Continue(BatchResult{Count: 10, HasMore: true}))
	assert.True(t, run.Continue(BatchResult{Count: 0, HasMore: true}), "a full batch whose deletes all failed is retried")
	assert.True(t, run.Continue(BatchResult{Count: 0, HasMore: true}))
	assert.False(t, run.Continue(BatchResult{Count: 0, HasMore: true}), "stalled batches are bounded")
}

func TestRunState_DraftStopsWhenEmpty(t *testing.T) {
	run := NewRunState(ModeOrphaned, 30)
	assert.True(t, run.Continue(BatchResult{Count: 10, HasMore: true}))
	assert.False(t, run.Continue(BatchResult{}))
}

func TestRunState_DraftIgnoresTarget(t *testing.T) {
	run := NewRunState(ModeDraft, 3)
	assert.Equal(t, -1, run.Remaining())
	assert.True(t, run.Continue(BatchResult{Count: 3}), "an understated count does not end the run")
	assert.Equal(t, -1, run.Remaining())
	assert.True(t, run.Continue(BatchResult{Count: 2}))
	assert.False(t, run.Continue(BatchResult{}))
	assert.Equal(t, 5, run.DeletedSoFar)
	assert.Equal(t, RunCompleted, run.Status)
}

func TestRunState_CountZeroTarget(t *testing.T) {
	run := NewRunState(ModeCount, 0)
	assert.Equal(t, -1, run.Remaining())
	assert.False(t, run.Continue(BatchResult{Count: 1, HasMore: true}))
}

func TestRunState_Fail(t *testing.T) {
	run := NewRunState(ModeCount, 10)
	run.Fail()
	assert.Equal(t, RunErrored, run.Status)
	assert.True(t, run.Done())
}
