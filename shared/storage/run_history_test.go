package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"post-analyzer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHistoryRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	h, err := NewRunHistory(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer h.Close()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, h.Record(ctx, RunRecord{
		RunID: "a", SessionID: "1", PostURL: "https://x.com/u/status/1",
		Status: models.StatusSuccess, Posts: 2, Analyses: 3,
		StartedAt: start, Duration: 1500 * time.Millisecond,
	}))
	require.NoError(t, h.Record(ctx, RunRecord{
		RunID: "b", PostURL: "bad", Status: models.StatusError,
		Message: "invalid source", StartedAt: start.Add(time.Minute),
	}))

	runs, err := h.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "b", runs[0].RunID)
	assert.Equal(t, models.StatusError, runs[0].Status)
	assert.Equal(t, "invalid source", runs[0].Message)
	assert.Empty(t, runs[0].SessionID)

	assert.Equal(t, "a", runs[1].RunID)
	assert.Equal(t, 2, runs[1].Posts)
	assert.Equal(t, 3, runs[1].Analyses)
	assert.Equal(t, 1500*time.Millisecond, runs[1].Duration)
	assert.True(t, start.Equal(runs[1].StartedAt))

	limited, err := h.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRunHistoryDuplicateRunID(t *testing.T) {
	ctx := context.Background()
	h, err := NewRunHistory(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer h.Close()

	rec := RunRecord{RunID: "dup", PostURL: "u", Status: models.StatusSuccess, StartedAt: time.Now()}
	require.NoError(t, h.Record(ctx, rec))
	assert.Error(t, h.Record(ctx, rec))
}
