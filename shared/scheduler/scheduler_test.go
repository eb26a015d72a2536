package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"post-analyzer/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary string

func (s summary) GetSummary() string { return string(s) }

type fakeAgent struct {
	run func(ctx context.Context, events *AgentEvents) error
}

func (a *fakeAgent) Name() string      { return "fake" }
func (a *fakeAgent) Initialize() error { return nil }
func (a *fakeAgent) RunOnce(ctx context.Context, events *AgentEvents) error {
	return a.run(ctx, events)
}

func TestRunOnceSuccess(t *testing.T) {
	agent := &fakeAgent{run: func(ctx context.Context, events *AgentEvents) error {
		events.OnSuccess(summary("2 posts"), time.Second)
		return nil
	}}
	s := New(&config.Config{}, agent)

	require.NoError(t, s.RunOnce(context.Background()))
	status := s.Monitor().Snapshot()
	assert.True(t, status.Healthy)
	assert.Equal(t, "2 posts", status.LastSummary)
}

func TestRunOncePartialFailure(t *testing.T) {
	agent := &fakeAgent{run: func(ctx context.Context, events *AgentEvents) error {
		events.OnPartialFailure(errors.New("one url failed"), time.Second)
		events.OnSuccess(summary("1 of 2"), time.Second)
		return nil
	}}
	s := New(&config.Config{}, agent)

	require.NoError(t, s.RunOnce(context.Background()))
	status := s.Monitor().Snapshot()
	assert.True(t, status.Healthy)
	assert.Equal(t, 1, status.PartialFailures)
	assert.Contains(t, status.LastError, "fake partial failure")
}

func TestRunOnceCleanRunClearsLastError(t *testing.T) {
	partial := true
	agent := &fakeAgent{run: func(ctx context.Context, events *AgentEvents) error {
		if partial {
			events.OnPartialFailure(errors.New("one url failed"), time.Second)
		}
		events.OnSuccess(summary("done"), time.Second)
		return nil
	}}
	s := New(&config.Config{}, agent)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Contains(t, s.Monitor().Snapshot().LastError, "one url failed")

	partial = false
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Empty(t, s.Monitor().Snapshot().LastError)
}

func TestRunOnceError(t *testing.T) {
	agent := &fakeAgent{run: func(ctx context.Context, events *AgentEvents) error {
		return errors.New("source down")
	}}
	s := New(&config.Config{}, agent)

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fake run failed")
	assert.False(t, s.Monitor().IsHealthy())
}
