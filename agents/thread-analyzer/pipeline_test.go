package threadanalyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"post-analyzer/agents/thread-analyzer/source"
	"post-analyzer/internal/models"
	"post-analyzer/shared/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArtifacts struct {
	lockErr   error
	dataErr   error
	reportErr error
	locked    int
	unlocked  int
	discarded []string
	data      any
	report    string
}

func (f *fakeArtifacts) Lock(sessionID string) (func() error, error) {
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	f.locked++
	return func() error { f.unlocked++; return nil }, nil
}

func (f *fakeArtifacts) SaveSessionData(sessionID string, data any) (string, error) {
	if f.dataErr != nil {
		return "", f.dataErr
	}
	f.data = data
	return sessionID + "/analysis_data.json", nil
}

func (f *fakeArtifacts) SaveReport(sessionID, content string) (string, error) {
	if f.reportErr != nil {
		return "", f.reportErr
	}
	f.report = content
	return sessionID + "/report_" + sessionID + ".md", nil
}

func (f *fakeArtifacts) Discard(sessionID string) error {
	f.discarded = append(f.discarded, sessionID)
	return nil
}

type staticLinks struct{}

func (staticLinks) AnalyzeLink(ctx context.Context, url, postText string) (string, []models.SearchResult, error) {
	return "about " + url, nil, nil
}

func newTestPipeline(fetcher PostFetcher, store ArtifactStore) *Pipeline {
	p := NewPipeline(
		NewThreadResolver(fetcher, fakeMedia{}),
		NewDispatcher(NewMediaAnalyzer(&fakeDescriber{}), NewMediaAnalyzer(&fakeDescriber{}), staticLinks{}, 0, 2),
		store,
	)
	p.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	runs := 0
	p.newRunID = func() string {
		runs++
		return fmt.Sprintf("run-%d", runs)
	}
	return p
}

const rootURL = "https://x.com/alice/status/1"

func TestProcessSuccess(t *testing.T) {
	store := &fakeArtifacts{}
	result := newTestPipeline(&fakeFetcher{posts: fullThreadPosts()}, store).Process(context.Background(), rootURL)

	require.Equal(t, models.StatusSuccess, result.Status, result.Message)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, "1", result.SessionID)
	assert.Equal(t, "1", result.RootPostID)
	assert.Equal(t, 4, result.Posts)
	assert.Equal(t, 2, result.Analyses)
	assert.Equal(t, "1/analysis_data.json", result.DataPath)
	assert.Equal(t, "1/report_1.md", result.ReportPath)
	assert.Equal(t, store.report, result.Report)
	assert.Contains(t, result.Report, "## Report Type: Full Analysis Report")
	assert.Equal(t, 1, store.locked)
	assert.Equal(t, 1, store.unlocked)

	data, ok := store.data.(models.SessionData)
	require.True(t, ok)
	assert.Equal(t, "run-1", data.RunID)
	assert.Equal(t, rootURL, data.PostURL)
	assert.Len(t, data.Posts, 4)
	require.Len(t, data.Links, 1)
	assert.Equal(t, "about https://example.com/a", data.Links[0].Summary)
	require.Len(t, data.Images, 1)
	assert.Equal(t, "4", data.Images[0].PostID)
	assert.Equal(t, "image 1/quoted_in_reply_4", data.Images[0].Description)
}

func TestProcessInvalidURL(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := &fakeArtifacts{}
	result := newTestPipeline(fetcher, store).Process(context.Background(), "https://example.com/alice/status/1")

	assert.Equal(t, models.StatusError, result.Status)
	assert.ErrorIs(t, result.Err, source.ErrInvalidSource)
	assert.Empty(t, fetcher.calls)
	assert.Zero(t, store.locked)
}

func TestProcessRootFailure(t *testing.T) {
	store := &fakeArtifacts{}
	result := newTestPipeline(&fakeFetcher{}, store).Process(context.Background(), rootURL)

	assert.Equal(t, models.StatusError, result.Status)
	assert.ErrorIs(t, result.Err, ErrRootFetchFailed)
	assert.Equal(t, "1", result.SessionID)
	assert.Nil(t, store.data)
	assert.Equal(t, 1, store.unlocked)
	assert.Equal(t, []string{"1"}, store.discarded)
}

func TestProcessRootFailureLeavesNoSessionDir(t *testing.T) {
	store, err := storage.NewSessionStore(t.TempDir())
	require.NoError(t, err)

	result := newTestPipeline(&fakeFetcher{}, store).Process(context.Background(), rootURL)
	require.Equal(t, models.StatusError, result.Status)

	_, err = os.Stat(filepath.Join(store.BaseDir(), "1"))
	assert.True(t, os.IsNotExist(err))
}

func TestProcessQuotedBranchFailureStillSucceeds(t *testing.T) {
	fetcher := &fakeFetcher{posts: fullThreadPosts(), errs: map[string]error{"2": errors.New("gone")}}
	result := newTestPipeline(fetcher, &fakeArtifacts{}).Process(context.Background(), rootURL)

	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Equal(t, 3, result.Posts)
}

func TestProcessSharedPostReportedOnce(t *testing.T) {
	fetcher := &fakeFetcher{posts: map[string]*models.Post{
		"1": {ID: "1", Text: "root", QuotedID: "2", RepliedToID: "2", URLs: []string{"https://example.com/a"}},
		"2": {ID: "2", Text: "parent", URLs: []string{"https://example.com/b"}},
	}}
	result := newTestPipeline(fetcher, &fakeArtifacts{}).Process(context.Background(), rootURL)

	require.Equal(t, models.StatusSuccess, result.Status, result.Message)
	assert.Equal(t, 2, result.Posts)
	assert.Equal(t, 2, result.Analyses)
	assert.Equal(t, 2, strings.Count(result.Report, "- **URL:**"))
}

func TestProcessPersistenceFailures(t *testing.T) {
	tests := []struct {
		name   string
		store  *fakeArtifacts
		status models.PipelineStatus
	}{
		{"Lock fails", &fakeArtifacts{lockErr: errors.New("locked")}, models.StatusError},
		{"JSON fails", &fakeArtifacts{dataErr: errors.New("disk full")}, models.StatusError},
		{"Report fails", &fakeArtifacts{reportErr: errors.New("disk full")}, models.StatusPartialSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newTestPipeline(&fakeFetcher{posts: fullThreadPosts()}, tt.store).Process(context.Background(), rootURL)
			assert.Equal(t, tt.status, result.Status)
			assert.ErrorIs(t, result.Err, ErrPersistence)
			assert.Empty(t, result.ReportPath)
			assert.Empty(t, result.Report)
		})
	}
}

func TestProcessWithSessionStore(t *testing.T) {
	store, err := storage.NewSessionStore(t.TempDir())
	require.NoError(t, err)

	p := newTestPipeline(&fakeFetcher{posts: fullThreadPosts()}, store)
	result := p.Process(context.Background(), rootURL)
	require.Equal(t, models.StatusSuccess, result.Status, result.Message)
	assert.Equal(t, filepath.Join(store.BaseDir(), "1", "report_1.md"), result.ReportPath)

	var saved models.SessionData
	require.NoError(t, store.LoadSessionData("1", &saved))
	assert.Equal(t, "1", saved.SessionID)
	assert.Len(t, saved.Posts, 4)

	report, err := store.LoadReport("1")
	require.NoError(t, err)
	assert.Equal(t, result.Report, report)

	// A second run on the same post overwrites the same artifacts.
	again := p.Process(context.Background(), rootURL)
	assert.Equal(t, result.DataPath, again.DataPath)
	assert.Equal(t, result.Report, again.Report)
}
