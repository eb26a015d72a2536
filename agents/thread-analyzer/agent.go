package threadanalyzer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"post-analyzer/agents/thread-analyzer/source"
	"post-analyzer/internal/models"
	"post-analyzer/shared/ai"
	"post-analyzer/shared/config"
	"post-analyzer/shared/logging"
	"post-analyzer/shared/scheduler"
	"post-analyzer/shared/search"
	"post-analyzer/shared/storage"

	"go.uber.org/zap"
)

// ThreadMetrics summarizes one scheduled pass over the watch list.
type ThreadMetrics struct {
	URLs      int
	Skipped   int
	Succeeded int
	Partial   int
	Failed    int
	Posts     int
	Analyses  int
}

// GetSummary implements the scheduler.Metrics interface
func (m ThreadMetrics) GetSummary() string {
	return fmt.Sprintf("processed %d of %d urls (%d skipped, %d partial, %d failed), %d posts, %d analyses",
		m.Succeeded+m.Partial, m.URLs, m.Skipped, m.Partial, m.Failed, m.Posts, m.Analyses)
}

// ThreadAgent implements the scheduler.Agent interface
type ThreadAgent struct {
	config   *config.Config
	pipeline *Pipeline
	tracker  *storage.PostTracker
	history  *storage.RunHistory
}

func NewThreadAgent(cfg *config.Config) *ThreadAgent {
	return &ThreadAgent{
		config: cfg,
	}
}

func (t *ThreadAgent) Name() string {
	return "Thread Analyzer"
}

func (t *ThreadAgent) Initialize() error {
	log := logging.L()
	log.Info("initializing agent", zap.String("agent", t.Name()))

	if t.pipeline == nil {
		pipeline, err := t.buildPipeline()
		if err != nil {
			return err
		}
		t.pipeline = pipeline
		log.Info("pipeline initialized", zap.String("data_dir", t.config.Storage.DataDir))
	}

	if t.tracker == nil {
		tracker, err := storage.NewPostTracker(t.config.Storage.DataDir, t.config.Storage.TrackerMaxAge())
		if err != nil {
			return fmt.Errorf("failed to create post tracker: %w", err)
		}
		t.tracker = tracker
		log.Info("post tracker initialized", zap.Int("tracked", tracker.Count()))
	}

	if t.history == nil {
		history, err := storage.NewRunHistory(filepath.Join(t.config.Storage.DataDir, "runs.db"))
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		t.history = history
	}

	return nil
}

func (t *ThreadAgent) buildPipeline() (*Pipeline, error) {
	store, err := storage.NewSessionStore(t.config.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	analyzer, err := ai.NewAnalyzer(t.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI analyzer: %w", err)
	}

	// Missing search credentials are recorded per link, not fatal.
	var searcher Searcher
	if client, err := search.NewClient(context.Background(), &t.config.Search); err == nil {
		searcher = client
	} else if !errors.Is(err, search.ErrNotConfigured) {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	} else {
		logging.L().Warn("link search disabled", zap.Error(err))
	}

	resolver := NewThreadResolver(
		source.NewClient(&t.config.Source),
		NewMediaAcquirer(&t.config.Media, store, nil),
	)
	media := NewMediaAnalyzer(analyzer)
	dispatcher := NewDispatcher(
		media, media,
		NewSearchLinkAnalyzer(searcher, analyzer),
		t.config.Media.MaxVideoSizeBytes(),
		t.config.Analysis.Concurrency,
	)
	return NewPipeline(resolver, dispatcher, store), nil
}

// Process runs the pipeline for one URL and records it in the run history.
func (t *ThreadAgent) Process(ctx context.Context, postURL string) models.PipelineResult {
	started := time.Now()
	result := t.pipeline.Process(ctx, postURL)

	if t.history != nil {
		rec := storage.RunRecord{
			RunID:     result.RunID,
			SessionID: result.SessionID,
			PostURL:   postURL,
			Status:    result.Status,
			Message:   result.Message,
			Posts:     result.Posts,
			Analyses:  result.Analyses,
			StartedAt: started,
			Duration:  time.Since(started),
		}
		if err := t.history.Record(ctx, rec); err != nil {
			logging.L().Warn("failed to record run", zap.Error(err))
		}
	}
	return result
}

// RunOnce processes every watched URL whose root was not analyzed recently.
func (t *ThreadAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := ThreadMetrics{URLs: len(t.config.Watch.URLs)}
	var failures []error

	for _, postURL := range t.config.Watch.URLs {
		if postID, err := source.ResolvePostID(postURL); err == nil && t.tracker.IsAnalyzed(postID) {
			metrics.Skipped++
			continue
		}

		result := t.Process(ctx, postURL)
		metrics.Posts += result.Posts
		metrics.Analyses += result.Analyses

		switch result.Status {
		case models.StatusSuccess:
			metrics.Succeeded++
		case models.StatusPartialSuccess:
			metrics.Partial++
			failures = append(failures, fmt.Errorf("%s: %s", postURL, result.Message))
		default:
			metrics.Failed++
			failures = append(failures, fmt.Errorf("%s: %s", postURL, result.Message))
			continue
		}

		if err := t.tracker.MarkAnalyzed(result.RootPostID); err != nil {
			logging.L().Warn("failed to mark post analyzed", zap.String("post_id", result.RootPostID), zap.Error(err))
		}
	}

	duration := time.Since(startTime)
	attempted := metrics.URLs - metrics.Skipped
	if attempted > 0 && metrics.Failed == attempted {
		err := fmt.Errorf("all %d urls failed: %w", attempted, errors.Join(failures...))
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(err, duration)
		}
		return err
	}

	if len(failures) > 0 && events != nil && events.OnPartialFailure != nil {
		events.OnPartialFailure(errors.Join(failures...), duration)
	}
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, duration)
	}
	return nil
}

// Recent exposes the run history on the health server.
func (t *ThreadAgent) Recent(ctx context.Context, limit int) ([]storage.RunRecord, error) {
	if t.history == nil {
		return nil, nil
	}
	return t.history.Recent(ctx, limit)
}

// Close releases the run history database.
func (t *ThreadAgent) Close() error {
	if t.history == nil {
		return nil
	}
	return t.history.Close()
}
