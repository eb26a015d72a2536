package threadanalyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"post-analyzer/agents/thread-analyzer/source"
	"post-analyzer/internal/models"
	"post-analyzer/shared/logging"
	"post-analyzer/shared/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrPersistence marks a failure to write a session artifact.
var ErrPersistence = errors.New("failed to persist session artifacts")

// ArtifactStore persists the artifacts of a session.
type ArtifactStore interface {
	Lock(sessionID string) (func() error, error)
	SaveSessionData(sessionID string, data any) (string, error)
	SaveReport(sessionID, content string) (string, error)
	Discard(sessionID string) error
}

// Pipeline runs one post URL end to end: resolve, analyze, report, persist.
type Pipeline struct {
	resolver   *ThreadResolver
	dispatcher *Dispatcher
	store      ArtifactStore
	now        func() time.Time
	newRunID   func() string
}

func NewPipeline(resolver *ThreadResolver, dispatcher *Dispatcher, store ArtifactStore) *Pipeline {
	return &Pipeline{
		resolver:   resolver,
		dispatcher: dispatcher,
		store:      store,
		now:        time.Now,
		newRunID:   uuid.NewString,
	}
}

// Process always returns a result; Status tells the caller how far it got.
func (p *Pipeline) Process(ctx context.Context, postURL string) models.PipelineResult {
	start := time.Now()
	runID := p.newRunID()
	result := p.process(ctx, runID, postURL)
	result.RunID = runID

	monitoring.RunsTotal.WithLabelValues(string(result.Status)).Inc()
	monitoring.RunDuration.Observe(time.Since(start).Seconds())

	log := logging.L().With(
		zap.String("run_id", runID),
		zap.String("url", postURL),
		zap.String("session_id", result.SessionID),
		zap.String("status", string(result.Status)))
	if result.Status == models.StatusError {
		log.Error("pipeline failed", zap.Error(result.Err))
	} else {
		log.Info("pipeline finished",
			zap.Int("posts", result.Posts),
			zap.Int("analyses", result.Analyses),
			zap.Duration("duration", time.Since(start)))
	}
	return result
}

func (p *Pipeline) process(ctx context.Context, runID, postURL string) models.PipelineResult {
	rootID, err := source.ResolvePostID(postURL)
	if err != nil {
		return failed("", fmt.Sprintf("Invalid post URL provided: %v", err), err)
	}
	sessionID := rootID

	unlock, err := p.store.Lock(sessionID)
	if err != nil {
		return failed(sessionID, fmt.Sprintf("Could not lock session: %v", err), fmt.Errorf("%w: %w", ErrPersistence, err))
	}
	discard := false
	defer func() {
		if err := unlock(); err != nil {
			logging.L().Warn("failed to release session lock", zap.String("session_id", sessionID), zap.Error(err))
		}
		if !discard {
			return
		}
		if err := p.store.Discard(sessionID); err != nil {
			logging.L().Warn("failed to discard empty session", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()

	thread, err := p.resolver.Resolve(ctx, rootID)
	if err != nil {
		discard = true
		return failed(sessionID, fmt.Sprintf("Data extraction failed: %v", err), err)
	}

	posts := Structure(thread)
	results := p.dispatcher.Dispatch(ctx, posts)

	res := models.PipelineResult{
		SessionID:  sessionID,
		RootPostID: rootID,
		Posts:      len(posts),
		Analyses:   results.Total(),
	}

	data := models.SessionData{
		RunID:           runID,
		SessionID:       sessionID,
		PostURL:         postURL,
		CreatedAt:       p.now().UTC(),
		Posts:           posts,
		AnalysisResults: results,
	}
	dataPath, err := p.store.SaveSessionData(sessionID, data)
	if err != nil {
		res.Status = models.StatusError
		res.Message = fmt.Sprintf("Error saving JSON: %v", err)
		res.Err = fmt.Errorf("%w: %w", ErrPersistence, err)
		return res
	}
	res.DataPath = dataPath

	report := CompileReport(sessionID, posts, results)
	reportPath, err := p.store.SaveReport(sessionID, report)
	if err != nil {
		res.Status = models.StatusPartialSuccess
		res.Message = fmt.Sprintf("JSON saved, report error: %v", err)
		res.Err = fmt.Errorf("%w: %w", ErrPersistence, err)
		return res
	}

	res.Status = models.StatusSuccess
	res.Message = fmt.Sprintf("Data saved to JSON (%s) and report (%s).", dataPath, reportPath)
	res.ReportPath = reportPath
	res.Report = report
	return res
}

func failed(sessionID, message string, err error) models.PipelineResult {
	return models.PipelineResult{
		Status:    models.StatusError,
		Message:   message,
		SessionID: sessionID,
		Err:       err,
	}
}
