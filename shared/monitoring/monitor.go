package monitoring

import (
	"fmt"
	"sync"
	"time"

	"post-analyzer/shared/logging"

	"go.uber.org/zap"
)

// Monitor tracks the outcome of scheduled runs for health reporting.
type Monitor struct {
	mu              sync.RWMutex
	lastRunSuccess  bool
	lastRunTime     time.Time
	lastSummary     string
	lastError       string
	runHadPartial   bool
	successes       int
	partialFailures int
	failures        int
}

// Status is a point-in-time view of the monitor.
type Status struct {
	Healthy         bool      `json:"healthy"`
	LastRunTime     time.Time `json:"last_run_time,omitempty"`
	LastSummary     string    `json:"last_summary,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
	Successes       int       `json:"successes"`
	PartialFailures int       `json:"partial_failures"`
	Failures        int       `json:"failures"`
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// BeginRun marks the start of a run. Partial failures recorded after it
// survive the run's closing RecordSuccess.
func (m *Monitor) BeginRun() {
	m.mu.Lock()
	m.runHadPartial = false
	m.mu.Unlock()
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	if !m.runHadPartial {
		m.lastError = ""
	}
	m.successes++
	m.mu.Unlock()

	logging.L().Info("run completed",
		zap.String("summary", summary),
		zap.Duration("duration", duration))
}

// RecordPartialFailure logs the failure without changing health.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastError = err.Error()
	m.runHadPartial = true
	m.partialFailures++
	m.mu.Unlock()

	logging.L().Warn("run partially failed",
		zap.Error(err),
		zap.Duration("duration", duration))
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastError = err.Error()
	m.failures++
	m.mu.Unlock()

	logging.L().Error("run failed",
		zap.Error(err),
		zap.Duration("duration", duration))
}

// IsHealthy is true before the first run and after any successful run.
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isHealthyLocked()
}

func (m *Monitor) isHealthyLocked() bool {
	if m.lastRunTime.IsZero() {
		return true
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}
	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s", m.lastRunTime.Format("Jan 2 15:04"))
	}
	return fmt.Sprintf("Last run failed: %s", m.lastRunTime.Format("Jan 2 15:04"))
}

// Snapshot returns the current status.
func (m *Monitor) Snapshot() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Status{
		Healthy:         m.isHealthyLocked(),
		LastRunTime:     m.lastRunTime,
		LastSummary:     m.lastSummary,
		LastError:       m.lastError,
		Successes:       m.successes,
		PartialFailures: m.partialFailures,
		Failures:        m.failures,
	}
}
