package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// PostTracker remembers which root posts were analyzed recently so scheduled
// runs do not re-analyze them.
type PostTracker struct {
	filePath string
	analyzed map[string]time.Time
	mu       sync.RWMutex
	maxAge   time.Duration
	now      func() time.Time
}

// TrackedPost is one persisted tracker entry.
type TrackedPost struct {
	PostID     string    `json:"post_id"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

func NewPostTracker(dataDir string, maxAge time.Duration) (*PostTracker, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tracker := &PostTracker{
		filePath: filepath.Join(dataDir, "analyzed_posts.json"),
		analyzed: make(map[string]time.Time),
		maxAge:   maxAge,
		now:      time.Now,
	}

	if err := tracker.load(); err != nil {
		return nil, fmt.Errorf("failed to load post tracker data: %w", err)
	}
	tracker.cleanup()

	return tracker, nil
}

// IsAnalyzed reports whether postID was analyzed within maxAge.
func (pt *PostTracker) IsAnalyzed(postID string) bool {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	analyzedAt, ok := pt.analyzed[postID]
	if !ok {
		return false
	}
	return pt.now().Sub(analyzedAt) < pt.maxAge
}

// MarkAnalyzed records postID as analyzed now and persists the tracker.
func (pt *PostTracker) MarkAnalyzed(postID string) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.analyzed[postID] = pt.now()
	return pt.save()
}

// Count returns the number of tracked posts.
func (pt *PostTracker) Count() int {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return len(pt.analyzed)
}

func (pt *PostTracker) cleanup() {
	cutoff := pt.now().Add(-pt.maxAge)
	for postID, analyzedAt := range pt.analyzed {
		if analyzedAt.Before(cutoff) {
			delete(pt.analyzed, postID)
		}
	}
}

func (pt *PostTracker) load() error {
	data, err := os.ReadFile(pt.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read tracker file: %w", err)
	}

	var tracked []TrackedPost
	if err := json.Unmarshal(data, &tracked); err != nil {
		return fmt.Errorf("failed to decode tracker data: %w", err)
	}
	for _, tp := range tracked {
		pt.analyzed[tp.PostID] = tp.AnalyzedAt
	}
	return nil
}

// save must be called with mu held.
func (pt *PostTracker) save() error {
	tracked := make([]TrackedPost, 0, len(pt.analyzed))
	for postID, analyzedAt := range pt.analyzed {
		tracked = append(tracked, TrackedPost{PostID: postID, AnalyzedAt: analyzedAt})
	}
	sort.Slice(tracked, func(i, j int) bool { return tracked[i].PostID < tracked[j].PostID })

	data, err := json.MarshalIndent(tracked, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tracker data: %w", err)
	}
	return writeFileAtomic(pt.filePath, data)
}
