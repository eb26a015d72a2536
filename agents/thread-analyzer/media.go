package threadanalyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"post-analyzer/internal/models"
	"post-analyzer/shared/config"
	"post-analyzer/shared/logging"
	"post-analyzer/shared/monitoring"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrMediaDownload marks a failed media download. It is logged per item and
// never aborts the batch.
var ErrMediaDownload = errors.New("media download failed")

const (
	mp4ContentType   = "video/mp4"
	defaultImageExt  = ".jpg"
	defaultVideoExt  = ".mp4"
	partialExtension = ".part"
)

// MediaStore provides the per-session media namespace.
type MediaStore interface {
	MediaDir(sessionID string) (string, error)
}

// MediaAcquirer filters, dedups and downloads the media attached to a post.
type MediaAcquirer struct {
	store       MediaStore
	httpClient  *http.Client
	maxDuration float64
	concurrency int
}

func NewMediaAcquirer(cfg *config.MediaConfig, store MediaStore, httpClient *http.Client) *MediaAcquirer {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: time.Duration(cfg.DownloadTimeoutSeconds) * time.Second,
		}
	}
	concurrency := cfg.DownloadConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &MediaAcquirer{
		store:       store,
		httpClient:  httpClient,
		maxDuration: float64(cfg.MaxVideoDurationSeconds),
		concurrency: concurrency,
	}
}

// mediaTarget is one resolved download: the URL and extension chosen for a
// descriptor, and its position in the deduplicated list.
type mediaTarget struct {
	index    int
	kind     models.MediaKind
	fetchURL string
	ext      string
}

// Acquire downloads post's media into the session namespace and returns the
// files that were stored. Individual failures are logged and skipped; an
// error is only returned when the namespace itself is unusable.
func (a *MediaAcquirer) Acquire(ctx context.Context, sessionID, prefix string, post *models.Post) ([]models.DownloadedMedia, error) {
	if len(post.Media) == 0 {
		return nil, nil
	}

	dir, err := a.store.MediaDir(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMediaDownload, err)
	}

	var targets []mediaTarget
	for i, d := range DedupMedia(post.Media) {
		target, ok := a.selectTarget(post.ID, d)
		if !ok {
			continue
		}
		target.index = i
		targets = append(targets, target)
	}

	slots := make([]*models.DownloadedMedia, len(targets))
	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i, t := range targets {
		g.Go(func() error {
			filePath := filepath.Join(dir, fmt.Sprintf("%s_%s_%d%s", prefix, post.ID, t.index, t.ext))
			size, err := a.download(ctx, t.fetchURL, filePath)
			monitoring.MediaDownloadsTotal.WithLabelValues(string(t.kind), monitoring.Outcome(err)).Inc()
			if err != nil {
				logging.L().Warn("media download failed",
					zap.String("post_id", post.ID),
					zap.String("url", t.fetchURL),
					zap.Error(err))
				return nil
			}

			logging.L().Info("media downloaded",
				zap.String("post_id", post.ID),
				zap.String("url", t.fetchURL),
				zap.String("path", filePath),
				zap.String("size", humanize.IBytes(uint64(size))))
			slots[i] = &models.DownloadedMedia{
				PostID:    post.ID,
				Kind:      t.kind,
				URL:       t.fetchURL,
				LocalPath: filePath,
			}
			return nil
		})
	}
	_ = g.Wait()

	downloaded := make([]models.DownloadedMedia, 0, len(slots))
	for _, m := range slots {
		if m != nil {
			downloaded = append(downloaded, *m)
		}
	}
	return downloaded, nil
}

// DedupMedia collapses descriptors sharing a resolved source URL. The list
// keeps the position of the first occurrence and the content of the last.
// Descriptors without a source URL are kept as-is.
func DedupMedia(media []models.MediaDescriptor) []models.MediaDescriptor {
	out := make([]models.MediaDescriptor, 0, len(media))
	seen := make(map[string]int, len(media))
	for _, d := range media {
		key := d.SourceURL()
		if key == "" {
			out = append(out, d)
			continue
		}
		if idx, ok := seen[key]; ok {
			out[idx] = d
			continue
		}
		seen[key] = len(out)
		out = append(out, d)
	}
	return out
}

// selectTarget picks the URL and extension to download for d, or reports
// that d must be skipped.
func (a *MediaAcquirer) selectTarget(postID string, d models.MediaDescriptor) (mediaTarget, bool) {
	if d.Kind() == models.MediaKindVideo {
		if secs := d.DurationSeconds(); a.maxDuration > 0 && secs > a.maxDuration {
			logging.L().Info("skipping video over duration ceiling",
				zap.String("post_id", postID),
				zap.Float64("duration_seconds", secs),
				zap.Float64("limit_seconds", a.maxDuration))
			return mediaTarget{}, false
		}

		best, ok := BestMP4Variant(d.Variants)
		if !ok {
			logging.L().Warn("no mp4 variant for video", zap.String("post_id", postID))
			return mediaTarget{}, false
		}
		return mediaTarget{
			kind:     models.MediaKindVideo,
			fetchURL: best.URL,
			ext:      defaultVideoExt,
		}, true
	}

	src := d.SourceURL()
	if src == "" {
		return mediaTarget{}, false
	}
	return mediaTarget{
		kind:     models.MediaKindImage,
		fetchURL: src,
		ext:      imageExtension(src),
	}, true
}

// BestMP4Variant returns the mp4 variant with the highest bitrate.
func BestMP4Variant(variants []models.VideoVariant) (models.VideoVariant, bool) {
	var best models.VideoVariant
	found := false
	for _, v := range variants {
		if v.ContentType != mp4ContentType || v.URL == "" {
			continue
		}
		if !found || v.Bitrate > best.Bitrate {
			best = v
			found = true
		}
	}
	return best, found
}

func imageExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultImageExt
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return defaultImageExt
}

// download streams rawURL into filePath and returns the bytes written. The
// file only appears under its final name once complete.
func (a *MediaAcquirer) download(ctx context.Context, rawURL, filePath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMediaDownload, err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMediaDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%w: status %d", ErrMediaDownload, resp.StatusCode)
	}

	tmpPath := filePath + partialExtension
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMediaDownload, err)
	}

	n, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: %w", ErrMediaDownload, err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: %w", ErrMediaDownload, err)
	}
	return n, nil
}
