package threadanalyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"post-analyzer/internal/models"
	"post-analyzer/shared/logging"
	"post-analyzer/shared/monitoring"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ImageAnalyzer describes a local image in the context of its post text.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, localPath, postText string) (string, error)
}

// VideoAnalyzer describes a local video in the context of its post text.
// Callers reject files above the inline size ceiling first.
type VideoAnalyzer interface {
	AnalyzeVideo(ctx context.Context, localPath, postText string) (string, error)
}

// LinkAnalyzer summarizes an external link and returns its ranked search hits.
type LinkAnalyzer interface {
	AnalyzeLink(ctx context.Context, url, postText string) (string, []models.SearchResult, error)
}

type resultKind int

const (
	resultImage resultKind = iota
	resultVideo
	resultLink
)

// taggedResult carries one analyzer outcome to the collector together with
// the slot reserved for it.
type taggedResult struct {
	kind  resultKind
	slot  int
	media models.MediaAnalysis
	link  models.LinkAnalysis
}

// Dispatcher fans structured posts out to the analyzers and collects the
// results. Analyzer errors are recorded on their own result and never stop
// sibling calls.
type Dispatcher struct {
	images        ImageAnalyzer
	videos        VideoAnalyzer
	links         LinkAnalyzer
	maxVideoBytes int64
	concurrency   int
}

func NewDispatcher(images ImageAnalyzer, videos VideoAnalyzer, links LinkAnalyzer, maxVideoBytes int64, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Dispatcher{
		images:        images,
		videos:        videos,
		links:         links,
		maxVideoBytes: maxVideoBytes,
		concurrency:   concurrency,
	}
}

// Dispatch analyzes every media item and link of posts. Result order
// follows post order, then item order within each post, regardless of the
// order in which calls complete.
func (d *Dispatcher) Dispatch(ctx context.Context, posts []models.StructuredPost) models.AnalysisResults {
	var tasks []func(context.Context) taggedResult
	var nImage, nVideo, nLink int

	for _, post := range posts {
		for _, item := range post.Media {
			if item.Kind == models.MediaKindVideo {
				slot := nVideo
				nVideo++
				tasks = append(tasks, func(ctx context.Context) taggedResult {
					return taggedResult{kind: resultVideo, slot: slot, media: d.analyzeVideo(ctx, post.PostID, item)}
				})
				continue
			}
			slot := nImage
			nImage++
			tasks = append(tasks, func(ctx context.Context) taggedResult {
				return taggedResult{kind: resultImage, slot: slot, media: d.analyzeImage(ctx, post.PostID, item)}
			})
		}
		for _, link := range post.Links {
			slot := nLink
			nLink++
			tasks = append(tasks, func(ctx context.Context) taggedResult {
				return taggedResult{kind: resultLink, slot: slot, link: d.analyzeLink(ctx, post.PostID, link)}
			})
		}
	}

	results := models.AnalysisResults{
		Images: make([]models.MediaAnalysis, nImage),
		Videos: make([]models.MediaAnalysis, nVideo),
		Links:  make([]models.LinkAnalysis, nLink),
	}
	if len(tasks) == 0 {
		return results
	}

	out := make(chan taggedResult)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range out {
			switch r.kind {
			case resultImage:
				results.Images[r.slot] = r.media
			case resultVideo:
				results.Videos[r.slot] = r.media
			case resultLink:
				results.Links[r.slot] = r.link
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for _, task := range tasks {
		g.Go(func() error {
			out <- task(ctx)
			return nil
		})
	}
	_ = g.Wait()
	close(out)
	<-done

	logging.L().Info("analysis complete",
		zap.Int("images", nImage),
		zap.Int("videos", nVideo),
		zap.Int("links", nLink),
		zap.Int("failed", results.Failed()))
	return results
}

func (d *Dispatcher) analyzeImage(ctx context.Context, postID string, item models.MediaItem) models.MediaAnalysis {
	res := newMediaAnalysis(postID, item)
	description, err := d.images.AnalyzeImage(ctx, item.LocalPath, item.Context)
	d.record(&res, description, err)
	return res
}

func (d *Dispatcher) analyzeVideo(ctx context.Context, postID string, item models.MediaItem) models.MediaAnalysis {
	res := newMediaAnalysis(postID, item)

	info, err := os.Stat(item.LocalPath)
	if err != nil {
		d.record(&res, "", fmt.Errorf("video file not found: %s", item.LocalPath))
		return res
	}
	if d.maxVideoBytes > 0 && info.Size() > d.maxVideoBytes {
		d.record(&res, "", fmt.Errorf("video file %s (%s) is too large for inline analysis (limit %s)",
			filepath.Base(item.LocalPath),
			humanize.IBytes(uint64(info.Size())),
			humanize.IBytes(uint64(d.maxVideoBytes))))
		return res
	}

	description, err := d.videos.AnalyzeVideo(ctx, item.LocalPath, item.Context)
	d.record(&res, description, err)
	return res
}

func (d *Dispatcher) analyzeLink(ctx context.Context, postID string, item models.LinkItem) models.LinkAnalysis {
	res := models.LinkAnalysis{PostID: postID, URL: item.URL}

	summary, hits, err := d.links.AnalyzeLink(ctx, item.URL, item.Context)
	monitoring.AnalysesTotal.WithLabelValues("link", monitoring.Outcome(err)).Inc()
	if err != nil {
		logging.L().Warn("link analysis failed",
			zap.String("post_id", postID),
			zap.String("url", item.URL),
			zap.Error(err))
		res.Error = err.Error()
		return res
	}
	res.Summary = summary
	res.SearchResults = hits
	return res
}

func (d *Dispatcher) record(res *models.MediaAnalysis, description string, err error) {
	monitoring.AnalysesTotal.WithLabelValues(string(res.Kind), monitoring.Outcome(err)).Inc()
	if err != nil {
		logging.L().Warn("media analysis failed",
			zap.String("post_id", res.PostID),
			zap.String("kind", string(res.Kind)),
			zap.String("path", res.LocalPath),
			zap.Error(err))
		res.Error = err.Error()
		return
	}
	res.Description = description
}

func newMediaAnalysis(postID string, item models.MediaItem) models.MediaAnalysis {
	kind := item.Kind
	if kind != models.MediaKindVideo {
		kind = models.MediaKindImage
	}
	return models.MediaAnalysis{
		PostID:      postID,
		Kind:        kind,
		LocalPath:   item.LocalPath,
		OriginalURL: item.OriginalURL,
	}
}
