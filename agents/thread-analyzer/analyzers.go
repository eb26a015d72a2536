package threadanalyzer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"post-analyzer/internal/models"
	"post-analyzer/shared/logging"
	"post-analyzer/shared/search"

	"go.uber.org/zap"
)

const fallbackSummaryMaxLen = 500

// Describer is the content-understanding model behind the media analyzers
// and link summaries. *ai.Analyzer implements it.
type Describer interface {
	DescribeImage(ctx context.Context, path, postText string) (string, error)
	DescribeVideo(ctx context.Context, path, postText string) (string, error)
	Summarize(ctx context.Context, link, postText string, snippets []string) (string, error)
}

// Searcher runs a web search. *search.Client implements it.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// MediaAnalyzer adapts a Describer to the image and video analyzer contracts.
type MediaAnalyzer struct {
	describer Describer
}

func NewMediaAnalyzer(describer Describer) *MediaAnalyzer {
	return &MediaAnalyzer{describer: describer}
}

func (m *MediaAnalyzer) AnalyzeImage(ctx context.Context, localPath, postText string) (string, error) {
	return m.describer.DescribeImage(ctx, localPath, postText)
}

func (m *MediaAnalyzer) AnalyzeVideo(ctx context.Context, localPath, postText string) (string, error) {
	return m.describer.DescribeVideo(ctx, localPath, postText)
}

// SearchLinkAnalyzer searches for a link and summarizes the hits.
type SearchLinkAnalyzer struct {
	searcher   Searcher
	summarizer Describer
}

// NewSearchLinkAnalyzer builds a link analyzer. A nil searcher makes every
// call fail with search.ErrNotConfigured; a nil summarizer falls back to the
// raw snippets.
func NewSearchLinkAnalyzer(searcher Searcher, summarizer Describer) *SearchLinkAnalyzer {
	return &SearchLinkAnalyzer{searcher: searcher, summarizer: summarizer}
}

func (l *SearchLinkAnalyzer) AnalyzeLink(ctx context.Context, link, postText string) (string, []models.SearchResult, error) {
	if l.searcher == nil {
		return "", nil, search.ErrNotConfigured
	}

	hits, err := l.searcher.Search(ctx, link)
	if err != nil {
		return "", nil, err
	}
	if len(hits) == 0 {
		return fmt.Sprintf("Search for link %s returned no results.", link), nil, nil
	}

	var snippets []string
	for _, h := range hits {
		if h.Snippet != "" {
			snippets = append(snippets, h.Snippet)
		}
	}

	if l.summarizer != nil && len(snippets) > 0 {
		summary, err := l.summarizer.Summarize(ctx, link, postText, snippets)
		if err == nil {
			return summary, hits, nil
		}
		logging.L().Warn("link summary failed, using snippets",
			zap.String("url", link),
			zap.Error(err))
	}

	return fallbackSummary(snippets, len(hits)), hits, nil
}

func fallbackSummary(snippets []string, hits int) string {
	summary := truncateRunes(strings.Join(snippets, " "), fallbackSummaryMaxLen)
	if summary == "" {
		return fmt.Sprintf("Found %d results for the link.", hits)
	}
	return summary
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
