package threadanalyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"post-analyzer/internal/models"
	"post-analyzer/shared/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	hits []models.SearchResult
	err  error
}

func (f fakeSearcher) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	return f.hits, f.err
}

type fakeDescriber struct {
	summary  string
	err      error
	snippets []string
}

func (f *fakeDescriber) DescribeImage(ctx context.Context, path, postText string) (string, error) {
	return "image " + path, f.err
}

func (f *fakeDescriber) DescribeVideo(ctx context.Context, path, postText string) (string, error) {
	return "video " + path, f.err
}

func (f *fakeDescriber) Summarize(ctx context.Context, link, postText string, snippets []string) (string, error) {
	f.snippets = snippets
	return f.summary, f.err
}

func TestAnalyzeLinkNotConfigured(t *testing.T) {
	_, _, err := NewSearchLinkAnalyzer(nil, nil).AnalyzeLink(context.Background(), "https://a.com", "")
	assert.ErrorIs(t, err, search.ErrNotConfigured)
}

func TestAnalyzeLinkSearchError(t *testing.T) {
	l := NewSearchLinkAnalyzer(fakeSearcher{err: errors.New("quota")}, nil)
	_, _, err := l.AnalyzeLink(context.Background(), "https://a.com", "")
	assert.EqualError(t, err, "quota")
}

func TestAnalyzeLinkNoResults(t *testing.T) {
	summary, hits, err := NewSearchLinkAnalyzer(fakeSearcher{}, nil).AnalyzeLink(context.Background(), "https://a.com", "")
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Equal(t, "Search for link https://a.com returned no results.", summary)
}

func TestAnalyzeLinkSummarized(t *testing.T) {
	hits := []models.SearchResult{{Title: "A", Snippet: "first"}, {Title: "B"}, {Title: "C", Snippet: "third"}}
	describer := &fakeDescriber{summary: "a summary"}

	summary, got, err := NewSearchLinkAnalyzer(fakeSearcher{hits: hits}, describer).
		AnalyzeLink(context.Background(), "https://a.com", "ctx")
	require.NoError(t, err)
	assert.Equal(t, "a summary", summary)
	assert.Equal(t, hits, got)
	assert.Equal(t, []string{"first", "third"}, describer.snippets)
}

func TestAnalyzeLinkFallbacks(t *testing.T) {
	long := strings.Repeat("x", 400)
	tests := []struct {
		name       string
		hits       []models.SearchResult
		summarizer Describer
		want       string
	}{
		{"Summarizer fails", []models.SearchResult{{Snippet: "one"}, {Snippet: "two"}},
			&fakeDescriber{err: errors.New("down")}, "one two"},
		{"No summarizer", []models.SearchResult{{Snippet: "one"}}, nil, "one"},
		{"Truncated", []models.SearchResult{{Snippet: long}, {Snippet: long}}, nil, (long + " " + long)[:500]},
		{"No snippets", []models.SearchResult{{Title: "a"}, {Title: "b"}}, &fakeDescriber{summary: "unused"},
			"Found 2 results for the link."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, _, err := NewSearchLinkAnalyzer(fakeSearcher{hits: tt.hits}, tt.summarizer).
				AnalyzeLink(context.Background(), "https://a.com", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, summary)
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	// "é" is two bytes; cutting inside it backs off to the rune start.
	assert.Equal(t, "a", truncateRunes("aé", 2))
}

func TestMediaAnalyzerDelegates(t *testing.T) {
	m := NewMediaAnalyzer(&fakeDescriber{})
	got, err := m.AnalyzeImage(context.Background(), "p.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, "image p.jpg", got)

	got, err = m.AnalyzeVideo(context.Background(), "v.mp4", "")
	require.NoError(t, err)
	assert.Equal(t, "video v.mp4", got)
}
