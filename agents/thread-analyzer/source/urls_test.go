package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePostID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"x.com", "https://x.com/someone/status/1790000000000000001", "1790000000000000001"},
		{"twitter.com", "https://twitter.com/someone/status/42", "42"},
		{"Trailing segments", "https://x.com/someone/status/42/photo/1", "42"},
		{"Query string", "https://x.com/someone/status/42?s=20", "42"},
		{"Surrounding whitespace", "  https://x.com/someone/status/7  ", "7"},
		{"www prefix", "https://www.twitter.com/someone/status/9", "9"},
		{"Web client path", "https://x.com/i/web/status/123", "123"},
		{"Mobile host", "https://mobile.twitter.com/someone/status/55", "55"},
		{"Mobile x host", "https://mobile.x.com/someone/status/56/", "56"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ResolvePostID(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestResolvePostIDErrors(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected error
	}{
		{"Unknown domain", "https://example.com/someone/status/42", ErrInvalidSource},
		{"Lookalike domain", "https://x.com.evil.io/someone/status/42", ErrInvalidSource},
		{"Missing status segment", "https://x.com/someone/likes/42", ErrMalformedURL},
		{"Profile URL", "https://x.com/someone", ErrMalformedURL},
		{"Non-numeric id", "https://x.com/someone/status/abc", ErrMalformedURL},
		{"Status without user", "https://x.com/status/42", ErrMalformedURL},
		{"Dangling status", "https://x.com/someone/status", ErrMalformedURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolvePostID(tt.url)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestExtractURLs(t *testing.T) {
	text := "Read https://example.com/article and www.golang.org, also see https://t.co/AbC123"
	urls := ExtractURLs(text)
	assert.Equal(t, []string{"https://example.com/article", "www.golang.org", "https://t.co/AbC123"}, urls)

	assert.Empty(t, ExtractURLs("no links here"))
}

func TestIsPlatformLink(t *testing.T) {
	tests := []struct {
		link     string
		expected bool
	}{
		{"https://t.co/AbC123", true},
		{"https://x.com/user/status/1", true},
		{"https://www.twitter.com/user", true},
		{"https://reddit.com/r/golang", false},
		{"https://example.com", false},
		{"x.com/user", true},
		{"https://mobile.twitter.com/user/status/1", true},
		{"www.golang.org", false},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsPlatformLink(tt.link))
		})
	}
}
