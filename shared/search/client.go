package search

import (
	"context"
	"errors"
	"fmt"

	"post-analyzer/internal/models"
	"post-analyzer/shared/config"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned when search credentials are missing.
var ErrNotConfigured = errors.New("search is not configured: set GOOGLE_SEARCH_API_KEY and GOOGLE_CSE_ID")

// Client queries Google Programmable Search.
type Client struct {
	service    *customsearch.Service
	engineID   string
	numResults int
}

func NewClient(ctx context.Context, cfg *config.SearchConfig, opts ...option.ClientOption) (*Client, error) {
	if !cfg.SearchEnabled() {
		return nil, ErrNotConfigured
	}

	opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	service, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search service: %w", err)
	}

	return &Client{
		service:    service,
		engineID:   cfg.EngineID,
		numResults: cfg.NumResults,
	}, nil
}

// Search returns up to the configured number of ranked results for query.
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	resp, err := c.service.Cse.List().
		Q(query).
		Cx(c.engineID).
		Num(int64(c.numResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("custom search failed for %q: %w", query, err)
	}

	results := make([]models.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, models.SearchResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}
