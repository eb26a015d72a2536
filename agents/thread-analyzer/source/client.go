package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"post-analyzer/internal/models"
	"post-analyzer/shared/config"
	"post-analyzer/shared/logging"
	"post-analyzer/shared/monitoring"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when the API answers successfully but has no such post.
	ErrNotFound = errors.New("post not found")
	// ErrRateLimited is only surfaced when a configured retry ceiling is exhausted
	// or the caller's context ends during a cooldown.
	ErrRateLimited = errors.New("rate limited")
)

// errRateLimitResponse marks a single 429 answer; FetchPost retries on it.
var errRateLimitResponse = errors.New("rate limit response")

const maxErrorBodyBytes = 4096

// FetchError is a non-2xx, non-429 answer from the read API. It is not retried.
type FetchError struct {
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("source API returned status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Client fetches single posts from the source-platform read API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cooldown   time.Duration
	maxRetries int
	sleep      func(context.Context, time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how rate-limit cooldowns are waited out (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

func NewClient(cfg *config.SourceConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		cooldown:   cfg.RateLimitCooldown(),
		maxRetries: cfg.MaxRateLimitRetries,
		sleep:      SleepWithContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPost fetches one post by identifier. A 429 answer suspends the caller
// for the cooldown and retries; without a configured ceiling it keeps retrying
// until the API answers or ctx ends.
func (c *Client) FetchPost(ctx context.Context, postID string) (*models.Post, error) {
	retries := 0
	for {
		post, err := c.fetchOnce(ctx, postID)
		if !errors.Is(err, errRateLimitResponse) {
			monitoring.PostFetchesTotal.WithLabelValues(monitoring.Outcome(err)).Inc()
			return post, err
		}

		if c.maxRetries > 0 && retries >= c.maxRetries {
			monitoring.PostFetchesTotal.WithLabelValues("rate_limited").Inc()
			return nil, fmt.Errorf("fetch post %s: %w after %d retries", postID, ErrRateLimited, retries)
		}
		retries++

		logging.L().Warn("rate limit reached, waiting before retry",
			zap.String("post_id", postID),
			zap.Duration("cooldown", c.cooldown),
			zap.Int("retry", retries))
		monitoring.RateLimitWaitsTotal.Inc()

		if err := c.sleep(ctx, c.cooldown); err != nil {
			return nil, fmt.Errorf("fetch post %s: %w: %v", postID, ErrRateLimited, err)
		}
	}
}

func (c *Client) fetchOnce(ctx context.Context, postID string) (*models.Post, error) {
	endpoint := fmt.Sprintf("%s/twitter/tweets?tweet_ids=%s", c.baseURL, url.QueryEscape(postID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create post request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch post %s: %w", postID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errRateLimitResponse
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &FetchError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope tweetsResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode post %s: %w", postID, err)
	}

	if envelope.Status != "success" || len(envelope.Tweets) == 0 {
		msg := envelope.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("post %s: %w (%s)", postID, ErrNotFound, msg)
	}

	return envelope.Tweets[0].toPost(postID), nil
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
