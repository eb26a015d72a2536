package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"post-analyzer/shared/config"
	"post-analyzer/shared/logging"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model answers with no text, which
// usually means the content was filtered.
var ErrEmptyResponse = errors.New("empty response from model")

// Analyzer describes images and videos and summarizes link search results
// with Gemini.
type Analyzer struct {
	client *genai.Client
	model  string
}

func NewAnalyzer(cfg *config.Config) (*Analyzer, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.AI.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Analyzer{
		client: client,
		model:  cfg.AI.Model,
	}, nil
}

// DescribeImage returns a description of the image at path in the context of
// the owning post's text.
func (a *Analyzer) DescribeImage(ctx context.Context, path, postText string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("image file not found: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(buildImagePrompt(postText)),
		genai.NewPartFromBytes(data, ImageMimeType(path)),
	}

	description, err := a.generate(ctx, parts)
	if err != nil {
		return "", fmt.Errorf("failed to analyze image %s: %w", filepath.Base(path), err)
	}
	return description, nil
}

// DescribeVideo sends the video inline. Callers enforce the inline size
// ceiling before calling.
func (a *Analyzer) DescribeVideo(ctx context.Context, path, postText string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("video file not found: %w", err)
	}

	mimeType := VideoMimeType(path)
	logging.L().Debug("sending video for analysis",
		zap.String("path", path),
		zap.String("mime_type", mimeType),
		zap.String("model", a.model))

	parts := []*genai.Part{
		genai.NewPartFromBytes(data, mimeType),
		genai.NewPartFromText(buildVideoPrompt(postText)),
	}

	description, err := a.generate(ctx, parts)
	if err != nil {
		return "", fmt.Errorf("failed to analyze video %s: %w", filepath.Base(path), err)
	}
	return description, nil
}

// Summarize condenses search snippets about link into a short summary.
func (a *Analyzer) Summarize(ctx context.Context, link, postText string, snippets []string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(buildSummaryPrompt(link, postText, snippets)),
	}

	summary, err := a.generate(ctx, parts)
	if err != nil {
		return "", fmt.Errorf("failed to summarize search results for %s: %w", link, err)
	}
	return summary, nil
}

func (a *Analyzer) generate(ctx context.Context, parts []*genai.Part) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return "", err
	}

	text := cleanResponse(result.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func buildImagePrompt(postText string) string {
	return fmt.Sprintf("Analyze this image in the context of the following post text: '%s'. "+
		"Describe the image content, any objects, scenes, or text present, and its relevance to the post. "+
		"Be concise and informative.", truncateString(postText, 1000))
}

func buildVideoPrompt(postText string) string {
	prompt := "Please describe this video in detail. " +
		"Indicate key scenes, objects, actions, and any visible text. " +
		"What is the overall theme or message of the video? " +
		"If there are people in the video, describe their appearance and actions. " +
		"If there are animals, specify their species. " +
		"If it's an animation, describe the animation style."
	if strings.TrimSpace(postText) != "" {
		prompt += fmt.Sprintf("\n\nThe video was posted with the text: '%s'", truncateString(postText, 1000))
	}
	return prompt
}

func buildSummaryPrompt(link, postText string, snippets []string) string {
	return fmt.Sprintf("Summarize the following search results about '%s' in the context of '%s':\n\n%s",
		link, truncateString(postText, 500), strings.Join(snippets, "\n\n"))
}

var imageMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var videoMimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/avi",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
}

// ImageMimeType maps a file extension to its image MIME type (default JPEG).
func ImageMimeType(path string) string {
	if mt, ok := imageMimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "image/jpeg"
}

// VideoMimeType maps a file extension to its video MIME type (default MP4).
func VideoMimeType(path string) string {
	if mt, ok := videoMimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "video/mp4"
}

// cleanResponse trims whitespace and a surrounding markdown code fence.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl != -1 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// truncateString cuts s to at most maxLength bytes on a rune boundary.
func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	n := maxLength
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
