package models

// MediaKind is the analysis category of a downloaded media item.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// VideoVariant is one encoding of a video offered by the source platform.
type VideoVariant struct {
	Bitrate     int    `json:"bitrate"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// MediaDescriptor is a raw media entry attached to a post, as returned by the read API.
type MediaDescriptor struct {
	Type           string         `json:"type"` // photo, video, animated_gif
	MediaURL       string         `json:"media_url,omitempty"`
	MediaURLHTTPS  string         `json:"media_url_https,omitempty"`
	DurationMillis int            `json:"duration_millis,omitempty"`
	Variants       []VideoVariant `json:"variants,omitempty"`
}

// Kind maps the platform media type onto an analysis kind. Animated GIFs are
// delivered as a still thumbnail and analyzed as images.
func (m MediaDescriptor) Kind() MediaKind {
	if m.Type == "video" {
		return MediaKindVideo
	}
	return MediaKindImage
}

// SourceURL returns the resolved source URL, preferring the https form.
func (m MediaDescriptor) SourceURL() string {
	if m.MediaURLHTTPS != "" {
		return m.MediaURLHTTPS
	}
	return m.MediaURL
}

// DurationSeconds returns the video duration in seconds (zero for images).
func (m MediaDescriptor) DurationSeconds() float64 {
	return float64(m.DurationMillis) / 1000
}

// Post is a single fetched post. It is not modified after the fetcher returns it.
type Post struct {
	ID          string            `json:"post_id"`
	ParentID    string            `json:"parent_post_id,omitempty"`
	QuotedID    string            `json:"quoted_post_id,omitempty"`
	RepliedToID string            `json:"replied_to_post_id,omitempty"`
	Text        string            `json:"text"`
	Author      string            `json:"author"`
	CreatedAt   string            `json:"created_at"`
	Media       []MediaDescriptor `json:"media"`
	URLs        []string          `json:"extracted_urls"`
}

// DownloadedMedia is a media file stored under a session namespace.
type DownloadedMedia struct {
	PostID    string    `json:"post_id"`
	Kind      MediaKind `json:"type"`
	URL       string    `json:"url"`
	LocalPath string    `json:"local_path"`
}

// MediaItem is a downloaded media file projected for analysis.
type MediaItem struct {
	Kind        MediaKind `json:"type"`
	LocalPath   string    `json:"local_path"`
	OriginalURL string    `json:"original_url"`
	Context     string    `json:"tweet_text_context"`
}

// LinkItem is an external link extracted from a post body.
type LinkItem struct {
	URL     string `json:"url"`
	Context string `json:"tweet_text_context"`
}

// StructuredPost is the analysis-ready view of a post.
type StructuredPost struct {
	PostID          string      `json:"post_id"`
	ParentPostID    string      `json:"parent_post_id,omitempty"`
	QuotedPostID    string      `json:"quoted_post_id,omitempty"`
	RepliedToPostID string      `json:"replied_to_post_id,omitempty"`
	Text            string      `json:"text"`
	Author          string      `json:"author"`
	CreatedAt       string      `json:"created_at"`
	Media           []MediaItem `json:"media_to_analyze"`
	Links           []LinkItem  `json:"links_to_analyze"`
}
