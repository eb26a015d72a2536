package models

// SearchResult is a ranked web search hit for an analyzed link.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// MediaAnalysis is the outcome of one image or video analyzer call.
// Exactly one of Description and Error is meaningful.
type MediaAnalysis struct {
	PostID      string    `json:"post_id"`
	Kind        MediaKind `json:"type"`
	LocalPath   string    `json:"local_path"`
	OriginalURL string    `json:"original_url"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// LinkAnalysis is the outcome of one link analyzer call.
type LinkAnalysis struct {
	PostID        string         `json:"post_id"`
	URL           string         `json:"url"`
	Summary       string         `json:"summary,omitempty"`
	SearchResults []SearchResult `json:"search_results,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// AnalysisResults collects every analyzer outcome for one session.
type AnalysisResults struct {
	Images []MediaAnalysis `json:"all_image_analyses_conducted"`
	Videos []MediaAnalysis `json:"all_video_analyses_conducted"`
	Links  []LinkAnalysis  `json:"all_link_analyses_conducted"`
}

// Total is the number of analyzer outcomes of any kind.
func (r AnalysisResults) Total() int {
	return len(r.Images) + len(r.Videos) + len(r.Links)
}

// Failed counts outcomes that carry an error.
func (r AnalysisResults) Failed() int {
	n := 0
	for _, m := range r.Images {
		if m.Error != "" {
			n++
		}
	}
	for _, m := range r.Videos {
		if m.Error != "" {
			n++
		}
	}
	for _, l := range r.Links {
		if l.Error != "" {
			n++
		}
	}
	return n
}

// MediaFor returns image results then video results owned by postID.
func (r AnalysisResults) MediaFor(postID string) []MediaAnalysis {
	var out []MediaAnalysis
	for _, m := range r.Images {
		if m.PostID == postID {
			out = append(out, m)
		}
	}
	for _, m := range r.Videos {
		if m.PostID == postID {
			out = append(out, m)
		}
	}
	return out
}

// LinksFor returns link results owned by postID.
func (r AnalysisResults) LinksFor(postID string) []LinkAnalysis {
	var out []LinkAnalysis
	for _, l := range r.Links {
		if l.PostID == postID {
			out = append(out, l)
		}
	}
	return out
}
