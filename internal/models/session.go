package models

import "time"

// PipelineStatus is the top-level outcome of one traversal session.
type PipelineStatus string

const (
	StatusSuccess        PipelineStatus = "success"
	StatusPartialSuccess PipelineStatus = "partial_success"
	StatusError          PipelineStatus = "error"
)

// SessionData is the JSON document persisted for a traversal session.
type SessionData struct {
	RunID     string           `json:"run_id"`
	SessionID string           `json:"analysis_id"`
	PostURL   string           `json:"tweet_url"`
	CreatedAt time.Time        `json:"created_at"`
	Posts     []StructuredPost `json:"all_posts_structured"`
	AnalysisResults
}

// PipelineResult is returned to callers of the pipeline. Downstream
// collaborators consume Report and SessionID only.
type PipelineResult struct {
	RunID      string         `json:"run_id"`
	Status     PipelineStatus `json:"status"`
	Message    string         `json:"message"`
	SessionID  string         `json:"analysis_id,omitempty"`
	RootPostID string         `json:"main_post_id_to_reply_to,omitempty"`
	DataPath   string         `json:"data_file_path,omitempty"`
	ReportPath string         `json:"final_markdown_report_path,omitempty"`
	Report     string         `json:"report_markdown_content,omitempty"`
	Posts      int            `json:"posts"`
	Analyses   int            `json:"analyses"`
	Err        error          `json:"-"`
}
