package threadanalyzer

import (
	"fmt"
	"strings"

	"post-analyzer/internal/models"
)

const (
	reportTypeFull     = "Full Analysis Report"
	reportTypeTextOnly = "Text-Only Summary"
	maxReportHits      = 3
)

// ReportType classifies a session: any analysis result at all makes it a
// full analysis.
func ReportType(results models.AnalysisResults) string {
	if results.Total() > 0 {
		return reportTypeFull
	}
	return reportTypeTextOnly
}

// CompileReport renders the markdown report for a session. It is a pure
// function of its inputs.
func CompileReport(sessionID string, posts []models.StructuredPost, results models.AnalysisResults) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Tweet Analysis Report (ID: %s)\n\n", sessionID)
	fmt.Fprintf(&b, "## Report Type: %s\n\n", ReportType(results))

	for _, p := range posts {
		b.WriteString("---\n")
		fmt.Fprintf(&b, "### Post ID: %s\n", p.PostID)
		fmt.Fprintf(&b, "**Author:** %s\n", orDefault(p.Author, "Unknown Author"))
		fmt.Fprintf(&b, "**Created At:** %s\n", orDefault(p.CreatedAt, "N/A"))
		if p.ParentPostID != "" {
			fmt.Fprintf(&b, "**Parent Post:** %s\n", p.ParentPostID)
		}
		if p.RepliedToPostID != "" {
			fmt.Fprintf(&b, "**In Reply To:** %s\n", p.RepliedToPostID)
		}
		if p.QuotedPostID != "" {
			fmt.Fprintf(&b, "**Quoted Post:** %s\n", p.QuotedPostID)
		}
		fmt.Fprintf(&b, "\n**Text:**\n```\n%s\n```\n\n", p.Text)

		if media := results.MediaFor(p.PostID); len(media) > 0 {
			b.WriteString("#### Media Analysis:\n")
			for _, m := range media {
				fmt.Fprintf(&b, "- **Type:** %s\n", capitalize(string(m.Kind)))
				fmt.Fprintf(&b, "  - **Local Path:** `%s`\n", m.LocalPath)
				fmt.Fprintf(&b, "  - **Original URL:** %s\n", m.OriginalURL)
				if m.Error != "" {
					fmt.Fprintf(&b, "  - **Analysis Error:** %s\n", m.Error)
				} else {
					fmt.Fprintf(&b, "  - **Description:** %s\n", orDefault(m.Description, "No description available."))
				}
			}
			b.WriteString("\n")
		}

		if links := results.LinksFor(p.PostID); len(links) > 0 {
			b.WriteString("#### Link Analysis:\n")
			for _, l := range links {
				fmt.Fprintf(&b, "- **URL:** %s\n", l.URL)
				if l.Error != "" {
					fmt.Fprintf(&b, "  - **Analysis Error:** %s\n", l.Error)
					continue
				}
				fmt.Fprintf(&b, "  - **Summary:** %s\n", orDefault(l.Summary, "No summary available."))
				if len(l.SearchResults) > 0 {
					b.WriteString("  - **Top Search Results:**\n")
					for i, hit := range l.SearchResults {
						if i == maxReportHits {
							break
						}
						fmt.Fprintf(&b, "    - [%s](%s)\n", orDefault(hit.Title, "N/A"), orDefault(hit.Link, "#"))
						fmt.Fprintf(&b, "      > %s\n", orDefault(hit.Snippet, "No snippet."))
					}
				}
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
