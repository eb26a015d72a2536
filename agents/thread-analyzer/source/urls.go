package source

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrInvalidSource is returned for URLs whose host is not a source-platform domain.
	ErrInvalidSource = errors.New("unsupported source domain")
	// ErrMalformedURL is returned when the path has no status/<id> segment pair
	// after a user (or i/web) prefix.
	ErrMalformedURL = errors.New("malformed post URL")
)

var postHosts = map[string]bool{
	"x.com":              true,
	"twitter.com":        true,
	"www.x.com":          true,
	"www.twitter.com":    true,
	"mobile.x.com":       true,
	"mobile.twitter.com": true,
}

var (
	postIDPattern = regexp.MustCompile(`^[0-9]+$`)
	urlPattern    = regexp.MustCompile(`(?i)\b((?:https?://|www\d{0,3}[.]|[a-z0-9.\-]+[.][a-z]{2,4}/)(?:[^\s()<>]+|\(([^\s()<>]+|(\([^\s()<>]+\)))*\))+(?:\(([^\s()<>]+|(\([^\s()<>]+\)))*\)|[^\s` + "`" + `!()\[\]{};:'".,<>?«»“”‘’]))`)
)

// ResolvePostID validates a post URL and returns its numeric identifier.
// It performs no I/O.
func ResolvePostID(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}

	if !postHosts[strings.ToLower(parsed.Host)] {
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, parsed.Host)
	}

	// /<user>/status/<id> and /i/web/status/<id>
	parts := strings.Split(parsed.Path, "/")
	for i := 2; i+1 < len(parts); i++ {
		if parts[i] == "status" && postIDPattern.MatchString(parts[i+1]) {
			return parts[i+1], nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrMalformedURL, rawURL)
}

// ExtractURLs returns the URLs found in a post body, in order of appearance.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllStringSubmatch(text, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, m[1])
	}
	return urls
}

// IsPlatformLink reports whether link points back at the source platform,
// including its link shortener.
func IsPlatformLink(link string) bool {
	if !strings.Contains(link, "://") {
		link = "http://" + link
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return postHosts[host] || host == "t.co" || strings.HasSuffix(host, ".t.co")
}
