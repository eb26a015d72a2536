package source

import "post-analyzer/internal/models"

// tweetsResponse is the read API envelope.
type tweetsResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Tweets  []apiTweet `json:"tweets"`
}

type apiTweet struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	CreatedAt   string `json:"createdAt"`
	IsReply     bool   `json:"isReply"`
	InReplyToID string `json:"inReplyToId"`
	Author      struct {
		UserName string `json:"userName"`
	} `json:"author"`
	QuotedTweet *struct {
		ID string `json:"id"`
	} `json:"quoted_tweet"`
	Entities struct {
		Media []apiMedia `json:"media"`
	} `json:"entities"`
	ExtendedEntities struct {
		Media []apiMedia `json:"media"`
	} `json:"extendedEntities"`
}

type apiMedia struct {
	Type          string `json:"type"`
	MediaURL      string `json:"media_url"`
	MediaURLHTTPS string `json:"media_url_https"`
	VideoInfo     *struct {
		DurationMillis int `json:"duration_millis"`
		Variants       []struct {
			Bitrate     int    `json:"bitrate"`
			ContentType string `json:"content_type"`
			URL         string `json:"url"`
		} `json:"variants"`
	} `json:"video_info"`
}

func (t apiTweet) toPost(requestedID string) *models.Post {
	author := t.Author.UserName
	if author == "" {
		author = "Unknown"
	}

	post := &models.Post{
		ID:        requestedID,
		Text:      t.Text,
		Author:    author,
		CreatedAt: t.CreatedAt,
		URLs:      ExtractURLs(t.Text),
	}
	if t.QuotedTweet != nil {
		post.QuotedID = t.QuotedTweet.ID
	}
	if t.IsReply {
		post.RepliedToID = t.InReplyToID
	}

	raw := make([]apiMedia, 0, len(t.Entities.Media)+len(t.ExtendedEntities.Media))
	raw = append(raw, t.Entities.Media...)
	raw = append(raw, t.ExtendedEntities.Media...)
	for _, m := range raw {
		post.Media = append(post.Media, m.toDescriptor())
	}

	return post
}

func (m apiMedia) toDescriptor() models.MediaDescriptor {
	d := models.MediaDescriptor{
		Type:          m.Type,
		MediaURL:      m.MediaURL,
		MediaURLHTTPS: m.MediaURLHTTPS,
	}
	if m.VideoInfo != nil {
		d.DurationMillis = m.VideoInfo.DurationMillis
		for _, v := range m.VideoInfo.Variants {
			d.Variants = append(d.Variants, models.VideoVariant{
				Bitrate:     v.Bitrate,
				ContentType: v.ContentType,
				URL:         v.URL,
			})
		}
	}
	return d
}
