package threadanalyzer

import (
	"context"
	"errors"
	"fmt"

	"post-analyzer/agents/thread-analyzer/source"
	"post-analyzer/internal/models"
	"post-analyzer/shared/logging"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrRootFetchFailed aborts a session: without the root post there is nothing
// to analyze.
var ErrRootFetchFailed = errors.New("failed to retrieve root post")

// PostFetcher fetches a single post by id.
type PostFetcher interface {
	FetchPost(ctx context.Context, postID string) (*models.Post, error)
}

// MediaSource stores a post's media under a session namespace.
type MediaSource interface {
	Acquire(ctx context.Context, sessionID, prefix string, post *models.Post) ([]models.DownloadedMedia, error)
}

// ThreadResolver walks the fixed traversal shape around a root post.
type ThreadResolver struct {
	posts PostFetcher
	media MediaSource
}

func NewThreadResolver(posts PostFetcher, media MediaSource) *ThreadResolver {
	return &ThreadResolver{posts: posts, media: media}
}

// Resolve fetches the root and its related posts. The root id is the
// session id. A failed root fetch returns ErrRootFetchFailed; any other
// failed node is left out of the thread.
func (r *ThreadResolver) Resolve(ctx context.Context, rootID string) (*models.Thread, error) {
	root, err := r.posts.FetchPost(ctx, rootID)
	if err != nil {
		logging.L().Error("root post fetch failed", zap.String("post_id", rootID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRootFetchFailed, err)
	}

	sessionID := rootID
	thread := &models.Thread{
		SessionID: sessionID,
		Root:      &models.ThreadNode{Role: models.RoleRoot, Post: root},
	}

	// A post appears in the thread at most once. When the root quotes the
	// post it replies to, the replied_to branch carries it.
	quotedID, repliedID := root.QuotedID, root.RepliedToID
	if repliedID == root.ID {
		repliedID = ""
	}
	if quotedID == root.ID || quotedID == repliedID {
		quotedID = ""
	}

	// Each goroutine owns a distinct field of thread.
	var g errgroup.Group
	g.Go(func() error {
		thread.Root.Media = r.acquire(ctx, sessionID, models.RoleRoot, root)
		return nil
	})
	if quotedID != "" {
		g.Go(func() error {
			thread.Quoted = r.branch(ctx, sessionID, models.RoleQuoted, quotedID, root.ID)
			return nil
		})
	}
	if repliedID != "" {
		g.Go(func() error {
			replied := r.branch(ctx, sessionID, models.RoleRepliedTo, repliedID, root.ID)
			if replied == nil {
				return nil
			}
			thread.RepliedTo = replied
			switch inner := replied.Post.QuotedID; inner {
			case "", root.ID, quotedID, replied.Post.ID:
			default:
				thread.QuotedInReply = r.branch(ctx, sessionID, models.RoleQuotedInReply, inner, replied.Post.ID)
			}
			return nil
		})
	}
	_ = g.Wait()

	logging.L().Info("thread resolved",
		zap.String("session_id", sessionID),
		zap.Int("posts", len(thread.Nodes())))
	return thread, nil
}

// branch fetches a non-root node. A failure omits the branch.
func (r *ThreadResolver) branch(ctx context.Context, sessionID string, role models.NodeRole, postID, parentID string) *models.ThreadNode {
	fetched, err := r.posts.FetchPost(ctx, postID)
	if err != nil {
		logging.L().Warn("omitting branch",
			zap.String("session_id", sessionID),
			zap.String("role", string(role)),
			zap.String("post_id", postID),
			zap.Error(err))
		return nil
	}

	post := *fetched
	post.ParentID = parentID
	return &models.ThreadNode{
		Role:  role,
		Post:  &post,
		Media: r.acquire(ctx, sessionID, role, &post),
	}
}

func (r *ThreadResolver) acquire(ctx context.Context, sessionID string, role models.NodeRole, post *models.Post) []models.DownloadedMedia {
	media, err := r.media.Acquire(ctx, sessionID, role.FilePrefix(), post)
	if err != nil {
		logging.L().Warn("media acquisition failed",
			zap.String("session_id", sessionID),
			zap.String("post_id", post.ID),
			zap.Error(err))
		return nil
	}
	return media
}

// Structure projects the thread into analysis-ready posts, root first.
// Links back to the source platform are dropped.
func Structure(thread *models.Thread) []models.StructuredPost {
	nodes := thread.Nodes()
	out := make([]models.StructuredPost, 0, len(nodes))
	for _, n := range nodes {
		p := n.Post

		media := make([]models.MediaItem, 0, len(n.Media))
		for _, m := range n.Media {
			media = append(media, models.MediaItem{
				Kind:        m.Kind,
				LocalPath:   m.LocalPath,
				OriginalURL: m.URL,
				Context:     p.Text,
			})
		}

		links := make([]models.LinkItem, 0, len(p.URLs))
		for _, u := range p.URLs {
			if source.IsPlatformLink(u) {
				continue
			}
			links = append(links, models.LinkItem{URL: u, Context: p.Text})
		}

		out = append(out, models.StructuredPost{
			PostID:          p.ID,
			ParentPostID:    p.ParentID,
			QuotedPostID:    p.QuotedID,
			RepliedToPostID: p.RepliedToID,
			Text:            p.Text,
			Author:          p.Author,
			CreatedAt:       p.CreatedAt,
			Media:           media,
			Links:           links,
		})
	}
	return out
}
