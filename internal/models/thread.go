package models

// NodeRole tags a node's position in the fixed traversal shape:
//
//	root
//	 ├─ quoted
//	 └─ replied_to
//	      └─ quoted_in_reply
type NodeRole string

const (
	RoleRoot          NodeRole = "post"
	RoleQuoted        NodeRole = "quoted"
	RoleRepliedTo     NodeRole = "replied_to"
	RoleQuotedInReply NodeRole = "quoted_in_reply"
)

// FilePrefix is the media filename prefix for posts in this role.
func (r NodeRole) FilePrefix() string {
	return string(r)
}

// ThreadNode is one resolved post and the media downloaded for it.
type ThreadNode struct {
	Role  NodeRole          `json:"role"`
	Post  *Post             `json:"post"`
	Media []DownloadedMedia `json:"downloaded_media"`
}

// Thread is the resolved conversational graph around a root post.
// Root is always set; QuotedInReply is only set when RepliedTo is.
type Thread struct {
	SessionID     string      `json:"analysis_id"`
	Root          *ThreadNode `json:"root"`
	Quoted        *ThreadNode `json:"quoted,omitempty"`
	RepliedTo     *ThreadNode `json:"replied_to,omitempty"`
	QuotedInReply *ThreadNode `json:"quoted_in_reply,omitempty"`
}

// Nodes returns the present nodes in traversal order, root first.
func (t *Thread) Nodes() []*ThreadNode {
	if t == nil || t.Root == nil {
		return nil
	}
	nodes := []*ThreadNode{t.Root}
	if t.Quoted != nil {
		nodes = append(nodes, t.Quoted)
	}
	if t.RepliedTo != nil {
		nodes = append(nodes, t.RepliedTo)
		if t.QuotedInReply != nil {
			nodes = append(nodes, t.QuotedInReply)
		}
	}
	return nodes
}

// Posts returns the posts of the present nodes in traversal order.
func (t *Thread) Posts() []*Post {
	nodes := t.Nodes()
	posts := make([]*Post, 0, len(nodes))
	for _, n := range nodes {
		posts = append(posts, n.Post)
	}
	return posts
}
