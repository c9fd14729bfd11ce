package domain

import (
	"context"
	"time"
)

// Post is a piece of user content. A post with OriginalPostID set is a
// share post: Content and Media were copied from the original when it
// was shared.
type Post struct {
	ID             string
	AuthorID       string
	Content        string
	Media          []string // stable media URLs, in display order
	Likes          IDSet
	Shares         IDSet // users who shared this post, counted once each
	OriginalPostID string
	ShareThoughts  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsShare reports whether p was created by sharing another post.
func (p *Post) IsShare() bool {
	return p.OriginalPostID != ""
}

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	// GetByID populates Likes and Shares.
	GetByID(ctx context.Context, id string) (*Post, error)
	Delete(ctx context.Context, id string) error
	// ToggleLike flips userID's membership in the post's likes atomically
	// and reports whether the user likes the post afterwards.
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
	// AddShare adds userID to the post's shares if absent and reports
	// whether the set changed.
	AddShare(ctx context.Context, postID, userID string) (bool, error)
	// RemoveShare undoes an AddShare that reported a change.
	RemoveShare(ctx context.Context, postID, userID string) error
	// MediaInUse returns the members of urls still referenced by an
	// original post other than excludePostID. Share posts are ignored.
	MediaInUse(ctx context.Context, excludePostID string, urls []string) (IDSet, error)
}
