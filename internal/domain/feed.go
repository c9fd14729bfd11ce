package domain

import (
	"context"
	"time"
)

const (
	DefaultFeedLimit = 50
	MaxFeedLimit     = 100
)

// FeedRank selects the primary ordering of a feed.
type FeedRank int

const (
	RankRecent FeedRank = iota
	RankMostLiked
	RankMostShared
)

func (r FeedRank) String() string {
	switch r {
	case RankMostLiked:
		return "most_liked"
	case RankMostShared:
		return "most_shared"
	default:
		return "recent"
	}
}

// FeedFilter holds the view selectors a caller sends with a feed request.
// The flags are independent; NewFeedQuery resolves them.
type FeedFilter struct {
	OnlyFollowing bool
	MostLiked     bool
	MostShared    bool
	Limit         int
	Offset        int
}

// FeedQuery is a fully resolved feed request that a FeedRepository
// executes verbatim.
//
// When RestrictAuthors is set only posts by AuthorIDs are candidates; an
// empty AuthorIDs then yields an empty feed. A rank other than RankRecent
// drops posts with zero of the ranked engagement. Ties always fall back to
// newest first.
type FeedQuery struct {
	RestrictAuthors bool
	AuthorIDs       []string
	Rank            FeedRank
	Limit           int
	Offset          int
}

// NewFeedQuery resolves f against the caller's following set.
// MostLiked takes precedence over MostShared.
func NewFeedQuery(f FeedFilter, following IDSet) FeedQuery {
	q := FeedQuery{Rank: RankRecent, Limit: f.Limit, Offset: f.Offset}

	if f.OnlyFollowing {
		q.RestrictAuthors = true
		q.AuthorIDs = following.Slice()
	}

	switch {
	case f.MostLiked:
		q.Rank = RankMostLiked
	case f.MostShared:
		q.Rank = RankMostShared
	}

	if q.Limit <= 0 {
		q.Limit = DefaultFeedLimit
	}
	if q.Limit > MaxFeedLimit {
		q.Limit = MaxFeedLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// Empty reports whether q can match nothing without consulting a store.
func (q FeedQuery) Empty() bool {
	return q.RestrictAuthors && len(q.AuthorIDs) == 0
}

// OriginalPost is the denormalized view of the post a share post points at.
type OriginalPost struct {
	ID        string
	Content   string
	Media     []string
	CreatedAt time.Time
	Author    *PublicProfile // nil when the original author no longer exists
}

// FeedItem is one enriched feed entry.
type FeedItem struct {
	Post       Post
	LikeCount  int
	ShareCount int
	Author     *PublicProfile // nil when the author no longer exists
	Original   *OriginalPost  // set only for share posts whose original still exists
}

// FeedRepository executes resolved feed queries. Implementations are
// read-only and must treat missing authors or originals as absent
// relations rather than errors.
type FeedRepository interface {
	Feed(ctx context.Context, q FeedQuery) ([]FeedItem, error)
}
