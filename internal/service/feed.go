package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/socialfeed/internal/domain"
)

// FeedService assembles ranked, enriched feeds.
type FeedService struct {
	users    domain.UserRepository
	feed     domain.FeedRepository
	timeouts Timeouts
}

// NewFeedService creates a new FeedService.
func NewFeedService(users domain.UserRepository, feed domain.FeedRepository, timeouts Timeouts) *FeedService {
	return &FeedService{users: users, feed: feed, timeouts: timeouts}
}

// Feed returns the posts visible to callerID under f. The result is never
// nil.
func (s *FeedService) Feed(ctx context.Context, callerID string, f domain.FeedFilter) ([]domain.FeedItem, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}

	ctx, cancel := bounded(ctx, s.timeouts.Store)
	defer cancel()

	var following domain.IDSet
	if f.OnlyFollowing {
		caller, err := s.users.GetByID(ctx, callerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrUnauthorized
			}
			return nil, fmt.Errorf("get caller: %w", transient(err))
		}
		following = caller.Following
	}

	q := domain.NewFeedQuery(f, following)
	if q.Empty() {
		return []domain.FeedItem{}, nil
	}

	items, err := s.feed.Feed(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", transient(err))
	}
	return items, nil
}
