package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/msomdec/socialfeed/internal/domain"
)

// ToggleState is the caller's relation to a post or user after a toggle.
type ToggleState string

const (
	StateLiked      ToggleState = "liked"
	StateUnliked    ToggleState = "unliked"
	StateFollowed   ToggleState = "followed"
	StateUnfollowed ToggleState = "unfollowed"
)

// EngagementService applies likes, shares and follows.
type EngagementService struct {
	users    domain.UserRepository
	follows  domain.FollowRepository
	posts    domain.PostRepository
	tx       domain.TxManager
	recorder Recorder
	timeouts Timeouts
}

// NewEngagementService creates an EngagementService on store.
func NewEngagementService(store domain.Store, recorder Recorder, timeouts Timeouts) *EngagementService {
	return &EngagementService{
		users:    store.Users(),
		follows:  store.Follows(),
		posts:    store.Posts(),
		tx:       store.Tx(),
		recorder: orNop(recorder),
		timeouts: timeouts,
	}
}

// ToggleLike likes postID for callerID, or removes the like if present.
func (s *EngagementService) ToggleLike(ctx context.Context, callerID, postID string) (ToggleState, error) {
	if callerID == "" {
		return "", domain.ErrUnauthorized
	}

	ctx, cancel := bounded(ctx, s.timeouts.Store)
	defer cancel()

	liked, err := s.posts.ToggleLike(ctx, postID, callerID)
	if err != nil {
		return "", fmt.Errorf("toggle like: %w", transient(err))
	}
	if liked {
		s.recorder.Engagement(ActionLike)
		return StateLiked, nil
	}
	s.recorder.Engagement(ActionUnlike)
	return StateUnliked, nil
}

// SharePost records callerID in the source post's shares and publishes a
// share post copying its content and media. Repeated shares publish new
// share posts but count the caller once.
func (s *EngagementService) SharePost(ctx context.Context, callerID, postID, thoughts string) (*domain.Post, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}
	thoughts = strings.TrimSpace(thoughts)
	if len(thoughts) > MaxContentLength {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{
			Field:   "shareThoughts",
			Message: fmt.Sprintf("share thoughts exceed %d characters", MaxContentLength),
		}}}
	}

	ctx, cancel := bounded(ctx, s.timeouts.Store)
	defer cancel()

	var shared *domain.Post
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		src, err := s.posts.GetByID(ctx, postID)
		if err != nil {
			return fmt.Errorf("get post: %w", err)
		}
		added, err := s.posts.AddShare(ctx, src.ID, callerID)
		if err != nil {
			return fmt.Errorf("add share: %w", err)
		}

		p := &domain.Post{
			AuthorID:       callerID,
			Content:        src.Content,
			Media:          append([]string{}, src.Media...),
			OriginalPostID: src.ID,
			ShareThoughts:  thoughts,
		}
		if err := s.posts.Create(ctx, p); err != nil {
			// Stores without transactions keep the share otherwise.
			if added {
				if rerr := s.posts.RemoveShare(context.WithoutCancel(ctx), src.ID, callerID); rerr != nil {
					slog.Error("share compensation failed", "post_id", src.ID, "user_id", callerID, "error", rerr)
				}
			}
			return fmt.Errorf("create share post: %w", err)
		}
		shared = p
		return nil
	})
	if err != nil {
		return nil, transient(err)
	}

	s.recorder.Engagement(ActionShare)
	return shared, nil
}

// ToggleFollow makes callerID follow targetID, or unfollow if already
// following. Both sides of the edge change together.
func (s *EngagementService) ToggleFollow(ctx context.Context, callerID, targetID string) (ToggleState, error) {
	if callerID == "" {
		return "", domain.ErrUnauthorized
	}
	if callerID == targetID {
		return "", fmt.Errorf("%w: cannot follow yourself", domain.ErrInvalidOperation)
	}

	ctx, cancel := bounded(ctx, s.timeouts.Store)
	defer cancel()

	var state ToggleState
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByID(ctx, targetID); err != nil {
			return fmt.Errorf("get target: %w", err)
		}
		caller, err := s.users.GetByID(ctx, callerID)
		if err != nil {
			return fmt.Errorf("get caller: %w", err)
		}

		if caller.Following.Has(targetID) {
			if err := s.follows.Unfollow(ctx, callerID, targetID); err != nil {
				return fmt.Errorf("unfollow: %w", err)
			}
			state = StateUnfollowed
			return nil
		}
		if err := s.follows.Follow(ctx, callerID, targetID); err != nil {
			return fmt.Errorf("follow: %w", err)
		}
		state = StateFollowed
		return nil
	})
	if err != nil {
		return "", transient(err)
	}

	if state == StateFollowed {
		s.recorder.Engagement(ActionFollow)
	} else {
		s.recorder.Engagement(ActionUnfollow)
	}
	return state, nil
}
