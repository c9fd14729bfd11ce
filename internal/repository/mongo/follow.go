package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/msomdec/socialfeed/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// followRepo keeps the follower's following array and the target's
// followers array in step. Inside a session both updates commit together;
// outside one the first update is undone if the second fails.
type followRepo struct {
	update func(ctx context.Context, userID string, update bson.D) (*mongo.UpdateResult, error)
}

func newFollowRepo(users *mongo.Collection) *followRepo {
	return &followRepo{update: func(ctx context.Context, userID string, update bson.D) (*mongo.UpdateResult, error) {
		return users.UpdateByID(ctx, userID, update)
	}}
}

func (r *followRepo) Follow(ctx context.Context, followerID, targetID string) error {
	return r.pair(ctx, followerID, targetID, "$addToSet", "$pull")
}

func (r *followRepo) Unfollow(ctx context.Context, followerID, targetID string) error {
	return r.pair(ctx, followerID, targetID, "$pull", "$addToSet")
}

func (r *followRepo) pair(ctx context.Context, followerID, targetID, op, undo string) error {
	if err := r.apply(ctx, followerID, op, "following", targetID); err != nil {
		return err
	}

	if err := r.apply(ctx, targetID, op, "followers", followerID); err != nil {
		if !inSession(ctx) {
			if cerr := r.apply(context.WithoutCancel(ctx), followerID, undo, "following", targetID); cerr != nil {
				slog.Error("follow compensation failed",
					"follower_id", followerID, "target_id", targetID, "error", cerr)
			}
		}
		return err
	}
	return nil
}

func (r *followRepo) apply(ctx context.Context, userID, op, field, value string) error {
	res, err := r.update(ctx, userID, bson.D{{Key: op, Value: bson.D{{Key: field, Value: value}}}})
	if err != nil {
		return fmt.Errorf("update %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
