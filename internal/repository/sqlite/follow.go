package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/msomdec/socialfeed/internal/domain"
)

// followRepo stores each follow edge once; both users' followers and
// following sets are read from the same row, so the two sides cannot
// diverge.
type followRepo struct {
	db *sql.DB
}

func (r *followRepo) Follow(ctx context.Context, followerID, targetID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT OR IGNORE INTO follows (follower_id, following_id, created_at) VALUES (?, ?, ?)`,
		followerID, targetID, toUnix(time.Now().UTC()),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert follow: %w", err)
	}
	return nil
}

func (r *followRepo) Unfollow(ctx context.Context, followerID, targetID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, targetID,
	)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}
