package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/socialfeed/internal/domain"
)

type postRepo struct {
	db *sql.DB
}

func (r *postRepo) Create(ctx context.Context, post *domain.Post) error {
	media, err := encodeMedia(post.Media)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	_, err = conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO posts (id, author_id, content, media, original_post_id, share_thoughts, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, post.AuthorID, post.Content, media, nullString(post.OriginalPostID), post.ShareThoughts, toUnix(now), toUnix(now),
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	post.ID = id
	if post.Media == nil {
		post.Media = []string{}
	}
	post.Likes = domain.NewIDSet()
	post.Shares = domain.NewIDSet()
	post.CreatedAt = now
	post.UpdatedAt = now
	return nil
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	q := conn(ctx, r.db)

	p := &domain.Post{}
	var (
		media          string
		original       sql.NullString
		created, updtd int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, author_id, content, media, original_post_id, share_thoughts, created_at, updated_at
		 FROM posts WHERE id = ?`, id,
	).Scan(&p.ID, &p.AuthorID, &p.Content, &media, &original, &p.ShareThoughts, &created, &updtd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query post: %w", err)
	}
	if p.Media, err = decodeMedia(media); err != nil {
		return nil, err
	}
	p.OriginalPostID = original.String
	p.CreatedAt = fromUnix(created)
	p.UpdatedAt = fromUnix(updtd)

	if p.Likes, err = queryIDSet(ctx, q, `SELECT user_id FROM post_likes WHERE post_id = ?`, id); err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	if p.Shares, err = queryIDSet(ctx, q, `SELECT user_id FROM post_shares WHERE post_id = ?`, id); err != nil {
		return nil, fmt.Errorf("query shares: %w", err)
	}
	return p, nil
}

func (r *postRepo) Delete(ctx context.Context, id string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return requireAffected(result)
}

func (r *postRepo) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	var liked bool
	err := (&TxManager{db: r.db}).WithinTx(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.db)
		result, err := q.ExecContext(ctx,
			`DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID)
		if err != nil {
			return fmt.Errorf("delete like: %w", err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			liked = false
			return nil
		}

		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO post_likes (post_id, user_id, created_at) VALUES (?, ?, ?)`,
			postID, userID, toUnix(time.Now().UTC()),
		); err != nil {
			if isForeignKeyError(err) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("insert like: %w", err)
		}
		liked = true
		return nil
	})
	return liked, err
}

func (r *postRepo) AddShare(ctx context.Context, postID, userID string) (bool, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT OR IGNORE INTO post_shares (post_id, user_id, created_at) VALUES (?, ?, ?)`,
		postID, userID, toUnix(time.Now().UTC()),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return false, domain.ErrNotFound
		}
		return false, fmt.Errorf("insert share: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *postRepo) RemoveShare(ctx context.Context, postID, userID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM post_shares WHERE post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	return nil
}

func (r *postRepo) MediaInUse(ctx context.Context, excludePostID string, urls []string) (domain.IDSet, error) {
	if len(urls) == 0 {
		return domain.NewIDSet(), nil
	}
	args := make([]any, 0, len(urls)+1)
	args = append(args, excludePostID)
	marks := make([]string, len(urls))
	for i, u := range urls {
		marks[i] = "?"
		args = append(args, u)
	}

	inUse, err := queryIDSet(ctx, conn(ctx, r.db),
		`SELECT DISTINCT m.value FROM posts p, json_each(p.media) m
		 WHERE p.id <> ? AND p.original_post_id IS NULL AND m.value IN (`+strings.Join(marks, ",")+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query media references: %w", err)
	}
	return inUse, nil
}

func encodeMedia(media []string) (string, error) {
	if media == nil {
		media = []string{}
	}
	b, err := json.Marshal(media)
	if err != nil {
		return "", fmt.Errorf("encode media: %w", err)
	}
	return string(b), nil
}

func decodeMedia(s string) ([]string, error) {
	media := []string{}
	if s == "" {
		return media, nil
	}
	if err := json.Unmarshal([]byte(s), &media); err != nil {
		return nil, fmt.Errorf("decode media: %w", err)
	}
	return media, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
