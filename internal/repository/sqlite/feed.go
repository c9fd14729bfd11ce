package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/msomdec/socialfeed/internal/domain"
)

type feedRepo struct {
	db *sql.DB
}

const feedQuery = `
WITH ranked AS (
	SELECT p.rowid AS seq, p.id, p.author_id, p.content, p.media, p.original_post_id,
	       p.share_thoughts, p.created_at, p.updated_at,
	       (SELECT json_group_array(user_id) FROM post_likes WHERE post_id = p.id) AS likes,
	       (SELECT json_group_array(user_id) FROM post_shares WHERE post_id = p.id) AS shares,
	       (SELECT COUNT(*) FROM post_likes WHERE post_id = p.id) AS like_count,
	       (SELECT COUNT(*) FROM post_shares WHERE post_id = p.id) AS share_count
	FROM posts p
	%s
)
SELECT r.id, r.author_id, r.content, r.media, r.original_post_id, r.share_thoughts,
       r.created_at, r.updated_at, r.likes, r.shares, r.like_count, r.share_count,
       a.id, a.name, a.profile_picture,
       o.id, o.content, o.media, o.created_at,
       oa.id, oa.name, oa.profile_picture
FROM ranked r
LEFT JOIN users a ON a.id = r.author_id
LEFT JOIN posts o ON o.id = r.original_post_id
LEFT JOIN users oa ON oa.id = o.author_id
%s
ORDER BY %s
LIMIT ? OFFSET ?`

// buildFeedSQL renders q into a single statement and its arguments.
func buildFeedSQL(q domain.FeedQuery) (string, []any) {
	var (
		authorWhere string
		args        []any
	)
	if q.RestrictAuthors {
		placeholders := make([]string, len(q.AuthorIDs))
		for i, id := range q.AuthorIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		authorWhere = fmt.Sprintf("WHERE p.author_id IN (%s)", strings.Join(placeholders, ","))
	}

	var rankWhere, order string
	switch q.Rank {
	case domain.RankMostLiked:
		rankWhere = "WHERE r.like_count > 0"
		order = "r.like_count DESC, r.created_at DESC, r.seq DESC"
	case domain.RankMostShared:
		rankWhere = "WHERE r.share_count > 0"
		order = "r.share_count DESC, r.created_at DESC, r.seq DESC"
	default:
		order = "r.created_at DESC, r.seq DESC"
	}

	args = append(args, q.Limit, q.Offset)
	return fmt.Sprintf(feedQuery, authorWhere, rankWhere, order), args
}

func (r *feedRepo) Feed(ctx context.Context, q domain.FeedQuery) ([]domain.FeedItem, error) {
	items := []domain.FeedItem{}
	if q.Empty() {
		return items, nil
	}

	query, args := buildFeedSQL(q)
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanFeedItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanFeedItem(rows *sql.Rows) (*domain.FeedItem, error) {
	var (
		item                            domain.FeedItem
		p                               = &item.Post
		media, likes, shares            string
		original                        sql.NullString
		created, updated                int64
		authorID, authorName, authorPic sql.NullString
		origID, origContent, origMedia  sql.NullString
		origCreated                     sql.NullInt64
		oaID, oaName, oaPic             sql.NullString
	)
	err := rows.Scan(
		&p.ID, &p.AuthorID, &p.Content, &media, &original, &p.ShareThoughts,
		&created, &updated, &likes, &shares, &item.LikeCount, &item.ShareCount,
		&authorID, &authorName, &authorPic,
		&origID, &origContent, &origMedia, &origCreated,
		&oaID, &oaName, &oaPic,
	)
	if err != nil {
		return nil, fmt.Errorf("scan feed row: %w", err)
	}

	if p.Media, err = decodeMedia(media); err != nil {
		return nil, err
	}
	if p.Likes, err = decodeIDSet(likes); err != nil {
		return nil, err
	}
	if p.Shares, err = decodeIDSet(shares); err != nil {
		return nil, err
	}
	p.OriginalPostID = original.String
	p.CreatedAt = fromUnix(created)
	p.UpdatedAt = fromUnix(updated)

	item.Author = profileFrom(authorID, authorName, authorPic)

	if origID.Valid {
		om, err := decodeMedia(origMedia.String)
		if err != nil {
			return nil, err
		}
		item.Original = &domain.OriginalPost{
			ID:        origID.String,
			Content:   origContent.String,
			Media:     om,
			CreatedAt: fromUnix(origCreated.Int64),
			Author:    profileFrom(oaID, oaName, oaPic),
		}
	}
	return &item, nil
}

func profileFrom(id, name, pic sql.NullString) *domain.PublicProfile {
	if !id.Valid {
		return nil
	}
	return &domain.PublicProfile{ID: id.String, Name: name.String, ProfilePicture: pic.String}
}

func decodeIDSet(s string) (domain.IDSet, error) {
	var ids []string
	if s != "" {
		if err := json.Unmarshal([]byte(s), &ids); err != nil {
			return nil, fmt.Errorf("decode id set: %w", err)
		}
	}
	return domain.NewIDSet(ids...), nil
}
