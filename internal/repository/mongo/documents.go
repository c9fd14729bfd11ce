package mongo

import (
	"strings"
	"time"

	"github.com/msomdec/socialfeed/internal/domain"
)

type userDoc struct {
	ID             string     `bson:"_id"`
	Name           string     `bson:"name"`
	Email          string     `bson:"email"`
	EmailKey       string     `bson:"email_key"`
	PasswordHash   string     `bson:"password_hash"`
	ProfilePicture string     `bson:"profile_picture"`
	Bio            string     `bson:"bio"`
	Followers      []string   `bson:"followers"`
	Following      []string   `bson:"following"`
	ResetTokenHash string     `bson:"reset_token_hash,omitempty"`
	ResetExpiresAt *time.Time `bson:"reset_expires_at,omitempty"`
	CreatedAt      time.Time  `bson:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"`
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:             d.ID,
		Name:           d.Name,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		ProfilePicture: d.ProfilePicture,
		Bio:            d.Bio,
		Followers:      domain.NewIDSet(d.Followers...),
		Following:      domain.NewIDSet(d.Following...),
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type postDoc struct {
	ID             string    `bson:"_id"`
	AuthorID       string    `bson:"author_id"`
	Content        string    `bson:"content"`
	Media          []string  `bson:"media"`
	Likes          []string  `bson:"likes"`
	Shares         []string  `bson:"shares"`
	OriginalPostID string    `bson:"original_post_id,omitempty"`
	ShareThoughts  string    `bson:"share_thoughts"`
	Seq            int64     `bson:"seq"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func (d *postDoc) toDomain() domain.Post {
	media := d.Media
	if media == nil {
		media = []string{}
	}
	return domain.Post{
		ID:             d.ID,
		AuthorID:       d.AuthorID,
		Content:        d.Content,
		Media:          media,
		Likes:          domain.NewIDSet(d.Likes...),
		Shares:         domain.NewIDSet(d.Shares...),
		OriginalPostID: d.OriginalPostID,
		ShareThoughts:  d.ShareThoughts,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

// profileDoc is the projection of a user joined into a feed item.
type profileDoc struct {
	ID             string `bson:"_id"`
	Name           string `bson:"name"`
	ProfilePicture string `bson:"profile_picture"`
}

func (p *profileDoc) toDomain() *domain.PublicProfile {
	if p == nil || p.ID == "" {
		return nil
	}
	return &domain.PublicProfile{ID: p.ID, Name: p.Name, ProfilePicture: p.ProfilePicture}
}

// feedDoc is one row produced by the feed pipeline.
type feedDoc struct {
	postDoc        `bson:",inline"`
	LikeCount      int         `bson:"like_count"`
	ShareCount     int         `bson:"share_count"`
	Author         *profileDoc `bson:"author,omitempty"`
	Original       *postDoc    `bson:"original,omitempty"`
	OriginalAuthor *profileDoc `bson:"original_author,omitempty"`
}

func (d *feedDoc) toDomain() domain.FeedItem {
	item := domain.FeedItem{
		Post:       d.postDoc.toDomain(),
		LikeCount:  d.LikeCount,
		ShareCount: d.ShareCount,
		Author:     d.Author.toDomain(),
	}
	if d.Original != nil && d.Original.ID != "" {
		op := d.Original.toDomain()
		item.Original = &domain.OriginalPost{
			ID:        op.ID,
			Content:   op.Content,
			Media:     op.Media,
			CreatedAt: op.CreatedAt,
			Author:    d.OriginalAuthor.toDomain(),
		}
	}
	return item
}
