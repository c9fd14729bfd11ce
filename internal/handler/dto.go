package handler

import (
	"time"

	"github.com/msomdec/socialfeed/internal/domain"
)

// UserDTO is the JSON representation of the caller's own account.
type UserDTO struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Bio            string   `json:"bio"`
	ProfilePicture string   `json:"profilePicture"`
	Followers      []string `json:"followers"`
	Following      []string `json:"following"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		Followers:      u.Followers.Slice(),
		Following:      u.Following.Slice(),
		CreatedAt:      u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      u.UpdatedAt.Format(time.RFC3339),
	}
}

// SearchUserDTO is a user as seen by other users.
type SearchUserDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"`
	FollowerCount  int    `json:"followerCount"`
	FollowingCount int    `json:"followingCount"`
}

func toSearchUserDTOs(users []domain.User) []SearchUserDTO {
	dtos := make([]SearchUserDTO, len(users))
	for i, u := range users {
		dtos[i] = SearchUserDTO{
			ID:             u.ID,
			Name:           u.Name,
			Email:          u.Email,
			Bio:            u.Bio,
			ProfilePicture: u.ProfilePicture,
			FollowerCount:  u.Followers.Len(),
			FollowingCount: u.Following.Len(),
		}
	}
	return dtos
}

// ProfileDTO is the public subset of a user embedded in feed items.
type ProfileDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
}

func toProfileDTO(p *domain.PublicProfile) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{ID: p.ID, Name: p.Name, ProfilePicture: p.ProfilePicture}
}

// PostDTO is the JSON representation of a stored post.
type PostDTO struct {
	ID             string   `json:"id"`
	AuthorID       string   `json:"authorId"`
	Content        string   `json:"content"`
	Media          []string `json:"media"`
	Likes          []string `json:"likes"`
	Shares         []string `json:"shares"`
	OriginalPostID string   `json:"originalPostId,omitempty"`
	ShareThoughts  string   `json:"shareThoughts,omitempty"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
}

func toPostDTO(p *domain.Post) PostDTO {
	media := p.Media
	if media == nil {
		media = []string{}
	}
	return PostDTO{
		ID:             p.ID,
		AuthorID:       p.AuthorID,
		Content:        p.Content,
		Media:          media,
		Likes:          p.Likes.Slice(),
		Shares:         p.Shares.Slice(),
		OriginalPostID: p.OriginalPostID,
		ShareThoughts:  p.ShareThoughts,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.Format(time.RFC3339),
	}
}

// OriginalPostDTO is the post a share points at.
type OriginalPostDTO struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Media     []string    `json:"media"`
	CreatedAt string      `json:"createdAt"`
	Author    *ProfileDTO `json:"author,omitempty"`
}

// FeedItemDTO is one enriched entry of a feed.
type FeedItemDTO struct {
	PostDTO
	LikeCount    int              `json:"likeCount"`
	ShareCount   int              `json:"shareCount"`
	Author       *ProfileDTO      `json:"author,omitempty"`
	OriginalPost *OriginalPostDTO `json:"originalPost,omitempty"`
}

func toFeedItemDTOs(items []domain.FeedItem) []FeedItemDTO {
	dtos := make([]FeedItemDTO, len(items))
	for i := range items {
		it := &items[i]
		dto := FeedItemDTO{
			PostDTO:    toPostDTO(&it.Post),
			LikeCount:  it.LikeCount,
			ShareCount: it.ShareCount,
			Author:     toProfileDTO(it.Author),
		}
		if o := it.Original; o != nil {
			media := o.Media
			if media == nil {
				media = []string{}
			}
			dto.OriginalPost = &OriginalPostDTO{
				ID:        o.ID,
				Content:   o.Content,
				Media:     media,
				CreatedAt: o.CreatedAt.Format(time.RFC3339),
				Author:    toProfileDTO(o.Author),
			}
		}
		dtos[i] = dto
	}
	return dtos
}

// MediaDTO is an uploaded asset.
type MediaDTO struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func toMediaDTOs(assets []domain.MediaAsset) []MediaDTO {
	dtos := make([]MediaDTO, len(assets))
	for i, a := range assets {
		dtos[i] = MediaDTO{ID: a.ID, URL: a.URL}
	}
	return dtos
}
