package domain

import (
	"context"
	"time"
)

// User represents a registered account together with its follow graph.
type User struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	ProfilePicture string
	Bio            string
	Followers      IDSet // who follows this user
	Following      IDSet // whom this user follows
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PublicProfile is the subset of a user that other users may see.
type PublicProfile struct {
	ID             string
	Name           string
	ProfilePicture string
}

// Profile returns the public projection of u.
func (u *User) Profile() PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, ProfilePicture: u.ProfilePicture}
}

// UserRepository defines persistence operations for users.
// GetByID and GetByEmail populate Followers and Following.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Update persists name, email, bio and profile picture.
	Update(ctx context.Context, user *User) error
	Search(ctx context.Context, query string, limit int) ([]User, error)

	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	// GetByResetToken returns the user holding an unexpired reset token hash.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)
	// UpdatePassword replaces the credential hash and clears any reset token.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// FollowRepository maintains both sides of the follow graph.
// Follow and Unfollow always write the follower's following set and the
// target's followers set together; implementations must not leave one
// side applied without the other.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, targetID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
}
