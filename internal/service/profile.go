package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/msomdec/socialfeed/internal/domain"
)

const (
	MaxBioLength     = 500
	MaxNameLength    = 100
	DefaultSearchMax = 20
	MaxSearchLimit   = 50
)

// ProfileUpdate carries the fields a caller wants to change. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Name    *string
	Email   *string
	Bio     *string
	Picture *domain.MediaFile
}

// ProfileService reads and edits user profiles.
type ProfileService struct {
	users    domain.UserRepository
	media    domain.MediaRelay
	timeouts Timeouts
}

// NewProfileService creates a new ProfileService.
func NewProfileService(users domain.UserRepository, media domain.MediaRelay, timeouts Timeouts) *ProfileService {
	return &ProfileService{users: users, media: media, timeouts: timeouts}
}

// Me returns the caller's own account.
func (s *ProfileService) Me(ctx context.Context, callerID string) (*domain.User, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}
	ctx, cancel := bounded(ctx, s.timeouts.Store)
	defer cancel()

	user, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", transient(err))
	}
	return user, nil
}

// UpdateProfile applies u to the caller's account. A new picture is
// uploaded and saved before the old one is released, so the stored URL
// always names an existing asset. If the save fails the new upload is
// released instead. Release failures are only logged.
func (s *ProfileService) UpdateProfile(ctx context.Context, callerID string, u ProfileUpdate) (*domain.User, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := validateProfileUpdate(&u); err != nil {
		return nil, err
	}

	storeCtx, cancel := bounded(ctx, s.timeouts.Store)
	user, err := s.users.GetByID(storeCtx, callerID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("get user: %w", transient(err))
	}

	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Bio != nil {
		user.Bio = *u.Bio
	}

	oldPicture := user.ProfilePicture
	var uploaded *domain.MediaAsset
	if u.Picture != nil {
		uploaded, err = s.media.Upload(ctx, callerID, domain.FolderProfilePictures, *u.Picture)
		if err != nil {
			return nil, fmt.Errorf("upload profile picture: %w", err)
		}
		user.ProfilePicture = uploaded.URL
	}

	storeCtx, cancel = bounded(ctx, s.timeouts.Store)
	defer cancel()
	if err := s.users.Update(storeCtx, user); err != nil {
		if uploaded != nil {
			if leaked := ReleaseMedia(context.WithoutCancel(ctx), s.media, []string{uploaded.URL}); len(leaked) > 0 {
				slog.Warn("failed to release unused profile picture",
					"user_id", user.ID, "assets", leakedIDs(leaked), "error", leaked[0].Err)
			}
		}
		return nil, fmt.Errorf("update user: %w", transient(err))
	}

	if uploaded != nil && oldPicture != "" {
		if leaked := ReleaseMedia(ctx, s.media, ownedMedia(s.media, callerID, []string{oldPicture})); len(leaked) > 0 {
			slog.Warn("failed to release old profile picture",
				"user_id", user.ID, "assets", leakedIDs(leaked), "error", leaked[0].Err)
		}
	}
	return user, nil
}

// Search finds users whose name or email contains query.
func (s *ProfileService) Search(ctx context.Context, callerID, query string, limit int) ([]domain.User, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "q", Message: "search query is required"}}}
	}
	if limit <= 0 {
		limit = DefaultSearchMax
	}
	limit = min(limit, MaxSearchLimit)

	ctx, cancel := bounded(ctx, s.timeouts.Store)
	defer cancel()

	users, err := s.users.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", transient(err))
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func validateProfileUpdate(u *ProfileUpdate) error {
	var fields []domain.FieldError
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		u.Name = &name
		switch {
		case name == "":
			fields = append(fields, domain.FieldError{Field: "name", Message: "name cannot be empty"})
		case len(name) > MaxNameLength:
			fields = append(fields, domain.FieldError{Field: "name", Message: fmt.Sprintf("name exceeds %d characters", MaxNameLength)})
		}
	}
	if u.Email != nil {
		email := normalizeEmail(*u.Email)
		u.Email = &email
		if _, err := mail.ParseAddress(email); err != nil {
			fields = append(fields, domain.FieldError{Field: "email", Message: "invalid email address"})
		}
	}
	if u.Bio != nil {
		bio := strings.TrimSpace(*u.Bio)
		u.Bio = &bio
		if len(bio) > MaxBioLength {
			fields = append(fields, domain.FieldError{Field: "bio", Message: fmt.Sprintf("bio exceeds %d characters", MaxBioLength)})
		}
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
