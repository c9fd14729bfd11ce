package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/msomdec/socialfeed/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// ResetTokenTTL is how long a password reset link stays valid.
const ResetTokenTTL = 15 * time.Minute

// PasswordService issues and redeems password reset tokens. Only the
// SHA-256 hash of a token is stored.
type PasswordService struct {
	users       domain.UserRepository
	notifier    domain.Notifier
	bcryptCost  int
	frontendURL string
	timeouts    Timeouts
	now         func() time.Time
}

// NewPasswordService creates a new PasswordService.
func NewPasswordService(users domain.UserRepository, notifier domain.Notifier, bcryptCost int, frontendURL string, timeouts Timeouts) *PasswordService {
	return &PasswordService{
		users:       users,
		notifier:    notifier,
		bcryptCost:  bcryptCost,
		frontendURL: frontendURL,
		timeouts:    timeouts,
		now:         time.Now,
	}
}

// ForgotPassword stores a fresh reset token for the account behind email
// and mails the reset link. It returns when the link expires.
func (s *PasswordService) ForgotPassword(ctx context.Context, email string) (time.Time, error) {
	storeCtx, cancel := bounded(ctx, s.timeouts.Store)
	defer cancel()

	user, err := s.users.GetByEmail(storeCtx, normalizeEmail(email))
	if err != nil {
		return time.Time{}, fmt.Errorf("get user: %w", transient(err))
	}

	token, err := newResetToken()
	if err != nil {
		return time.Time{}, fmt.Errorf("generate reset token: %w", err)
	}
	expiresAt := s.now().UTC().Add(ResetTokenTTL)
	if err := s.users.SetResetToken(storeCtx, user.ID, hashToken(token), expiresAt); err != nil {
		return time.Time{}, fmt.Errorf("store reset token: %w", transient(err))
	}

	link := s.frontendURL + "/reset-password/" + token
	msg := domain.Email{
		To:      user.Email,
		Subject: "Password Reset Request",
		HTML: fmt.Sprintf(
			`<p>Click below to reset your password. This link expires at %s.</p><a href="%s">Reset Password</a>`,
			expiresAt.Format(time.Kitchen+" MST"), html.EscapeString(link),
		),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}
	return expiresAt, nil
}

// ResetPassword replaces the password of the account holding token.
func (s *PasswordService) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < MinPasswordLength {
		return &domain.ValidationError{Fields: []domain.FieldError{{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength),
		}}}
	}

	ctx, cancel := bounded(ctx, s.timeouts.Store)
	defer cancel()

	user, err := s.users.GetByResetToken(ctx, hashToken(token), s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset token", domain.ErrInvalidInput)
		}
		return fmt.Errorf("get user by reset token: %w", transient(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", transient(err))
	}
	return nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
