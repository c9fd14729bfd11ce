package service_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/msomdec/socialfeed/internal/domain"
	"github.com/msomdec/socialfeed/internal/service"
)

var resetLink = regexp.MustCompile(`https://app\.test/reset-password/([0-9a-f]{64})`)

func TestPasswordService_ForgotAndReset(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()
	auth := service.NewAuthService(db.Users(), testJWTSecret, 4, time.Hour, testTimeouts)
	mail := &outbox{}
	pw := service.NewPasswordService(db.Users(), mail, 4, "https://app.test", testTimeouts)

	if _, _, err := auth.Register(ctx, "Alice", "alice@example.com", "oldpassword"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	expiresAt, err := pw.ForgotPassword(ctx, "Alice@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if d := time.Until(expiresAt); d <= 14*time.Minute || d > service.ResetTokenTTL {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}
	if len(mail.sent) != 1 || mail.sent[0].To != "alice@example.com" {
		t.Fatalf("expected one reset email to alice, got %+v", mail.sent)
	}
	m := resetLink.FindStringSubmatch(mail.sent[0].HTML)
	if m == nil {
		t.Fatalf("reset link missing from email: %s", mail.sent[0].HTML)
	}

	if err := pw.ResetPassword(ctx, m[1], "newpassword"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, _, err := auth.Login(ctx, "alice@example.com", "newpassword"); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}

	// Tokens are single use.
	if err := pw.ResetPassword(ctx, m[1], "another1"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput reusing token, got %v", err)
	}
}

func TestPasswordService_ForgotPassword_UnknownEmail(t *testing.T) {
	db := newTestStore(t)
	pw := service.NewPasswordService(db.Users(), &outbox{}, 4, "https://app.test", testTimeouts)

	_, err := pw.ForgotPassword(context.Background(), "nobody@example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPasswordService_ForgotPassword_DeliveryFailure(t *testing.T) {
	db := newTestStore(t)
	newTestUser(t, db, "Bob")
	pw := service.NewPasswordService(db.Users(), &outbox{err: errors.New("smtp down")}, 4, "https://app.test", testTimeouts)

	_, err := pw.ForgotPassword(context.Background(), "bob@example.com")
	if !errors.Is(err, domain.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
}

func TestPasswordService_ResetPassword_ShortPassword(t *testing.T) {
	db := newTestStore(t)
	pw := service.NewPasswordService(db.Users(), &outbox{}, 4, "https://app.test", testTimeouts)

	if err := pw.ResetPassword(context.Background(), "token", "abc"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
