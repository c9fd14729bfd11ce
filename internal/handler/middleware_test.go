package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/msomdec/socialfeed/internal/handler"
)

func registerToken(t *testing.T, env *testEnv, name, email string) string {
	t.Helper()
	_, token, err := env.deps.Auth.Register(context.Background(), name, email, "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return token
}

func captureUser(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := handler.UserFromContext(r.Context()); user != nil {
			*got = user.Name
		}
		w.WriteHeader(http.StatusOK)
	})
}

func mustNotCall(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called")
	})
}

func TestRequireAuth_ValidCookie(t *testing.T) {
	env := newTestEnv(t)
	token := registerToken(t, env, "Valid User", "valid@example.com")

	var gotUser string
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: handler.AccessTokenCookie, Value: token})
	w := httptest.NewRecorder()

	handler.RequireAuth(env.deps.Auth, captureUser(&gotUser)).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotUser != "Valid User" {
		t.Fatalf("expected user 'Valid User', got %q", gotUser)
	}
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	env := newTestEnv(t)
	token := registerToken(t, env, "Bearer User", "bearer@example.com")

	var gotUser string
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.RequireAuth(env.deps.Auth, captureUser(&gotUser)).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotUser != "Bearer User" {
		t.Fatalf("expected user 'Bearer User', got %q", gotUser)
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()

	handler.RequireAuth(env.deps.Auth, mustNotCall(t)).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: handler.AccessTokenCookie, Value: "invalid.jwt.token"})
	w := httptest.NewRecorder()

	handler.RequireAuth(env.deps.Auth, mustNotCall(t)).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_TamperedToken(t *testing.T) {
	env := newTestEnv(t)
	token := registerToken(t, env, "Tamper", "tamper@example.com")
	sig := strings.LastIndex(token, ".") + 1
	flipped := byte('A')
	if token[sig] == 'A' {
		flipped = 'B'
	}
	tampered := token[:sig] + string(flipped) + token[sig+1:]

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: handler.AccessTokenCookie, Value: tampered})
	w := httptest.NewRecorder()

	handler.RequireAuth(env.deps.Auth, mustNotCall(t)).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

type denyAfter struct{ n int }

func (d *denyAfter) Allow(string) bool {
	d.n--
	return d.n >= 0
}

func TestRateLimit_RejectsOverBudget(t *testing.T) {
	h := handler.RateLimit(&denyAfter{n: 1}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users/login", nil))
		if w.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, w.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	handler.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff, got %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected DENY, got %q", got)
	}
}
