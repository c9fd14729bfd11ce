package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/socialfeed/internal/domain"
	"github.com/msomdec/socialfeed/internal/handler"
	"github.com/msomdec/socialfeed/internal/repository/sqlite"
	"github.com/msomdec/socialfeed/internal/service"
)

const (
	testJWTSecret = "test-secret-for-handler-tests-0123456789"
	testMediaBase = "http://media.test"
)

// outbox captures mail instead of sending it.
type outbox struct {
	mu   sync.Mutex
	sent []domain.Email
}

func (o *outbox) Send(_ context.Context, e domain.Email) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, e)
	return nil
}

func (o *outbox) last() (domain.Email, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return domain.Email{}, false
	}
	return o.sent[len(o.sent)-1], true
}

type testEnv struct {
	db   *sqlite.DB
	deps handler.Deps
	mail *outbox
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	timeouts := service.Timeouts{Store: 5 * time.Second, Media: 5 * time.Second}
	mail := &outbox{}
	media := service.NewMediaService(db.Files(), testMediaBase, timeouts)

	return &testEnv{
		db:   db,
		mail: mail,
		deps: handler.Deps{
			Auth:       service.NewAuthService(db.Users(), testJWTSecret, 4, 24*time.Hour, timeouts),
			Passwords:  service.NewPasswordService(db.Users(), mail, 4, "http://app.test", timeouts),
			Profiles:   service.NewProfileService(db.Users(), media, timeouts),
			Posts:      service.NewPostService(db.Posts(), media, nil, timeouts),
			Feed:       service.NewFeedService(db.Users(), db.Feed(), timeouts),
			Engagement: service.NewEngagementService(db, nil, timeouts),
			Media:      media,
		},
	}
}

func (e *testEnv) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, e.deps)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// envelope mirrors the JSON response body.
type envelope struct {
	Succeeded bool            `json:"succeeded"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Errors    []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
	Stack []string `json:"stack"`
}

// call sends a JSON request with an optional bearer token and decodes the
// envelope. data, when non-nil, receives the envelope's data field.
func call(t *testing.T, method, url, token string, body any, data any) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return do(t, req, data)
}

func do(t *testing.T, req *http.Request, data any) (int, envelope) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode body: %v", req.Method, req.URL.Path, err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("%s %s: decode data: %v", req.Method, req.URL.Path, err)
		}
	}
	return resp.StatusCode, env
}

type authData struct {
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

func register(t *testing.T, srvURL, name, email string) authData {
	t.Helper()
	var got authData
	status, env := call(t, http.MethodPost, srvURL+"/users/register", "", map[string]string{
		"name": name, "email": email, "password": "password123",
	}, &got)
	if status != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%s)", email, status, env.Message)
	}
	return got
}
