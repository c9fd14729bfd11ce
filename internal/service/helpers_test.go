package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/socialfeed/internal/domain"
	"github.com/msomdec/socialfeed/internal/repository/sqlite"
	"github.com/msomdec/socialfeed/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUser(t *testing.T, db *sqlite.DB, name string) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: strings.ToLower(name) + "@example.com", PasswordHash: "x"}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

const relayBase = "https://cdn.test/"

// fakeRelay is an in-memory media relay whose deletes can be made to fail.
type fakeRelay struct {
	mu       sync.Mutex
	stored   map[string]bool
	deleted  []string
	failIDs  map[string]bool
	uploadEr error
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{stored: map[string]bool{}, failIDs: map[string]bool{}}
}

func (r *fakeRelay) Upload(_ context.Context, owner, folder string, f domain.MediaFile) (*domain.MediaAsset, error) {
	if r.uploadEr != nil {
		return nil, r.uploadEr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := domain.NewAssetID(folder, owner, f.Filename)
	r.stored[id] = true
	return &domain.MediaAsset{ID: id, URL: relayBase + id}, nil
}

func (r *fakeRelay) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failIDs[id] {
		return errors.New("relay unavailable")
	}
	delete(r.stored, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeRelay) AssetIDFromURL(url string) (string, bool) {
	id, ok := strings.CutPrefix(url, relayBase)
	return id, ok && id != ""
}

func (r *fakeRelay) put(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored[id] = true
	return relayBase + id
}

func postAsset(owner, name string) string {
	return domain.NewAssetID(domain.FolderPosts, owner, name)
}

func pictureAsset(owner, name string) string {
	return domain.NewAssetID(domain.FolderProfilePictures, owner, name)
}

func (r *fakeRelay) has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stored[id]
}

// countingRecorder tallies recorder events.
type countingRecorder struct {
	mu       sync.Mutex
	actions  map[string]int
	releases int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{actions: map[string]int{}}
}

func (c *countingRecorder) Engagement(action string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions[action]++
}

func (c *countingRecorder) MediaReleaseFailures(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releases += n
}

// outbox captures mail instead of sending it.
type outbox struct {
	mu   sync.Mutex
	sent []domain.Email
	err  error
}

func (o *outbox) Send(_ context.Context, e domain.Email) error {
	if o.err != nil {
		return o.err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, e)
	return nil
}

var testTimeouts = service.Timeouts{Store: 5 * time.Second, Media: 5 * time.Second}
