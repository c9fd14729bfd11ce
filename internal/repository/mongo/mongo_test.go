package mongo_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/socialfeed/internal/domain"
	"github.com/msomdec/socialfeed/internal/repository/mongo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Verify that *mongo.DB implements domain.Store at compile time.
var _ domain.Store = (*mongo.DB)(nil)

// newTestDB connects to MONGO_URI using a throwaway database. Tests are
// skipped when no server is configured.
func newTestDB(t *testing.T) *mongo.DB {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := mongo.Connect(ctx, mongo.Options{
		URI:      uri,
		Database: "socialfeed_test_" + uuid.NewString()[:8],
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.DropDatabase(context.Background())
		db.Close()
	})
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestMongo_UserAndFollow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := &domain.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "h"}
	bob := &domain.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "h"}
	require.NoError(t, db.Users().Create(ctx, alice))
	require.NoError(t, db.Users().Create(ctx, bob))

	err := db.Users().Create(ctx, &domain.User{Name: "A2", Email: "ALICE@example.com", PasswordHash: "h"})
	assert.True(t, errors.Is(err, domain.ErrDuplicateEmail), "got %v", err)

	require.NoError(t, db.Follows().Follow(ctx, alice.ID, bob.ID))
	a, err := db.Users().GetByID(ctx, alice.ID)
	require.NoError(t, err)
	b, err := db.Users().GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, a.Following.Has(bob.ID))
	assert.True(t, b.Followers.Has(alice.ID))

	err = db.Follows().Follow(ctx, alice.ID, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
	a, err = db.Users().GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Following.Len(), "failed follow must be compensated")
}

func TestMongo_PostEngagementAndFeed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := &domain.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "h"}
	require.NoError(t, db.Users().Create(ctx, alice))

	post := &domain.Post{AuthorID: alice.ID, Content: "hello"}
	require.NoError(t, db.Posts().Create(ctx, post))
	plain := &domain.Post{AuthorID: alice.ID, Content: "quiet"}
	require.NoError(t, db.Posts().Create(ctx, plain))

	liked, err := db.Posts().ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.True(t, liked)

	added, err := db.Posts().AddShare(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = db.Posts().AddShare(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.False(t, added)

	items, err := db.Feed().Feed(ctx, domain.NewFeedQuery(domain.FeedFilter{MostLiked: true}, nil))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, post.ID, items[0].Post.ID)
	assert.Equal(t, 1, items[0].LikeCount)
	assert.Equal(t, 1, items[0].ShareCount)
	require.NotNil(t, items[0].Author)
	assert.Equal(t, "Alice", items[0].Author.Name)

	liked, err = db.Posts().ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = db.Posts().ToggleLike(ctx, "missing", "bob")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMongo_FileStore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Files().Save(ctx, "posts/a.png", []byte("data")))
	got, err := db.Files().Get(ctx, "posts/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	require.NoError(t, db.Files().Delete(ctx, "posts/a.png"))
	_, err = db.Files().Get(ctx, "posts/a.png")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
