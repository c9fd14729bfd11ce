// Package mongo implements domain.Store on MongoDB. Follow edges and
// engagement sets are stored as arrays inside the user and post documents.
package mongo

import (
	"context"
	"fmt"

	"github.com/msomdec/socialfeed/internal/domain"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	usersCollection = "users"
	postsCollection = "posts"
	filesBucket     = "media"
)

// Options configures a MongoDB store.
type Options struct {
	URI      string
	Database string
	// Transactions wraps multi-document writes in sessions. It requires a
	// replica set; without it writes are sequenced with compensation.
	Transactions bool
}

// DB wraps a MongoDB client and hands out the repositories built on it.
type DB struct {
	client *mongo.Client
	db     *mongo.Database

	users   *userRepo
	follows *followRepo
	posts   *postRepo
	feed    *feedRepo
	tx      *txManager
	files   *gridFS
}

// Connect dials MongoDB and verifies the primary is reachable.
func Connect(ctx context.Context, o Options) (*DB, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(o.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(o.Database)
	users := db.Collection(usersCollection)
	posts := db.Collection(postsCollection)

	d := &DB{client: client, db: db}
	d.users = &userRepo{coll: users}
	d.follows = newFollowRepo(users)
	d.posts = &postRepo{coll: posts}
	d.feed = &feedRepo{posts: posts}
	d.tx = &txManager{client: client, enabled: o.Transactions}
	d.files = &gridFS{bucket: db.GridFSBucket(options.GridFSBucket().SetName(filesBucket))}
	return d, nil
}

// Migrate creates the indexes the repositories rely on.
func (d *DB) Migrate(ctx context.Context) error {
	return EnsureIndexes(ctx, d.db)
}

func (d *DB) Close() error {
	return d.client.Disconnect(context.Background())
}

func (d *DB) Users() domain.UserRepository     { return d.users }
func (d *DB) Follows() domain.FollowRepository { return d.follows }
func (d *DB) Posts() domain.PostRepository     { return d.posts }
func (d *DB) Feed() domain.FeedRepository      { return d.feed }
func (d *DB) Tx() domain.TxManager             { return d.tx }
func (d *DB) Files() domain.FileStore          { return d.files }

// DropDatabase removes every collection of the configured database.
func (d *DB) DropDatabase(ctx context.Context) error {
	return d.db.Drop(ctx)
}
