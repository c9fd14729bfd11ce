package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/msomdec/socialfeed/internal/domain"
	"github.com/msomdec/socialfeed/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection and hands out the repositories built on it.
// It implements domain.Store.
type DB struct {
	SqlDB *sql.DB

	users   *UserRepository
	follows *followRepo
	posts   *postRepo
	feed    *feedRepo
	tx      *TxManager
	files   *fileStore
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Enable foreign key enforcement.
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// A single connection serializes writers; transactions ride on it.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return Wrap(db), nil
}

// Wrap builds a DB around an already configured *sql.DB.
func Wrap(db *sql.DB) *DB {
	d := &DB{SqlDB: db}
	d.users = &UserRepository{db: db}
	d.follows = &followRepo{db: db}
	d.posts = &postRepo{db: db}
	d.feed = &feedRepo{db: db}
	d.tx = &TxManager{db: db}
	d.files = &fileStore{db: db}
	return d
}

// Migrate applies all pending schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SqlDB)
}

func (d *DB) Close() error {
	return d.SqlDB.Close()
}

func (d *DB) Users() domain.UserRepository     { return d.users }
func (d *DB) Follows() domain.FollowRepository { return d.follows }
func (d *DB) Posts() domain.PostRepository     { return d.posts }
func (d *DB) Feed() domain.FeedRepository      { return d.feed }
func (d *DB) Tx() domain.TxManager             { return d.tx }
func (d *DB) Files() domain.FileStore          { return d.files }

// Timestamps are stored as Unix nanoseconds so ORDER BY is exact.
func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
