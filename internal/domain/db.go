package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation (SQLite, MongoDB) owns its own schema or index
// setup, so the whole backend is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}

// TxManager runs a function inside a transactional scope. Repository
// calls made with the context handed to fn join the scope; returning an
// error from fn rolls every write in the scope back. Nested calls reuse
// the outer scope.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles every repository a backend provides.
type Store interface {
	Database
	Users() UserRepository
	Follows() FollowRepository
	Posts() PostRepository
	Feed() FeedRepository
	Tx() TxManager
	Files() FileStore
}
