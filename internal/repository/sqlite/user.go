package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/socialfeed/internal/domain"
)

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

const userColumns = `id, name, email, password_hash, profile_picture, bio, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	u := &domain.User{}
	var created, updated int64
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ProfilePicture, &u.Bio, &created, &updated); err != nil {
		return nil, err
	}
	u.CreatedAt = fromUnix(created)
	u.UpdatedAt = fromUnix(updated)
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, profile_picture, bio, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, user.Name, user.Email, user.PasswordHash, user.ProfilePicture, user.Bio, toUnix(now), toUnix(now),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.Followers = domain.NewIDSet()
	user.Following = domain.NewIDSet()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email = ?", email)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	q := conn(ctx, r.db)
	user, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	user.Followers, err = queryIDSet(ctx, q, `SELECT follower_id FROM follows WHERE following_id = ?`, user.ID)
	if err != nil {
		return nil, fmt.Errorf("query followers: %w", err)
	}
	user.Following, err = queryIDSet(ctx, q, `SELECT following_id FROM follows WHERE follower_id = ?`, user.ID)
	if err != nil {
		return nil, fmt.Errorf("query following: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, bio = ?, profile_picture = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name, user.Email, user.Bio, user.ProfilePicture, toUnix(now), user.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) Search(ctx context.Context, query string, limit int) ([]domain.User, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE lower(name) LIKE ? ESCAPE '\' OR lower(email) LIKE ? ESCAPE '\'
		 ORDER BY name, id LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET reset_token_hash = ?, reset_expires_at = ? WHERE id = ?`,
		tokenHash, toUnix(expiresAt), userID,
	)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return requireAffected(result)
}

func (r *UserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	var id string
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id FROM users WHERE reset_token_hash = ? AND reset_expires_at > ?`,
		tokenHash, toUnix(now),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query reset token: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET password_hash = ?, reset_token_hash = NULL, reset_expires_at = NULL, updated_at = ?
		 WHERE id = ?`,
		passwordHash, toUnix(time.Now().UTC()), userID,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(result)
}

func queryIDSet(ctx context.Context, q querier, query string, args ...any) (domain.IDSet, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := domain.NewIDSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set.Add(id)
	}
	return set, rows.Err()
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
