package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/msomdec/socialfeed/internal/domain"
	"github.com/msomdec/socialfeed/internal/repository/sqlite"
)

func TestTxManager_RollsBackOnError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer mockDB.Close()

	db := sqlite.Wrap(mockDB)
	insertErr := errors.New("disk I/O error")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT OR IGNORE INTO post_shares").
		WithArgs("p1", "u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO posts").WillReturnError(insertErr)
	mock.ExpectRollback()

	err = db.Tx().WithinTx(context.Background(), func(ctx context.Context) error {
		if _, err := db.Posts().AddShare(ctx, "p1", "u1"); err != nil {
			return err
		}
		return db.Posts().Create(ctx, &domain.Post{AuthorID: "u1", Content: "copy", OriginalPostID: "p1"})
	})
	if !errors.Is(err, insertErr) {
		t.Fatalf("expected insert error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTxManager_CommitsAndReusesOuterScope(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer mockDB.Close()

	db := sqlite.Wrap(mockDB)

	// One BEGIN/COMMIT despite the nested WithinTx.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT OR IGNORE INTO follows").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM follows").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = db.Tx().WithinTx(context.Background(), func(ctx context.Context) error {
		if err := db.Follows().Follow(ctx, "a", "b"); err != nil {
			return err
		}
		return db.Tx().WithinTx(ctx, func(ctx context.Context) error {
			return db.Follows().Unfollow(ctx, "a", "b")
		})
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
