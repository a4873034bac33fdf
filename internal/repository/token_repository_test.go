package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestRotateExchangesTokenInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	exp := time.Now().Add(24 * time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT member_id FROM refresh_tokens").
		WithArgs("old-hash").
		WillReturnRows(sqlmock.NewRows([]string{"member_id"}).AddRow(5))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs("old-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(uint64(5), "new-hash", exp).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	repo := NewTokenRepo(db)
	mid, err := repo.Rotate(context.Background(), "old-hash", "new-hash", exp)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if mid != 5 {
		t.Fatalf("expected member 5, got %d", mid)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRotateRejectsDeadTokenWithoutWriting(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// Revoked and expired hashes fall out of the SELECT the same way.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT member_id FROM refresh_tokens").
		WithArgs("dead-hash").
		WillReturnRows(sqlmock.NewRows([]string{"member_id"}))
	mock.ExpectRollback()

	repo := NewTokenRepo(db)
	_, err = repo.Rotate(context.Background(), "dead-hash", "new-hash", time.Now().Add(time.Hour))
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs("gone-hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewTokenRepo(db)
	if err := repo.Revoke(context.Background(), "gone-hash"); err != nil {
		t.Fatalf("revoke of unknown hash must be a no-op, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
