package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"golang.org/x/crypto/bcrypt"
)

func TestCreateMemberWithProfileRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO member ").
		WithArgs("amy@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec("INSERT INTO member_profile").
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	repo := NewMemberRepo(db)
	id, err := repo.Create(context.Background(), "  Amy@Example.com ", "Str0ng&Pass", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != 9 {
		t.Fatalf("expected id 9, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateMemberDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO member ").
		WillReturnError(fmt.Errorf("Error 1062 (23000): Duplicate entry"))
	mock.ExpectRollback()

	repo := NewMemberRepo(db)
	_, err = repo.Create(context.Background(), "amy@example.com", "Str0ng&Pass", bcrypt.MinCost)
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}
