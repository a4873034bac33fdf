package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestToggleAddsWhenAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT l.like_id").
		WithArgs(uint64(5), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"like_id"}).AddRow(nil))
	mock.ExpectExec("INSERT INTO favorites").
		WithArgs(uint64(5), uint64(3)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewFavoriteRepo(db)
	action, err := repo.Toggle(context.Background(), 5, 3)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if action != ToggleAdded {
		t.Fatalf("expected %q, got %q", ToggleAdded, action)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestToggleRemovesWhenPresent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT l.like_id").
		WithArgs(uint64(5), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"like_id"}).AddRow(77))
	mock.ExpectExec("DELETE FROM favorites WHERE like_id").
		WithArgs(int64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewFavoriteRepo(db)
	action, err := repo.Toggle(context.Background(), 5, 3)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if action != ToggleRemoved {
		t.Fatalf("expected %q, got %q", ToggleRemoved, action)
	}
}

func TestToggleUnknownProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// The LEFT JOIN probe anchors on products, so a missing product returns
	// no row at all.
	mock.ExpectQuery("SELECT l.like_id").
		WithArgs(uint64(5), uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"like_id"}))

	repo := NewFavoriteRepo(db)
	_, err = repo.Toggle(context.Background(), 5, 404)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
