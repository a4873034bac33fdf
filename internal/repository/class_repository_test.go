package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestReserveSeatTxClaimsSeat(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE classes SET current_capacity = current_capacity \\+ 1").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewClassRepo(db)
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := repo.ReserveSeatTx(context.Background(), tx, 7); err != nil {
		t.Fatalf("expected seat claimed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReserveSeatTxFullClass(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	// Conditional update touches no row, follow-up read finds the class.
	mock.ExpectExec("UPDATE classes SET current_capacity = current_capacity \\+ 1").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM classes WHERE id = ?").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	repo := NewClassRepo(db)
	tx, _ := db.Begin()
	err = repo.ReserveSeatTx(context.Background(), tx, 7)
	if !errors.Is(err, ErrClassFull) {
		t.Fatalf("expected ErrClassFull, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReserveSeatTxMissingClass(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE classes SET current_capacity = current_capacity \\+ 1").
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM classes WHERE id = ?").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	repo := NewClassRepo(db)
	tx, _ := db.Begin()
	err = repo.ReserveSeatTx(context.Background(), tx, 99)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestReleaseSeatTxGuardedAtZero(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	// Guard keeps current_capacity from going negative: zero rows affected is
	// not an error.
	mock.ExpectExec("UPDATE classes SET current_capacity = current_capacity - 1").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewClassRepo(db)
	tx, _ := db.Begin()
	if err := repo.ReleaseSeatTx(context.Background(), tx, 7); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestCancelTxSecondCallFindsNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reservations SET status = 'cancelled'").
		WithArgs(uint64(3), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reservations SET status = 'cancelled'").
		WithArgs(uint64(3), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewReservationRepo(db)
	tx, _ := db.Begin()
	changed, err := repo.CancelTx(context.Background(), tx, 3, 7)
	if err != nil || !changed {
		t.Fatalf("first cancel should change a row, got changed=%v err=%v", changed, err)
	}
	tx2, _ := db.Begin()
	changed, err = repo.CancelTx(context.Background(), tx2, 3, 7)
	if err != nil {
		t.Fatalf("second cancel errored: %v", err)
	}
	if changed {
		t.Fatalf("second cancel must not report a changed row")
	}
}
