package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/gymboo/gym-backend/internal/repository"
)

func newClassContext(t *testing.T, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/classes/api/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("member_id", uint64(5))
	return c, rec
}

func TestBookFullClassReturns402(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE classes SET current_capacity = current_capacity \\+ 1").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM classes").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	h := NewClassHandler(repository.NewClassRepo(db), repository.NewReservationRepo(db))
	c, rec := newClassContext(t, http.MethodPost,
		`{"class_id":7,"coach_id":2,"reservation_date":"2025-03-10","reservation_time":"10:00"}`)

	require.NoError(t, h.Book(c))
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":402`)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A full class reports 402 before the duplicate check runs, so a member who
// already booked the now-full class still sees the capacity error first.
func TestBookFullClassWinsOverDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE classes SET current_capacity = current_capacity \\+ 1").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM classes").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	// No reservations query: the member's existing booking is never consulted.
	mock.ExpectRollback()

	h := NewClassHandler(repository.NewClassRepo(db), repository.NewReservationRepo(db))
	c, rec := newClassContext(t, http.MethodPost,
		`{"class_id":7,"coach_id":2,"reservation_date":"2025-03-10","reservation_time":"10:00"}`)

	require.NoError(t, h.Book(c))
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":402`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookDuplicateReturns400(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The seat is claimed first; the rollback on duplicate releases it.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE classes SET current_capacity = current_capacity \\+ 1").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT 1 FROM reservations").
		WithArgs(uint64(5), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	h := NewClassHandler(repository.NewClassRepo(db), repository.NewReservationRepo(db))
	c, rec := newClassContext(t, http.MethodPost,
		`{"class_id":7,"coach_id":2,"reservation_date":"2025-03-10","reservation_time":"10:00"}`)

	require.NoError(t, h.Book(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":400`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookUnknownClassReturns401(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE classes SET current_capacity = current_capacity \\+ 1").
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM classes").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	h := NewClassHandler(repository.NewClassRepo(db), repository.NewReservationRepo(db))
	c, rec := newClassContext(t, http.MethodPost,
		`{"class_id":99,"coach_id":2,"reservation_date":"2025-03-10","reservation_time":"10:00"}`)

	require.NoError(t, h.Book(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":401`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookCommitsBeforeResponding(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE classes SET current_capacity = current_capacity \\+ 1").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT 1 FROM reservations").
		WithArgs(uint64(5), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT created_at FROM reservations").
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	h := NewClassHandler(repository.NewClassRepo(db), repository.NewReservationRepo(db))
	c, rec := newClassContext(t, http.MethodPost,
		`{"class_id":7,"coach_id":2,"reservation_date":"2025-03-10","reservation_time":"10:00"}`)

	require.NoError(t, h.Book(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"reservation_id":11`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelReservationSecondCallReturns401(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reservations SET status = 'cancelled'").
		WithArgs(uint64(5), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	h := NewClassHandler(repository.NewClassRepo(db), repository.NewReservationRepo(db))
	c, rec := newClassContext(t, http.MethodPut, `{"class_id":7,"status":"cancelled"}`)

	require.NoError(t, h.CancelReservation(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelReservationReleasesSeat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reservations SET status = 'cancelled'").
		WithArgs(uint64(5), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE classes SET current_capacity = current_capacity - 1").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	h := NewClassHandler(repository.NewClassRepo(db), repository.NewReservationRepo(db))
	c, rec := newClassContext(t, http.MethodPut, `{"class_id":7,"status":"cancelled"}`)

	require.NoError(t, h.CancelReservation(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
