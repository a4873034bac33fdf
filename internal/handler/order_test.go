package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/gymboo/gym-backend/internal/repository"
)

func newOrderContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("member_id", uint64(5))
	return c, rec
}

func TestPlaceOrderEmptyCartWritesNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	// No expectations: an empty cart must be rejected before any query runs.

	h := NewOrderHandler(repository.NewOrderRepo(db), repository.NewProductRepo(db))
	c, rec := newOrderContext(t, http.MethodPost, "/carts/api",
		`{"items":[],"customer_name":"Amy","customer_phone":"0912345678"}`)

	require.NoError(t, h.Place(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderComputesAmountServerSide(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Catalogue price lookup per line; the client never sends prices.
	mock.ExpectQuery("SELECT price FROM products").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(100.0))
	mock.ExpectQuery("SELECT price FROM products").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(50.0))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WillReturnResult(sqlmock.NewResult(42, 1))
	// Item rows keep the catalogue unit price (100 and 50), never the
	// extended line total.
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(
			42, 1, nil, "2025-03-10", "2025-03-12", 1, 100.0,
			42, 2, nil, "2025-03-10", "2025-03-10", 2, 50.0,
		).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	h := NewOrderHandler(repository.NewOrderRepo(db), repository.NewProductRepo(db))
	// Item 1: 2 days x 1 x 100 = 200. Item 2: same-day rental bills one day,
	// 1 x 2 x 50 = 100. Total 300.
	body := `{"items":[
	  {"product_id":1,"rental_start_date":"2025-03-10","rental_end_date":"2025-03-12","quantity":1},
	  {"product_id":2,"rental_start_date":"2025-03-10","rental_end_date":"2025-03-10","quantity":2}
	],"payment_method":"cash","pickup_method":"store",
	  "customer_name":"Amy","customer_phone":"0912345678","customer_email":"amy@example.com"}`
	c, rec := newOrderContext(t, http.MethodPost, "/carts/api", body)

	require.NoError(t, h.Place(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"orderAmount":300`)
	require.Contains(t, rec.Body.String(), `"orderId":42`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderUnknownProductRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT price FROM products").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"price"}))

	h := NewOrderHandler(repository.NewOrderRepo(db), repository.NewProductRepo(db))
	body := `{"items":[{"product_id":404,"rental_start_date":"2025-03-10","rental_end_date":"2025-03-11","quantity":1}],
	  "customer_name":"Amy","customer_phone":"0912345678"}`
	c, rec := newOrderContext(t, http.MethodPost, "/carts/api", body)

	require.NoError(t, h.Place(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrderTwice(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE orders SET status = 'cancelled'").
		WithArgs(uint64(42), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE orders SET status = 'cancelled'").
		WithArgs(uint64(42), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM orders").
		WithArgs(uint64(42), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("cancelled"))

	h := NewOrderHandler(repository.NewOrderRepo(db), repository.NewProductRepo(db))

	c, rec := newOrderContext(t, http.MethodPost, "/carts/api/42/cancel", "")
	c.SetParamNames("id")
	c.SetParamValues("42")
	require.NoError(t, h.Cancel(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c2, rec2 := newOrderContext(t, http.MethodPost, "/carts/api/42/cancel", "")
	c2.SetParamNames("id")
	c2.SetParamValues("42")
	require.NoError(t, h.Cancel(c2))
	require.Equal(t, http.StatusBadRequest, rec2.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelUnknownOrderReturns404(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE orders SET status = 'cancelled'").
		WithArgs(uint64(99), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM orders").
		WithArgs(uint64(99), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	h := NewOrderHandler(repository.NewOrderRepo(db), repository.NewProductRepo(db))
	c, rec := newOrderContext(t, http.MethodPost, "/carts/api/99/cancel", "")
	c.SetParamNames("id")
	c.SetParamValues("99")

	require.NoError(t, h.Cancel(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
