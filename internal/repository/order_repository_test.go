package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRentalDays(t *testing.T) {
	cases := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"same day bills one day", day("2025-03-10"), day("2025-03-10"), 1},
		{"one full day", day("2025-03-10"), day("2025-03-11"), 1},
		{"three full days", day("2025-03-10"), day("2025-03-13"), 3},
		{"partial day rounds up", day("2025-03-10"), day("2025-03-11").Add(6 * time.Hour), 2},
		{"end before start clamps to one", day("2025-03-12"), day("2025-03-10"), 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, RentalDays(c.start, c.end))
		})
	}
}

func TestCreateItemsBulkTxRejectsEmptyCart(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	// No ExpectExec: an empty slice must not touch the database.

	repo := NewOrderRepo(db)
	tx, _ := db.Begin()
	if err := repo.CreateItemsBulkTx(context.Background(), tx, nil); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateOrderWithItemsSingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WillReturnResult(sqlmock.NewResult(42, 1))
	// Three items become one multi-VALUES insert.
	mock.ExpectExec("INSERT INTO order_items").
		WillReturnResult(sqlmock.NewResult(1, 3))
	mock.ExpectCommit()

	repo := NewOrderRepo(db)
	tx, _ := db.Begin()

	header := OrderRecord{MemberID: 5, Status: "placed", PaymentStatus: "unpaid", TotalAmount: 900}
	if err := repo.CreateTx(context.Background(), tx, &header); err != nil {
		t.Fatalf("create header: %v", err)
	}
	if header.ID != 42 {
		t.Fatalf("header id not populated, got %d", header.ID)
	}
	items := []OrderItemRecord{
		{OrderID: header.ID, ProductID: 1, RentalStartDate: "2025-03-10", RentalEndDate: "2025-03-12", Quantity: 1, Price: 300},
		{OrderID: header.ID, ProductID: 2, RentalStartDate: "2025-03-10", RentalEndDate: "2025-03-12", Quantity: 2, Price: 400},
		{OrderID: header.ID, ProductID: 3, RentalStartDate: "2025-03-10", RentalEndDate: "2025-03-10", Quantity: 1, Price: 200},
	}
	if err := repo.CreateItemsBulkTx(context.Background(), tx, items); err != nil {
		t.Fatalf("bulk insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelOrderStates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	repo := NewOrderRepo(db)
	ctx := context.Background()

	// Placed order cancels.
	mock.ExpectExec("UPDATE orders SET status = 'cancelled'").
		WithArgs(uint64(42), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Cancel(ctx, 5, 42); err != nil {
		t.Fatalf("expected cancel to succeed, got %v", err)
	}

	// Second cancel: no row changed, follow-up read sees 'cancelled'.
	mock.ExpectExec("UPDATE orders SET status = 'cancelled'").
		WithArgs(uint64(42), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM orders").
		WithArgs(uint64(42), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("cancelled"))
	err = repo.Cancel(ctx, 5, 42)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	// Unknown order: no row changed, follow-up read finds nothing.
	mock.ExpectExec("UPDATE orders SET status = 'cancelled'").
		WithArgs(uint64(99), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM orders").
		WithArgs(uint64(99), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	err = repo.Cancel(ctx, 5, 99)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListByMemberBatchesItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	headers := sqlmock.NewRows([]string{
		"order_id", "status", "payment_status", "pickup_method", "payment_method",
		"customer_name", "total_amount", "added_at",
	}).
		AddRow(2, "placed", "unpaid", "store", "cash", "Amy", 600.0, "2025-03-11 10:00:00").
		AddRow(1, "returned", "paid", "store", "cash", "Amy", 300.0, "2025-03-01 09:00:00")
	mock.ExpectQuery("SELECT order_id, status, payment_status").
		WithArgs(uint64(5)).
		WillReturnRows(headers)

	items := sqlmock.NewRows([]string{
		"order_id", "order_item_id", "product_id", "name", "product_variant_id",
		"rental_start_date", "rental_end_date", "quantity", "price",
	}).
		AddRow(1, 10, 3, "Kettlebell", nil, "2025-02-20", "2025-02-22", 1, 300.0).
		AddRow(2, 11, 4, "Yoga Mat", 2, "2025-03-12", "2025-03-14", 2, 600.0)
	mock.ExpectQuery("SELECT oi.order_id, oi.order_item_id").
		WithArgs(uint64(2), uint64(1)).
		WillReturnRows(items)

	repo := NewOrderRepo(db)
	out, err := repo.ListByMember(context.Background(), 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	assert.Len(t, out, 2)
	assert.Equal(t, uint64(2), out[0].OrderID)
	assert.Len(t, out[0].Items, 1)
	assert.Equal(t, "Yoga Mat", out[0].Items[0].ProductName)
	assert.Len(t, out[1].Items, 1)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
