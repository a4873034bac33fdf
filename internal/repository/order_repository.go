package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// OrderRepo provides CRUD operations for rental orders and their items.
// An order header and its lines are only ever written together inside one
// transaction: a failure anywhere rolls back the whole order.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying pool for handler-scoped transactions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// OrderRecord mirrors the orders table for insertion.
type OrderRecord struct {
	ID            uint64
	MemberID      uint64
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Status        string
	PaymentStatus string
	PickupMethod  string
	PaymentMethod string
	TotalAmount   float64
}

// OrderItemRecord mirrors the order_items table for insertion. Price is the
// catalogue unit price per rental day; the order total is computed from it
// and stored on the header.
type OrderItemRecord struct {
	OrderID          uint64
	ProductID        uint64
	ProductVariantID *uint64
	RentalStartDate  string
	RentalEndDate    string
	Quantity         uint32
	Price            float64
}

// RentalDays returns the billable day count for a rental period. A rental
// always bills at least one day; partial days round up.
func RentalDays(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 1
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

// CreateTx inserts a new order header within the scope of an existing
// transaction and populates the generated ID on the record.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *OrderRecord) error {
	const q = `INSERT INTO orders
	           (member_id, customer_name, customer_phone, customer_email,
	            status, payment_status, pickup_method, payment_method, total_amount)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		o.MemberID, o.CustomerName, o.CustomerPhone, o.CustomerEmail,
		o.Status, o.PaymentStatus, o.PickupMethod, o.PaymentMethod, o.TotalAmount)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// CreateItemsBulkTx inserts all order lines in a single statement. The
// caller must supply the order ID in each record. An order without lines is
// invalid, so an empty slice returns ErrEmptyCart without touching the
// database.
func (r *OrderRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []OrderItemRecord) error {
	if len(items) == 0 {
		return ErrEmptyCart
	}
	query := `INSERT INTO order_items
	          (order_id, product_id, product_variant_id,
	           rental_start_date, rental_end_date, quantity, price) VALUES `
	args := make([]interface{}, 0, len(items)*7)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		args = append(args, it.OrderID, it.ProductID, it.ProductVariantID,
			it.RentalStartDate, it.RentalEndDate, it.Quantity, it.Price)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// Cancel moves an order from "placed" to "cancelled" with a single
// conditional UPDATE. When no row changes, a follow-up read distinguishes an
// absent order (sql.ErrNoRows) from one that is no longer cancellable
// (ErrInvalidState).
func (r *OrderRepo) Cancel(ctx context.Context, memberID, orderID uint64) error {
	const q = `UPDATE orders SET status = 'cancelled'
	           WHERE order_id = ? AND member_id = ? AND status = 'placed'`
	res, err := r.db.ExecContext(ctx, q, orderID, memberID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var status string
	err = r.db.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE order_id = ? AND member_id = ?`,
		orderID, memberID).Scan(&status)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return err
	}
	return ErrInvalidState
}

// OrderDetail is an order header with its nested lines, as returned to the
// member's order history.
type OrderDetail struct {
	OrderID       uint64            `json:"order_id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	PickupMethod  string            `json:"pickup_method"`
	PaymentMethod string            `json:"payment_method"`
	CustomerName  string            `json:"customer_name"`
	TotalAmount   float64           `json:"total_amount"`
	CreatedAt     string            `json:"created_at"`
	Items         []OrderDetailItem `json:"items"`
}

// OrderDetailItem is one line of an order in the history view.
type OrderDetailItem struct {
	OrderItemID      uint64  `json:"order_item_id"`
	ProductID        uint64  `json:"product_id"`
	ProductName      string  `json:"product_name"`
	ProductVariantID *uint64 `json:"product_variant_id,omitempty"`
	RentalStartDate  string  `json:"rental_start_date"`
	RentalEndDate    string  `json:"rental_end_date"`
	Quantity         uint32  `json:"quantity"`
	Price            float64 `json:"price"`
}

// ListByMember returns all orders of a member with their items, newest
// first. Items for the whole page are fetched with one IN query instead of a
// query per order.
func (r *OrderRepo) ListByMember(ctx context.Context, memberID uint64) ([]OrderDetail, error) {
	const q = `SELECT order_id, status, payment_status, pickup_method, payment_method,
	                  customer_name, total_amount, DATE_FORMAT(added_at, '%Y-%m-%d %H:%i:%s')
	           FROM orders
	           WHERE member_id = ?
	           ORDER BY added_at DESC`
	rows, err := r.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]OrderDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d OrderDetail
		if err := rows.Scan(&d.OrderID, &d.Status, &d.PaymentStatus,
			&d.PickupMethod, &d.PaymentMethod, &d.CustomerName, &d.TotalAmount, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Items = []OrderDetailItem{}
		index[d.OrderID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.OrderID)
		placeholders = append(placeholders, "?")
	}
	itemQ := `SELECT oi.order_id, oi.order_item_id, oi.product_id, p.name,
	                 oi.product_variant_id,
	                 DATE_FORMAT(oi.rental_start_date, '%Y-%m-%d'),
	                 DATE_FORMAT(oi.rental_end_date, '%Y-%m-%d'),
	                 oi.quantity, oi.price
	          FROM order_items oi
	          LEFT JOIN products p ON p.id = oi.product_id
	          WHERE oi.order_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY oi.order_id, oi.order_item_id`
	irows, err := r.db.QueryContext(ctx, itemQ, ids...)
	if err != nil {
		return nil, err
	}
	defer irows.Close()
	for irows.Next() {
		var orderID uint64
		var it OrderDetailItem
		var name sql.NullString
		var variantID sql.NullInt64
		if err := irows.Scan(&orderID, &it.OrderItemID, &it.ProductID, &name,
			&variantID, &it.RentalStartDate, &it.RentalEndDate,
			&it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		it.ProductName = name.String
		if variantID.Valid {
			v := uint64(variantID.Int64)
			it.ProductVariantID = &v
		}
		idx, ok := index[orderID]
		if !ok {
			continue
		}
		details[idx].Items = append(details[idx].Items, it)
	}
	return details, irows.Err()
}
