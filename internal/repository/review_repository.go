package repository

import (
	"context"
	"database/sql"
)

// ReviewRepo manages product reviews. A review is bound to one order item of
// a returned rental, so each rental can be reviewed exactly once and only by
// the member who rented it.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// EligibleForReview reports whether the member has a returned order item
// matching (productID, orderItemID). Reviews on rentals that were never
// returned are rejected.
func (r *ReviewRepo) EligibleForReview(ctx context.Context, memberID, productID, orderItemID uint64) (bool, error) {
	const q = `SELECT 1 FROM orders o
	           JOIN order_items oi ON o.order_id = oi.order_id
	           WHERE o.member_id = ? AND oi.product_id = ? AND oi.order_item_id = ?
	             AND o.status = 'returned'
	           LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, memberID, productID, orderItemID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Exists reports whether the member already reviewed this order item.
func (r *ReviewRepo) Exists(ctx context.Context, memberID, productID, orderItemID uint64) (bool, error) {
	const q = `SELECT 1 FROM product_reviews
	           WHERE member_id = ? AND product_id = ? AND order_item_id = ?
	           LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, memberID, productID, orderItemID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a review and recomputes the product's average rating in the
// same transaction, keeping products.average_rating consistent with the
// review rows.
func (r *ReviewRepo) Create(ctx context.Context, memberID, productID, orderItemID uint64, rating uint8, text string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const ins = `INSERT INTO product_reviews
	             (member_id, product_id, rating, review_text, created_at, order_item_id)
	             VALUES (?, ?, ?, ?, NOW(), ?)`
	if _, err := tx.ExecContext(ctx, ins, memberID, productID, rating, text, orderItemID); err != nil {
		return err
	}
	if err := refreshAverageRatingTx(ctx, tx, productID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Update rewrites an existing review and recomputes the average rating.
// Returns false when the member has no review for this order item.
func (r *ReviewRepo) Update(ctx context.Context, memberID, productID, orderItemID uint64, rating uint8, text string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const upd = `UPDATE product_reviews SET rating = ?, review_text = ?
	             WHERE member_id = ? AND product_id = ? AND order_item_id = ?`
	res, err := tx.ExecContext(ctx, upd, rating, text, memberID, productID, orderItemID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if err := refreshAverageRatingTx(ctx, tx, productID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

func refreshAverageRatingTx(ctx context.Context, tx *sql.Tx, productID uint64) error {
	const q = `UPDATE products
	           SET average_rating = (SELECT AVG(rating) FROM product_reviews WHERE product_id = ?)
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, productID, productID)
	return err
}

// ReviewRow is one review shown on the product page.
type ReviewRow struct {
	ReviewID   uint64 `json:"review_id"`
	Rating     uint8  `json:"rating"`
	ReviewText string `json:"review_text"`
	CreatedAt  string `json:"created_at"`
	MemberID   uint64 `json:"member_id"`
	MemberName string `json:"member_name"`
}

// ListByProduct returns one page of a product's reviews, newest first.
func (r *ReviewRepo) ListByProduct(ctx context.Context, productID uint64, page, limit int) ([]ReviewRow, error) {
	const q = `SELECT pr.id, pr.rating, pr.review_text,
	                  DATE_FORMAT(pr.created_at, '%Y-%m-%d %H:%i:%s'),
	                  m.member_id, m.name
	           FROM product_reviews pr
	           JOIN member m ON pr.member_id = m.member_id
	           WHERE pr.product_id = ?
	           ORDER BY pr.created_at DESC
	           LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, productID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReviewRow, 0)
	for rows.Next() {
		var rv ReviewRow
		var name sql.NullString
		if err := rows.Scan(&rv.ReviewID, &rv.Rating, &rv.ReviewText, &rv.CreatedAt,
			&rv.MemberID, &name); err != nil {
			return nil, err
		}
		rv.MemberName = name.String
		out = append(out, rv)
	}
	return out, rows.Err()
}

// ReviewableItem is a returned order item of the member, together with the
// review if one was already written.
type ReviewableItem struct {
	OrderID          uint64  `json:"order_id"`
	OrderItemID      uint64  `json:"order_item_id"`
	ProductID        uint64  `json:"product_id"`
	ProductName      string  `json:"name"`
	ImageURL         string  `json:"image_url"`
	ProductVariantID *uint64 `json:"product_variant_id,omitempty"`
	Weight           *string `json:"weight,omitempty"`
	OrderedAt        string  `json:"ordered_at"`
	Rating           *uint8  `json:"rating,omitempty"`
	ReviewText       *string `json:"review_text,omitempty"`
	ReviewedAt       *string `json:"reviewed_at,omitempty"`
}

// ListReviewable returns the member's returned order items. With pendingOnly
// set, only items without an existing review are included.
func (r *ReviewRepo) ListReviewable(ctx context.Context, memberID uint64, pendingOnly bool) ([]ReviewableItem, error) {
	q := `SELECT o.order_id, oi.order_item_id, oi.product_id, p.name, p.image_url,
	             oi.product_variant_id, pv.weight,
	             DATE_FORMAT(o.added_at, '%Y-%m-%d %H:%i:%s'),
	             r.rating, r.review_text,
	             DATE_FORMAT(r.created_at, '%Y-%m-%d %H:%i:%s')
	      FROM orders o
	      JOIN order_items oi ON o.order_id = oi.order_id
	      JOIN products p ON oi.product_id = p.id
	      LEFT JOIN productvariants pv ON oi.product_variant_id = pv.id
	      LEFT JOIN product_reviews r
	        ON oi.order_item_id = r.order_item_id AND r.member_id = ?
	      WHERE o.member_id = ? AND o.status = 'returned'`
	if pendingOnly {
		q += ` AND r.order_item_id IS NULL`
	}
	q += ` ORDER BY r.created_at DESC, o.added_at DESC`
	rows, err := r.db.QueryContext(ctx, q, memberID, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReviewableItem, 0)
	for rows.Next() {
		var it ReviewableItem
		var variantID sql.NullInt64
		var weight, reviewText, reviewedAt sql.NullString
		var rating sql.NullInt64
		if err := rows.Scan(&it.OrderID, &it.OrderItemID, &it.ProductID,
			&it.ProductName, &it.ImageURL, &variantID, &weight, &it.OrderedAt,
			&rating, &reviewText, &reviewedAt); err != nil {
			return nil, err
		}
		if variantID.Valid {
			v := uint64(variantID.Int64)
			it.ProductVariantID = &v
		}
		if weight.Valid {
			w := weight.String
			it.Weight = &w
		}
		if rating.Valid {
			rt := uint8(rating.Int64)
			it.Rating = &rt
		}
		if reviewText.Valid {
			t := reviewText.String
			it.ReviewText = &t
		}
		if reviewedAt.Valid {
			t := reviewedAt.String
			it.ReviewedAt = &t
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
