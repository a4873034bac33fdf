package repository

import (
	"context"
	"database/sql"
)

// FavoriteRepo manages a member's favorited products.
type FavoriteRepo struct {
	db *sql.DB
}

// NewFavoriteRepo returns a new FavoriteRepo bound to the given database.
func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// Toggle actions reported to the client.
const (
	ToggleAdded   = "add"
	ToggleRemoved = "remove"
)

// Toggle adds the product to the member's favorites when absent and removes
// it when present. It returns the action taken, or sql.ErrNoRows when the
// product itself does not exist.
func (r *FavoriteRepo) Toggle(ctx context.Context, memberID, productID uint64) (string, error) {
	const q = `SELECT l.like_id
	           FROM products p
	           LEFT JOIN (SELECT like_id, product_id FROM favorites WHERE member_id = ?) l
	             ON p.id = l.product_id
	           WHERE p.id = ?`
	var likeID sql.NullInt64
	if err := r.db.QueryRowContext(ctx, q, memberID, productID).Scan(&likeID); err != nil {
		return "", err
	}
	if likeID.Valid {
		_, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE like_id = ?`, likeID.Int64)
		return ToggleRemoved, err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (member_id, product_id) VALUES (?, ?)`, memberID, productID)
	return ToggleAdded, err
}

// Remove deletes one favorite by member and product. Returns false when the
// product was not in the member's favorites.
func (r *FavoriteRepo) Remove(ctx context.Context, memberID, productID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE member_id = ? AND product_id = ?`, memberID, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetLikeID returns the caller's favorite id for the product, or nil when
// the product is not favorited.
func (r *FavoriteRepo) GetLikeID(ctx context.Context, memberID, productID uint64) (*uint64, error) {
	var likeID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT like_id FROM favorites WHERE member_id = ? AND product_id = ?`,
		memberID, productID).Scan(&likeID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &likeID, nil
}

// ListByMember returns the member's favorited products, newest first.
func (r *FavoriteRepo) ListByMember(ctx context.Context, memberID uint64) ([]ProductRow, error) {
	const q = `SELECT p.id, p.name, p.price, p.image_url, p.description,
	                  p.average_rating, c.category_name,
	                  DATE_FORMAT(p.created_at, '%Y-%m-%d %H:%i:%s')
	           FROM favorites f
	           JOIN products p ON f.product_id = p.id
	           JOIN categories c ON p.category_id = c.id
	           WHERE f.member_id = ?
	           ORDER BY f.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ProductRow, 0)
	for rows.Next() {
		var p ProductRow
		var rating sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.ImageURL, &p.Description,
			&rating, &p.CategoryName, &p.CreatedAt); err != nil {
			return nil, err
		}
		if rating.Valid {
			v := rating.Float64
			p.AverageRating = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
