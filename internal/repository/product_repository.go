package repository

import (
	"context"
	"database/sql"
)

// ProductRepo provides read access to the rental catalogue: paginated
// listings, product detail with variants and related items.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// ProductFilter narrows the catalogue listing. Zero values mean no filter.
type ProductFilter struct {
	Keyword  string
	Category string
}

// ProductRow is one catalogue entry. LikeID is set only for authenticated
// callers that have favorited the product.
type ProductRow struct {
	ID            uint64   `json:"id"`
	ProductCode   string   `json:"product_code"`
	Name          string   `json:"product_name"`
	Description   string   `json:"description"`
	CategoryName  string   `json:"category_name"`
	Price         float64  `json:"price"`
	ImageURL      string   `json:"image_url"`
	AverageRating *float64 `json:"average_rating"`
	CreatedAt     string   `json:"created_at"`
	LikeID        *uint64  `json:"like_id,omitempty"`
}

func productWhere(f ProductFilter, args *[]interface{}) string {
	w := ` WHERE 1=1`
	if f.Keyword != "" {
		w += ` AND p.name LIKE ?`
		*args = append(*args, "%"+f.Keyword+"%")
	}
	if f.Category != "" {
		w += ` AND c.category_name = ?`
		*args = append(*args, f.Category)
	}
	return w
}

// Count returns the number of products matching the filter.
func (r *ProductRepo) Count(ctx context.Context, f ProductFilter) (int, error) {
	args := make([]interface{}, 0, 2)
	q := `SELECT COUNT(1) FROM products p JOIN categories c ON p.category_id = c.id` +
		productWhere(f, &args)
	var n int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// List returns one page of the catalogue ordered by product id. When
// memberID is non-zero, each row carries the caller's favorite id if any.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter, memberID uint64, page, perPage int) ([]ProductRow, error) {
	args := make([]interface{}, 0, 5)
	var q string
	if memberID > 0 {
		args = append(args, memberID)
		q = `SELECT p.id, p.product_code, p.name, p.description, c.category_name,
		            p.price, p.image_url, p.average_rating,
		            DATE_FORMAT(p.created_at, '%Y-%m-%d %H:%i:%s'), l.like_id
		     FROM products p
		     LEFT JOIN (SELECT like_id, product_id FROM favorites WHERE member_id = ?) l
		       ON p.id = l.product_id
		     JOIN categories c ON p.category_id = c.id` + productWhere(f, &args)
	} else {
		q = `SELECT p.id, p.product_code, p.name, p.description, c.category_name,
		            p.price, p.image_url, p.average_rating,
		            DATE_FORMAT(p.created_at, '%Y-%m-%d %H:%i:%s'), NULL
		     FROM products p
		     JOIN categories c ON p.category_id = c.id` + productWhere(f, &args)
	}
	q += ` ORDER BY p.id LIMIT ?, ?`
	args = append(args, (page-1)*perPage, perPage)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ProductRow, 0)
	for rows.Next() {
		var p ProductRow
		var rating sql.NullFloat64
		var likeID sql.NullInt64
		if err := rows.Scan(&p.ID, &p.ProductCode, &p.Name, &p.Description,
			&p.CategoryName, &p.Price, &p.ImageURL, &rating, &p.CreatedAt, &likeID); err != nil {
			return nil, err
		}
		if rating.Valid {
			v := rating.Float64
			p.AverageRating = &v
		}
		if likeID.Valid {
			v := uint64(likeID.Int64)
			p.LikeID = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPrice returns the current daily rental price of a product. Order
// amounts are computed from this, never from client-sent prices.
func (r *ProductRepo) GetPrice(ctx context.Context, productID uint64) (float64, error) {
	var price float64
	err := r.db.QueryRowContext(ctx,
		`SELECT price FROM products WHERE id = ?`, productID).Scan(&price)
	return price, err
}

// VariantRow is one product option in the detail view.
type VariantRow struct {
	VariantID uint64  `json:"variant_id"`
	Weight    *string `json:"weight"`
	ImageURL  *string `json:"image_url"`
}

// ProductDetail is the full product page payload.
type ProductDetail struct {
	ProductRow
	Variants []VariantRow `json:"variants"`
}

// GetDetail loads a single product with its variants. sql.ErrNoRows when the
// product does not exist. Variants are fetched with a second query rather
// than JSON aggregation so rows stay scannable.
func (r *ProductRepo) GetDetail(ctx context.Context, productID uint64) (*ProductDetail, error) {
	const q = `SELECT p.id, p.product_code, p.name, p.description, c.category_name,
	                  p.price, p.image_url, p.average_rating,
	                  DATE_FORMAT(p.created_at, '%Y-%m-%d %H:%i:%s')
	           FROM products p
	           JOIN categories c ON p.category_id = c.id
	           WHERE p.id = ?`
	var d ProductDetail
	var rating sql.NullFloat64
	err := r.db.QueryRowContext(ctx, q, productID).Scan(
		&d.ID, &d.ProductCode, &d.Name, &d.Description, &d.CategoryName,
		&d.Price, &d.ImageURL, &rating, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if rating.Valid {
		v := rating.Float64
		d.AverageRating = &v
	}
	d.Variants = []VariantRow{}
	const vq = `SELECT id, weight, image_url FROM productvariants WHERE product_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, vq, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var v VariantRow
		var weight, img sql.NullString
		if err := rows.Scan(&v.VariantID, &weight, &img); err != nil {
			return nil, err
		}
		if weight.Valid {
			w := weight.String
			v.Weight = &w
		}
		if img.Valid {
			u := img.String
			v.ImageURL = &u
		}
		d.Variants = append(d.Variants, v)
	}
	return &d, rows.Err()
}

// ListRelated returns up to limit products sharing the category, excluding
// the product itself.
func (r *ProductRepo) ListRelated(ctx context.Context, category string, excludeID uint64, limit int) ([]ProductRow, error) {
	const q = `SELECT p.id, p.name, p.price, p.image_url, p.description, p.average_rating
	           FROM products p
	           JOIN categories c ON p.category_id = c.id
	           WHERE c.category_name = ? AND p.id <> ?
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, category, excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ProductRow, 0, limit)
	for rows.Next() {
		var p ProductRow
		var rating sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.ImageURL, &p.Description, &rating); err != nil {
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
