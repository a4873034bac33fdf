package repository

import (
	"context"
	"database/sql"
)

// AddressRepo manages a member's personal address book.
type AddressRepo struct {
	db *sql.DB
}

// NewAddressRepo returns a new AddressRepo bound to the given database.
func NewAddressRepo(db *sql.DB) *AddressRepo { return &AddressRepo{db: db} }

// AddressFilter narrows and orders the listing. SortField/SortRule are
// validated here so handler input never reaches the ORDER BY clause raw.
type AddressFilter struct {
	Keyword       string
	BirthdayMonth int
	SortField     string
	SortRule      string
}

// AddressRow is one address book entry.
type AddressRow struct {
	ID       uint64  `json:"ab_id"`
	Name     string  `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`
	Birthday *string `json:"birthday"`
}

var addressSortFields = map[string]string{
	"name":     "name",
	"birthday": "birthday",
	"ab_id":    "ab_id",
}

func addressOrder(f AddressFilter) string {
	col, ok := addressSortFields[f.SortField]
	if !ok {
		col = "ab_id"
	}
	dir := "ASC"
	if f.SortRule == "desc" {
		dir = "DESC"
	}
	return ` ORDER BY ` + col + ` ` + dir
}

func addressWhere(memberID uint64, f AddressFilter, args *[]interface{}) string {
	w := ` WHERE member_id = ?`
	*args = append(*args, memberID)
	if f.Keyword != "" {
		w += ` AND (name LIKE ? OR phone LIKE ? OR email LIKE ?)`
		kw := "%" + f.Keyword + "%"
		*args = append(*args, kw, kw, kw)
	}
	if f.BirthdayMonth >= 1 && f.BirthdayMonth <= 12 {
		w += ` AND MONTH(birthday) = ?`
		*args = append(*args, f.BirthdayMonth)
	}
	return w
}

// Count returns the number of entries matching the filter.
func (r *AddressRepo) Count(ctx context.Context, memberID uint64, f AddressFilter) (int, error) {
	args := make([]interface{}, 0, 5)
	q := `SELECT COUNT(1) FROM address_book` + addressWhere(memberID, f, &args)
	var n int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// List returns one page of the member's address book.
func (r *AddressRepo) List(ctx context.Context, memberID uint64, f AddressFilter, page, perPage int) ([]AddressRow, error) {
	args := make([]interface{}, 0, 7)
	q := `SELECT ab_id, name, phone, email, address, DATE_FORMAT(birthday, '%Y-%m-%d')
	      FROM address_book` + addressWhere(memberID, f, &args) + addressOrder(f) +
		` LIMIT ?, ?`
	args = append(args, (page-1)*perPage, perPage)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]AddressRow, 0)
	for rows.Next() {
		var a AddressRow
		var phone, email, address, birthday sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &phone, &email, &address, &birthday); err != nil {
			return nil, err
		}
		if phone.Valid {
			v := phone.String
			a.Phone = &v
		}
		if email.Valid {
			v := email.String
			a.Email = &v
		}
		if address.Valid {
			v := address.String
			a.Address = &v
		}
		if birthday.Valid {
			v := birthday.String
			a.Birthday = &v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get loads one entry owned by the member. sql.ErrNoRows when absent or
// owned by someone else.
func (r *AddressRepo) Get(ctx context.Context, memberID, abID uint64) (AddressRow, error) {
	var a AddressRow
	var phone, email, address, birthday sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT ab_id, name, phone, email, address, DATE_FORMAT(birthday, '%Y-%m-%d')
		 FROM address_book WHERE ab_id = ? AND member_id = ?`,
		abID, memberID).Scan(&a.ID, &a.Name, &phone, &email, &address, &birthday)
	if err != nil {
		return a, err
	}
	if phone.Valid {
		v := phone.String
		a.Phone = &v
	}
	if email.Valid {
		v := email.String
		a.Email = &v
	}
	if address.Valid {
		v := address.String
		a.Address = &v
	}
	if birthday.Valid {
		v := birthday.String
		a.Birthday = &v
	}
	return a, nil
}

// AddressInput carries the writable fields of an entry. Empty optional
// fields are stored as NULL.
type AddressInput struct {
	Name     string
	Phone    string
	Email    string
	Address  string
	Birthday string
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Create inserts a new entry for the member and returns its id.
func (r *AddressRepo) Create(ctx context.Context, memberID uint64, in AddressInput) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO address_book (member_id, name, phone, email, address, birthday)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		memberID, in.Name, nullable(in.Phone), nullable(in.Email),
		nullable(in.Address), nullable(in.Birthday))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// Update rewrites an entry owned by the member. Returns false when the entry
// does not exist or belongs to someone else.
func (r *AddressRepo) Update(ctx context.Context, memberID, abID uint64, in AddressInput) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE address_book SET name = ?, phone = ?, email = ?, address = ?, birthday = ?
		 WHERE ab_id = ? AND member_id = ?`,
		in.Name, nullable(in.Phone), nullable(in.Email), nullable(in.Address),
		nullable(in.Birthday), abID, memberID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes an entry owned by the member. Returns false when nothing
// was deleted.
func (r *AddressRepo) Delete(ctx context.Context, memberID, abID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM address_book WHERE ab_id = ? AND member_id = ?`, abID, memberID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
