package repository

import (
	"context"
	"database/sql"
)

// LocationRepo lists gym branches.
type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{db: db} }

// LocationRow is one gym branch.
type LocationRow struct {
	ID      uint64  `json:"id"`
	Branch  string  `json:"branch"`
	Address string  `json:"address"`
	Phone   *string `json:"phone"`
}

// ListAll returns every branch ordered by id.
func (r *LocationRepo) ListAll(ctx context.Context) ([]LocationRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, branch, address, phone FROM locations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LocationRow, 0)
	for rows.Next() {
		var l LocationRow
		var phone sql.NullString
		if err := rows.Scan(&l.ID, &l.Branch, &l.Address, &phone); err != nil {
			return nil, err
		}
		if phone.Valid {
			p := phone.String
			l.Phone = &p
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
