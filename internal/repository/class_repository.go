package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ClassRepo provides access to scheduled class sessions and owns the
// occupancy counter on the classes table. All occupancy mutations are
// conditional UPDATEs checked by affected-row count so the capacity
// invariant holds even under concurrent bookings.
type ClassRepo struct {
	db *sql.DB
}

// NewClassRepo returns a new ClassRepo bound to the given database.
func NewClassRepo(db *sql.DB) *ClassRepo { return &ClassRepo{db: db} }

// DB exposes the underlying pool so handlers can open transactions that span
// the class and reservation repositories.
func (r *ClassRepo) DB() *sql.DB { return r.db }

// CalendarRow is one class session as shown on the schedule calendar,
// joined with the coach name and the class-type title.
type CalendarRow struct {
	ID              uint64 `json:"id"`
	Title           string `json:"title"`
	CoachID         uint64 `json:"coach_id"`
	CoachName       string `json:"coach_name"`
	Location        string `json:"location"`
	Branch          string `json:"branch"`
	ClassDate       string `json:"class_date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	CurrentCapacity uint32 `json:"current_capacity"`
	MaxCapacity     uint32 `json:"max_capacity"`
}

// CalendarFilter narrows the calendar listing. Zero values mean no filter.
type CalendarFilter struct {
	Location string
	Branch   string
}

// CountCalendar returns the number of class sessions matching the filter.
func (r *ClassRepo) CountCalendar(ctx context.Context, f CalendarFilter) (int, error) {
	q := `SELECT COUNT(1) FROM classes WHERE 1=1`
	args := make([]interface{}, 0, 2)
	if f.Location != "" {
		q += ` AND classes.location = ?`
		args = append(args, f.Location)
	}
	if f.Branch != "" {
		q += ` AND classes.branch = ?`
		args = append(args, f.Branch)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListCalendar returns one page of the class calendar ordered by date and
// start time. page is 1-based.
func (r *ClassRepo) ListCalendar(ctx context.Context, f CalendarFilter, page, perPage int) ([]CalendarRow, error) {
	q := `SELECT classes.id, class_types.type_name, classes.coach_id, coaches.name,
	             classes.location, classes.branch,
	             DATE_FORMAT(classes.class_date, '%Y-%m-%d'),
	             TIME_FORMAT(classes.start_time, '%H:%i'),
	             TIME_FORMAT(classes.end_time, '%H:%i'),
	             classes.current_capacity, classes.max_capacity
	      FROM classes
	      LEFT JOIN coaches ON classes.coach_id = coaches.id
	      LEFT JOIN class_types ON classes.type_id = class_types.id
	      WHERE 1=1`
	args := make([]interface{}, 0, 4)
	if f.Location != "" {
		q += ` AND classes.location = ?`
		args = append(args, f.Location)
	}
	if f.Branch != "" {
		q += ` AND classes.branch = ?`
		args = append(args, f.Branch)
	}
	q += ` ORDER BY classes.class_date, classes.start_time LIMIT ?, ?`
	args = append(args, (page-1)*perPage, perPage)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]CalendarRow, 0)
	for rows.Next() {
		var c CalendarRow
		var title, coachName sql.NullString
		if err := rows.Scan(&c.ID, &title, &c.CoachID, &coachName,
			&c.Location, &c.Branch, &c.ClassDate, &c.StartTime, &c.EndTime,
			&c.CurrentCapacity, &c.MaxCapacity); err != nil {
			return nil, err
		}
		c.Title = title.String
		c.CoachName = coachName.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// Occupancy is the read-only projection of a class's fill level.
type Occupancy struct {
	CurrentCapacity uint32 `json:"current_capacity"`
	MaxCapacity     uint32 `json:"max_capacity"`
}

// GetOccupancy returns the current and maximum capacity of a class. When the
// class does not exist, sql.ErrNoRows is returned.
func (r *ClassRepo) GetOccupancy(ctx context.Context, classID uint64) (Occupancy, error) {
	const q = `SELECT current_capacity, max_capacity FROM classes WHERE id = ?`
	var o Occupancy
	err := r.db.QueryRowContext(ctx, q, classID).Scan(&o.CurrentCapacity, &o.MaxCapacity)
	return o, err
}

// ReserveSeatTx claims one seat on the class inside the given transaction.
// The increment and the capacity check are a single statement, so of two
// racing bookings on the last seat exactly one sees an affected row. When no
// row is affected the class is either full or absent; a follow-up existence
// read distinguishes ErrClassFull from sql.ErrNoRows.
func (r *ClassRepo) ReserveSeatTx(ctx context.Context, tx *sql.Tx, classID uint64) error {
	const q = `UPDATE classes
	           SET current_capacity = current_capacity + 1
	           WHERE id = ? AND current_capacity < max_capacity`
	res, err := tx.ExecContext(ctx, q, classID)
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
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM classes WHERE id = ?`, classID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.ErrNoRows
	}
	if err != nil {
		return err
	}
	return ErrClassFull
}

// ReleaseSeatTx returns one seat to the class inside the given transaction.
// The decrement is guarded so current_capacity never drops below zero.
func (r *ClassRepo) ReleaseSeatTx(ctx context.Context, tx *sql.Tx, classID uint64) error {
	const q = `UPDATE classes
	           SET current_capacity = current_capacity - 1
	           WHERE id = ? AND current_capacity > 0`
	_, err := tx.ExecContext(ctx, q, classID)
	return err
}
