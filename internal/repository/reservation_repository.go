package repository

import (
	"context"
	"database/sql"
	"time"
)

// ReservationRepo provides CRUD operations for class reservations. Booking
// and cancellation always run inside a transaction shared with ClassRepo so
// that the reservation row and the occupancy counter move together.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationRecord mirrors the schema of the reservations table.
type ReservationRecord struct {
	ID              uint64
	MemberID        uint64
	ClassID         uint64
	CoachID         uint64
	ReservationDate string
	ReservationTime string
	Status          string
	CreatedAt       time.Time
}

// EnsureNoActiveTx returns ErrDuplicateReservation when the member already
// holds a non-cancelled reservation for the class. It runs inside the booking
// transaction so the duplicate check and the insert cannot be interleaved by
// another booking of the same member.
func (r *ReservationRepo) EnsureNoActiveTx(ctx context.Context, tx *sql.Tx, memberID, classID uint64) error {
	const q = `SELECT 1 FROM reservations
	           WHERE member_id = ? AND class_id = ? AND status <> 'cancelled'
	           LIMIT 1`
	var one int
	err := tx.QueryRowContext(ctx, q, memberID, classID).Scan(&one)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrDuplicateReservation
}

// CreateTx inserts a new confirmed reservation within the scope of an
// existing transaction. It populates the generated ID and creation timestamp
// on the provided record. The caller must commit or rollback.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *ReservationRecord) error {
	const q = `INSERT INTO reservations
	           (member_id, class_id, coach_id, reservation_date, reservation_time, status)
	           VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.MemberID, res.ClassID, res.CoachID,
		res.ReservationDate, res.ReservationTime, res.Status)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the row to populate the timestamp default
	const sel = `SELECT created_at FROM reservations WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt)
}

// CancelTx flips the member's confirmed reservation for the class to
// cancelled. It returns true when a row changed; repeating the call finds no
// confirmed row and returns false, so the caller never decrements occupancy
// twice.
func (r *ReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, memberID, classID uint64) (bool, error) {
	const q = `UPDATE reservations SET status = 'cancelled'
	           WHERE member_id = ? AND class_id = ? AND status = 'confirmed'`
	res, err := tx.ExecContext(ctx, q, memberID, classID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemberReservation is a reservation joined with class and coach details for
// display in the member center.
type MemberReservation struct {
	ID              uint64 `json:"id"`
	ClassID         uint64 `json:"class_id"`
	ClassTitle      string `json:"class_title"`
	CoachName       string `json:"coach_name"`
	Location        string `json:"location"`
	ReservationDate string `json:"reservation_date"`
	ReservationTime string `json:"reservation_time"`
	Status          string `json:"status"`
}

// ListByMember returns all reservations of a member, newest first.
func (r *ReservationRepo) ListByMember(ctx context.Context, memberID uint64) ([]MemberReservation, error) {
	const q = `SELECT r.id, r.class_id, ct.type_name, co.name, c.location,
	                  DATE_FORMAT(r.reservation_date, '%Y-%m-%d'),
	                  TIME_FORMAT(r.reservation_time, '%H:%i'),
	                  r.status
	           FROM reservations r
	           LEFT JOIN classes c ON c.id = r.class_id
	           LEFT JOIN class_types ct ON ct.id = c.type_id
	           LEFT JOIN coaches co ON co.id = r.coach_id
	           WHERE r.member_id = ?
	           ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MemberReservation, 0)
	for rows.Next() {
		var m MemberReservation
		var title, coach, location sql.NullString
		if err := rows.Scan(&m.ID, &m.ClassID, &title, &coach, &location,
			&m.ReservationDate, &m.ReservationTime, &m.Status); err != nil {
			return nil, err
		}
		m.ClassTitle = title.String
		m.CoachName = coach.String
		m.Location = location.String
		out = append(out, m)
	}
	return out, rows.Err()
}
