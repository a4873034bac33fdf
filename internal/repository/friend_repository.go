package repository

import (
	"context"
	"database/sql"
)

// FriendRepo manages friend requests and accepted friendships. A friendship
// row stores the pair ordered (member_low_id < member_high_id) so each pair
// exists exactly once.
type FriendRepo struct {
	db *sql.DB
}

// NewFriendRepo returns a new FriendRepo bound to the given database.
func NewFriendRepo(db *sql.DB) *FriendRepo { return &FriendRepo{db: db} }

// FriendRow is one accepted friend with their public profile fields.
type FriendRow struct {
	MemberID uint64  `json:"member_id"`
	Name     string  `json:"name"`
	Avatar   *string `json:"avatar"`
	Intro    string  `json:"intro"`
	Since    string  `json:"since"`
}

// CountFriends returns the number of accepted friends of the member.
func (r *FriendRepo) CountFriends(ctx context.Context, memberID uint64) (int, error) {
	const q = `SELECT COUNT(1) FROM friendships
	           WHERE member_low_id = ? OR member_high_id = ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, memberID, memberID).Scan(&n)
	return n, err
}

// ListFriends returns one page of the member's friends, most recent first.
func (r *FriendRepo) ListFriends(ctx context.Context, memberID uint64, page, perPage int) ([]FriendRow, error) {
	const q = `SELECT m.member_id, m.name, mp.avatar, mp.intro,
	                  DATE_FORMAT(f.created_at, '%Y-%m-%d')
	           FROM friendships f
	           JOIN member m
	             ON m.member_id = IF(f.member_low_id = ?, f.member_high_id, f.member_low_id)
	           LEFT JOIN member_profile mp ON mp.member_id = m.member_id
	           WHERE f.member_low_id = ? OR f.member_high_id = ?
	           ORDER BY f.created_at DESC
	           LIMIT ?, ?`
	rows, err := r.db.QueryContext(ctx, q, memberID, memberID, memberID, (page-1)*perPage, perPage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]FriendRow, 0)
	for rows.Next() {
		var fr FriendRow
		var name, intro sql.NullString
		var avatar sql.NullString
		if err := rows.Scan(&fr.MemberID, &name, &avatar, &intro, &fr.Since); err != nil {
			return nil, err
		}
		fr.Name = name.String
		fr.Intro = intro.String
		if avatar.Valid {
			a := avatar.String
			fr.Avatar = &a
		}
		out = append(out, fr)
	}
	return out, rows.Err()
}

// InviteRow is one pending friend request addressed to the member.
type InviteRow struct {
	RequestID uint64  `json:"request_id"`
	MemberID  uint64  `json:"member_id"`
	Name      string  `json:"name"`
	Avatar    *string `json:"avatar"`
	SentAt    string  `json:"sent_at"`
}

// ListInvites returns the pending requests addressed to the member, newest
// first.
func (r *FriendRepo) ListInvites(ctx context.Context, memberID uint64) ([]InviteRow, error) {
	const q = `SELECT fr.id, m.member_id, m.name, mp.avatar,
	                  DATE_FORMAT(fr.created_at, '%Y-%m-%d %H:%i:%s')
	           FROM friend_requests fr
	           JOIN member m ON m.member_id = fr.sender_id
	           LEFT JOIN member_profile mp ON mp.member_id = m.member_id
	           WHERE fr.receiver_id = ? AND fr.status = 'pending'
	           ORDER BY fr.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]InviteRow, 0)
	for rows.Next() {
		var iv InviteRow
		var name sql.NullString
		var avatar sql.NullString
		if err := rows.Scan(&iv.RequestID, &iv.MemberID, &name, &avatar, &iv.SentAt); err != nil {
			return nil, err
		}
		iv.Name = name.String
		if avatar.Valid {
			a := avatar.String
			iv.Avatar = &a
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// SendRequest creates a pending friend request from sender to receiver.
// Returns ErrInvalidState when the pair is already friends or a pending
// request already exists in either direction.
func (r *FriendRepo) SendRequest(ctx context.Context, senderID, receiverID uint64) (uint64, error) {
	low, high := orderPair(senderID, receiverID)
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM friendships WHERE member_low_id = ? AND member_high_id = ? LIMIT 1`,
		low, high).Scan(&one)
	if err == nil {
		return 0, ErrInvalidState
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT 1 FROM friend_requests
		 WHERE status = 'pending'
		   AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
		 LIMIT 1`,
		senderID, receiverID, receiverID, senderID).Scan(&one)
	if err == nil {
		return 0, ErrInvalidState
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO friend_requests (sender_id, receiver_id, status) VALUES (?, ?, 'pending')`,
		senderID, receiverID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// Accept turns a pending request into a friendship. The request must be
// addressed to memberID; accepting someone else's invite is ErrForbidden,
// and a request that is not pending is sql.ErrNoRows.
func (r *FriendRepo) Accept(ctx context.Context, memberID, requestID uint64) error {
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
	var senderID, receiverID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT sender_id, receiver_id FROM friend_requests
		 WHERE id = ? AND status = 'pending' FOR UPDATE`,
		requestID).Scan(&senderID, &receiverID)
	if err != nil {
		return err
	}
	if receiverID != memberID {
		return ErrForbidden
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE friend_requests SET status = 'accepted' WHERE id = ?`, requestID); err != nil {
		return err
	}
	low, high := orderPair(senderID, receiverID)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO friendships (member_low_id, member_high_id) VALUES (?, ?)`,
		low, high); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AreFriends reports whether the two members have an accepted friendship.
func (r *FriendRepo) AreFriends(ctx context.Context, a, b uint64) (bool, error) {
	low, high := orderPair(a, b)
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM friendships WHERE member_low_id = ? AND member_high_id = ? LIMIT 1`,
		low, high).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func orderPair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}
