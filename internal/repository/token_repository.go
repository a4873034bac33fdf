package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo stores refresh-token hashes for member sessions. Raw tokens never
// reach the database; callers hash before handing them in. Validity is
// decided in SQL (not revoked, not past expires_at) so the clock used is the
// database's, and rotation is a single transaction so a presented token can
// only ever be exchanged once.
type TokenRepo struct {
	db *sql.DB
}

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// Save records a freshly issued refresh token hash for the member.
func (r *TokenRepo) Save(ctx context.Context, memberID uint64, hash string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (member_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		memberID, hash, expiresAt)
	return err
}

// Rotate exchanges a live refresh token for a new one: the presented hash is
// locked, revoked, and the replacement inserted, all in one transaction. It
// returns the owning member id, or sql.ErrNoRows when the presented token is
// unknown, revoked or expired. Two concurrent exchanges of the same token
// serialize on the row lock and the loser finds it already revoked.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash, newHash string, expiresAt time.Time) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var memberID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT member_id FROM refresh_tokens
		 WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()
		 FOR UPDATE`,
		oldHash).Scan(&memberID)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE token_hash = ?`, oldHash); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO refresh_tokens (member_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		memberID, newHash, expiresAt); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return memberID, nil
}

// Revoke marks one token as revoked. Revoking an unknown or already revoked
// hash is a no-op, so logout is idempotent.
func (r *TokenRepo) Revoke(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW()
		 WHERE token_hash = ? AND revoked_at IS NULL`, hash)
	return err
}

// RevokeAllForMember kills every live session of the member. Called after a
// password change or reset.
func (r *TokenRepo) RevokeAllForMember(ctx context.Context, memberID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW()
		 WHERE member_id = ? AND revoked_at IS NULL`, memberID)
	return err
}
