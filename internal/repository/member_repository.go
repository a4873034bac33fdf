package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/gymboo/gym-backend/internal/utils"
)

// Member mirrors the 'member' table joined with the avatar from
// member_profile where needed.
type Member struct {
	ID           uint64
	Email        string
	PasswordHash string
	Name         string
	Nickname     string
	Avatar       *string
	CreatedAt    time.Time
}

// MemberRepo persists member accounts and their profiles.
type MemberRepo struct{ DB *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{DB: db} }

// Create registers a member and creates the empty profile row in the same
// transaction, so a member never exists without a profile. Returns the new
// member id, or ErrEmailExists on a duplicate email.
func (r *MemberRepo) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO member (email, password_hash) VALUES (?,?)", email, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO member_profile (member_id) VALUES (?)", id); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(id), nil
}

// GetByEmail fetches a member with their avatar by normalized email.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var m Member
	var name, nickname sql.NullString
	var avatar sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT m.member_id, m.email, m.password_hash, m.name, m.nickname, mp.avatar, m.created_at
		 FROM member m
		 LEFT JOIN member_profile mp ON mp.member_id = m.member_id
		 WHERE m.email = ? LIMIT 1`,
		email).Scan(&m.ID, &m.Email, &m.PasswordHash, &name, &nickname, &avatar, &m.CreatedAt)
	if err != nil {
		return m, err
	}
	m.Name = name.String
	m.Nickname = nickname.String
	if avatar.Valid {
		a := avatar.String
		m.Avatar = &a
	}
	return m, nil
}

// GetByID fetches a member by id.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (Member, error) {
	var m Member
	var name, nickname sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT member_id, email, password_hash, name, nickname, created_at FROM member WHERE member_id = ? LIMIT 1",
		id).Scan(&m.ID, &m.Email, &m.PasswordHash, &name, &nickname, &m.CreatedAt)
	if err != nil {
		return m, err
	}
	m.Name = name.String
	m.Nickname = nickname.String
	return m, nil
}

// GetName returns only the display name of a member.
func (r *MemberRepo) GetName(ctx context.Context, id uint64) (string, error) {
	var name sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT name FROM member WHERE member_id = ?", id).Scan(&name)
	return name.String, err
}

// UpdatePasswordByID replaces the password hash for a member identified by
// id and email together, matching how the change-password flow scopes the
// update to the authenticated identity.
func (r *MemberRepo) UpdatePasswordByID(ctx context.Context, id uint64, email, newHash string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE member SET password_hash = ? WHERE member_id = ? AND email = ?",
		newHash, id, email)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdatePasswordByEmail replaces the password hash for the account behind a
// verified reset token.
func (r *MemberRepo) UpdatePasswordByEmail(ctx context.Context, email, newHash string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE member SET password_hash = ? WHERE email = ?", newHash, email)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Profile is a member's profile joined with the display name.
type Profile struct {
	MemberID uint64  `json:"member_id"`
	Name     string  `json:"name"`
	Avatar   *string `json:"avatar"`
	Sex      *string `json:"sex"`
	Intro    string  `json:"intro"`
	Items    string  `json:"item"`
	Goal     string  `json:"goal"`
	Status   bool    `json:"status"`
}

// GetProfile loads the profile of a member. sql.ErrNoRows when absent.
func (r *MemberRepo) GetProfile(ctx context.Context, id uint64) (Profile, error) {
	var p Profile
	var name, intro, items, goal sql.NullString
	var avatar, sex sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT mp.member_id, m.name, mp.avatar, mp.sex, mp.intro, mp.item, mp.goal, mp.status
		 FROM member_profile mp
		 LEFT JOIN member m ON m.member_id = mp.member_id
		 WHERE mp.member_id = ?`,
		id).Scan(&p.MemberID, &name, &avatar, &sex, &intro, &items, &goal, &p.Status)
	if err != nil {
		return p, err
	}
	p.Name = name.String
	p.Intro = intro.String
	p.Items = items.String
	p.Goal = goal.String
	if avatar.Valid {
		a := avatar.String
		p.Avatar = &a
	}
	if sex.Valid {
		s := sex.String
		p.Sex = &s
	}
	return p, nil
}

// UpdateProfile saves the editable profile fields.
func (r *MemberRepo) UpdateProfile(ctx context.Context, id uint64, intro, items, goal string, status bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE member_profile SET intro = ?, item = ?, goal = ?, status = ? WHERE member_id = ?",
		intro, items, goal, status, id)
	return err
}

// GymFriendFilter narrows the public profile listing.
type GymFriendFilter struct {
	Gender string
	Goal   string
}

// CountPublicProfiles returns how many public profiles match the filter.
func (r *MemberRepo) CountPublicProfiles(ctx context.Context, f GymFriendFilter) (int, error) {
	q := `SELECT COUNT(*) FROM member
	      LEFT JOIN member_profile mp ON member.member_id = mp.member_id
	      WHERE mp.status = 1`
	args := make([]interface{}, 0, 2)
	if f.Goal != "" {
		q += ` AND FIND_IN_SET(?, mp.goal)`
		args = append(args, f.Goal)
	}
	if f.Gender != "" {
		q += ` AND mp.sex = ?`
		args = append(args, f.Gender)
	}
	var n int
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// ListPublicProfiles returns one page of public member profiles for the
// gym-friend directory.
func (r *MemberRepo) ListPublicProfiles(ctx context.Context, f GymFriendFilter, page, perPage int) ([]Profile, error) {
	q := `SELECT mp.member_id, member.name, mp.avatar, mp.sex, mp.intro, mp.item, mp.goal, mp.status
	      FROM member
	      LEFT JOIN member_profile mp ON member.member_id = mp.member_id
	      WHERE mp.status = 1`
	args := make([]interface{}, 0, 4)
	if f.Goal != "" {
		q += ` AND FIND_IN_SET(?, mp.goal)`
		args = append(args, f.Goal)
	}
	if f.Gender != "" {
		q += ` AND mp.sex = ?`
		args = append(args, f.Gender)
	}
	q += ` ORDER BY mp.member_id LIMIT ?, ?`
	args = append(args, (page-1)*perPage, perPage)
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Profile, 0)
	for rows.Next() {
		var p Profile
		var name, intro, items, goal sql.NullString
		var avatar, sex sql.NullString
		if err := rows.Scan(&p.MemberID, &name, &avatar, &sex, &intro, &items, &goal, &p.Status); err != nil {
			return nil, err
		}
		p.Name = name.String
		p.Intro = intro.String
		p.Items = items.String
		p.Goal = goal.String
		if avatar.Valid {
			a := avatar.String
			p.Avatar = &a
		}
		if sex.Valid {
			s := sex.String
			p.Sex = &s
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
