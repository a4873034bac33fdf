package repository

import (
	"context"
	"database/sql"
)

// CoachRepo provides the coach directory and per-coach detail with
// certifications and social links.
type CoachRepo struct {
	db *sql.DB
}

// NewCoachRepo returns a new CoachRepo bound to the given database.
func NewCoachRepo(db *sql.DB) *CoachRepo { return &CoachRepo{db: db} }

// CoachFilter narrows the directory listing. Zero values mean no filter.
type CoachFilter struct {
	Keyword string
	Branch  string
}

// CoachRow is one directory entry.
type CoachRow struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Specialty string  `json:"specialty"`
	Bio       string  `json:"bio"`
	ImageURL  *string `json:"image_url"`
	Branch    string  `json:"branch"`
}

func coachWhere(f CoachFilter, args *[]interface{}) string {
	w := ` WHERE 1=1`
	if f.Keyword != "" {
		w += ` AND (co.name LIKE ? OR co.specialty LIKE ?)`
		kw := "%" + f.Keyword + "%"
		*args = append(*args, kw, kw)
	}
	if f.Branch != "" {
		w += ` AND lo.branch = ?`
		*args = append(*args, f.Branch)
	}
	return w
}

// Count returns the number of coaches matching the filter.
func (r *CoachRepo) Count(ctx context.Context, f CoachFilter) (int, error) {
	args := make([]interface{}, 0, 3)
	q := `SELECT COUNT(1) FROM coaches co
	      LEFT JOIN locations lo ON co.location_id = lo.id` + coachWhere(f, &args)
	var n int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// List returns one page of the coach directory ordered by coach id.
func (r *CoachRepo) List(ctx context.Context, f CoachFilter, page, perPage int) ([]CoachRow, error) {
	args := make([]interface{}, 0, 5)
	q := `SELECT co.id, co.name, co.specialty, co.bio, co.image_url, lo.branch
	      FROM coaches co
	      LEFT JOIN locations lo ON co.location_id = lo.id` + coachWhere(f, &args)
	q += ` ORDER BY co.id LIMIT ?, ?`
	args = append(args, (page-1)*perPage, perPage)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]CoachRow, 0)
	for rows.Next() {
		var c CoachRow
		var img, branch sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Specialty, &c.Bio, &img, &branch); err != nil {
			return nil, err
		}
		if img.Valid {
			u := img.String
			c.ImageURL = &u
		}
		c.Branch = branch.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// Certification is one credential on the coach detail page.
type Certification struct {
	Title    string  `json:"title"`
	IssuedBy *string `json:"issued_by"`
}

// SocialLink is one social media handle of a coach.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// CoachDetail is the full coach page payload.
type CoachDetail struct {
	CoachRow
	Certifications []Certification `json:"certifications"`
	SocialMedia    []SocialLink    `json:"social_media"`
}

// GetDetail loads one coach with certifications and social links.
// sql.ErrNoRows when the coach does not exist.
func (r *CoachRepo) GetDetail(ctx context.Context, coachID uint64) (*CoachDetail, error) {
	const q = `SELECT co.id, co.name, co.specialty, co.bio, co.image_url, lo.branch
	           FROM coaches co
	           LEFT JOIN locations lo ON co.location_id = lo.id
	           WHERE co.id = ?`
	var d CoachDetail
	var img, branch sql.NullString
	err := r.db.QueryRowContext(ctx, q, coachID).Scan(
		&d.ID, &d.Name, &d.Specialty, &d.Bio, &img, &branch)
	if err != nil {
		return nil, err
	}
	if img.Valid {
		u := img.String
		d.ImageURL = &u
	}
	d.Branch = branch.String

	d.Certifications = []Certification{}
	certRows, err := r.db.QueryContext(ctx,
		`SELECT title, issued_by FROM coach_certifications WHERE coach_id = ? ORDER BY id`, coachID)
	if err != nil {
		return nil, err
	}
	defer certRows.Close()
	for certRows.Next() {
		var c Certification
		var issuer sql.NullString
		if err := certRows.Scan(&c.Title, &issuer); err != nil {
			return nil, err
		}
		if issuer.Valid {
			s := issuer.String
			c.IssuedBy = &s
		}
		d.Certifications = append(d.Certifications, c)
	}
	if err := certRows.Err(); err != nil {
		return nil, err
	}

	d.SocialMedia = []SocialLink{}
	smRows, err := r.db.QueryContext(ctx,
		`SELECT platform, url FROM coach_social_media WHERE coach_id = ? ORDER BY id`, coachID)
	if err != nil {
		return nil, err
	}
	defer smRows.Close()
	for smRows.Next() {
		var s SocialLink
		if err := smRows.Scan(&s.Platform, &s.URL); err != nil {
			return nil, err
		}
		d.SocialMedia = append(d.SocialMedia, s)
	}
	return &d, smRows.Err()
}
