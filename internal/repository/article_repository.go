package repository

import (
	"context"
	"database/sql"
)

// ArticleRepo provides the fitness article feed: paginated listing with
// keyword/category filters, the most-viewed shortlist and per-member likes.
type ArticleRepo struct {
	db *sql.DB
}

// NewArticleRepo returns a new ArticleRepo bound to the given database.
func NewArticleRepo(db *sql.DB) *ArticleRepo { return &ArticleRepo{db: db} }

// ArticleFilter narrows the article listing. Zero values mean no filter.
type ArticleFilter struct {
	Keyword  string
	Category string
}

// ArticleRow is one feed entry. LikeID is set only for authenticated callers
// that liked the article.
type ArticleRow struct {
	ID        uint64  `json:"id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Category  string  `json:"category"`
	ImageURL  *string `json:"image_url"`
	Views     int     `json:"views"`
	CreatedAt string  `json:"created_at"`
	LikeID    *uint64 `json:"like_id,omitempty"`
}

func articleWhere(f ArticleFilter, args *[]interface{}) string {
	w := ` WHERE 1=1`
	if f.Keyword != "" {
		w += ` AND (a.title LIKE ? OR a.content LIKE ?)`
		kw := "%" + f.Keyword + "%"
		*args = append(*args, kw, kw)
	}
	if f.Category != "" {
		w += ` AND a.category = ?`
		*args = append(*args, f.Category)
	}
	return w
}

// Count returns the number of articles matching the filter.
func (r *ArticleRepo) Count(ctx context.Context, f ArticleFilter) (int, error) {
	args := make([]interface{}, 0, 3)
	q := `SELECT COUNT(1) FROM articles a` + articleWhere(f, &args)
	var n int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// List returns one page of articles, newest first. When memberID is non-zero
// each row carries the caller's like id if any.
func (r *ArticleRepo) List(ctx context.Context, f ArticleFilter, memberID uint64, page, perPage int) ([]ArticleRow, error) {
	args := make([]interface{}, 0, 6)
	var q string
	if memberID > 0 {
		args = append(args, memberID)
		q = `SELECT a.id, a.title, a.content, a.category, a.image_url, a.views,
		            DATE_FORMAT(a.created_at, '%Y-%m-%d'), l.id
		     FROM articles a
		     LEFT JOIN (SELECT id, article_id FROM article_favorites WHERE member_id = ?) l
		       ON a.id = l.article_id` + articleWhere(f, &args)
	} else {
		q = `SELECT a.id, a.title, a.content, a.category, a.image_url, a.views,
		            DATE_FORMAT(a.created_at, '%Y-%m-%d'), NULL
		     FROM articles a` + articleWhere(f, &args)
	}
	q += ` ORDER BY a.created_at DESC, a.id DESC LIMIT ?, ?`
	args = append(args, (page-1)*perPage, perPage)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ArticleRow, 0)
	for rows.Next() {
		var a ArticleRow
		var img sql.NullString
		var likeID sql.NullInt64
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Category, &img,
			&a.Views, &a.CreatedAt, &likeID); err != nil {
			return nil, err
		}
		if img.Valid {
			u := img.String
			a.ImageURL = &u
		}
		if likeID.Valid {
			v := uint64(likeID.Int64)
			a.LikeID = &v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// TopFive returns the five most viewed articles.
func (r *ArticleRepo) TopFive(ctx context.Context) ([]ArticleRow, error) {
	const q = `SELECT a.id, a.title, a.content, a.category, a.image_url, a.views,
	                  DATE_FORMAT(a.created_at, '%Y-%m-%d')
	           FROM articles a
	           ORDER BY a.views DESC
	           LIMIT 5`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ArticleRow, 0, 5)
	for rows.Next() {
		var a ArticleRow
		var img sql.NullString
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Category, &img,
			&a.Views, &a.CreatedAt); err != nil {
			return nil, err
		}
		if img.Valid {
			u := img.String
			a.ImageURL = &u
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get loads one article and bumps its view counter. sql.ErrNoRows when the
// article does not exist.
func (r *ArticleRepo) Get(ctx context.Context, articleID uint64) (*ArticleRow, error) {
	const q = `SELECT a.id, a.title, a.content, a.category, a.image_url, a.views,
	                  DATE_FORMAT(a.created_at, '%Y-%m-%d')
	           FROM articles a WHERE a.id = ?`
	var a ArticleRow
	var img sql.NullString
	err := r.db.QueryRowContext(ctx, q, articleID).Scan(
		&a.ID, &a.Title, &a.Content, &a.Category, &img, &a.Views, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if img.Valid {
		u := img.String
		a.ImageURL = &u
	}
	// The increment is best effort, a lost bump does not hurt the feed.
	_, _ = r.db.ExecContext(ctx, `UPDATE articles SET views = views + 1 WHERE id = ?`, articleID)
	return &a, nil
}

// ToggleLike likes the article when not yet liked and removes the like
// otherwise. Returns the action taken, or sql.ErrNoRows when the article
// does not exist.
func (r *ArticleRepo) ToggleLike(ctx context.Context, memberID, articleID uint64) (string, error) {
	const q = `SELECT l.id
	           FROM articles a
	           LEFT JOIN (SELECT id, article_id FROM article_favorites WHERE member_id = ?) l
	             ON a.id = l.article_id
	           WHERE a.id = ?`
	var likeID sql.NullInt64
	if err := r.db.QueryRowContext(ctx, q, memberID, articleID).Scan(&likeID); err != nil {
		return "", err
	}
	if likeID.Valid {
		_, err := r.db.ExecContext(ctx, `DELETE FROM article_favorites WHERE id = ?`, likeID.Int64)
		return ToggleRemoved, err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO article_favorites (member_id, article_id) VALUES (?, ?)`, memberID, articleID)
	return ToggleAdded, err
}

// ListLiked returns the articles the member liked, newest like first.
func (r *ArticleRepo) ListLiked(ctx context.Context, memberID uint64) ([]ArticleRow, error) {
	const q = `SELECT a.id, a.title, a.content, a.category, a.image_url, a.views,
	                  DATE_FORMAT(a.created_at, '%Y-%m-%d'), l.id
	           FROM article_favorites l
	           JOIN articles a ON l.article_id = a.id
	           WHERE l.member_id = ?
	           ORDER BY l.id DESC`
	rows, err := r.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ArticleRow, 0)
	for rows.Next() {
		var a ArticleRow
		var img sql.NullString
		var likeID uint64
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Category, &img,
			&a.Views, &a.CreatedAt, &likeID); err != nil {
			return nil, err
		}
		if img.Valid {
			u := img.String
			a.ImageURL = &u
		}
		a.LikeID = &likeID
		out = append(out, a)
	}
	return out, rows.Err()
}
