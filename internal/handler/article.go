package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gymboo/gym-backend/internal/repository"
)

// ArticleHandler serves the fitness article feed.
type ArticleHandler struct {
	Articles *repository.ArticleRepo
}

func NewArticleHandler(articles *repository.ArticleRepo) *ArticleHandler {
	return &ArticleHandler{Articles: articles}
}

const articlesPerPage = 6

// List returns one feed page with keyword/category filters and, for
// logged-in callers, like state.
func (h *ArticleHandler) List(c echo.Context) error {
	f := repository.ArticleFilter{
		Keyword:  c.QueryParam("keyword"),
		Category: c.QueryParam("category"),
	}
	page := pageParam(c)
	ctx := c.Request().Context()
	total, err := h.Articles.Count(ctx, f)
	if err != nil {
		return storageError(c)
	}
	rows, err := h.Articles.List(ctx, f, memberID(c), page, articlesPerPage)
	if err != nil {
		return storageError(c)
	}
	return pagedResponse(c, rows, page, articlesPerPage, total)
}

// TopFive returns the five most viewed articles.
func (h *ArticleHandler) TopFive(c echo.Context) error {
	rows, err := h.Articles.TopFive(c.Request().Context())
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}

// Get returns one article and counts the view.
func (h *ArticleHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid article id")
	}
	a, err := h.Articles.Get(c.Request().Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "article not found")
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": a})
}

// ToggleLike adds or removes the caller's like on an article.
func (h *ArticleHandler) ToggleLike(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid article id")
	}
	action, err := h.Articles.ToggleLike(c.Request().Context(), memberID(c), id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "article not found")
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "action": action})
}

// Liked lists the articles the caller liked.
func (h *ArticleHandler) Liked(c echo.Context) error {
	rows, err := h.Articles.ListLiked(c.Request().Context(), memberID(c))
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}
