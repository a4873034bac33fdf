package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gymboo/gym-backend/internal/repository"
)

// ProductHandler serves the rental catalogue, reviews and favorites.
type ProductHandler struct {
	Products  *repository.ProductRepo
	Reviews   *repository.ReviewRepo
	Favorites *repository.FavoriteRepo
}

func NewProductHandler(products *repository.ProductRepo, reviews *repository.ReviewRepo, favorites *repository.FavoriteRepo) *ProductHandler {
	return &ProductHandler{Products: products, Reviews: reviews, Favorites: favorites}
}

const (
	productsPerPage = 12
	reviewsPerPage  = 5
	relatedLimit    = 4
)

// List returns one catalogue page with keyword/category filters. Logged-in
// callers get their favorite state on each row.
func (h *ProductHandler) List(c echo.Context) error {
	f := repository.ProductFilter{
		Keyword:  c.QueryParam("keyword"),
		Category: c.QueryParam("category"),
	}
	page := pageParam(c)
	ctx := c.Request().Context()
	total, err := h.Products.Count(ctx, f)
	if err != nil {
		return storageError(c)
	}
	rows, err := h.Products.List(ctx, f, memberID(c), page, productsPerPage)
	if err != nil {
		return storageError(c)
	}
	return pagedResponse(c, rows, page, productsPerPage, total)
}

// Detail returns one product with variants, related products and the
// caller's favorite state.
func (h *ProductHandler) Detail(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid product id")
	}
	ctx := c.Request().Context()
	d, err := h.Products.GetDetail(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "product not found")
	}
	if err != nil {
		return storageError(c)
	}
	if mid := memberID(c); mid > 0 {
		likeID, err := h.Favorites.GetLikeID(ctx, mid, id)
		if err != nil {
			return storageError(c)
		}
		d.LikeID = likeID
	}
	related, err := h.Products.ListRelated(ctx, d.CategoryName, id, relatedLimit)
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": d, "related": related})
}

// ListReviews returns one page of a product's reviews.
func (h *ProductHandler) ListReviews(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid product id")
	}
	page := pageParam(c)
	rows, err := h.Reviews.ListByProduct(c.Request().Context(), id, page, reviewsPerPage)
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows, "page": page})
}

// Reviewable lists the caller's returned order items with any existing
// review.
func (h *ProductHandler) Reviewable(c echo.Context) error {
	rows, err := h.Reviews.ListReviewable(c.Request().Context(), memberID(c), false)
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}

// PendingReviews lists returned order items the caller has not reviewed yet.
func (h *ProductHandler) PendingReviews(c echo.Context) error {
	rows, err := h.Reviews.ListReviewable(c.Request().Context(), memberID(c), true)
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}

type reviewRequest struct {
	ProductID   uint64 `json:"product_id"`
	OrderItemID uint64 `json:"order_item_id"`
	Rating      uint8  `json:"rating"`
	ReviewText  string `json:"review_text"`
}

func (r reviewRequest) valid() bool {
	return r.ProductID > 0 && r.OrderItemID > 0 && r.Rating >= 1 && r.Rating <= 5
}

// AddReview creates a review for a returned rental owned by the caller.
func (h *ProductHandler) AddReview(c echo.Context) error {
	var req reviewRequest
	if err := c.Bind(&req); err != nil || !req.valid() {
		return badRequest(c, "product_id, order_item_id and a rating 1-5 are required")
	}
	ctx := c.Request().Context()
	mid := memberID(c)
	ok, err := h.Reviews.EligibleForReview(ctx, mid, req.ProductID, req.OrderItemID)
	if err != nil {
		return storageError(c)
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{
			"success": false, "error": "only returned rentals can be reviewed",
		})
	}
	exists, err := h.Reviews.Exists(ctx, mid, req.ProductID, req.OrderItemID)
	if err != nil {
		return storageError(c)
	}
	if exists {
		return c.JSON(http.StatusConflict, echo.Map{
			"success": false, "error": "rental already reviewed",
		})
	}
	if err := h.Reviews.Create(ctx, mid, req.ProductID, req.OrderItemID, req.Rating, req.ReviewText); err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true})
}

// EditReview rewrites the caller's existing review.
func (h *ProductHandler) EditReview(c echo.Context) error {
	var req reviewRequest
	if err := c.Bind(&req); err != nil || !req.valid() {
		return badRequest(c, "product_id, order_item_id and a rating 1-5 are required")
	}
	ok, err := h.Reviews.Update(c.Request().Context(), memberID(c),
		req.ProductID, req.OrderItemID, req.Rating, req.ReviewText)
	if err != nil {
		return storageError(c)
	}
	if !ok {
		return notFound(c, "review not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ToggleLike adds or removes the product from the caller's favorites.
func (h *ProductHandler) ToggleLike(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid product id")
	}
	action, err := h.Favorites.Toggle(c.Request().Context(), memberID(c), id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "product not found")
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "action": action})
}

// ListFavorites lists the caller's favorited products.
func (h *ProductHandler) ListFavorites(c echo.Context) error {
	rows, err := h.Favorites.ListByMember(c.Request().Context(), memberID(c))
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}

// RemoveFavorite deletes one favorite by product id.
func (h *ProductHandler) RemoveFavorite(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid product id")
	}
	ok, err := h.Favorites.Remove(c.Request().Context(), memberID(c), id)
	if err != nil {
		return storageError(c)
	}
	if !ok {
		return notFound(c, "favorite not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
