package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gymboo/gym-backend/internal/repository"
)

// AddressHandler serves the member's personal address book.
type AddressHandler struct {
	Addresses *repository.AddressRepo
}

func NewAddressHandler(addresses *repository.AddressRepo) *AddressHandler {
	return &AddressHandler{Addresses: addresses}
}

const addressesPerPage = 30

func addressFilter(c echo.Context) repository.AddressFilter {
	month, _ := strconv.Atoi(c.QueryParam("birthdayMonth"))
	return repository.AddressFilter{
		Keyword:       c.QueryParam("keyword"),
		BirthdayMonth: month,
		SortField:     c.QueryParam("sortField"),
		SortRule:      c.QueryParam("sortRule"),
	}
}

// List returns one page of the caller's address book.
func (h *AddressHandler) List(c echo.Context) error {
	f := addressFilter(c)
	page := pageParam(c)
	ctx := c.Request().Context()
	mid := memberID(c)
	total, err := h.Addresses.Count(ctx, mid, f)
	if err != nil {
		return storageError(c)
	}
	rows, err := h.Addresses.List(ctx, mid, f, page, addressesPerPage)
	if err != nil {
		return storageError(c)
	}
	return pagedResponse(c, rows, page, addressesPerPage, total)
}

// Get returns one entry owned by the caller.
func (h *AddressHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid entry id")
	}
	a, err := h.Addresses.Get(c.Request().Context(), memberID(c), id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "entry not found")
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": a})
}

type addressRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Birthday string `json:"birthday"`
}

func (r addressRequest) input() repository.AddressInput {
	return repository.AddressInput{
		Name:     r.Name,
		Phone:    r.Phone,
		Email:    r.Email,
		Address:  r.Address,
		Birthday: r.Birthday,
	}
}

// Create adds a new entry.
func (h *AddressHandler) Create(c echo.Context) error {
	var req addressRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return badRequest(c, "name is required")
	}
	id, err := h.Addresses.Create(c.Request().Context(), memberID(c), req.input())
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "ab_id": id})
}

// Update rewrites an entry owned by the caller.
func (h *AddressHandler) Update(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid entry id")
	}
	var req addressRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return badRequest(c, "name is required")
	}
	ok, err := h.Addresses.Update(c.Request().Context(), memberID(c), id, req.input())
	if err != nil {
		return storageError(c)
	}
	if !ok {
		return notFound(c, "entry not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Delete removes an entry owned by the caller.
func (h *AddressHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid entry id")
	}
	ok, err := h.Addresses.Delete(c.Request().Context(), memberID(c), id)
	if err != nil {
		return storageError(c)
	}
	if !ok {
		return notFound(c, "entry not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
