package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gymboo/gym-backend/internal/repository"
)

// CoachHandler serves the coach directory and the branch list.
type CoachHandler struct {
	Coaches   *repository.CoachRepo
	Locations *repository.LocationRepo
}

func NewCoachHandler(coaches *repository.CoachRepo, locations *repository.LocationRepo) *CoachHandler {
	return &CoachHandler{Coaches: coaches, Locations: locations}
}

const coachesPerPage = 8

// List returns one directory page with keyword/branch filters.
func (h *CoachHandler) List(c echo.Context) error {
	f := repository.CoachFilter{
		Keyword: c.QueryParam("keyword"),
		Branch:  c.QueryParam("branch"),
	}
	page := pageParam(c)
	ctx := c.Request().Context()
	total, err := h.Coaches.Count(ctx, f)
	if err != nil {
		return storageError(c)
	}
	rows, err := h.Coaches.List(ctx, f, page, coachesPerPage)
	if err != nil {
		return storageError(c)
	}
	return pagedResponse(c, rows, page, coachesPerPage, total)
}

// Detail returns one coach with certifications and social links.
func (h *CoachHandler) Detail(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid coach id")
	}
	d, err := h.Coaches.GetDetail(c.Request().Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "coach not found")
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": d})
}

// ListLocations returns all gym branches.
func (h *CoachHandler) ListLocations(c echo.Context) error {
	rows, err := h.Locations.ListAll(c.Request().Context())
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}
