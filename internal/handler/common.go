// Package handler contains the HTTP handlers. Handlers stay thin: bind and
// validate input, call a repository, map sentinel errors to responses.
package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// memberID reads the authenticated member id injected by the JWT middleware.
// Zero means the request is anonymous (possible under OptionalAuth).
func memberID(c echo.Context) uint64 {
	if v, ok := c.Get("member_id").(uint64); ok {
		return v
	}
	return 0
}

// pageParam parses the ?page= query, clamped to >= 1.
func pageParam(c echo.Context) int {
	p, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// idParam parses a numeric path parameter.
func idParam(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// pagedResponse is the listing envelope shared by the paginated endpoints.
func pagedResponse(c echo.Context, rows interface{}, page, perPage, totalRows int) error {
	totalPages := (totalRows + perPage - 1) / perPage
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"rows":       rows,
		"page":       page,
		"perPage":    perPage,
		"totalRows":  totalRows,
		"totalPages": totalPages,
	})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": msg})
}

func notFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": msg})
}

func storageError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "storage failure"})
}
