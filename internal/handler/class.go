package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gymboo/gym-backend/internal/model"
	"github.com/gymboo/gym-backend/internal/queue"
	"github.com/gymboo/gym-backend/internal/repository"
	queue_publisher "github.com/gymboo/gym-backend/internal/service"
)

// ClassHandler serves the class calendar, occupancy reads and the
// reservation lifecycle.
type ClassHandler struct {
	Classes      *repository.ClassRepo
	Reservations *repository.ReservationRepo
}

func NewClassHandler(classes *repository.ClassRepo, reservations *repository.ReservationRepo) *ClassHandler {
	return &ClassHandler{Classes: classes, Reservations: reservations}
}

const calendarPerPage = 10

// Calendar lists scheduled class sessions with location/branch filters.
func (h *ClassHandler) Calendar(c echo.Context) error {
	f := repository.CalendarFilter{
		Location: c.QueryParam("location"),
		Branch:   c.QueryParam("branch"),
	}
	page := pageParam(c)
	ctx := c.Request().Context()
	total, err := h.Classes.CountCalendar(ctx, f)
	if err != nil {
		return storageError(c)
	}
	rows, err := h.Classes.ListCalendar(ctx, f, page, calendarPerPage)
	if err != nil {
		return storageError(c)
	}
	return pagedResponse(c, rows, page, calendarPerPage, total)
}

// Occupancy returns {current_capacity, max_capacity} for one class.
func (h *ClassHandler) Occupancy(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid class id")
	}
	o, err := h.Classes.GetOccupancy(c.Request().Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "class not found")
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": o})
}

type bookRequest struct {
	ClassID         uint64 `json:"class_id"`
	CoachID         uint64 `json:"coach_id"`
	ReservationDate string `json:"reservation_date"`
	ReservationTime string `json:"reservation_time"`
}

// Book reserves one seat. The conditional capacity increment, the duplicate
// check and the reservation insert run in a single transaction, and the
// commit happens before the response is written. The class is checked first,
// so an unknown class reports 401 and a full one 402 even for a member who
// already booked it; a duplicate rolls the whole transaction back, which
// releases the just-claimed seat. The body code mirrors the HTTP status.
func (h *ClassHandler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.ClassID == 0 || req.ReservationDate == "" || req.ReservationTime == "" {
		return badRequest(c, "class_id, reservation_date and reservation_time are required")
	}
	ctx := c.Request().Context()
	mid := memberID(c)

	tx, err := h.Classes.DB().BeginTx(ctx, nil)
	if err != nil {
		return storageError(c)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Classes.ReserveSeatTx(ctx, tx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false, "code": 401, "error": "class not found",
			})
		}
		if errors.Is(err, repository.ErrClassFull) {
			return c.JSON(http.StatusPaymentRequired, echo.Map{
				"success": false, "code": 402, "error": "class is full",
			})
		}
		return storageError(c)
	}
	if err := h.Reservations.EnsureNoActiveTx(ctx, tx, mid, req.ClassID); err != nil {
		if errors.Is(err, repository.ErrDuplicateReservation) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false, "code": 400, "error": "class already booked",
			})
		}
		return storageError(c)
	}
	rec := repository.ReservationRecord{
		MemberID:        mid,
		ClassID:         req.ClassID,
		CoachID:         req.CoachID,
		ReservationDate: req.ReservationDate,
		ReservationTime: req.ReservationTime,
		Status:          model.ReservationConfirmed,
	}
	if err := h.Reservations.CreateTx(ctx, tx, &rec); err != nil {
		return storageError(c)
	}
	if err := tx.Commit(); err != nil {
		return storageError(c)
	}
	committed = true

	_ = queue_publisher.PublishReservationConfirmed(ctx, queue.ReservationConfirmedEvent{
		ReservationID: rec.ID,
		MemberID:      mid,
		ClassID:       req.ClassID,
		ClassDate:     req.ReservationDate,
		StartTime:     req.ReservationTime,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{
		"reservation_id":   rec.ID,
		"class_id":         rec.ClassID,
		"reservation_date": rec.ReservationDate,
		"reservation_time": rec.ReservationTime,
		"status":           rec.Status,
	}})
}

type cancelReservationRequest struct {
	ClassID uint64 `json:"class_id"`
	Status  string `json:"status"`
}

// CancelReservation flips the caller's confirmed reservation to cancelled
// and releases the seat in the same transaction. Repeating the call finds no
// confirmed row and reports 401 without touching the counter.
func (h *ClassHandler) CancelReservation(c echo.Context) error {
	var req cancelReservationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.ClassID == 0 || req.Status != model.ReservationCancelled {
		return badRequest(c, "class_id and status \"cancelled\" are required")
	}
	ctx := c.Request().Context()
	mid := memberID(c)

	tx, err := h.Classes.DB().BeginTx(ctx, nil)
	if err != nil {
		return storageError(c)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	changed, err := h.Reservations.CancelTx(ctx, tx, mid, req.ClassID)
	if err != nil {
		return storageError(c)
	}
	if !changed {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"success": false, "code": 401, "error": "no confirmed reservation for this class",
		})
	}
	if err := h.Classes.ReleaseSeatTx(ctx, tx, req.ClassID); err != nil {
		return storageError(c)
	}
	if err := tx.Commit(); err != nil {
		return storageError(c)
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// MyReservations lists the caller's reservations, newest first.
func (h *ClassHandler) MyReservations(c echo.Context) error {
	rows, err := h.Reservations.ListByMember(c.Request().Context(), memberID(c))
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}
