package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gymboo/gym-backend/internal/repository"
)

// FriendHandler serves friend requests and the friend list.
type FriendHandler struct {
	Friends *repository.FriendRepo
}

func NewFriendHandler(friends *repository.FriendRepo) *FriendHandler {
	return &FriendHandler{Friends: friends}
}

const friendsPerPage = 12

// List returns one page of the caller's friends.
func (h *FriendHandler) List(c echo.Context) error {
	page := pageParam(c)
	ctx := c.Request().Context()
	mid := memberID(c)
	total, err := h.Friends.CountFriends(ctx, mid)
	if err != nil {
		return storageError(c)
	}
	rows, err := h.Friends.ListFriends(ctx, mid, page, friendsPerPage)
	if err != nil {
		return storageError(c)
	}
	return pagedResponse(c, rows, page, friendsPerPage, total)
}

// Invites lists the pending requests addressed to the caller.
func (h *FriendHandler) Invites(c echo.Context) error {
	rows, err := h.Friends.ListInvites(c.Request().Context(), memberID(c))
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}

type friendRequestBody struct {
	ReceiverID uint64 `json:"receiver_id"`
}

// Request sends a friend request. Duplicate requests and requests to an
// existing friend are rejected.
func (h *FriendHandler) Request(c echo.Context) error {
	var req friendRequestBody
	if err := c.Bind(&req); err != nil || req.ReceiverID == 0 {
		return badRequest(c, "receiver_id is required")
	}
	mid := memberID(c)
	if req.ReceiverID == mid {
		return badRequest(c, "cannot befriend yourself")
	}
	id, err := h.Friends.SendRequest(c.Request().Context(), mid, req.ReceiverID)
	if errors.Is(err, repository.ErrInvalidState) {
		return c.JSON(http.StatusConflict, echo.Map{
			"success": false, "error": "request already pending or already friends",
		})
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "request_id": id})
}

type acceptRequestBody struct {
	RequestID uint64 `json:"request_id"`
}

// Accept accepts a pending request addressed to the caller.
func (h *FriendHandler) Accept(c echo.Context) error {
	var req acceptRequestBody
	if err := c.Bind(&req); err != nil || req.RequestID == 0 {
		return badRequest(c, "request_id is required")
	}
	err := h.Friends.Accept(c.Request().Context(), memberID(c), req.RequestID)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "no pending request with this id")
	}
	if errors.Is(err, repository.ErrForbidden) {
		return c.JSON(http.StatusForbidden, echo.Map{
			"success": false, "error": "request is not addressed to you",
		})
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
