package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/gymboo/gym-backend/internal/repository"
)

// ProfileHandler serves the member profile and the public gym-friend
// directory.
type ProfileHandler struct {
	Members *repository.MemberRepo
}

func NewProfileHandler(members *repository.MemberRepo) *ProfileHandler {
	return &ProfileHandler{Members: members}
}

// GetProfile returns the caller's profile.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	p, err := h.Members.GetProfile(c.Request().Context(), memberID(c))
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "profile not found")
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": p})
}

type editProfileRequest struct {
	Intro  string `json:"intro"`
	Items  string `json:"item"`
	Goal   string `json:"goal"`
	Status bool   `json:"status"`
}

// EditProfile saves the editable profile fields. A profile can only go
// public with an intro of at least 30 characters, so the directory never
// shows empty cards.
func (h *ProfileHandler) EditProfile(c echo.Context) error {
	var req editProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Status && utf8.RuneCountInString(req.Intro) < 30 {
		return badRequest(c, "public profiles need an intro of at least 30 characters")
	}
	if err := h.Members.UpdateProfile(c.Request().Context(), memberID(c),
		req.Intro, req.Items, req.Goal, req.Status); err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

const gymFriendsPerPage = 12

// GymFriends lists public member profiles with gender/goal filters.
func (h *ProfileHandler) GymFriends(c echo.Context) error {
	f := repository.GymFriendFilter{
		Gender: c.QueryParam("gender"),
		Goal:   c.QueryParam("goal"),
	}
	page := pageParam(c)
	ctx := c.Request().Context()
	total, err := h.Members.CountPublicProfiles(ctx, f)
	if err != nil {
		return storageError(c)
	}
	rows, err := h.Members.ListPublicProfiles(ctx, f, page, gymFriendsPerPage)
	if err != nil {
		return storageError(c)
	}
	return pagedResponse(c, rows, page, gymFriendsPerPage, total)
}
