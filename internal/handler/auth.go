package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gymboo/gym-backend/internal/config"
	"github.com/gymboo/gym-backend/internal/repository"
	"github.com/gymboo/gym-backend/internal/utils"
)

// AuthHandler serves registration, login and token lifecycle endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Members *repository.MemberRepo
	Tokens  *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, members *repository.MemberRepo, tokens *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Members: members, Tokens: tokens}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a member account. Weak passwords and duplicate emails are
// rejected; the empty profile row is created in the same transaction as the
// account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email and password are required")
	}
	if !utils.ValidPassword(req.Password) {
		return badRequest(c, "password must be at least 8 characters with upper, lower, digit and special")
	}
	id, err := h.Members.Create(c.Request().Context(), req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "email already registered"})
		}
		return storageError(c)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "member_id": id})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginJWT authenticates a member and issues an access token plus a rotating
// refresh token. The JSON code field keeps the client contract: 400 missing
// fields, 410 unknown account, 420 wrong password.
func (h *AuthHandler) LoginJWT(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false, "code": 400, "error": "email and password are required",
		})
	}
	ctx := c.Request().Context()
	m, err := h.Members.GetByEmail(ctx, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusGone, echo.Map{
			"success": false, "code": 410, "error": "account not found",
		})
	}
	if err != nil {
		return storageError(c)
	}
	if !utils.VerifyPassword(m.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"success": false, "code": 420, "error": "wrong password",
		})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, m.ID, m.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return storageError(c)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return storageError(c)
	}
	if err := h.Tokens.Save(ctx, m.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"token":         access.Token,
		"expires_at":    access.Exp,
		"refresh_token": refresh.Raw,
		"member": echo.Map{
			"member_id": m.ID,
			"email":     m.Email,
			"name":      m.Name,
			"avatar":    m.Avatar,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued in one repository transaction, so a stolen token stops
// working the moment its owner uses it.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return badRequest(c, "refresh_token is required")
	}
	ctx := c.Request().Context()
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return storageError(c)
	}
	mid, err := h.Tokens.Rotate(ctx,
		utils.HashRefreshRaw(req.RefreshToken), utils.HashRefreshRaw(refresh.Raw), refresh.Exp)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "invalid refresh token"})
	}
	if err != nil {
		return storageError(c)
	}
	m, err := h.Members.GetByID(ctx, mid)
	if err != nil {
		return storageError(c)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, m.ID, m.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"token":         access.Token,
		"expires_at":    access.Exp,
		"refresh_token": refresh.Raw,
	})
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return badRequest(c, "refresh_token is required")
	}
	if err := h.Tokens.Revoke(c.Request().Context(), utils.HashRefreshRaw(req.RefreshToken)); err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// MemberName returns the caller's display name for the member center header.
func (h *AuthHandler) MemberName(c echo.Context) error {
	name, err := h.Members.GetName(c.Request().Context(), memberID(c))
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "member not found")
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "name": name})
}
