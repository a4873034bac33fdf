package handler

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gymboo/gym-backend/internal/config"
	"github.com/gymboo/gym-backend/internal/mailer"
	"github.com/gymboo/gym-backend/internal/queue"
	"github.com/gymboo/gym-backend/internal/repository"
	queue_publisher "github.com/gymboo/gym-backend/internal/service"
	"github.com/gymboo/gym-backend/internal/utils"
)

// PasswordHandler serves the authenticated change-password flow and the
// email-based forget-password flow.
type PasswordHandler struct {
	Cfg     config.Config
	Members *repository.MemberRepo
	Tokens  *repository.TokenRepo
	Mail    *mailer.Mailer
}

func NewPasswordHandler(cfg config.Config, members *repository.MemberRepo, tokens *repository.TokenRepo, mail *mailer.Mailer) *PasswordHandler {
	return &PasswordHandler{Cfg: cfg, Members: members, Tokens: tokens, Mail: mail}
}

type confirmPasswordRequest struct {
	Password string `json:"password"`
}

// ConfirmPassword verifies the caller's current password before the client
// shows the change form.
func (h *PasswordHandler) ConfirmPassword(c echo.Context) error {
	var req confirmPasswordRequest
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return badRequest(c, "password is required")
	}
	m, err := h.Members.GetByID(c.Request().Context(), memberID(c))
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "member not found")
	}
	if err != nil {
		return storageError(c)
	}
	if !utils.VerifyPassword(m.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "wrong password"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// ChangePassword sets a new password for the authenticated member and
// revokes their refresh tokens so old sessions die with the old password.
func (h *PasswordHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil || req.NewPassword == "" {
		return badRequest(c, "new_password is required")
	}
	if !utils.ValidPassword(req.NewPassword) {
		return badRequest(c, "password must be at least 8 characters with upper, lower, digit and special")
	}
	ctx := c.Request().Context()
	mid := memberID(c)
	m, err := h.Members.GetByID(ctx, mid)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "member not found")
	}
	if err != nil {
		return storageError(c)
	}
	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return storageError(c)
	}
	ok, err := h.Members.UpdatePasswordByID(ctx, mid, m.Email, hash)
	if err != nil {
		return storageError(c)
	}
	if !ok {
		return notFound(c, "member not found")
	}
	_ = h.Tokens.RevokeAllForMember(ctx, mid)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

type forgetPasswordRequest struct {
	Email string `json:"email"`
}

// ForgetPassword mails a reset link carrying a 15-minute token. Unknown
// emails return the same success response so the endpoint cannot be used to
// probe for accounts.
func (h *PasswordHandler) ForgetPassword(c echo.Context) error {
	var req forgetPasswordRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return badRequest(c, "email is required")
	}
	ctx := c.Request().Context()
	_, err := h.Members.GetByEmail(ctx, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	}
	if err != nil {
		return storageError(c)
	}
	token, _, err := utils.NewResetToken(h.Cfg.JWTSecret, req.Email)
	if err != nil {
		return storageError(c)
	}
	if h.Mail == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"success": false, "error": "mail is not configured"})
	}
	if err := h.Mail.SendPasswordReset(req.Email, h.Cfg.ClientURL, token); err != nil {
		log.Printf("forget-password: send mail: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"success": false, "error": "could not send reset mail"})
	}
	_ = queue_publisher.PublishPasswordReset(ctx, queue.PasswordResetEvent{
		Email:       req.Email,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword completes the email flow: the reset token proves control of
// the mailbox, then the hash is replaced and all sessions revoked.
func (h *PasswordHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		return badRequest(c, "token and new_password are required")
	}
	if !utils.ValidPassword(req.NewPassword) {
		return badRequest(c, "password must be at least 8 characters with upper, lower, digit and special")
	}
	email, err := utils.ParseResetToken(h.Cfg.JWTSecret, req.Token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "invalid or expired reset token"})
	}
	ctx := c.Request().Context()
	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return storageError(c)
	}
	ok, err := h.Members.UpdatePasswordByEmail(ctx, email, hash)
	if err != nil {
		return storageError(c)
	}
	if !ok {
		return notFound(c, "account not found")
	}
	if m, err := h.Members.GetByEmail(ctx, email); err == nil {
		_ = h.Tokens.RevokeAllForMember(ctx, m.ID)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
