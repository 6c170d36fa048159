package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/existflow/weekplanner/internal/logger"
	"github.com/existflow/weekplanner/internal/model"
	"github.com/existflow/weekplanner/server/database"
)

const linkSentMessage = "if email exists, a link will be sent"

type emailRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// issueLink creates a one-time link for an existing account. The reply is
// the same whether or not the email is known.
func (s *Server) issueLink(c echo.Context, purpose string) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return jsonError(c, http.StatusBadRequest, "email required")
	}

	ctx := c.Request().Context()
	if _, err := s.store.UserByEmail(ctx, email); err != nil {
		return c.JSON(http.StatusOK, map[string]string{"message": linkSentMessage})
	}

	token, err := newToken()
	if err != nil {
		logger.Error("Token generation failed", logger.F("error", err.Error()))
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	if err := s.store.CreateMagicLink(ctx, email, token, purpose, time.Now().Add(linkTTL)); err != nil {
		logger.Error("Failed to store link", logger.F("error", err.Error()))
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	logger.Info("Link created", logger.F("email", email), logger.F("purpose", purpose))

	resp := map[string]string{"message": linkSentMessage}
	if s.linkTokens {
		resp["token"] = token
	}
	return c.JSON(http.StatusOK, resp)
}

// handleMagicLink creates a magic link for passwordless login
func (s *Server) handleMagicLink(c echo.Context) error {
	return s.issueLink(c, model.LinkPurposeLogin)
}

// handlePasswordReset creates a password reset link
func (s *Server) handlePasswordReset(c echo.Context) error {
	return s.issueLink(c, model.LinkPurposeReset)
}

func linkError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, database.ErrLinkInvalid),
		errors.Is(err, database.ErrLinkUsed),
		errors.Is(err, database.ErrLinkExpired):
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	logger.Error("Link verification failed", logger.F("error", err.Error()))
	return jsonError(c, http.StatusInternalServerError, "internal error")
}

// handleMagicLinkVerify verifies a magic link and creates a session
func (s *Server) handleMagicLinkVerify(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return jsonError(c, http.StatusBadRequest, "token required")
	}

	ctx := c.Request().Context()
	link, err := s.store.ConsumeMagicLink(ctx, token, model.LinkPurposeLogin)
	if err != nil {
		return linkError(c, err)
	}

	user, err := s.store.UserByEmail(ctx, link.Email)
	if err != nil {
		return jsonError(c, http.StatusNotFound, "user not found")
	}

	logger.Info("Magic link login", logger.F("email", link.Email))
	return s.respondWithSession(c, user.ID)
}

// handlePasswordResetConfirm sets a new password from a reset link and
// signs out every device
func (s *Server) handlePasswordResetConfirm(c echo.Context) error {
	var req resetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if req.Token == "" {
		return jsonError(c, http.StatusBadRequest, "token required")
	}
	if len(req.Password) < minPasswordLength {
		return jsonError(c, http.StatusBadRequest, "password must be at least 8 characters")
	}

	ctx := c.Request().Context()
	link, err := s.store.ConsumeMagicLink(ctx, req.Token, model.LinkPurposeReset)
	if err != nil {
		return linkError(c, err)
	}

	user, err := s.store.UserByEmail(ctx, link.Email)
	if err != nil {
		return jsonError(c, http.StatusNotFound, "user not found")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("bcrypt error", logger.F("error", err.Error()))
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	if err := s.store.ResetPassword(ctx, user.ID, string(hash)); err != nil {
		logger.Error("Failed to reset password", logger.F("error", err.Error()))
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	logger.Info("Password reset", logger.F("email", link.Email))
	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}
