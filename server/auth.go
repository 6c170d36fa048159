package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
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

const minPasswordLength = 8

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	// Username also accepts an email address
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    string `json:"user_id"`
}

// handleRegister handles user registration
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "username, email, and password required")
	}
	if len(req.Password) < minPasswordLength {
		return jsonError(c, http.StatusBadRequest, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("bcrypt error", logger.F("error", err.Error()))
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	ctx := c.Request().Context()
	user, err := s.store.CreateUser(ctx, req.Username, req.Email, string(hash))
	if errors.Is(err, database.ErrUserExists) {
		return jsonError(c, http.StatusConflict, err.Error())
	}
	if err != nil {
		logger.Error("Failed to create user", logger.F("error", err.Error()))
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	logger.Info("User registered", logger.F("username", user.Username))
	return s.respondWithSession(c, user.ID)
}

// handleLogin handles user login
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	ctx := c.Request().Context()
	ident := strings.TrimSpace(req.Username)

	var (
		user model.User
		err  error
	)
	if strings.Contains(ident, "@") {
		user, err = s.store.UserByEmail(ctx, strings.ToLower(ident))
	} else {
		user, err = s.store.UserByUsername(ctx, ident)
	}
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			logger.Error("User lookup failed", logger.F("error", err.Error()))
		}
		return jsonError(c, http.StatusUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return jsonError(c, http.StatusUnauthorized, "invalid credentials")
	}

	logger.Info("User logged in", logger.F("username", user.Username))
	return s.respondWithSession(c, user.ID)
}

// handleMe returns current user info
func (s *Server) handleMe(c echo.Context) error {
	user, err := s.store.UserByID(c.Request().Context(), c.Get("user_id").(string))
	if err != nil {
		return jsonError(c, http.StatusNotFound, "user not found")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// handleLogout ends the current session
func (s *Server) handleLogout(c echo.Context) error {
	if err := s.store.DeleteSession(c.Request().Context(), c.Get("token").(string)); err != nil {
		logger.Error("Failed to end session", logger.F("error", err.Error()))
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) respondWithSession(c echo.Context, userID string) error {
	token, expiresAt, err := s.createSession(c.Request().Context(), userID)
	if err != nil {
		logger.Error("Failed to create session", logger.F("error", err.Error()))
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, authResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		UserID:    userID,
	})
}

// createSession creates a new session for a user
func (s *Server) createSession(ctx context.Context, userID string) (string, time.Time, error) {
	token, err := newToken()
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := time.Now().Add(sessionTTL)
	if err := s.store.CreateSession(ctx, userID, token, expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// newToken returns 32 random bytes, hex encoded
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
