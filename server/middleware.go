package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/existflow/weekplanner/internal/logger"
	"github.com/existflow/weekplanner/internal/model"
)

// requestLogger logs every request and its outcome
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		res := c.Response()
		fields := []logger.Field{
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()),
			logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)),
		}
		if res.Status >= http.StatusInternalServerError {
			logger.Error("HTTP Request", fields...)
		} else {
			logger.Info("HTTP Request", fields...)
		}
		return nil
	}
}

// authMiddleware checks for valid session token
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Get token from Authorization header
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return jsonError(c, http.StatusUnauthorized, "authorization required")
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token == "" {
			return jsonError(c, http.StatusUnauthorized, "invalid authorization format")
		}

		session, err := s.store.SessionByToken(c.Request().Context(), token)
		if errors.Is(err, model.ErrUnauthorized) {
			return jsonError(c, http.StatusUnauthorized, "invalid token")
		}
		if err != nil {
			logger.Error("Session lookup failed", logger.F("error", err.Error()))
			return jsonError(c, http.StatusInternalServerError, "internal error")
		}

		if session.IsExpired() {
			return jsonError(c, http.StatusUnauthorized, "token expired")
		}

		c.Set("user_id", session.UserID)
		c.Set("token", token)
		return next(c)
	}
}
