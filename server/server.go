package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/existflow/weekplanner/server/database"
)

const (
	sessionTTL = 30 * 24 * time.Hour
	linkTTL    = 15 * time.Minute
)

// Server is the planner record store and identity provider
type Server struct {
	store      *database.Store
	echo       *echo.Echo
	linkTokens bool
}

// Option configures a Server
type Option func(*Server)

// WithLinkTokens includes magic link and reset tokens in API responses.
// There is no mail delivery, so this is how clients receive them.
func WithLinkTokens(enabled bool) Option {
	return func(s *Server) {
		s.linkTokens = enabled
	}
}

// New connects to Postgres, runs migrations and builds the router
func New(dbURL string, opts ...Option) (*Server, error) {
	store, err := database.Open(dbURL)
	if err != nil {
		return nil, err
	}

	if err := migrate(context.Background(), store); err != nil {
		_ = store.Close()
		return nil, err
	}

	return NewWithStore(store, opts...), nil
}

// NewWithStore builds a server over an already migrated store
func NewWithStore(store *database.Store, opts ...Option) *Server {
	s := &Server{store: store, linkTokens: true}
	for _, opt := range opts {
		opt(s)
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.CORS())

	e.GET("/health", s.handleHealth)

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)

	// Auth endpoints (public)
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)
	api.POST("/magic-link", s.handleMagicLink)
	api.GET("/magic-link/:token", s.handleMagicLinkVerify)
	api.POST("/password-reset", s.handlePasswordReset)
	api.POST("/password-reset/confirm", s.handlePasswordResetConfirm)

	// Protected endpoints
	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.GET("/me", s.handleMe)
	protected.POST("/logout", s.handleLogout)

	protected.GET("/tasks", s.handleListPlaced)
	protected.GET("/tasks/inbox", s.handleListInbox)
	protected.POST("/tasks", s.handleCreateTask)
	protected.PATCH("/tasks/:id", s.handleUpdateTask)
	protected.DELETE("/tasks/:id", s.handleDeleteTask)

	protected.GET("/clients", s.handleListClients)
	protected.POST("/clients", s.handleCreateClient)

	protected.POST("/import", s.handleImport)

	s.echo = e
}

// Close closes the database connection
func (s *Server) Close() error {
	return s.store.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		return jsonError(c, http.StatusServiceUnavailable, "database unavailable")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// userStore returns the record store of the authenticated user
func (s *Server) userStore(c echo.Context) *database.UserStore {
	return s.store.ForUser(c.Get("user_id").(string))
}
