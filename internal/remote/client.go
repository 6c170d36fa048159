// Package remote talks to the planner server over its REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/existflow/weekplanner/internal/config"
	"github.com/existflow/weekplanner/internal/logger"
	"github.com/existflow/weekplanner/internal/model"
)

// Session is the persisted login
type Session struct {
	ServerURL string    `json:"server_url"`
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Option configures a Client
type Option func(*Client)

// WithSessionPath stores the session at path instead of ~/.weekplanner
func WithSessionPath(path string) Option {
	return func(c *Client) {
		c.sessionPath = path
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client is the planner API client
type Client struct {
	serverURL   string
	sessionPath string
	session     Session
	httpClient  *http.Client
}

// DefaultSessionPath returns ~/.weekplanner/session.json
func DefaultSessionPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// NewClient creates a client for serverURL and loads any saved session
func NewClient(serverURL string, opts ...Option) (*Client, error) {
	c := &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.sessionPath == "" {
		path, err := DefaultSessionPath()
		if err != nil {
			return nil, err
		}
		c.sessionPath = path
	}

	c.loadSession()
	return c, nil
}

func (c *Client) loadSession() {
	data, err := os.ReadFile(c.sessionPath)
	if err != nil {
		return
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		logger.Warn("Ignoring unreadable session file", logger.F("path", c.sessionPath), logger.F("error", err.Error()))
		return
	}
	// a session is only valid for the server that issued it
	if s.ServerURL == c.serverURL {
		c.session = s
	}
}

func (c *Client) saveSession() error {
	if err := os.MkdirAll(filepath.Dir(c.sessionPath), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c.session, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.sessionPath, data, 0600)
}

// ServerURL returns the server base URL
func (c *Client) ServerURL() string {
	return c.serverURL
}

// Session returns the current session
func (c *Client) Session() Session {
	return c.session
}

// IsLoggedIn returns true if a non-expired session is held
func (c *Client) IsLoggedIn() bool {
	if c.session.Token == "" {
		return false
	}
	return c.session.ExpiresAt.IsZero() || time.Now().Before(c.session.ExpiresAt)
}

// apiError is the error body the server returns
type apiError struct {
	Error string `json:"error"`
}

// do sends a JSON request and decodes a JSON response into out, if given
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+"/api/v1"+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	logger.Debug("API call",
		logger.F("method", method),
		logger.F("path", path),
		logger.F("status", resp.StatusCode),
		logger.F("duration", time.Since(start).String()))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(data))
	var ae apiError
	if json.Unmarshal(data, &ae) == nil && ae.Error != "" {
		msg = ae.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", model.ErrUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", model.ErrNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", model.ErrDuplicateClient, msg)
	}
	if msg == "" {
		msg = resp.Status
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}

// StatusError is a non-2xx reply without a more specific meaning
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// IsStatus reports whether err is a StatusError with code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
