package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/existflow/weekplanner/internal/model"
)

type authResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    string `json:"user_id"`
}

// User is the account returned by Me
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (c *Client) storeSession(resp authResponse) error {
	expires, _ := time.Parse(time.RFC3339, resp.ExpiresAt)
	c.session = Session{
		ServerURL: c.serverURL,
		Token:     resp.Token,
		UserID:    resp.UserID,
		ExpiresAt: expires,
	}
	return c.saveSession()
}

// Register creates a new account and signs in
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateClient) {
			return fmt.Errorf("register failed: username or email already exists")
		}
		return fmt.Errorf("register failed: %w", err)
	}
	return c.storeSession(resp)
}

// Login authenticates with a username or email and a password
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return c.storeSession(resp)
}

// RequestMagicLink asks for a login link. The token is returned when the
// server hands it out directly.
func (c *Client) RequestMagicLink(ctx context.Context, email string) (string, error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodPost, "/magic-link", map[string]string{"email": email}, &resp); err != nil {
		return "", err
	}
	return resp["token"], nil
}

// VerifyMagicLink exchanges a link token for a session
func (c *Client) VerifyMagicLink(ctx context.Context, token string) error {
	var resp authResponse
	if err := c.do(ctx, http.MethodGet, "/magic-link/"+url.PathEscape(token), nil, &resp); err != nil {
		return fmt.Errorf("magic link failed: %w", err)
	}
	return c.storeSession(resp)
}

// RequestPasswordReset asks for a reset link
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodPost, "/password-reset", map[string]string{"email": email}, &resp); err != nil {
		return "", err
	}
	return resp["token"], nil
}

// ConfirmPasswordReset sets a new password. Every session of the account
// ends, including this one.
func (c *Client) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	err := c.do(ctx, http.MethodPost, "/password-reset/confirm", map[string]string{
		"token":    token,
		"password": password,
	}, nil)
	if err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}
	c.session = Session{}
	return c.saveSession()
}

// Me returns the signed-in account
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/me", nil, &u)
	return u, err
}

// Logout ends the session on the server and forgets it locally
func (c *Client) Logout(ctx context.Context) error {
	var remoteErr error
	if c.session.Token != "" {
		remoteErr = c.do(ctx, http.MethodPost, "/logout", nil, nil)
	}
	c.session = Session{}
	if err := c.saveSession(); err != nil {
		return err
	}
	if remoteErr != nil && !errors.Is(remoteErr, model.ErrUnauthorized) {
		return remoteErr
	}
	return nil
}
