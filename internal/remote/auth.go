package remote

import (
	"context"
	"fmt"
	"net/http"
)

// User is the identity the service reports for a session
type User struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// SessionInfo is the body of GET /auth/user/
type SessionInfo struct {
	IsAuthenticated bool  `json:"isAuthenticated"`
	User            *User `json:"user"`
}

// AuthResult is the body of a successful login or registration
type AuthResult struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// PrimeCSRF asks the service to set the anti-forgery cookie
func (c *Client) PrimeCSRF(ctx context.Context) error {
	c.primeMu.Lock()
	defer c.primeMu.Unlock()
	return c.primeCSRF(ctx)
}

func (c *Client) primeCSRF(ctx context.Context) error {
	if err := c.do(ctx, "csrf", c.base.New().Get("auth/csrf/"), nil); err != nil {
		return fmt.Errorf("priming CSRF token: %w", err)
	}
	return nil
}

// CurrentUser reports who the session belongs to. An anonymous session is
// returned as an AuthError, whether the service answers 403 or
// isAuthenticated: false.
func (c *Client) CurrentUser(ctx context.Context) (*SessionInfo, error) {
	var info SessionInfo
	if err := c.do(ctx, "current_user", c.base.New().Get("auth/user/"), &info); err != nil {
		return nil, err
	}
	if !info.IsAuthenticated || info.User == nil || info.User.Username == "" {
		return nil, &AuthError{Status: http.StatusUnauthorized, Message: "not logged in"}
	}
	return &info, nil
}

// Login primes the CSRF token and then authenticates the session
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if err := c.PrimeCSRF(ctx); err != nil {
		return nil, err
	}

	s, err := c.mutating(ctx)
	if err != nil {
		return nil, err
	}

	var result AuthResult
	body := credentials{Username: username, Password: password}
	if err := c.do(ctx, "login", s.Post("auth/login/").BodyJSON(body), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout ends the session on the service
func (c *Client) Logout(ctx context.Context) error {
	s, err := c.mutating(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, "logout", s.Post("auth/logout/"), nil)
}

// Register creates an account
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	s, err := c.mutating(ctx)
	if err != nil {
		return nil, err
	}

	var result AuthResult
	body := credentials{Username: username, Email: email, Password: password}
	if err := c.do(ctx, "register", s.Post("auth/register/").BodyJSON(body), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
