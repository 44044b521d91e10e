package store

import (
	"context"
	"net/http"

	"petalboard/internal/models"
)

// SessionResponse is what the auth endpoints hand back on success.
type SessionResponse struct {
	Token   string         `json:"token"`
	Account models.Account `json:"account"`
}

// Register creates an account and installs the returned session token.
func (c *Client) Register(ctx context.Context, email, password string) (*models.Account, error) {
	return c.session(ctx, "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Login signs in with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*models.Account, error) {
	return c.session(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// LoginWithGoogle exchanges a provider ID token for a session.
func (c *Client) LoginWithGoogle(ctx context.Context, idToken string) (*models.Account, error) {
	return c.session(ctx, "/api/auth/google", map[string]string{
		"id_token": idToken,
	})
}

// RequestPasswordReset asks the server to mail a reset token.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/reset/request",
		map[string]string{"email": email}, nil)
}

// ResetPassword consumes a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/reset",
		map[string]string{"token": token, "new_password": newPassword}, nil)
}

// Me resolves the installed token to its account.
func (c *Client) Me(ctx context.Context) (*models.Account, error) {
	var account models.Account
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Logout tells the server goodbye and drops the local token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) session(ctx context.Context, path string, body map[string]string) (*models.Account, error) {
	var resp SessionResponse
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp.Account, nil
}
