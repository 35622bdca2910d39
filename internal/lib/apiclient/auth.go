package apiclient

import (
	"context"
	"net/http"

	"github.com/magabrotheeeer/trip-companion/internal/models"
)

type usernameRequest struct {
	Username string `json:"username"`
}

// Register создаёт пользователя (или возвращает существующего) и открывает сессию.
func (c *Client) Register(ctx context.Context, username string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, usernameRequest{Username: username}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login открывает сессию для существующего пользователя.
func (c *Client) Login(ctx context.Context, username string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, usernameRequest{Username: username}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout завершает сессию на стороне бэкенда.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// Me возвращает пользователя, которому принадлежит текущий токен.
func (c *Client) Me(ctx context.Context) (*models.CurrentUser, error) {
	var user models.CurrentUser
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
