package client

import (
	"context"
	"net/http"

	"github.com/dukex/flowcanvas/pkg/models"
)

func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse

	err := c.do(ctx, "login", http.MethodPost, "/auth/login",
		models.Credentials{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) Register(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse

	err := c.do(ctx, "register", http.MethodPost, "/auth/register",
		models.Credentials{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// Verify checks the current bearer token.
func (c *Client) Verify(ctx context.Context) (*models.VerifyResponse, error) {
	var resp models.VerifyResponse

	if err := c.do(ctx, "verify", http.MethodGet, "/auth/verify", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}
