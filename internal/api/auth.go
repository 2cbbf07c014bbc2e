package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/facultyflow/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token. The token is returned,
// not stored; persisting it is the session's job.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	req := loginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := c.post(ctx, "/auth/login", req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return resp.Token, nil
}

// Me returns the user the stored token belongs to.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var w wireUser
	if err := c.get(ctx, "/auth/me", &w); err != nil {
		return model.User{}, err
	}
	return decodeUser(w), nil
}
