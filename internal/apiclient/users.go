package apiclient

import (
	"context"
	"net/http"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

// LoginResult is the body of POST /auth/login.
type LoginResult struct {
	Token string         `json:"token"`
	User  model.Identity `json:"user"`
}

// AdminRegistration is the body of POST /users/register/admin.
type AdminRegistration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Me fetches the identity behind the attached credential.
func (c *Client) Me(ctx context.Context) (model.Identity, error) {
	var out model.Identity
	err := c.do(ctx, call{op: "identity", method: http.MethodGet, path: "/users/me"}, &out)
	return out, err
}

// Login exchanges a username and password for a credential.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"username": username, "password": password},
	}, &out)
	return out, err
}

// RegisterAdmin creates a privileged user.  Requires an ADMIN credential.
func (c *Client) RegisterAdmin(ctx context.Context, in AdminRegistration) error {
	return c.do(ctx, call{
		op:     "register admin",
		method: http.MethodPost,
		path:   "/users/register/admin",
		body:   in,
	}, nil)
}
