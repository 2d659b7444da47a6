package cms

import (
	"context"
	"net/http"
)

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login posts the credentials and returns the decoded reply whatever its
// status below 500. Interpreting success or the error shape is up to the
// caller.
func (c *Client) Login(ctx context.Context, in LoginRequest) (Record, error) {
	return c.auth(ctx, "login", "/api/auth/local", in)
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (Record, error) {
	return c.auth(ctx, "register", "/api/auth/local/register", in)
}

func (c *Client) auth(ctx context.Context, op, path string, payload any) (Record, error) {
	res, err := c.do(ctx, op, http.MethodPost, path, nil, "", payload)
	if err != nil {
		return nil, err
	}
	doc, err := decode(res.body)
	if err != nil {
		return nil, &NetworkError{Op: op, StatusCode: res.status, Err: err}
	}
	return doc, nil
}
