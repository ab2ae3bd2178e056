package api

import (
	"context"

	"vitta/pkg/validation"
)

// Me fetches the authoritative identity for the current bearer token.
// A 401 here means the token itself is invalid or expired; the session
// manager reacts by clearing the session.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var out Identity
	if err := c.get(ctx, "/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*TokenGrant, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	var out TokenGrant
	if err := c.post(ctx, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*TokenGrant, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	var out TokenGrant
	if err := c.post(ctx, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
