package api

import (
	"context"

	"vitta/pkg/validation"
)

// One-shot requests authorized by the requester's own password. The backend
// owns the outcome; nothing is tracked locally.

func (c *Client) RequestDeletion(ctx context.Context, password, reason string) (*Message, error) {
	req := deletionRequest{Password: password, Reason: reason}
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	var out Message
	if err := c.post(ctx, "/auth/deletion-request", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PromoteUser(ctx context.Context, password, targetEmail string) (*Message, error) {
	req := roleChangeRequest{Password: password, TargetEmail: targetEmail}
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	var out Message
	if err := c.post(ctx, "/auth/promote-user", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DemoteUser(ctx context.Context, password, targetEmail string) (*Message, error) {
	req := roleChangeRequest{Password: password, TargetEmail: targetEmail}
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	var out Message
	if err := c.post(ctx, "/auth/demote-user", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
