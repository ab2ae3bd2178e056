// Package admin covers the one-shot account requests that are gated by the
// requester's own password: account deletion, and promotion/demotion of
// another user. Each is fire-and-forget against the backend; the outcome is
// whatever the server says, with nothing tracked locally.
package admin

import (
	"context"
	"log/slog"

	"vitta/internal/api"
)

// Backend is the slice of the API client these requests need.
type Backend interface {
	RequestDeletion(ctx context.Context, password, reason string) (*api.Message, error)
	PromoteUser(ctx context.Context, password, targetEmail string) (*api.Message, error)
	DemoteUser(ctx context.Context, password, targetEmail string) (*api.Message, error)
}

type Service struct {
	backend Backend
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(backend Backend, opts ...Option) *Service {
	s := &Service{backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// RequestDeletion files an account-deletion request authorized by the
// requester's password. Returns the server's acknowledgment message.
func (s *Service) RequestDeletion(ctx context.Context, password, reason string) (string, error) {
	out, err := s.backend.RequestDeletion(ctx, password, reason)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "deletion request filed")
	return out.Message, nil
}

// Promote asks the backend to grant admin rights to the target user.
func (s *Service) Promote(ctx context.Context, password, targetEmail string) (string, error) {
	out, err := s.backend.PromoteUser(ctx, password, targetEmail)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "promotion requested", "target", targetEmail)
	return out.Message, nil
}

// Demote asks the backend to revoke admin rights from the target user.
func (s *Service) Demote(ctx context.Context, password, targetEmail string) (string, error) {
	out, err := s.backend.DemoteUser(ctx, password, targetEmail)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "demotion requested", "target", targetEmail)
	return out.Message, nil
}
