// Package session owns the answer to "who is logged in". It reconciles the
// persisted bearer token against the backend instead of trusting local state,
// and it is the only writer of the process-wide token holder.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"vitta/internal/api"
	"vitta/internal/platform/metrics"
	"vitta/internal/session/store"
	dErrors "vitta/pkg/domain-errors"
)

// Persisted keys. token is authoritative input to bootstrap; the rest are a
// display mirror used only when the backend cannot be reached.
const (
	keyToken    = "token"
	keyFullName = "user_full_name"
	keyIsAdmin  = "is_admin"
	keyEmail    = "user_email"
)

// User is the current identity. When populated by Bootstrap via the backend
// it is authoritative; when populated from the mirror it is display-only and
// must not gate anything sensitive.
type User struct {
	FullName string
	Email    string
	IsAdmin  bool
}

// Backend is the slice of the API client the session manager depends on.
type Backend interface {
	Me(ctx context.Context) (*api.Identity, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenGrant, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.TokenGrant, error)
}

type Service struct {
	mu      sync.RWMutex
	backend Backend
	store   store.Store
	tokens  *api.TokenHolder

	user         *User
	loading      bool
	bootstrapped bool

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New builds a session manager around the given backend, durable store, and
// token holder. The service starts in the loading state; Bootstrap must run
// once before the session is meaningful.
func New(backend Backend, st store.Store, tokens *api.TokenHolder, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		store:   st,
		tokens:  tokens,
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Bootstrap reconciles persisted credentials against the backend. Called once
// at process start; later calls are no-ops. It always ends with loading set
// to false, whatever path it took:
//
//   - no stored token: anonymous session
//   - token accepted by /auth/me: authoritative identity
//   - token rejected (unauthorized): full logout
//   - backend unreachable or erroring otherwise: stay signed in on the
//     mirrored display fields rather than failing closed on a transient
//     outage
func (s *Service) Bootstrap(ctx context.Context) {
	s.mu.Lock()
	if s.bootstrapped {
		s.mu.Unlock()
		return
	}
	s.bootstrapped = true
	s.mu.Unlock()
	defer s.finishLoading()

	token, err := s.store.Get(keyToken)
	if errors.Is(err, store.ErrNotFound) || token == "" {
		s.countBootstrap("anonymous")
		return
	}
	if err != nil {
		s.logger.WarnContext(ctx, "could not read stored token", "error", err)
		s.countBootstrap("anonymous")
		return
	}

	s.tokens.Set(token)

	identity, err := s.backend.Me(ctx)
	switch {
	case err == nil:
		s.setUser(&User{FullName: identity.FullName, Email: identity.Email, IsAdmin: identity.IsAdmin})
		s.persistMirror(identity.FullName, identity.Email, identity.IsAdmin)
		s.countBootstrap("authoritative")

	case dErrors.Is(err, dErrors.CodeUnauthorized):
		s.logger.InfoContext(ctx, "stored token rejected, clearing session")
		s.Logout()
		s.countBootstrap("cleared")

	default:
		// Transient failure. Fall back to the mirror so a backend outage
		// does not log everyone out; the mirror never gates authorization.
		s.logger.WarnContext(ctx, "identity check failed, using mirrored fields", "error", err)
		if mirror := s.readMirror(); mirror != nil {
			s.setUser(mirror)
			s.countBootstrap("mirror_fallback")
		} else {
			s.countBootstrap("anonymous")
		}
	}
}

// Login exchanges credentials for a token. On success the session is
// established and persisted; on failure the typed error is returned untouched
// and no session state changes.
func (s *Service) Login(ctx context.Context, email, password string, adminLogin bool) error {
	grant, err := s.backend.Login(ctx, api.LoginRequest{
		Email:      email,
		Password:   password,
		AdminLogin: adminLogin,
	})
	if err != nil {
		s.countLogin("failure")
		return err
	}
	s.establish(grant, email)
	s.countLogin("success")
	return nil
}

// Register creates an account and, like Login, establishes the session
// immediately on success.
func (s *Service) Register(ctx context.Context, req api.RegisterRequest) error {
	grant, err := s.backend.Register(ctx, req)
	if err != nil {
		return err
	}
	s.establish(grant, req.Email)
	return nil
}

// Logout clears the token, the in-memory user, and every persisted key.
// Idempotent and infallible: storage failures are logged, not surfaced.
func (s *Service) Logout() {
	s.tokens.Clear()
	s.setUser(nil)
	for _, key := range []string{keyToken, keyFullName, keyIsAdmin, keyEmail} {
		if err := s.store.Delete(key); err != nil {
			s.logger.Warn("could not delete stored key", "key", key, "error", err)
		}
	}
}

// CurrentUser returns a copy of the current identity, or nil when
// unauthenticated.
func (s *Service) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Loading is true only until Bootstrap finishes its first and only run.
func (s *Service) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Service) establish(grant *api.TokenGrant, email string) {
	s.tokens.Set(grant.AccessToken)
	s.setUser(&User{FullName: grant.UserName, Email: email, IsAdmin: grant.IsAdmin})
	if err := s.store.Set(keyToken, grant.AccessToken); err != nil {
		s.logger.Warn("could not persist token", "error", err)
	}
	s.persistMirror(grant.UserName, email, grant.IsAdmin)
}

func (s *Service) persistMirror(fullName, email string, isAdmin bool) {
	pairs := map[string]string{
		keyFullName: fullName,
		keyIsAdmin:  strconv.FormatBool(isAdmin),
		keyEmail:    email,
	}
	for key, value := range pairs {
		if err := s.store.Set(key, value); err != nil {
			s.logger.Warn("could not persist mirror field", "key", key, "error", err)
		}
	}
}

func (s *Service) readMirror() *User {
	fullName, err := s.store.Get(keyFullName)
	if err != nil || fullName == "" {
		return nil
	}
	isAdminRaw, _ := s.store.Get(keyIsAdmin)
	isAdmin, _ := strconv.ParseBool(isAdminRaw)
	email, _ := s.store.Get(keyEmail)
	return &User{FullName: fullName, Email: email, IsAdmin: isAdmin}
}

func (s *Service) setUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

func (s *Service) finishLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
}

func (s *Service) countBootstrap(result string) {
	if s.metrics != nil {
		s.metrics.BootstrapResults.WithLabelValues(result).Inc()
	}
}

func (s *Service) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}
