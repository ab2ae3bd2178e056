package api

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource yields the current bearer credential. An empty string means
// unauthenticated; the request goes out without an Authorization header.
type TokenSource interface {
	Token() string
}

// TokenHolder is the process-wide home of the bearer token. Every outgoing
// request reads it; only the session manager's four operations (bootstrap,
// login, register, logout) may call Set or Clear. No other component mutates
// it.
type TokenHolder struct {
	mu    sync.RWMutex
	token string
}

func NewTokenHolder() *TokenHolder {
	return &TokenHolder{}
}

func (h *TokenHolder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *TokenHolder) Set(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
}

func (h *TokenHolder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = ""
}

// ExpiresAt peeks at the token's exp claim without verifying the signature.
// The client has no signing key and does not need one: expiry here is a
// display-only hint, the backend remains the authority on token validity.
func (h *TokenHolder) ExpiresAt() (time.Time, bool) {
	raw := h.Token()
	if raw == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
