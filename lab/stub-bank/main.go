// Stub bank backend for local development. It speaks the same HTTP and
// websocket contract as the real deployment, including the legacy free-text
// error details, so the client can be exercised end to end without any
// infrastructure. All state is in memory; OTPs are logged instead of mailed.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vitta/internal/platform/logger"
	"vitta/pkg/secrets"
)

const (
	tokenTTL  = 30 * time.Minute
	otpTTL    = 10 * time.Minute
	otpLength = 6
)

type account struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	PINHash      string
	IsAdmin      bool
	Suspended    bool
	Balance      float64
	AccountType  string
}

type otpEntry struct {
	code    string
	expires time.Time
}

type bank struct {
	mu         sync.Mutex
	accounts   map[string]*account // keyed by email
	otps       map[string]otpEntry // keyed by email
	signingKey []byte
	logger     *slog.Logger
	hub        *hub
}

func newBank(signingKey string, log *slog.Logger) *bank {
	return &bank{
		accounts:   make(map[string]*account),
		otps:       make(map[string]otpEntry),
		signingKey: []byte(signingKey),
		logger:     log,
		hub:        newHub(log),
	}
}

func (b *bank) seed() {
	for _, a := range []struct {
		name, email, password, pin string
		admin                      bool
	}{
		{"Ada Wallace", "ada@vitta.com", "password123", "1234", false},
		{"Site Admin", "admin@vitta.com", "admin12345", "", true},
	} {
		passwordHash, _ := secrets.Hash(a.password)
		acct := &account{
			ID:           uuid.NewString(),
			FullName:     a.name,
			Email:        a.email,
			PasswordHash: passwordHash,
			IsAdmin:      a.admin,
			Balance:      1000,
			AccountType:  "savings",
		}
		if a.pin != "" {
			acct.PINHash, _ = secrets.Hash(a.pin)
		}
		b.accounts[a.email] = acct
	}
}

func (b *bank) mint(email string) (string, error) {
	claims := jwt.MapClaims{
		"sub": email,
		"exp": time.Now().Add(tokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.signingKey)
}

func (b *bank) authenticate(r *http.Request) (*account, bool) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, false
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return b.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[sub]
	return acct, ok
}

// issueOTP generates, stores and logs a fresh code for the email.
func (b *bank) issueOTP(email string) {
	code, err := secrets.GenerateOTP(otpLength)
	if err != nil {
		b.logger.Error("otp generation failed", "error", err)
		return
	}
	b.mu.Lock()
	b.otps[email] = otpEntry{code: code, expires: time.Now().Add(otpTTL)}
	b.mu.Unlock()
	// A real deployment mails this. The stub logs it for copy-paste.
	b.logger.Info("otp issued", "email", email, "otp", code)
}

// checkOTP validates the code without consuming it; reset flows verify the
// same code twice (peek, then commit).
func (b *bank) checkOTP(email, code string, consume bool) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.otps[email]
	if !ok || entry.code != code {
		return "Invalid OTP"
	}
	if time.Now().After(entry.expires) {
		return "OTP expired"
	}
	if consume {
		delete(b.otps, email)
	}
	return ""
}

func main() {
	log := logger.New()
	port := getenv("PORT", "8000")
	signingKey := getenv("JWT_SIGNING_KEY", "stub-bank-local-key")

	b := newBank(signingKey, log)
	b.seed()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", b.handleLogin)
		r.Post("/register", b.handleRegister)
		r.Post("/forgot-password", b.handleForgotPassword)
		r.Post("/verify-reset-otp", b.handleVerifyResetOTP)
		r.Post("/reset-password", b.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(b.requireAuth)
			r.Get("/me", b.handleMe)
			r.Post("/verify-pin", b.handleVerifyPIN)
			r.Post("/set-pin", b.handleSetPIN)
			r.Post("/request-password-change-otp", b.handleRequestChangeOTP)
			r.Post("/change-password-with-otp", b.handleChangePassword)
			r.Post("/deletion-request", b.handleDeletionRequest)
			r.Post("/promote-user", b.handlePromote)
			r.Post("/demote-user", b.handleDemote)
		})
	})
	r.Get("/ws/{clientID}", b.hub.handleConnect)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("stub bank listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("stub bank stopped", "error", err)
		os.Exit(1)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeDetail reproduces the backend's error envelope, free-text detail
// included. The client translates these strings; they must not drift.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
