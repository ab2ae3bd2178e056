// vittactl is a terminal front end for the vitta client core: session
// bootstrap, login and registration, the PIN and OTP challenge flows, the
// admin one-shots, and a watch mode that follows the notification channel.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"vitta/internal/api"
	"vitta/internal/challenge"
	"vitta/internal/platform/config"
	"vitta/internal/platform/logger"
	"vitta/internal/platform/metrics"
	"vitta/internal/session"
	"vitta/internal/session/store"
)

const usage = `usage: vittactl <command> [flags]

commands:
  login             sign in and persist the session
  register          open an account and sign in
  whoami            show the current identity
  logout            drop the local session
  verify-pin        run the 4-digit PIN challenge
  set-pin           create or change the transaction PIN
  change-password   change password via emailed OTP (signed in)
  forgot-password   reset password via emailed OTP (signed out)
  request-deletion  file an account deletion request
  promote           grant admin rights to another user
  demote            revoke admin rights from another user
  watch             follow the live notification channel
`

type app struct {
	cfg      config.Client
	logger   *slog.Logger
	registry *prometheus.Registry
	client   *api.Client
	session  *session.Service
	store    store.Store
	stdin    *bufio.Scanner
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.NewWithLevel(cfg.LogLevel)

	registry := prometheus.NewRegistry()
	mx := metrics.New(registry)

	st, err := store.NewFile(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}

	holder := api.NewTokenHolder()
	client := api.New(cfg.APIBaseURL,
		api.WithTokenSource(holder),
		api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		api.WithLogger(log),
		api.WithMetrics(mx),
	)
	sess := session.New(client, st, holder,
		session.WithLogger(log),
		session.WithMetrics(mx),
	)

	a := &app{
		cfg:      cfg,
		logger:   log,
		registry: registry,
		client:   client,
		session:  sess,
		store:    st,
		stdin:    bufio.NewScanner(os.Stdin),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a.session.Bootstrap(ctx)

	mxOpts := []challenge.Option{challenge.WithLogger(log), challenge.WithMetrics(mx)}

	switch command {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "whoami":
		return a.whoami()
	case "logout":
		a.session.Logout()
		fmt.Println("signed out")
		return nil
	case "verify-pin":
		return a.runPIN(ctx, challenge.FlowVerify, mxOpts)
	case "set-pin":
		return a.runPIN(ctx, challenge.FlowChange, mxOpts)
	case "change-password":
		return a.changePassword(ctx, mxOpts)
	case "forgot-password":
		return a.forgotPassword(ctx, args, mxOpts)
	case "request-deletion":
		return a.requestDeletion(ctx, args)
	case "promote":
		return a.roleChange(ctx, args, true)
	case "demote":
		return a.roleChange(ctx, args, false)
	case "watch":
		return a.watch(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) prompt(label string) string {
	fmt.Printf("%s: ", label)
	if !a.stdin.Scan() {
		return ""
	}
	return strings.TrimSpace(a.stdin.Text())
}

func (a *app) requireUser() (*session.User, error) {
	user := a.session.CurrentUser()
	if user == nil {
		return nil, errors.New("not signed in; run vittactl login first")
	}
	return user, nil
}
