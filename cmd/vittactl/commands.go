package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"vitta/internal/admin"
	"vitta/internal/api"
	"vitta/internal/challenge"
	"vitta/internal/notify"
)

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	adminLogin := fs.Bool("admin", false, "sign in through the admin surface")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		*email = a.prompt("Email")
	}
	if *password == "" {
		*password = a.prompt("Password")
	}

	if err := a.session.Login(ctx, *email, *password, *adminLogin); err != nil {
		return err
	}
	user, _ := a.requireUser()
	fmt.Printf("signed in as %s <%s>\n", user.FullName, user.Email)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (min 6 chars)")
	balance := fs.Float64("balance", 500, "opening balance (min 500)")
	accountType := fs.String("type", "savings", "account type: savings or current")
	if err := fs.Parse(args); err != nil {
		return err
	}

	err := a.session.Register(ctx, api.RegisterRequest{
		FullName:       *name,
		Email:          *email,
		Password:       *password,
		OpeningBalance: *balance,
		AccountType:    *accountType,
	})
	if err != nil {
		return err
	}
	user, _ := a.requireUser()
	fmt.Printf("account opened for %s <%s>\n", user.FullName, user.Email)
	return nil
}

func (a *app) whoami() error {
	user, err := a.requireUser()
	if err != nil {
		return err
	}
	role := "customer"
	if user.IsAdmin {
		role = "admin"
	}
	fmt.Printf("%s <%s> (%s)\n", user.FullName, user.Email, role)
	return nil
}

// runPIN drives the 4-digit machine interactively until it closes. A blank
// entry aborts.
func (a *app) runPIN(ctx context.Context, flow challenge.Flow, opts []challenge.Option) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	m := challenge.NewPIN(a.client, opts...)
	succeeded := false
	m.Open(flow, func() { succeeded = true })
	defer m.Close()

	for {
		snap := m.Snapshot()
		if !snap.Open {
			break
		}
		if snap.Error != "" {
			fmt.Println("!", snap.Error)
		}
		if snap.Notice != "" {
			fmt.Println(snap.Notice)
		}
		label := "Enter PIN"
		if snap.Mode == challenge.ModeSetup {
			label = "New PIN"
		}
		entry := a.prompt(label)
		if entry == "" {
			return errors.New("aborted")
		}
		m.Type(entry)
		if err := m.Submit(ctx); err != nil && !errors.Is(err, challenge.ErrIncomplete) {
			return err
		}
	}
	if !succeeded {
		return errors.New("challenge not completed")
	}
	fmt.Println("PIN accepted")
	return nil
}

func (a *app) changePassword(ctx context.Context, opts []challenge.Option) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	m := challenge.NewPasswordChange(a.client, opts...)
	m.Open(challenge.FlowVerify, nil)
	defer m.Close()

	if err := m.RequestCode(ctx); err != nil {
		return err
	}
	return a.driveOTP(ctx, m, true)
}

func (a *app) forgotPassword(ctx context.Context, args []string, opts []challenge.Option) error {
	fs := flag.NewFlagSet("forgot-password", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		*email = a.prompt("Email")
	}

	m := challenge.NewPasswordReset(a.client, *email, opts...)
	m.Open(challenge.FlowVerify, nil)
	defer m.Close()

	if err := m.RequestCode(ctx); err != nil {
		return err
	}
	return a.driveOTP(ctx, m, false)
}

// driveOTP walks an OTP machine from code entry to its terminal step,
// prompting per the current step. Combined machines take the new password
// together with the code; split ones reach a dedicated password step after
// the code checks out. Both end in StepDone.
func (a *app) driveOTP(ctx context.Context, m *challenge.Machine, combined bool) error {
	for {
		snap := m.Snapshot()
		if !snap.Open || snap.Done {
			break
		}
		if snap.Error != "" {
			fmt.Println("!", snap.Error)
		}
		if snap.Notice != "" {
			fmt.Println(snap.Notice)
		}

		switch snap.Step {
		case challenge.StepEnter:
			code := a.prompt("OTP code")
			if code == "" {
				return errors.New("aborted")
			}
			m.Type(code)
			if combined {
				if err := a.collectPassword(m); err != nil {
					return err
				}
			}
		case challenge.StepPassword:
			if err := a.collectPassword(m); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected step %q", snap.Step)
		}

		if err := m.Submit(ctx); err != nil && !errors.Is(err, challenge.ErrIncomplete) {
			return err
		}
	}
	fmt.Println("password updated")
	return nil
}

func (a *app) collectPassword(m *challenge.Machine) error {
	password := a.prompt("New password")
	confirm := a.prompt("Confirm password")
	if password == "" {
		return errors.New("aborted")
	}
	m.SetPassword(password, confirm)
	return nil
}

func (a *app) requestDeletion(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("request-deletion", flag.ContinueOnError)
	password := fs.String("password", "", "current password")
	reason := fs.String("reason", "", "optional reason")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(); err != nil {
		return err
	}
	if *password == "" {
		*password = a.prompt("Password")
	}

	svc := admin.New(a.client, admin.WithLogger(a.logger))
	msg, err := svc.RequestDeletion(ctx, *password, *reason)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) roleChange(ctx context.Context, args []string, promote bool) error {
	name := "demote"
	if promote {
		name = "promote"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	password := fs.String("password", "", "your password")
	target := fs.String("target", "", "target user email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(); err != nil {
		return err
	}
	if *target == "" {
		*target = a.prompt("Target email")
	}
	if *password == "" {
		*password = a.prompt("Password")
	}

	svc := admin.New(a.client, admin.WithLogger(a.logger))
	var (
		msg string
		err error
	)
	if promote {
		msg, err = svc.Promote(ctx, *password, *target)
	} else {
		msg, err = svc.Demote(ctx, *password, *target)
	}
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

// watch follows the notification channel until interrupted. When
// VITTA_METRICS_ADDR is set it also exposes the Prometheus registry there.
func (a *app) watch(ctx context.Context) error {
	listener := notify.NewListener(a.cfg.WSBaseURL, func() {
		fmt.Printf("%s update received\n", time.Now().Format(time.TimeOnly))
	}, notify.WithLogger(a.logger))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := listener.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if addr := metricsAddr(); addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			a.logger.Info("metrics listening", "addr", addr)
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
	}

	fmt.Println("watching for updates; ctrl-c to stop")
	return g.Wait()
}

func metricsAddr() string {
	return os.Getenv("VITTA_METRICS_ADDR")
}
