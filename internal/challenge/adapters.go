package challenge

import (
	"context"

	"vitta/internal/api"
)

// Adapters binding the machine's collaborator interfaces to the API client.
// Each constructor wires exactly the interfaces its configuration calls, so
// a PIN machine can never reach an OTP endpoint and vice versa.

// NewPIN builds the 4-digit transaction PIN machine.
func NewPIN(client *api.Client, opts ...Option) *Machine {
	authority := &pinAuthority{client: client}
	opts = append([]Option{WithVerifier(authority), WithCreator(authority)}, opts...)
	return New(PINConfig(), opts...)
}

// NewPasswordChange builds the authenticated 6-digit OTP password change
// machine (code and new password submitted together).
func NewPasswordChange(client *api.Client, opts ...Option) *Machine {
	authority := &passwordChangeAuthority{client: client}
	opts = append([]Option{WithRequester(authority), WithCompleter(authority)}, opts...)
	return New(PasswordChangeConfig(), opts...)
}

// NewPasswordReset builds the unauthenticated forgot-password machine. The
// caller supplies the account email up front; it is threaded through every
// backend call since no session exists yet.
func NewPasswordReset(client *api.Client, email string, opts ...Option) *Machine {
	authority := &passwordResetAuthority{client: client, email: email}
	opts = append([]Option{
		WithRequester(authority),
		WithVerifier(authority),
		WithCompleter(authority),
	}, opts...)
	return New(PasswordResetConfig(), opts...)
}

type pinAuthority struct {
	client *api.Client
}

func (a *pinAuthority) VerifySecret(ctx context.Context, code string) error {
	return a.client.VerifyPIN(ctx, code)
}

func (a *pinAuthority) SetupSecret(ctx context.Context, code string) error {
	return a.client.SetPIN(ctx, code)
}

type passwordChangeAuthority struct {
	client *api.Client
}

func (a *passwordChangeAuthority) RequestCode(ctx context.Context) error {
	return a.client.RequestPasswordChangeOTP(ctx)
}

func (a *passwordChangeAuthority) Complete(ctx context.Context, code, newPassword string) error {
	return a.client.ChangePasswordWithOTP(ctx, code, newPassword)
}

type passwordResetAuthority struct {
	client *api.Client
	email  string
}

func (a *passwordResetAuthority) RequestCode(ctx context.Context) error {
	return a.client.ForgotPassword(ctx, a.email)
}

func (a *passwordResetAuthority) VerifySecret(ctx context.Context, code string) error {
	return a.client.VerifyResetOTP(ctx, a.email, code)
}

func (a *passwordResetAuthority) Complete(ctx context.Context, code, newPassword string) error {
	return a.client.ResetPassword(ctx, a.email, code, newPassword)
}
