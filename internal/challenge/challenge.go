// Package challenge implements the step machine that gates sensitive actions
// behind a short numeric secret. One machine serves three configurations: the
// 4-digit transaction PIN (verify, first-time setup, change), the 6-digit
// email OTP password change (code and new password submitted together), and
// the 6-digit forgot-password reset (code verified and password submitted as
// separate steps). Callers pick a configuration and a flow; the transition
// rules are shared.
package challenge

import (
	"context"
	"errors"
)

// Mode says what a submitted secret means: checking an existing one or
// creating/overwriting one.
type Mode string

const (
	ModeVerify Mode = "verify"
	ModeSetup  Mode = "setup"
)

// Flow is the caller-declared intent when opening the challenge. It seeds the
// initial mode and decides what happens after a successful verification.
type Flow string

const (
	FlowVerify Flow = "verify"
	FlowSetup  Flow = "setup"
	FlowChange Flow = "change"
)

// Step is the position inside a multi-step configuration. PIN challenges
// live entirely in StepEnter; the OTP configurations add a prerequisite
// request step, an optional separate password step, and a terminal state.
type Step string

const (
	StepRequest  Step = "request"
	StepEnter    Step = "enter"
	StepPassword Step = "password"
	StepDone     Step = "done"
)

// Config parameterizes the machine. The three supported configurations are
// built by PINConfig, PasswordChangeConfig, and PasswordResetConfig; the
// fields stay exported so tests can exercise odd combinations.
type Config struct {
	// Arity is the number of digit slots (4 for PIN, 6 for OTP).
	Arity int
	// RequestCode inserts a prerequisite step that asks the backend to send
	// the code out-of-band before digit entry is shown.
	RequestCode bool
	// SplitReset verifies the code and submits the new password as two
	// separately confirmable steps instead of one combined submission.
	SplitReset bool
	// Terminal ends the flow in a success display state instead of invoking
	// the continuation and closing.
	Terminal bool
	// MinPasswordLen applies to the new-password fields of the OTP
	// configurations.
	MinPasswordLen int
}

func PINConfig() Config {
	return Config{Arity: 4}
}

func PasswordChangeConfig() Config {
	return Config{Arity: 6, RequestCode: true, Terminal: true, MinPasswordLen: 6}
}

func PasswordResetConfig() Config {
	return Config{Arity: 6, RequestCode: true, SplitReset: true, Terminal: true, MinPasswordLen: 6}
}

// Collaborator interfaces, implemented by the adapters over the API client.
// A configuration only needs the interfaces its steps call.
type (
	// SecretVerifier checks an existing secret.
	SecretVerifier interface {
		VerifySecret(ctx context.Context, code string) error
	}

	// SecretCreator creates or overwrites a secret.
	SecretCreator interface {
		SetupSecret(ctx context.Context, code string) error
	}

	// CodeRequester triggers out-of-band delivery of a one-time code.
	CodeRequester interface {
		RequestCode(ctx context.Context) error
	}

	// ResetCompleter consumes the code together with the new password.
	ResetCompleter interface {
		Complete(ctx context.Context, code, newPassword string) error
	}
)

// Guard errors. All of them mean "nothing happened": no network call, no
// state change.
var (
	ErrClosed     = errors.New("challenge is not open")
	ErrBusy       = errors.New("a submission is already in flight")
	ErrIncomplete = errors.New("secret entry is incomplete")
	ErrWrongStep  = errors.New("operation does not apply to the current step")
)

// Display messages. The machine surfaces the server's message verbatim when
// one exists; these are the generic fallbacks and local prompts.
const (
	msgIncorrectPIN     = "Incorrect PIN"
	msgCreatePIN        = "Please create a new PIN"
	msgVerifyFailed     = "Verification failed"
	msgCodeSent         = "OTP sent to your email address"
	msgCodeSendFailed   = "Failed to send OTP. Please check your email."
	msgCodeInvalid      = "Invalid OTP. Please try again."
	msgResetFailed      = "Failed to reset password. Please try again."
	msgPasswordMismatch = "Passwords do not match"
	msgPasswordTooShort = "Password must be at least 6 characters"
)
