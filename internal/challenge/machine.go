package challenge

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"vitta/internal/platform/metrics"
	dErrors "vitta/pkg/domain-errors"
)

// Machine is one challenge verifier instance. Methods are safe for
// concurrent use; submissions within one open session are strictly
// sequential - the busy flag rejects overlap, and an epoch counter makes a
// settling request against a closed or re-opened machine a silent drop, so
// no state is ever mutated after disposal.
type Machine struct {
	mu  sync.Mutex
	cfg Config

	verifier  SecretVerifier
	creator   SecretCreator
	requester CodeRequester
	completer ResetCompleter

	logger  *slog.Logger
	metrics *metrics.Metrics

	open  bool
	epoch uint64
	flow  Flow
	mode  Mode
	step  Step

	digits []byte // 0 means empty slot
	focus  int

	newPassword     string
	confirmPassword string

	busy      bool
	errMsg    string
	notice    string
	onSuccess func()
}

type Option func(*Machine)

func WithVerifier(v SecretVerifier) Option {
	return func(m *Machine) { m.verifier = v }
}

func WithCreator(c SecretCreator) Option {
	return func(m *Machine) { m.creator = c }
}

func WithRequester(r CodeRequester) Option {
	return func(m *Machine) { m.requester = r }
}

func WithCompleter(c ResetCompleter) Option {
	return func(m *Machine) { m.completer = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) { m.logger = logger }
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Machine) { m.metrics = mx }
}

func New(cfg Config, opts ...Option) *Machine {
	m := &Machine{cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Open starts a fresh challenge session. All prior state is discarded: the
// mode is re-seeded from the flow, digits and errors are cleared, and the
// first slot is focused. Opening while already open restarts from scratch.
func (m *Machine) Open(flow Flow, onSuccess func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.open = true
	m.flow = flow
	if flow == FlowSetup {
		m.mode = ModeSetup
	} else {
		m.mode = ModeVerify
	}
	if m.cfg.RequestCode {
		m.step = StepRequest
	} else {
		m.step = StepEnter
	}
	m.resetEntryLocked()
	m.newPassword = ""
	m.confirmPassword = ""
	m.busy = false
	m.onSuccess = onSuccess
	if m.metrics != nil {
		m.metrics.ChallengeOpens.Inc()
	}
}

// Close abandons the session unconditionally. Any in-flight submission that
// settles later is ignored. No partial secret survives into the next Open.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.open = false
	m.busy = false
	m.onSuccess = nil
	m.resetEntryLocked()
	m.newPassword = ""
	m.confirmPassword = ""
}

// Back returns the open session to its clean initial state without any
// backend effect. An in-flight submission is abandoned the same way Close
// abandons it.
func (m *Machine) Back() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return
	}
	m.epoch++
	m.busy = false
	if m.cfg.RequestCode {
		m.step = StepRequest
	} else {
		m.step = StepEnter
	}
	if m.flow == FlowSetup {
		m.mode = ModeSetup
	} else {
		m.mode = ModeVerify
	}
	m.resetEntryLocked()
	m.newPassword = ""
	m.confirmPassword = ""
}

// SetPassword stages the new password and its confirmation for the OTP
// configurations. Validation happens at submit time.
func (m *Machine) SetPassword(newPassword, confirm string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open || m.busy {
		return
	}
	m.newPassword = newPassword
	m.confirmPassword = confirm
}

// RequestCode runs the prerequisite "send me a code" step. On success the
// machine advances to digit entry; until then digit entry is unreachable.
func (m *Machine) RequestCode(ctx context.Context) error {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.step != StepRequest {
		m.mu.Unlock()
		return ErrWrongStep
	}
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	if m.requester == nil {
		m.mu.Unlock()
		return ErrWrongStep
	}
	m.busy = true
	m.errMsg = ""
	epoch := m.epoch
	requester := m.requester
	m.mu.Unlock()

	err := requester.RequestCode(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open || m.epoch != epoch {
		return nil // session was abandoned while the request was in flight
	}
	m.busy = false
	if err != nil {
		m.errMsg = dErrors.MessageOr(err, msgCodeSendFailed)
		m.count("request", "failure")
		return nil
	}
	m.step = StepEnter
	m.notice = msgCodeSent
	m.count("request", "success")
	return nil
}

// Enter is the accept keystroke: it submits when the digit entry is
// arity-complete and does nothing otherwise.
func (m *Machine) Enter(ctx context.Context) error {
	err := m.Submit(ctx)
	if err == ErrIncomplete {
		return nil
	}
	return err
}

// Submit sends the current entry to the backend. The exact call depends on
// the step, mode, and configuration; the guard rules never change: closed,
// busy, or incomplete entries are no-ops, and every submission first clears
// the previous attempt's error.
func (m *Machine) Submit(ctx context.Context) error {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}

	switch m.step {
	case StepEnter:
		if !m.completeLocked() {
			m.mu.Unlock()
			return ErrIncomplete
		}
		if m.cfg.Terminal && !m.cfg.SplitReset {
			return m.submitCombinedLocked(ctx)
		}
		if m.cfg.SplitReset {
			return m.submitSplitCodeLocked(ctx)
		}
		return m.submitSecretLocked(ctx)
	case StepPassword:
		return m.submitSplitPasswordLocked(ctx)
	default:
		m.mu.Unlock()
		return ErrWrongStep
	}
}

// submitSecretLocked handles the PIN configuration: verify or setup by mode.
// Expects m.mu held; releases it.
func (m *Machine) submitSecretLocked(ctx context.Context) error {
	mode := m.mode
	code := m.codeLocked()
	epoch := m.epoch
	m.busy = true
	m.errMsg = ""
	m.notice = ""
	verifier, creator := m.verifier, m.creator
	m.mu.Unlock()

	var err error
	if mode == ModeVerify {
		err = verifier.VerifySecret(ctx, code)
	} else {
		err = creator.SetupSecret(ctx, code)
	}

	m.mu.Lock()
	if !m.open || m.epoch != epoch {
		m.mu.Unlock()
		return nil
	}
	m.busy = false

	if mode == ModeVerify {
		m.settleVerifyLocked(err)
		return nil
	}
	m.settleSetupLocked(err)
	return nil
}

// settleVerifyLocked applies the verify-mode outcome. Expects m.mu held;
// releases it.
func (m *Machine) settleVerifyLocked(err error) {
	switch {
	case err == nil && m.flow == FlowChange:
		// Old secret confirmed; collect the new one in the same session.
		m.mode = ModeSetup
		m.resetEntryLocked()
		m.count("verify", "success")
		m.mu.Unlock()

	case err == nil:
		m.count("verify", "success")
		m.finishLocked() // unlocks

	case dErrors.Is(err, dErrors.CodePINNotSet):
		// Not an incorrect entry: there is nothing to verify against yet.
		// Switch to setup with a neutral creation prompt.
		m.mode = ModeSetup
		m.resetEntryLocked()
		m.notice = msgCreatePIN
		m.count("verify", "not_set")
		m.mu.Unlock()

	default:
		m.resetEntryLocked()
		if dErrors.Is(err, dErrors.CodeInvalidSecret) {
			m.errMsg = msgIncorrectPIN
		} else {
			m.errMsg = dErrors.MessageOr(err, msgVerifyFailed)
		}
		m.count("verify", "failure")
		m.mu.Unlock()
	}
}

// settleSetupLocked applies the setup-mode outcome. Expects m.mu held;
// releases it.
func (m *Machine) settleSetupLocked(err error) {
	if err == nil {
		m.count("setup", "success")
		m.finishLocked() // unlocks
		return
	}
	m.errMsg = dErrors.MessageOr(err, msgVerifyFailed)
	m.count("setup", "failure")
	m.mu.Unlock()
}

// submitCombinedLocked handles the password-change configuration: one
// submission carrying the code and the new password. Expects m.mu held;
// releases it.
func (m *Machine) submitCombinedLocked(ctx context.Context) error {
	if msg := m.passwordProblemLocked(); msg != "" {
		m.errMsg = msg
		m.mu.Unlock()
		return nil
	}
	code := m.codeLocked()
	password := m.newPassword
	epoch := m.epoch
	m.busy = true
	m.errMsg = ""
	m.notice = ""
	completer := m.completer
	m.mu.Unlock()

	err := completer.Complete(ctx, code, password)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open || m.epoch != epoch {
		return nil
	}
	m.busy = false
	if err != nil {
		m.errMsg = dErrors.MessageOr(err, msgResetFailed)
		m.count("complete", "failure")
		return nil
	}
	m.step = StepDone
	m.count("complete", "success")
	return nil
}

// submitSplitCodeLocked verifies the OTP alone in the split configuration.
// Expects m.mu held; releases it.
func (m *Machine) submitSplitCodeLocked(ctx context.Context) error {
	code := m.codeLocked()
	epoch := m.epoch
	m.busy = true
	m.errMsg = ""
	m.notice = ""
	verifier := m.verifier
	m.mu.Unlock()

	err := verifier.VerifySecret(ctx, code)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open || m.epoch != epoch {
		return nil
	}
	m.busy = false
	if err != nil {
		m.errMsg = dErrors.MessageOr(err, msgCodeInvalid)
		m.count("verify", "failure")
		return nil
	}
	m.step = StepPassword
	m.count("verify", "success")
	return nil
}

// submitSplitPasswordLocked completes the split configuration with the
// verified code plus the new password. Expects m.mu held; releases it.
func (m *Machine) submitSplitPasswordLocked(ctx context.Context) error {
	if !m.cfg.SplitReset {
		m.mu.Unlock()
		return ErrWrongStep
	}
	if msg := m.passwordProblemLocked(); msg != "" {
		m.errMsg = msg
		m.mu.Unlock()
		return nil
	}
	code := m.codeLocked()
	password := m.newPassword
	epoch := m.epoch
	m.busy = true
	m.errMsg = ""
	completer := m.completer
	m.mu.Unlock()

	err := completer.Complete(ctx, code, password)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open || m.epoch != epoch {
		return nil
	}
	m.busy = false
	if err != nil {
		m.errMsg = dErrors.MessageOr(err, msgResetFailed)
		m.count("complete", "failure")
		return nil
	}
	m.step = StepDone
	m.count("complete", "success")
	return nil
}

// finishLocked fires the success continuation exactly once and closes the
// session. Expects m.mu held; releases it before invoking the continuation
// so the caller may re-open from inside it.
func (m *Machine) finishLocked() {
	onSuccess := m.onSuccess
	m.onSuccess = nil
	m.open = false
	m.epoch++
	m.resetEntryLocked()
	m.mu.Unlock()
	if onSuccess != nil {
		onSuccess()
	}
}

func (m *Machine) passwordProblemLocked() string {
	if len(m.newPassword) < m.cfg.MinPasswordLen {
		return msgPasswordTooShort
	}
	if m.newPassword != m.confirmPassword {
		return msgPasswordMismatch
	}
	return ""
}

func (m *Machine) resetEntryLocked() {
	m.digits = make([]byte, m.cfg.Arity)
	m.focus = 0
	m.errMsg = ""
	m.notice = ""
}

func (m *Machine) codeLocked() string {
	var b strings.Builder
	for _, d := range m.digits {
		if d != 0 {
			b.WriteByte(d)
		}
	}
	return b.String()
}

func (m *Machine) completeLocked() bool {
	for _, d := range m.digits {
		if d == 0 {
			return false
		}
	}
	return true
}

func (m *Machine) count(mode, outcome string) {
	if m.metrics != nil {
		m.metrics.ChallengeSubmissions.WithLabelValues(mode, outcome).Inc()
	}
}

// Snapshot is a consistent copy of the visible state for rendering and tests.
type Snapshot struct {
	Open     bool
	Flow     Flow
	Mode     Mode
	Step     Step
	Code     string
	Filled   []bool
	Focus    int
	Busy     bool
	Complete bool
	Error    string
	Notice   string
	Done     bool
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	filled := make([]bool, len(m.digits))
	for i, d := range m.digits {
		filled[i] = d != 0
	}
	return Snapshot{
		Open:     m.open,
		Flow:     m.flow,
		Mode:     m.mode,
		Step:     m.step,
		Code:     m.codeLocked(),
		Filled:   filled,
		Focus:    m.focus,
		Busy:     m.busy,
		Complete: m.completeLocked(),
		Error:    m.errMsg,
		Notice:   m.notice,
		Done:     m.step == StepDone,
	}
}
