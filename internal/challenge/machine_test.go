package challenge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "vitta/pkg/domain-errors"
)

// stubAuthority scripts verify/setup outcomes and counts calls, so tests can
// assert which endpoint a submission reached.
type stubAuthority struct {
	mu           sync.Mutex
	verifyErr    error
	setupErr     error
	verifyCalls  int
	setupCalls   int
	verifyBlock  chan struct{} // when set, VerifySecret waits until closed
	lastVerified string
	lastSetup    string
}

func (s *stubAuthority) VerifySecret(_ context.Context, code string) error {
	s.mu.Lock()
	s.verifyCalls++
	s.lastVerified = code
	block := s.verifyBlock
	err := s.verifyErr
	s.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (s *stubAuthority) SetupSecret(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setupCalls++
	s.lastSetup = code
	return s.setupErr
}

func (s *stubAuthority) counts() (verify, setup int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifyCalls, s.setupCalls
}

type PINMachineSuite struct {
	suite.Suite
	authority *stubAuthority
	machine   *Machine
	successes int
}

func TestPINMachineSuite(t *testing.T) {
	suite.Run(t, new(PINMachineSuite))
}

func (s *PINMachineSuite) SetupTest() {
	s.authority = &stubAuthority{}
	s.machine = New(PINConfig(), WithVerifier(s.authority), WithCreator(s.authority))
	s.successes = 0
}

func (s *PINMachineSuite) open(flow Flow) {
	s.machine.Open(flow, func() { s.successes++ })
}

// waitBusy blocks until the in-flight submission has taken the busy flag.
func (s *PINMachineSuite) waitBusy() {
	deadline := time.Now().Add(time.Second)
	for !s.machine.Snapshot().Busy {
		if time.Now().After(deadline) {
			s.FailNow("submission never became busy")
		}
		time.Sleep(time.Millisecond)
	}
}

func (s *PINMachineSuite) TestOpenSeedsModeFromFlow() {
	s.open(FlowVerify)
	snap := s.machine.Snapshot()
	s.Equal(ModeVerify, snap.Mode)
	s.Equal(StepEnter, snap.Step)
	s.Equal(0, snap.Focus)
	s.Empty(snap.Code)

	s.open(FlowSetup)
	s.Equal(ModeSetup, s.machine.Snapshot().Mode)

	s.open(FlowChange)
	s.Equal(ModeVerify, s.machine.Snapshot().Mode)
}

func (s *PINMachineSuite) TestVerifySuccessInvokesContinuationOnceAndCloses() {
	s.open(FlowVerify)
	s.machine.Type("1234")
	s.Require().NoError(s.machine.Submit(context.Background()))

	s.Equal(1, s.successes)
	s.False(s.machine.Snapshot().Open)
	s.Equal("1234", s.authority.lastVerified)

	verify, setup := s.authority.counts()
	s.Equal(1, verify)
	s.Equal(0, setup, "verify mode must never call the setup endpoint")

	// digits reset on next open, no stale error
	s.open(FlowVerify)
	snap := s.machine.Snapshot()
	s.Empty(snap.Code)
	s.Empty(snap.Error)
}

func (s *PINMachineSuite) TestSetupModeNeverCallsVerifyEndpoint() {
	s.open(FlowSetup)
	s.machine.Type("4321")
	s.Require().NoError(s.machine.Submit(context.Background()))

	verify, setup := s.authority.counts()
	s.Equal(0, verify)
	s.Equal(1, setup)
	s.Equal("4321", s.authority.lastSetup)
	s.Equal(1, s.successes)
	s.False(s.machine.Snapshot().Open)
}

func (s *PINMachineSuite) TestIncompleteEntryIsNoOp() {
	s.open(FlowVerify)
	s.machine.Type("12")
	s.ErrorIs(s.machine.Submit(context.Background()), ErrIncomplete)
	s.NoError(s.machine.Enter(context.Background())) // accept key swallows it

	verify, setup := s.authority.counts()
	s.Zero(verify)
	s.Zero(setup)
}

func (s *PINMachineSuite) TestPINNotSetTransitionsToSetupWithNeutralPrompt() {
	s.authority.verifyErr = dErrors.New(dErrors.CodePINNotSet, "PIN not set")
	s.open(FlowVerify)
	s.machine.Type("0000")
	s.Require().NoError(s.machine.Submit(context.Background()))

	snap := s.machine.Snapshot()
	s.True(snap.Open)
	s.Equal(ModeSetup, snap.Mode)
	s.Empty(snap.Code, "digits cleared for the new PIN")
	s.Empty(snap.Error, "not an error: a neutral creation prompt")
	s.Equal("Please create a new PIN", snap.Notice)
	s.Zero(s.successes)

	// now creating the PIN succeeds through the setup endpoint
	s.authority.verifyErr = nil
	s.machine.Type("1234")
	s.Require().NoError(s.machine.Submit(context.Background()))
	verify, setup := s.authority.counts()
	s.Equal(1, verify)
	s.Equal(1, setup)
	s.Equal(1, s.successes)
}

func (s *PINMachineSuite) TestWrongPINStaysInVerify() {
	s.authority.verifyErr = dErrors.New(dErrors.CodeInvalidSecret, "Incorrect PIN")
	s.open(FlowVerify)
	s.machine.Type("9999")
	s.Require().NoError(s.machine.Submit(context.Background()))

	snap := s.machine.Snapshot()
	s.True(snap.Open)
	s.Equal(ModeVerify, snap.Mode)
	s.Equal("Incorrect PIN", snap.Error)
	s.Empty(snap.Code, "digits cleared for retry")
	s.Zero(s.successes)

	// the error clears on the next submission attempt
	s.authority.verifyErr = nil
	s.machine.Type("1234")
	s.Require().NoError(s.machine.Submit(context.Background()))
	s.Equal(1, s.successes)
}

func (s *PINMachineSuite) TestChangeFlowTransitionsToSetupExactlyOnce() {
	s.open(FlowChange)
	s.machine.Type("1234")
	s.Require().NoError(s.machine.Submit(context.Background()))

	snap := s.machine.Snapshot()
	s.True(snap.Open, "change flow stays open to collect the new PIN")
	s.Equal(ModeSetup, snap.Mode)
	s.Empty(snap.Code)
	s.Zero(s.successes)

	// second submission goes to setup, finishing the change
	s.machine.Type("5678")
	s.Require().NoError(s.machine.Submit(context.Background()))
	verify, setup := s.authority.counts()
	s.Equal(1, verify, "never loops back to verify")
	s.Equal(1, setup)
	s.Equal("5678", s.authority.lastSetup)
	s.Equal(1, s.successes)
	s.False(s.machine.Snapshot().Open)
}

func (s *PINMachineSuite) TestSetupFailureSurfacesServerMessage() {
	s.authority.setupErr = dErrors.New(dErrors.CodeValidation, "PIN must be 4 digits")
	s.open(FlowSetup)
	s.machine.Type("1234")
	s.Require().NoError(s.machine.Submit(context.Background()))

	snap := s.machine.Snapshot()
	s.True(snap.Open)
	s.Equal(ModeSetup, snap.Mode)
	s.Equal("PIN must be 4 digits", snap.Error)
	s.Zero(s.successes)
}

func (s *PINMachineSuite) TestGenericFailureFallsBackToGenericMessage() {
	s.authority.verifyErr = dErrors.New(dErrors.CodeUnavailable, "")
	s.open(FlowVerify)
	s.machine.Type("1234")
	s.Require().NoError(s.machine.Submit(context.Background()))
	s.Equal("Verification failed", s.machine.Snapshot().Error)
}

func (s *PINMachineSuite) TestSubmitWhileBusyIsRejected() {
	block := make(chan struct{})
	s.authority.verifyBlock = block
	s.open(FlowVerify)
	s.machine.Type("1234")

	done := make(chan error, 1)
	go func() { done <- s.machine.Submit(context.Background()) }()
	s.waitBusy()

	s.ErrorIs(s.machine.Submit(context.Background()), ErrBusy)
	s.False(s.machine.Press('1'), "digit input is blocked while busy")

	close(block)
	s.Require().NoError(<-done)

	verify, _ := s.authority.counts()
	s.Equal(1, verify, "no duplicate network calls")
}

func (s *PINMachineSuite) TestCloseDropsInFlightResult() {
	block := make(chan struct{})
	s.authority.verifyBlock = block
	s.open(FlowVerify)
	s.machine.Type("1234")

	done := make(chan error, 1)
	go func() { done <- s.machine.Submit(context.Background()) }()
	s.waitBusy()

	s.machine.Close()
	close(block)
	s.Require().NoError(<-done)

	s.Zero(s.successes, "a settling request must not touch a closed session")
	snap := s.machine.Snapshot()
	s.False(snap.Open)
	s.False(snap.Busy)

	// reopening yields a clean slate, unaffected by the dropped result
	s.open(FlowVerify)
	snap = s.machine.Snapshot()
	s.Empty(snap.Code)
	s.Empty(snap.Error)
	s.False(snap.Busy)
}

func (s *PINMachineSuite) TestReopenDiscardsEverything() {
	s.authority.verifyErr = dErrors.New(dErrors.CodeInvalidSecret, "Incorrect PIN")
	s.open(FlowVerify)
	s.machine.Type("9999")
	s.Require().NoError(s.machine.Submit(context.Background()))
	s.NotEmpty(s.machine.Snapshot().Error)

	s.open(FlowVerify)
	snap := s.machine.Snapshot()
	s.Empty(snap.Code)
	s.Empty(snap.Error)
	s.Empty(snap.Notice)
	s.Equal(0, snap.Focus)
}

func (s *PINMachineSuite) TestSubmitOnClosedMachine() {
	s.ErrorIs(s.machine.Submit(context.Background()), ErrClosed)
}
