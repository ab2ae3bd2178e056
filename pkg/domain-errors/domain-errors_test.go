package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives. Everything the backend
// returns funnels through these, and the challenge verifier branches on codes
// to drive its transitions.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeInvalidSecret, Message: "Incorrect PIN"}
		s.Equal("Incorrect PIN", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodePINNotSet}
		s.Equal("pin_not_set", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	s.Run("returns wrapped error", func() {
		inner := errors.New("connection refused")
		err := &Error{Code: CodeUnavailable, Message: "request failed", Err: inner}
		s.Equal(inner, err.Unwrap())
	})

	s.Run("returns nil when no wrapped error", func() {
		err := &Error{Code: CodeNotFound, Message: "not found"}
		s.Nil(err.Unwrap())
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeInvalidSecret, Message: "Incorrect PIN"}
		err2 := &Error{Code: CodeInvalidSecret, Message: "wrong code"}
		s.True(err1.Is(err2))
	})

	s.Run("does not match different codes", func() {
		err1 := &Error{Code: CodePINNotSet}
		err2 := &Error{Code: CodeInvalidSecret}
		s.False(err1.Is(err2))
	})

	s.Run("does not match non-domain errors", func() {
		err1 := &Error{Code: CodeNotFound}
		err2 := errors.New("not found")
		s.False(err1.Is(err2))
	})

	s.Run("works with errors.Is through chain", func() {
		inner := &Error{Code: CodePINNotSet, Message: "original"}
		wrapped := &Error{Code: CodeInternal, Message: "wrapped", Err: inner}
		target := &Error{Code: CodePINNotSet}

		s.True(errors.Is(wrapped, target))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("preserves original domain code when wrapping domain error", func() {
		original := New(CodeOTPExpired, "OTP expired")
		wrapped := Wrap(original, CodeInternal, "verification failed")

		var domainErr *Error
		s.Require().True(errors.As(wrapped, &domainErr))
		s.Equal(CodeOTPExpired, domainErr.Code)
		s.Equal("verification failed", domainErr.Message)
	})

	s.Run("uses provided code when wrapping non-domain error", func() {
		original := errors.New("dial tcp: timeout")
		wrapped := Wrap(original, CodeUnavailable, "backend unreachable")

		var domainErr *Error
		s.Require().True(errors.As(wrapped, &domainErr))
		s.Equal(CodeUnavailable, domainErr.Code)
	})

	s.Run("wrapped error is accessible via errors.Is", func() {
		original := errors.New("root cause")
		wrapped := Wrap(original, CodeInternal, "request failed")
		s.True(errors.Is(wrapped, original))
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.Run("returns true for matching code", func() {
		err := New(CodeEmailTaken, "Email already registered")
		s.True(HasCode(err, CodeEmailTaken))
		s.True(Is(err, CodeEmailTaken))
	})

	s.Run("returns false for other codes and plain errors", func() {
		s.False(HasCode(New(CodeEmailTaken, ""), CodeConflict))
		s.False(HasCode(errors.New("boom"), CodeConflict))
		s.False(HasCode(nil, CodeConflict))
	})
}

func (s *DomainErrorsSuite) TestMessageOr() {
	s.Run("prefers server-provided message", func() {
		err := New(CodeValidation, "PIN must be 4 digits")
		s.Equal("PIN must be 4 digits", MessageOr(err, "Verification failed"))
	})

	s.Run("falls back when message is empty", func() {
		s.Equal("Verification failed", MessageOr(New(CodeInternal, ""), "Verification failed"))
	})

	s.Run("falls back for non-domain errors", func() {
		s.Equal("Verification failed", MessageOr(errors.New("x"), "Verification failed"))
	})
}
