package api

import (
	"context"

	"vitta/pkg/validation"
)

// VerifyPIN checks the 4-digit transaction PIN. Distinguished failures:
// CodePINNotSet when no PIN exists yet, CodeInvalidSecret on a wrong PIN.
func (c *Client) VerifyPIN(ctx context.Context, pin string) error {
	req := pinRequest{PIN: pin}
	if err := validation.Validate(req); err != nil {
		return err
	}
	return c.post(ctx, "/auth/verify-pin", req, nil)
}

// SetPIN creates or overwrites the transaction PIN.
func (c *Client) SetPIN(ctx context.Context, pin string) error {
	req := pinRequest{PIN: pin}
	if err := validation.Validate(req); err != nil {
		return err
	}
	return c.post(ctx, "/auth/set-pin", req, nil)
}

// RequestPasswordChangeOTP asks the backend to mail a 6-digit code to the
// authenticated user's registered address.
func (c *Client) RequestPasswordChangeOTP(ctx context.Context) error {
	return c.post(ctx, "/auth/request-password-change-otp", struct{}{}, nil)
}

// ChangePasswordWithOTP submits the code and the new password in one step.
func (c *Client) ChangePasswordWithOTP(ctx context.Context, otp, newPassword string) error {
	req := changePasswordOTPRequest{OTP: otp, NewPassword: newPassword}
	if err := validation.Validate(req); err != nil {
		return err
	}
	return c.post(ctx, "/auth/change-password-with-otp", req, nil)
}

// ForgotPassword starts the unauthenticated reset flow for the given email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	req := forgotPasswordRequest{Email: email}
	if err := validation.Validate(req); err != nil {
		return err
	}
	return c.post(ctx, "/auth/forgot-password", req, nil)
}

// VerifyResetOTP confirms the mailed code without consuming it, so the reset
// flow can collect the new password as a separate step.
func (c *Client) VerifyResetOTP(ctx context.Context, email, otp string) error {
	req := verifyResetOTPRequest{Email: email, OTP: otp}
	if err := validation.Validate(req); err != nil {
		return err
	}
	return c.post(ctx, "/auth/verify-reset-otp", req, nil)
}

// ResetPassword completes the unauthenticated reset with code and password.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	req := resetPasswordRequest{Email: email, OTP: otp, NewPassword: newPassword}
	if err := validation.Validate(req); err != nil {
		return err
	}
	return c.post(ctx, "/auth/reset-password", req, nil)
}
