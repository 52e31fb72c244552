package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"livesync/internal/app/model"
	"livesync/internal/pkg/errs"
	"livesync/internal/pkg/req"
)

// Login starts a login and triggers an OTP mail.
func (c *Client) Login(ctx context.Context, in model.AuthRequest) (model.OTPSent, *errs.CustomError) {
	return Decode[model.OTPSent](c.performOnce(ctx, http.MethodPost, "/auth/login", in))
}

// Register creates an account and triggers an OTP mail.
func (c *Client) Register(ctx context.Context, in model.AuthRequest) (model.OTPSent, *errs.CustomError) {
	return Decode[model.OTPSent](c.performOnce(ctx, http.MethodPost, "/auth/register", in))
}

// VerifyOTP completes an OTP flow. The service answers with a boolean, or with a
// recovery payload for accounts scheduled for deletion.
func (c *Client) VerifyOTP(ctx context.Context, in model.VerifyOTPRequest) (model.VerifyResult, *errs.CustomError) {
	raw, cerr := Decode[json.RawMessage](c.performOnce(ctx, http.MethodPost, "/auth/verify", in))
	if cerr != nil {
		return model.VerifyResult{}, cerr
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var rec model.Recovery
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return model.VerifyResult{}, errs.Internal(err)
		}
		return model.VerifyResult{OK: true, Recovery: &rec}, nil
	}

	var ok bool
	if err := json.Unmarshal(trimmed, &ok); err != nil {
		return model.VerifyResult{}, errs.Internal(err)
	}

	return model.VerifyResult{OK: ok}, nil
}

// ResendOTP asks for a new code for the pending flow of userID.
func (c *Client) ResendOTP(ctx context.Context, userID, email string) (bool, *errs.CustomError) {
	path := req.WithQuery("/auth/resend", "id", userID, "email", email)
	return Decode[bool](c.Perform(ctx, http.MethodPost, path, nil))
}

// Logout ends the current session.
func (c *Client) Logout(ctx context.Context) (bool, *errs.CustomError) {
	return Decode[bool](c.Perform(ctx, http.MethodPost, "/auth/logout", nil))
}

// LogoutSession ends the session identified by its refresh token.
func (c *Client) LogoutSession(ctx context.Context, token string) (bool, *errs.CustomError) {
	return Decode[bool](c.Perform(ctx, http.MethodDelete, req.Path("auth", "logout", token), nil))
}

// Me returns the authenticated identity.
func (c *Client) Me(ctx context.Context) (model.Session, *errs.CustomError) {
	return Decode[model.Session](c.Perform(ctx, http.MethodGet, "/auth/me", nil))
}

// Sessions lists the account's active sessions.
func (c *Client) Sessions(ctx context.Context) ([]model.DeviceSession, *errs.CustomError) {
	return Decode[[]model.DeviceSession](c.Perform(ctx, http.MethodGet, "/auth/sessions", nil))
}

// ChangeMail starts an email change.
func (c *Client) ChangeMail(ctx context.Context, email string) (bool, *errs.CustomError) {
	body := struct {
		Email string `json:"email"`
	}{Email: email}

	return Decode[bool](c.Perform(ctx, http.MethodPost, "/auth/change-mail", body))
}

// ChangePass changes the account password.
func (c *Client) ChangePass(ctx context.Context, in model.ChangePasswordRequest) (bool, *errs.CustomError) {
	return Decode[bool](c.Perform(ctx, http.MethodPost, "/auth/change-pass", in))
}

// ForgotPassword starts password recovery for email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (model.OTPSent, *errs.CustomError) {
	path := req.WithQuery("/auth/forgot-password", "email", email)
	return Decode[model.OTPSent](c.Perform(ctx, http.MethodPost, path, nil))
}

// ResetPassword sets a new password after a verified forgot-password flow.
func (c *Client) ResetPassword(ctx context.Context, in model.ResetPasswordRequest) (bool, *errs.CustomError) {
	return Decode[bool](c.Perform(ctx, http.MethodPost, "/auth/reset-password", in))
}

// RecoveryAccount cancels a scheduled account deletion.
func (c *Client) RecoveryAccount(ctx context.Context, userID, token string) (bool, *errs.CustomError) {
	path := req.WithQuery(req.Path("auth", "recovery", userID), "token", token)
	return Decode[bool](c.Perform(ctx, http.MethodPut, path, nil))
}

// DeleteAccount schedules the account for deletion and mails a confirmation code.
func (c *Client) DeleteAccount(ctx context.Context, email string) (model.OTPSent, *errs.CustomError) {
	return Decode[model.OTPSent](c.Perform(ctx, http.MethodPost, req.Path("auth", "delete", email), nil))
}
