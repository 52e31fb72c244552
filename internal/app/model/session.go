/*
Package model contains the domain types the cache stores hold.

Field names follow the service's JSON (snake_case). Nullable timestamps are pointers;
required timestamps are time.Time.
*/
package model

import "time"

// Session is the authenticated identity. It is replaced wholesale on login and
// logout and never partially mutated.
type Session struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	IsVerified    bool       `json:"is_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	DeletedAt     *time.Time `json:"deleted_at"`
	ToBeDeletedAt *time.Time `json:"to_be_deleted_at"`
}

// DeviceSession is one entry of the "list sessions" response.
type DeviceSession struct {
	RefreshToken string    `json:"refresh_token"`
	UserAgent    string    `json:"user_agent,omitempty"`
	IP           string    `json:"ip,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// OTPAction names the flow an OTP verification completes.
type OTPAction string

const (
	OTPLogin          OTPAction = "login"
	OTPRegister       OTPAction = "register"
	OTPForgotPassword OTPAction = "forgot-password"
)

// Authenticates reports whether a successful verification establishes an identity.
func (a OTPAction) Authenticates() bool {
	return a == OTPLogin || a == OTPRegister
}

// AuthRequest carries login or registration credentials.
type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyOTPRequest completes an OTP flow.
type VerifyOTPRequest struct {
	UserID string    `json:"user_id"`
	Code   string    `json:"code"`
	Action OTPAction `json:"action"`
}

// ResetPasswordRequest sets a new password after a forgot-password verification.
type ResetPasswordRequest struct {
	UserID      string `json:"user_id"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordRequest changes the password of the signed-in account.
type ChangePasswordRequest struct {
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

// OTPSent is returned when the service has mailed a one-time code.
type OTPSent struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Recovery is returned by a verification that yields an account recovery token.
type Recovery struct {
	Message       string `json:"message"`
	RecoveryToken string `json:"recovery_token"`
}

// VerifyResult is the union the verify endpoint answers with: either a plain
// boolean or a recovery payload.
type VerifyResult struct {
	OK       bool
	Recovery *Recovery
}
