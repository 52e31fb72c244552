package store

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"livesync/internal/app/model"
	"livesync/internal/pkg/auth/jwt"
	"livesync/internal/pkg/cooldown"
	"livesync/internal/pkg/errs"
	"livesync/internal/pkg/logx"
)

// AuthService is the slice of the API the SessionStore needs.
type AuthService interface {
	Login(ctx context.Context, in model.AuthRequest) (model.OTPSent, *errs.CustomError)
	Register(ctx context.Context, in model.AuthRequest) (model.OTPSent, *errs.CustomError)
	VerifyOTP(ctx context.Context, in model.VerifyOTPRequest) (model.VerifyResult, *errs.CustomError)
	ResendOTP(ctx context.Context, userID, email string) (bool, *errs.CustomError)
	Logout(ctx context.Context) (bool, *errs.CustomError)
	LogoutSession(ctx context.Context, token string) (bool, *errs.CustomError)
	Me(ctx context.Context) (model.Session, *errs.CustomError)
	Sessions(ctx context.Context) ([]model.DeviceSession, *errs.CustomError)
	ChangeMail(ctx context.Context, email string) (bool, *errs.CustomError)
	ChangePass(ctx context.Context, in model.ChangePasswordRequest) (bool, *errs.CustomError)
	ForgotPassword(ctx context.Context, email string) (model.OTPSent, *errs.CustomError)
	ResetPassword(ctx context.Context, in model.ResetPasswordRequest) (bool, *errs.CustomError)
	RecoveryAccount(ctx context.Context, userID, token string) (bool, *errs.CustomError)
	DeleteAccount(ctx context.Context, email string) (model.OTPSent, *errs.CustomError)
}

// CredentialSource exposes where the ambient credential lives.
type CredentialSource interface {
	Jar() http.CookieJar
	BaseURL() *url.URL
}

// SessionHooks let the owner of the session react to identity changes.
type SessionHooks struct {
	// OnAuthenticated runs after a login or registration is verified and the
	// identity has been fetched.
	OnAuthenticated func(ctx context.Context)

	// OnLogout runs after the service confirmed the logout.
	OnLogout func()
}

// SessionStore owns the authenticated identity and the account's session list.
type SessionStore struct {
	slot

	api      AuthService
	cred     CredentialSource
	cooldown *cooldown.Countdown
	logger   zerolog.Logger

	mu       sync.RWMutex
	me       *model.Session
	sessions []model.DeviceSession
	pending  *model.OTPSent
	hooks    SessionHooks
}

// NewSessionStore returns an empty SessionStore. cd throttles OTP resends; cred may be nil.
func NewSessionStore(api AuthService, cred CredentialSource, cd *cooldown.Countdown) *SessionStore {
	if cd == nil {
		cd = cooldown.New(30 * time.Second)
	}

	return &SessionStore{
		api:      api,
		cred:     cred,
		cooldown: cd,
		logger:   logx.Component("store.session"),
	}
}

// SetHooks installs the identity-change callbacks.
func (s *SessionStore) SetHooks(h SessionHooks) {
	s.mu.Lock()
	s.hooks = h
	s.mu.Unlock()
}

// Me returns the authenticated identity.
func (s *SessionStore) Me() (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.me == nil {
		return model.Session{}, false
	}
	return *s.me, true
}

// SelfID returns the id of the authenticated user, "" when unknown.
func (s *SessionStore) SelfID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.me == nil {
		return ""
	}
	return s.me.ID
}

// Sessions returns the cached session list.
func (s *SessionStore) Sessions() []model.DeviceSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.sessions)
}

// Pending returns the OTP flow most recently started by Login, Register or ForgotPassword.
func (s *SessionStore) Pending() (model.OTPSent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pending == nil {
		return model.OTPSent{}, false
	}
	return *s.pending, true
}

// Cooldown exposes the resend countdown for display.
func (s *SessionStore) Cooldown() *cooldown.Countdown {
	return s.cooldown
}

// CredentialExpiry reads the expiry of the access token held in the jar.
func (s *SessionStore) CredentialExpiry() (time.Time, bool) {
	if s.cred == nil {
		return time.Time{}, false
	}

	claims, err := jwt.FromJar(s.cred.Jar(), s.cred.BaseURL())
	if err != nil {
		return time.Time{}, false
	}

	exp := claims.Expiry()
	return exp, !exp.IsZero()
}

// FetchMe loads the identity. On failure the cached identity is left untouched.
func (s *SessionStore) FetchMe(ctx context.Context) bool {
	me, ok := call(&s.slot, func() (model.Session, *errs.CustomError) {
		return s.api.Me(ctx)
	})
	if !ok {
		return false
	}

	s.mu.Lock()
	s.me = &me
	s.mu.Unlock()

	return true
}

// FetchSessions loads the account's active sessions.
func (s *SessionStore) FetchSessions(ctx context.Context) bool {
	list, ok := call(&s.slot, func() ([]model.DeviceSession, *errs.CustomError) {
		return s.api.Sessions(ctx)
	})
	if !ok {
		return false
	}

	s.mu.Lock()
	s.sessions = list
	s.mu.Unlock()

	return true
}

// Login starts a login and remembers the pending OTP flow.
func (s *SessionStore) Login(ctx context.Context, in model.AuthRequest) (model.OTPSent, bool) {
	return s.startOTP(func() (model.OTPSent, *errs.CustomError) {
		return s.api.Login(ctx, in)
	})
}

// Register creates an account and remembers the pending OTP flow.
func (s *SessionStore) Register(ctx context.Context, in model.AuthRequest) (model.OTPSent, bool) {
	return s.startOTP(func() (model.OTPSent, *errs.CustomError) {
		return s.api.Register(ctx, in)
	})
}

// ForgotPassword starts password recovery.
func (s *SessionStore) ForgotPassword(ctx context.Context, email string) (model.OTPSent, bool) {
	return s.startOTP(func() (model.OTPSent, *errs.CustomError) {
		return s.api.ForgotPassword(ctx, email)
	})
}

func (s *SessionStore) startOTP(fn func() (model.OTPSent, *errs.CustomError)) (model.OTPSent, bool) {
	sent, ok := call(&s.slot, fn)
	if !ok {
		return model.OTPSent{}, false
	}

	s.mu.Lock()
	s.pending = &sent
	s.mu.Unlock()

	s.cooldown.Start()

	return sent, true
}

// VerifyOTP completes an OTP flow. A verified login or registration fetches the
// identity and then runs the OnAuthenticated hook.
func (s *SessionStore) VerifyOTP(ctx context.Context, in model.VerifyOTPRequest) (model.VerifyResult, bool) {
	res, ok := call(&s.slot, func() (model.VerifyResult, *errs.CustomError) {
		return s.api.VerifyOTP(ctx, in)
	})
	if !ok {
		return model.VerifyResult{}, false
	}

	if !res.OK || res.Recovery != nil || !in.Action.Authenticates() {
		return res, true
	}

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
	s.cooldown.Stop()

	if !s.FetchMe(ctx) {
		return res, true
	}

	s.mu.RLock()
	hook := s.hooks.OnAuthenticated
	s.mu.RUnlock()

	if hook != nil {
		hook(ctx)
	}

	return res, true
}

// ResendOTP asks for a new code. While the cooldown runs the request is rejected
// locally without a network call.
func (s *SessionStore) ResendOTP(ctx context.Context, userID, email string) bool {
	if s.cooldown.Active() {
		secs := int(s.cooldown.Remaining().Round(time.Second) / time.Second)
		s.fail(errs.NewError(errs.ErrCooldownActive, secs))
		return false
	}

	sent, ok := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.ResendOTP(ctx, userID, email)
	})
	if !ok || !sent {
		return false
	}

	s.cooldown.Start()
	return true
}

// Logout ends the current session. On success the OnLogout hook runs and the
// identity is dropped.
func (s *SessionStore) Logout(ctx context.Context) bool {
	_, ok := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.Logout(ctx)
	})
	if !ok {
		return false
	}

	s.mu.RLock()
	hook := s.hooks.OnLogout
	s.mu.RUnlock()

	if hook != nil {
		hook()
	}

	s.Clear()
	s.logger.Info().Msg("Logged out")

	return true
}

// LogoutSession ends another session and drops it from the cached list.
func (s *SessionStore) LogoutSession(ctx context.Context, token string) bool {
	_, ok := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.LogoutSession(ctx, token)
	})
	if !ok {
		return false
	}

	s.mu.Lock()
	s.sessions = slices.DeleteFunc(slices.Clone(s.sessions), func(ds model.DeviceSession) bool {
		return ds.RefreshToken == token
	})
	s.mu.Unlock()

	return true
}

// ChangeMail starts an email change.
func (s *SessionStore) ChangeMail(ctx context.Context, email string) bool {
	ok, done := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.ChangeMail(ctx, email)
	})
	return done && ok
}

// ChangePass changes the password.
func (s *SessionStore) ChangePass(ctx context.Context, oldPass, newPass string) bool {
	ok, done := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.ChangePass(ctx, model.ChangePasswordRequest{Password: oldPass, NewPassword: newPass})
	})
	return done && ok
}

// ResetPassword sets a new password after a verified forgot-password flow.
func (s *SessionStore) ResetPassword(ctx context.Context, in model.ResetPasswordRequest) bool {
	ok, done := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.ResetPassword(ctx, in)
	})
	return done && ok
}

// RecoveryAccount cancels a scheduled deletion.
func (s *SessionStore) RecoveryAccount(ctx context.Context, userID, token string) bool {
	ok, done := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.RecoveryAccount(ctx, userID, token)
	})
	return done && ok
}

// DeleteAccount schedules the account for deletion.
func (s *SessionStore) DeleteAccount(ctx context.Context, email string) bool {
	_, ok := call(&s.slot, func() (model.OTPSent, *errs.CustomError) {
		return s.api.DeleteAccount(ctx, email)
	})
	return ok
}

// Clear drops the identity and everything derived from it.
func (s *SessionStore) Clear() {
	s.cooldown.Stop()

	s.mu.Lock()
	s.me = nil
	s.sessions = nil
	s.pending = nil
	s.mu.Unlock()
}

// Close releases the store's timers.
func (s *SessionStore) Close() {
	s.cooldown.Stop()
}
