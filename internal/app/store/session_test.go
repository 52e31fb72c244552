package store_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livesync/internal/app/api/apitest"
	"livesync/internal/app/model"
	"livesync/internal/app/store"
	"livesync/internal/pkg/cooldown"
	"livesync/internal/pkg/errs"
)

func newSessionStore(t *testing.T, srv *apitest.Server) *store.SessionStore {
	t.Helper()

	c := srv.Client()
	s := store.NewSessionStore(c, c, cooldown.NewWithTick(time.Hour, time.Hour))
	t.Cleanup(s.Close)

	return s
}

func TestSessionStore_VerifyLoginFetchesIdentityAndRunsHook(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Post("/auth/login", apitest.Reply(http.StatusOK, model.OTPSent{UserID: "u1", Message: "code sent"}))
	srv.Router.Post("/auth/verify", apitest.Reply(http.StatusOK, true))
	srv.Router.Get("/auth/me", apitest.Reply(http.StatusOK, model.Session{ID: "u1", Email: "a@b.c"}))

	s := newSessionStore(t, srv)

	var hooked atomic.Int32
	s.SetHooks(store.SessionHooks{OnAuthenticated: func(context.Context) { hooked.Add(1) }})

	sent, ok := s.Login(ctx, model.AuthRequest{Email: "a@b.c", Password: "pw"})
	require.True(t, ok)
	assert.True(t, s.Cooldown().Active())

	pending, ok := s.Pending()
	require.True(t, ok)
	assert.Equal(t, sent, pending)

	res, ok := s.VerifyOTP(ctx, model.VerifyOTPRequest{UserID: sent.UserID, Code: "123456", Action: model.OTPLogin})
	require.True(t, ok)
	assert.True(t, res.OK)

	assert.EqualValues(t, 1, hooked.Load())
	assert.Equal(t, "u1", s.SelfID())
	assert.False(t, s.Cooldown().Active())
	_, ok = s.Pending()
	assert.False(t, ok)
}

func TestSessionStore_VerifyForgotPasswordDoesNotAuthenticate(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Post("/auth/verify", apitest.Reply(http.StatusOK, true))

	s := newSessionStore(t, srv)
	s.SetHooks(store.SessionHooks{OnAuthenticated: func(context.Context) { t.Error("hook must not run") }})

	_, ok := s.VerifyOTP(ctx, model.VerifyOTPRequest{UserID: "u1", Code: "1", Action: model.OTPForgotPassword})
	require.True(t, ok)
	assert.Zero(t, srv.Hits(http.MethodGet, "/auth/me"))
}

func TestSessionStore_ResendDuringCooldownIsLocal(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Post("/auth/resend", apitest.Reply(http.StatusOK, true))

	s := newSessionStore(t, srv)

	require.True(t, s.ResendOTP(ctx, "u1", "a@b.c"))
	assert.True(t, s.Cooldown().Active())

	assert.False(t, s.ResendOTP(ctx, "u1", "a@b.c"))
	require.NotNil(t, s.Err())
	assert.Equal(t, errs.ErrCooldownActive, s.Err().Code)
	assert.Equal(t, 1, srv.Hits(http.MethodPost, "/auth/resend"))
}

func TestSessionStore_LogoutClearsIdentity(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Get("/auth/me", apitest.Reply(http.StatusOK, model.Session{ID: "u1"}))
	srv.Router.Post("/auth/logout", apitest.Reply(http.StatusOK, true))

	s := newSessionStore(t, srv)

	var loggedOut bool
	s.SetHooks(store.SessionHooks{OnLogout: func() { loggedOut = true }})

	require.True(t, s.FetchMe(ctx))
	require.True(t, s.Logout(ctx))

	assert.True(t, loggedOut)
	assert.Empty(t, s.SelfID())
}

func TestSessionStore_FailedFetchKeepsIdentity(t *testing.T) {
	srv := apitest.New(t)
	var served atomic.Bool
	srv.Router.Get("/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		if !served.Swap(true) {
			apitest.JSON(w, http.StatusOK, model.Session{ID: "u1"})
			return
		}
		apitest.Fail(w, http.StatusForbidden, 403, "account suspended")
	})

	s := newSessionStore(t, srv)
	require.True(t, s.FetchMe(ctx))

	assert.False(t, s.FetchMe(ctx))
	assert.Equal(t, "u1", s.SelfID())
	require.NotNil(t, s.Err())
	assert.Equal(t, "account suspended", s.Err().Message)
}

func TestSessionStore_LogoutSessionDropsEntry(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Get("/auth/sessions", apitest.Reply(http.StatusOK, []model.DeviceSession{
		{RefreshToken: "t1"}, {RefreshToken: "t2"},
	}))
	srv.Router.Delete("/auth/logout/{token}", apitest.Reply(http.StatusOK, true))

	s := newSessionStore(t, srv)
	require.True(t, s.FetchSessions(ctx))
	require.True(t, s.LogoutSession(ctx, "t1"))

	require.Len(t, s.Sessions(), 1)
	assert.Equal(t, "t2", s.Sessions()[0].RefreshToken)
}

func TestSessionStore_CredentialExpiry(t *testing.T) {
	srv := apitest.New(t)
	c := srv.Client()
	s := store.NewSessionStore(c, c, nil)
	t.Cleanup(s.Close)

	_, ok := s.CredentialExpiry()
	assert.False(t, ok)

	srv.SetCredential(c.Jar(), "u1", time.Hour)

	exp, ok := s.CredentialExpiry()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)
}
