package api_test

import (
	"context"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livesync/internal/app/api"
	"livesync/internal/app/api/apitest"
	"livesync/internal/app/model"
	"livesync/internal/pkg/auth/jwt"
	"livesync/internal/pkg/errs"
	"livesync/internal/pkg/logx"
)

func TestMain(m *testing.M) {
	logx.InitTestLogger(io.Discard, zerolog.Disabled)
	os.Exit(m.Run())
}

func TestClient_Perform_PassesThroughWithoutRenewal(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Get("/chat/all", apitest.Reply(http.StatusOK, []model.Chat{}))
	srv.Router.Post(api.RenewPath, apitest.Reply(http.StatusOK, true))

	res, err := srv.Client().Perform(context.Background(), http.MethodGet, "/chat/all", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, 0, srv.Hits(http.MethodPost, api.RenewPath))
}

// One 401, successful renewal: exactly one renewal and one replay.
func TestClient_Perform_RenewsAndReplaysOnce(t *testing.T) {
	srv := apitest.New(t)

	var calls atomic.Int32
	srv.Router.Get("/chat/all", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			apitest.Fail(w, http.StatusUnauthorized, errs.ErrUnauthorized, "token expired")
			return
		}
		apitest.JSON(w, http.StatusOK, []model.Chat{{ID: "c1", Kind: model.ChatGroup}})
	})
	srv.Router.Post(api.RenewPath, apitest.Reply(http.StatusOK, true))

	res, err := srv.Client().Perform(context.Background(), http.MethodGet, "/chat/all", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, 1, srv.Hits(http.MethodPost, api.RenewPath))
	assert.Equal(t, 2, srv.Hits(http.MethodGet, "/chat/all"))
}

// A permanently invalid credential must not loop.
func TestClient_Perform_SecondUnauthorizedIsPassedThrough(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		apitest.Fail(w, http.StatusUnauthorized, errs.ErrUnauthorized, "still invalid")
	})
	srv.Router.Post(api.RenewPath, apitest.Reply(http.StatusOK, true))

	res, err := srv.Client().Perform(context.Background(), http.MethodGet, "/auth/me", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, 1, srv.Hits(http.MethodPost, api.RenewPath))
	assert.Equal(t, 2, srv.Hits(http.MethodGet, "/auth/me"))
}

func TestClient_Perform_FailedRenewalReturnsOriginalResponse(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		apitest.Fail(w, http.StatusUnauthorized, errs.ErrUnauthorized, "original")
	})
	srv.Router.Post(api.RenewPath, func(w http.ResponseWriter, r *http.Request) {
		apitest.Fail(w, http.StatusUnauthorized, errs.ErrUnauthorized, "refresh expired")
	})

	res, err := srv.Client().Perform(context.Background(), http.MethodGet, "/auth/me", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.JSONEq(t, `{"code":401,"error":"original"}`, string(res.Body))
	assert.Equal(t, 1, srv.Hits(http.MethodGet, "/auth/me"))
	assert.Equal(t, 1, srv.Hits(http.MethodPost, api.RenewPath))
}

func TestClient_Perform_ReplaysSameBody(t *testing.T) {
	srv := apitest.New(t)

	var bodies []string
	srv.Router.Post("/chat/{id}/send", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		apitest.JSON(w, http.StatusOK, model.Message{ID: "m1", ChatID: "c1"})
	})
	srv.Router.Post(api.RenewPath, apitest.Reply(http.StatusOK, true))

	in := model.MessageCreateRequest{Content: "hi", Type: model.MessageText}
	msg, cerr := srv.Client().SendMessage(context.Background(), "c1", in)
	require.Nil(t, cerr)

	assert.Equal(t, "m1", msg.ID)
	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
	assert.JSONEq(t, `{"content":"hi","type":"text","reply_to_message":null}`, bodies[0])
}

func TestClient_Perform_AttachesCredential(t *testing.T) {
	srv := apitest.New(t)

	var seen string
	srv.Router.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(jwt.AccessCookieName); err == nil {
			seen = c.Value
		}
		apitest.JSON(w, http.StatusOK, model.Session{ID: "u1"})
	})

	client := srv.Client()
	token := srv.SetCredential(client.Jar(), "u1", time.Hour)

	_, cerr := client.Me(context.Background())
	require.Nil(t, cerr)
	assert.Equal(t, token, seen)
}

func TestClient_Login_DoesNotRenew(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		apitest.Fail(w, http.StatusUnauthorized, 4010, "wrong password")
	})
	srv.Router.Post(api.RenewPath, apitest.Reply(http.StatusOK, true))

	_, cerr := srv.Client().Login(context.Background(), model.AuthRequest{Email: "a@b.c", Password: "x"})
	require.NotNil(t, cerr)

	assert.Equal(t, 4010, cerr.Code)
	assert.Equal(t, "wrong password", cerr.Message)
	assert.Equal(t, 0, srv.Hits(http.MethodPost, api.RenewPath))
}

func TestClient_VerifyOTP_DecodesBothShapes(t *testing.T) {
	srv := apitest.New(t)

	var recovery atomic.Bool
	srv.Router.Post("/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		if recovery.Load() {
			apitest.JSON(w, http.StatusOK, model.Recovery{Message: "scheduled", RecoveryToken: "rt"})
			return
		}
		apitest.JSON(w, http.StatusOK, true)
	})

	client := srv.Client()
	in := model.VerifyOTPRequest{UserID: "u1", Code: "123456", Action: model.OTPLogin}

	res, cerr := client.VerifyOTP(context.Background(), in)
	require.Nil(t, cerr)
	assert.True(t, res.OK)
	assert.Nil(t, res.Recovery)

	recovery.Store(true)
	res, cerr = client.VerifyOTP(context.Background(), in)
	require.Nil(t, cerr)
	require.NotNil(t, res.Recovery)
	assert.Equal(t, "rt", res.Recovery.RecoveryToken)
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := api.NewClient(api.Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
}
