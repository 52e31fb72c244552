package handler

import (
	"net/http"
	"time"

	"livesync/internal/app/model"
	"livesync/internal/pkg/errs"
	"livesync/internal/pkg/resp"
)

// StoreStatus mirrors the loading flag and error slot of a store.
type StoreStatus struct {
	Loading bool              `json:"loading"`
	Error   *errs.CustomError `json:"error,omitempty"`
}

type SessionView struct {
	User                *model.Session        `json:"user"`
	Devices             []model.DeviceSession `json:"devices"`
	PendingOTP          *model.OTPSent        `json:"pending_otp,omitempty"`
	CredentialExpiresAt *time.Time            `json:"credential_expires_at,omitempty"`
	CooldownSeconds     int                   `json:"cooldown_seconds"`
	Status              StoreStatus           `json:"status"`
}

type PushView struct {
	State string `json:"state"`
	URL   string `json:"url"`
}

func HandleGetSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := deps.Session.Auth

		view := SessionView{
			Devices:         auth.Sessions(),
			CooldownSeconds: int(auth.Cooldown().Remaining().Round(time.Second) / time.Second),
			Status:          StoreStatus{Loading: auth.Loading(), Error: auth.Err()},
		}
		if view.Devices == nil {
			view.Devices = []model.DeviceSession{}
		}
		if me, ok := auth.Me(); ok {
			view.User = &me
		}
		if p, ok := auth.Pending(); ok {
			view.PendingOTP = &p
		}
		if exp, ok := auth.CredentialExpiry(); ok {
			view.CredentialExpiresAt = &exp
		}

		resp.RespondSuccess(w, r, view)
	}
}

func HandleGetPush(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch := deps.Session.Push
		resp.RespondSuccess(w, r, PushView{State: ch.State().String(), URL: ch.URL()})
	}
}
