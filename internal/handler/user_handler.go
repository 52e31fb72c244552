package handler

import (
	"net/http"

	"livesync/internal/app/model"
	"livesync/internal/pkg/resp"
)

type BlocksView struct {
	Blocks     []model.Block `json:"blocks"`
	BlockedIDs []string      `json:"blocked_ids"`
	Status     StoreStatus   `json:"status"`
}

type SettingsView struct {
	Settings *model.Settings `json:"settings"`
	Status   StoreStatus     `json:"status"`
}

// HandleGetPresence returns the presence of every tracked user keyed by user id.
func HandleGetPresence(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Session.Presence.Snapshot())
	}
}

func HandleGetBlocks(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blocks := deps.Session.Blocks

		view := BlocksView{
			Blocks:     blocks.Blocks(),
			BlockedIDs: blocks.BlockedIDs(),
			Status:     StoreStatus{Loading: blocks.Loading(), Error: blocks.Err()},
		}
		if view.Blocks == nil {
			view.Blocks = []model.Block{}
		}

		resp.RespondSuccess(w, r, view)
	}
}

func HandleGetSettings(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings := deps.Session.Settings

		view := SettingsView{Status: StoreStatus{Loading: settings.Loading(), Error: settings.Err()}}
		if st, ok := settings.Settings(); ok {
			view.Settings = &st
		}

		resp.RespondSuccess(w, r, view)
	}
}
