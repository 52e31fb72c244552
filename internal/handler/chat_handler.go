package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"livesync/internal/app/model"
	"livesync/internal/pkg/errs"
	"livesync/internal/pkg/resp"
)

// ChatView is one row of the chat list.
type ChatView struct {
	Chat        model.Chat         `json:"chat"`
	LastMessage *model.LastMessage `json:"last_message"`
	Unread      int                `json:"unread"`
	Loaded      bool               `json:"loaded"`
	Active      bool               `json:"active"`
}

type ChatListView struct {
	ActiveID string      `json:"active_id"`
	Chats    []ChatView  `json:"chats"`
	Status   StoreStatus `json:"status"`
}

func HandleListChats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chats := deps.Session.Chats
		active := chats.ActiveID()

		list := chats.Chats()
		view := ChatListView{
			ActiveID: active,
			Chats:    make([]ChatView, 0, len(list)),
			Status:   StoreStatus{Loading: chats.Loading(), Error: chats.Err()},
		}
		for _, c := range list {
			row := ChatView{
				Chat:   c,
				Unread: chats.Unread(c.ID),
				Loaded: chats.IsLoaded(c.ID),
				Active: c.ID == active,
			}
			if lm, ok := chats.LastMessage(c.ID); ok {
				row.LastMessage = &lm
			}
			view.Chats = append(view.Chats, row)
		}

		resp.RespondSuccess(w, r, view)
	}
}

func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID := chi.URLParam(r, "id")
		if _, ok := deps.Session.Chats.Chat(chatID); !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrChatNotFound))
			return
		}

		msgs := deps.Session.Chats.Messages(chatID)
		if msgs == nil {
			msgs = []model.Message{}
		}
		resp.RespondSuccess(w, r, msgs)
	}
}

func HandleListParticipants(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID := chi.URLParam(r, "id")
		if _, ok := deps.Session.Chats.Chat(chatID); !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrChatNotFound))
			return
		}

		ps := deps.Session.Chats.Participants(chatID)
		if ps == nil {
			ps = []model.Participant{}
		}
		resp.RespondSuccess(w, r, ps)
	}
}

// HandleGetAttachmentURL presigns a download link for the attachment of a cached message.
func HandleGetAttachmentURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chats := deps.Session.Chats

		chatID := chi.URLParam(r, "id")
		if _, ok := chats.Chat(chatID); !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrChatNotFound))
			return
		}

		url, ok := chats.AttachmentURL(r.Context(), chatID, chi.URLParam(r, "msgID"))
		if !ok {
			resp.RespondError(w, r, chats.Err())
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"url": url})
	}
}
