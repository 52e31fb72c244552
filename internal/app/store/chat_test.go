package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livesync/internal/app/api/apitest"
	"livesync/internal/app/model"
	"livesync/internal/app/store"
	"livesync/internal/pkg/errs"
)

var t0 = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func msg(id, chatID, author string, at time.Duration) model.Message {
	return model.Message{
		ID:        id,
		ChatID:    chatID,
		UserID:    ptr(author),
		Content:   "content " + id,
		Type:      model.MessageText,
		CreatedAt: t0.Add(at),
	}
}

func privateChat(id, self, other string) model.Chat {
	return model.Chat{
		ID:        id,
		Kind:      model.ChatPrivate,
		CreatedBy: self,
		CreatedAt: t0,
		Participants: []model.Participant{
			{ID: "p-" + self, ChatID: id, UserID: self, Role: "member"},
			{ID: "p-" + other, ChatID: id, UserID: other, Role: "member"},
		},
	}
}

// chatFixture serves one private chat c1 between "me" and "A" holding m1 and m2.
func chatFixture(t *testing.T) (*apitest.Server, *store.ChatStore, *memState) {
	t.Helper()

	srv := apitest.New(t)
	srv.Router.Get("/chat/all", apitest.Reply(http.StatusOK, []model.Chat{privateChat("c1", "me", "A")}))
	srv.Router.Get("/chat/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		page := model.MessagePage{
			Messages: []model.Message{msg("m2", "c1", "A", 2*time.Minute), msg("m1", "c1", "me", time.Minute)},
			Total:    3,
		}
		if r.URL.Query().Get("offset") != "0" {
			page.Messages = []model.Message{msg("m0", "c1", "A", 0)}
		}
		apitest.JSON(w, http.StatusOK, page)
	})
	srv.Router.Get("/chat/{id}/user/all", apitest.Reply(http.StatusOK, []model.Participant{
		{ID: "p-me", ChatID: "c1", UserID: "me"},
		{ID: "p-A", ChatID: "c1", UserID: "A"},
	}))

	state := newMemState()
	s := store.NewChatStore(srv.Client(), self("me"), store.ChatOptions{
		Persistence: state,
		Now:         func() time.Time { return t0.Add(time.Hour) },
	})

	require.True(t, s.FetchChats(ctx))

	return srv, s, state
}

func ids(list []model.Message) []string {
	out := make([]string, 0, len(list))
	for _, m := range list {
		out = append(out, m.ID)
	}
	return out
}

func TestChatStore_SelectFetchesOnceAndResetsUnread(t *testing.T) {
	srv, s, state := chatFixture(t)

	s.ApplyNewMessage(msg("m3", "c1", "A", 3*time.Minute))
	require.Equal(t, 1, s.Unread("c1"))

	require.True(t, s.SelectChat(ctx, "c1"))
	require.True(t, s.SelectChat(ctx, "c1"))

	assert.Equal(t, 1, srv.Hits(http.MethodGet, "/chat/c1/messages"))
	assert.Equal(t, 1, srv.Hits(http.MethodGet, "/chat/c1/user/all"))
	assert.Zero(t, s.Unread("c1"))
	assert.True(t, s.IsLoaded("c1"))
	assert.Equal(t, "c1", s.ActiveID())
	assert.Len(t, s.Participants("c1"), 2)

	v, ok, _ := state.Get(ctx, store.ActiveChatKey)
	require.True(t, ok)
	assert.Equal(t, "c1", v)
}

func TestChatStore_SelectUnknownChatFails(t *testing.T) {
	_, s, _ := chatFixture(t)

	assert.False(t, s.SelectChat(ctx, "nope"))
	require.NotNil(t, s.Err())
	assert.Equal(t, errs.ErrChatNotFound, s.Err().Code)
	assert.Empty(t, s.ActiveID())
}

func TestChatStore_CollectionHasNoDuplicateIDs(t *testing.T) {
	srv, s, _ := chatFixture(t)
	srv.Router.Post("/chat/{id}/send", apitest.Reply(http.StatusOK, msg("m4", "c1", "me", 4*time.Minute)))

	require.True(t, s.SelectChat(ctx, "c1"))

	// Push echo before and after the send response, plus a repeated page.
	s.ApplyNewMessage(msg("m4", "c1", "me", 4*time.Minute))
	_, ok := s.SendMessage(ctx, "c1", model.MessageCreateRequest{Content: "hi"})
	require.True(t, ok)
	s.ApplyNewMessage(msg("m4", "c1", "me", 4*time.Minute))
	_, ok = s.FetchMessages(ctx, "c1", 0, 50)
	require.True(t, ok)

	assert.Equal(t, []string{"m4", "m2", "m1"}, ids(s.Messages("c1")))
}

func TestChatStore_OlderPagesLandAtTail(t *testing.T) {
	_, s, _ := chatFixture(t)
	require.True(t, s.SelectChat(ctx, "c1"))

	s.ApplyNewMessage(msg("m5", "c1", "A", 5*time.Minute))
	_, ok := s.FetchMessages(ctx, "c1", 3, 50)
	require.True(t, ok)

	assert.Equal(t, []string{"m5", "m2", "m1", "m0"}, ids(s.Messages("c1")))
}

func TestChatStore_EditChangesOnlyMutableFields(t *testing.T) {
	srv, s, _ := chatFixture(t)
	srv.Router.Put("/chat/message/{id}", apitest.Reply(http.StatusOK, true))
	srv.Router.Get("/chat/{id}/last-message", apitest.Reply(http.StatusOK, msg("m2", "c1", "A", 2*time.Minute)))

	require.True(t, s.SelectChat(ctx, "c1"))
	_, ok := s.FetchLastMessage(ctx, "c1")
	require.True(t, ok)

	before := s.Messages("c1")[0]
	require.True(t, s.EditMessage(ctx, "c1", "m2", model.MessageUpdateRequest{Content: "edited", ReplyToMessage: ptr("m1")}))
	after := s.Messages("c1")[0]

	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.ChatID, after.ChatID)
	assert.Equal(t, before.UserID, after.UserID)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Equal(t, before.Type, after.Type)

	assert.Equal(t, "edited", after.Content)
	assert.Equal(t, ptr("m1"), after.ReplyToMessage)
	require.NotNil(t, after.EditedAt)
	assert.Equal(t, t0.Add(time.Hour), *after.EditedAt)

	lm, ok := s.LastMessage("c1")
	require.True(t, ok)
	assert.Equal(t, model.LastMessage{MessageID: "m2", Content: "edited"}, lm)
}

func TestChatStore_DeleteRecomputesLastMessage(t *testing.T) {
	srv, s, _ := chatFixture(t)
	srv.Router.Delete("/chat/message/{id}", apitest.Reply(http.StatusOK, true))

	require.True(t, s.SelectChat(ctx, "c1"))

	lm, ok := s.LastMessage("c1")
	require.True(t, ok)
	require.Equal(t, "m2", lm.MessageID)

	require.True(t, s.DeleteMessage(ctx, "c1", "m2"))
	lm, ok = s.LastMessage("c1")
	require.True(t, ok)
	assert.Equal(t, model.LastMessage{MessageID: "m1", Content: "content m1"}, lm)

	require.True(t, s.DeleteMessage(ctx, "c1", "m1"))
	_, ok = s.LastMessage("c1")
	assert.False(t, ok)
	assert.Empty(t, s.Messages("c1"))
}

func TestChatStore_SecondPrivateChatIsRejectedLocally(t *testing.T) {
	srv, s, _ := chatFixture(t)
	srv.Router.Post("/chat/create/private", func(w http.ResponseWriter, r *http.Request) {
		uid := r.URL.Query().Get("uid")
		apitest.JSON(w, http.StatusOK, privateChat("c-"+uid, "me", uid))
	})

	require.True(t, s.HasPrivateWith("A"))

	_, ok := s.CreatePrivate(ctx, "A")
	assert.False(t, ok)
	require.NotNil(t, s.Err())
	assert.Equal(t, errs.ErrPrivateChatExists, s.Err().Code)
	assert.Zero(t, srv.Hits(http.MethodPost, "/chat/create/private"))

	chat, ok := s.CreatePrivate(ctx, "B")
	require.True(t, ok)
	assert.Equal(t, "c-B", chat.ID)
	assert.True(t, s.HasPrivateWith("B"))
	assert.Equal(t, "c-B", s.Chats()[0].ID)

	_, ok = s.CreatePrivate(ctx, "B")
	assert.False(t, ok)
	assert.Equal(t, 1, srv.Hits(http.MethodPost, "/chat/create/private"))
}

func TestChatStore_PushedMessageUnread(t *testing.T) {
	_, s, _ := chatFixture(t)

	// Own message in a non-active chat does not count.
	s.ApplyNewMessage(msg("m9", "c1", "me", 9*time.Minute))
	assert.Zero(t, s.Unread("c1"))

	s.ApplyNewMessage(msg("m10", "c1", "A", 10*time.Minute))
	assert.Equal(t, 1, s.Unread("c1"))

	lm, ok := s.LastMessage("c1")
	require.True(t, ok)
	assert.Equal(t, "m10", lm.MessageID)

	// Active chat: appended, not counted.
	require.True(t, s.SelectChat(ctx, "c1"))
	s.ApplyNewMessage(msg("m11", "c1", "A", 11*time.Minute))
	assert.Zero(t, s.Unread("c1"))
	assert.Equal(t, "m11", s.Messages("c1")[0].ID)
}

func TestChatStore_RepeatedPushCountsOnce(t *testing.T) {
	_, s, _ := chatFixture(t)

	// Unloaded chat: the last-message id tells a repeat apart.
	s.ApplyNewMessage(msg("m10", "c1", "A", 10*time.Minute))
	s.ApplyNewMessage(msg("m10", "c1", "A", 10*time.Minute))
	assert.Equal(t, 1, s.Unread("c1"))

	// Loaded but not active: messages already in the collection do not count.
	require.True(t, s.SelectChat(ctx, "c1"))
	s.Deselect(ctx)

	s.ApplyNewMessage(msg("m2", "c1", "A", 2*time.Minute))
	assert.Zero(t, s.Unread("c1"))

	s.ApplyNewMessage(msg("m12", "c1", "A", 12*time.Minute))
	s.ApplyNewMessage(msg("m12", "c1", "A", 12*time.Minute))
	assert.Equal(t, 1, s.Unread("c1"))
	assert.Equal(t, []string{"m12", "m2", "m1"}, ids(s.Messages("c1")))
}

func TestChatStore_RestoreSelectsPersistedChat(t *testing.T) {
	srv, s, state := chatFixture(t)
	require.NoError(t, state.Set(ctx, store.ActiveChatKey, "c1"))

	require.True(t, s.Restore(ctx))
	assert.Equal(t, "c1", s.ActiveID())
	assert.Equal(t, 1, srv.Hits(http.MethodGet, "/chat/c1/messages"))

	s.Deselect(ctx)
	assert.Empty(t, s.ActiveID())
	_, ok, _ := state.Get(ctx, store.ActiveChatKey)
	assert.False(t, ok)
	assert.False(t, s.Restore(ctx))
}

func TestChatStore_FetchChatsKeepsLoadedCollections(t *testing.T) {
	_, s, _ := chatFixture(t)
	require.True(t, s.SelectChat(ctx, "c1"))

	require.True(t, s.FetchChats(ctx))

	assert.True(t, s.IsLoaded("c1"))
	assert.Len(t, s.Messages("c1"), 2)
	assert.Equal(t, "c1", s.ActiveID())
}

func TestChatStore_ParticipantOperations(t *testing.T) {
	srv, s, _ := chatFixture(t)
	srv.Router.Put("/chat/{id}/mute", apitest.Reply(http.StatusOK, true))
	srv.Router.Put("/chat/{id}/unmute", apitest.Reply(http.StatusOK, true))
	srv.Router.Delete("/chat/{id}/kick", apitest.Reply(http.StatusOK, true))
	srv.Router.Get("/chat/{id}/user/check", apitest.Reply(http.StatusOK, true))
	srv.Router.Get("/chat/{id}/user", apitest.Reply(http.StatusOK, model.Participant{ID: "p-A", ChatID: "c1", UserID: "A", Role: "admin"}))

	require.True(t, s.SelectChat(ctx, "c1"))

	until := t0.Add(24 * time.Hour)
	require.True(t, s.Mute(ctx, "c1", model.MuteRequest{UserID: "A", MutedUntil: until}))
	require.NotNil(t, findParticipant(s.Participants("c1"), "A").MutedUntil)

	require.True(t, s.Unmute(ctx, "c1", "A"))
	assert.Nil(t, findParticipant(s.Participants("c1"), "A").MutedUntil)

	p, ok := s.GetParticipant(ctx, "c1", "A")
	require.True(t, ok)
	assert.Equal(t, "admin", p.Role)
	assert.Len(t, s.Participants("c1"), 2)

	member, ok := s.IsParticipant(ctx, "c1", "A")
	require.True(t, ok)
	assert.True(t, member)

	require.True(t, s.Kick(ctx, "c1", "A"))
	assert.Len(t, s.Participants("c1"), 1)
}

func findParticipant(list []model.Participant, userID string) model.Participant {
	for _, p := range list {
		if p.UserID == userID {
			return p
		}
	}
	return model.Participant{}
}

func TestChatStore_LeaveDropsChat(t *testing.T) {
	srv, s, state := chatFixture(t)
	srv.Router.Delete("/chat/{id}/leave", apitest.Reply(http.StatusOK, true))

	require.True(t, s.SelectChat(ctx, "c1"))
	require.True(t, s.Leave(ctx, "c1"))

	assert.Empty(t, s.Chats())
	assert.Empty(t, s.ActiveID())
	assert.False(t, s.HasPrivateWith("A"))
	_, ok, _ := state.Get(ctx, store.ActiveChatKey)
	assert.False(t, ok)
}

type fakeUploader struct {
	key, mime string
	body      string
	deleted   []string
	err       error
}

func (f *fakeUploader) Upload(_ context.Context, key, mime string, body io.Reader, _ int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(body)
	f.key, f.mime, f.body = key, mime, string(b)
	return "https://cdn.test/" + key, nil
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeUploader) PresignDownload(_ context.Context, key string, d time.Duration) (string, error) {
	return "https://signed.test/" + key + "?ttl=" + d.String(), nil
}

func (f *fakeUploader) KeyOf(publicURL string) (string, bool) {
	key, ok := strings.CutPrefix(publicURL, "https://cdn.test/")
	return key, ok && key != ""
}

func TestChatStore_SendAttachment(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Get("/chat/all", apitest.Reply(http.StatusOK, []model.Chat{privateChat("c1", "me", "A")}))

	var sent model.MessageCreateRequest
	srv.Router.Post("/chat/{id}/send", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		apitest.JSON(w, http.StatusOK, model.Message{ID: "m1", ChatID: "c1", Content: sent.Content, Type: sent.Type, CreatedAt: t0})
	})

	up := &fakeUploader{}
	s := store.NewChatStore(srv.Client(), self("me"), store.ChatOptions{Uploader: up})
	require.True(t, s.FetchChats(ctx))

	m, ok := s.SendAttachment(ctx, "c1", "photo.png", strings.NewReader("png-bytes"), 9)
	require.True(t, ok)

	assert.Equal(t, model.MessageImage, m.Type)
	assert.Equal(t, model.MessageImage, sent.Type)
	assert.Equal(t, "image/png", up.mime)
	assert.Equal(t, "png-bytes", up.body)
	assert.True(t, strings.HasPrefix(up.key, "chats/c1/"))
	assert.True(t, strings.HasSuffix(up.key, ".png"))
	assert.Equal(t, "https://cdn.test/"+up.key, sent.Content)

	_, ok = s.SendAttachment(ctx, "c1", "virus.exe", strings.NewReader("x"), 1)
	assert.False(t, ok)
	assert.Equal(t, errs.ErrAttachmentTypeInvalid, s.Err().Code)

	up.err = errors.New("bucket unreachable")
	_, ok = s.SendAttachment(ctx, "c1", "photo.png", strings.NewReader("x"), 1)
	assert.False(t, ok)
	assert.Equal(t, errs.ErrInternal, s.Err().Code)
	assert.Equal(t, 1, srv.Hits(http.MethodPost, "/chat/c1/send"))
	assert.Empty(t, up.deleted)
}

func TestChatStore_FailedAttachmentSendRemovesUpload(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Get("/chat/all", apitest.Reply(http.StatusOK, []model.Chat{privateChat("c1", "me", "A")}))
	srv.Router.Post("/chat/{id}/send", func(w http.ResponseWriter, _ *http.Request) {
		apitest.Fail(w, http.StatusForbidden, 403, "muted")
	})

	up := &fakeUploader{}
	s := store.NewChatStore(srv.Client(), self("me"), store.ChatOptions{Uploader: up})
	require.True(t, s.FetchChats(ctx))

	_, ok := s.SendAttachment(ctx, "c1", "photo.png", strings.NewReader("png-bytes"), 9)
	assert.False(t, ok)
	assert.Equal(t, 403, s.Err().Code)

	require.NotEmpty(t, up.key)
	assert.Equal(t, []string{up.key}, up.deleted)
	assert.Empty(t, s.Messages("c1"))
}

func TestChatStore_AttachmentURL(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Get("/chat/all", apitest.Reply(http.StatusOK, []model.Chat{privateChat("c1", "me", "A")}))
	srv.Router.Post("/chat/{id}/send", func(w http.ResponseWriter, r *http.Request) {
		var in model.MessageCreateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		id := "m-text"
		if in.Type != model.MessageText {
			id = "m-file"
		}
		apitest.JSON(w, http.StatusOK, model.Message{ID: id, ChatID: "c1", Content: in.Content, Type: in.Type, CreatedAt: t0})
	})

	up := &fakeUploader{}
	s := store.NewChatStore(srv.Client(), self("me"), store.ChatOptions{Uploader: up})
	require.True(t, s.FetchChats(ctx))

	_, ok := s.SendAttachment(ctx, "c1", "photo.png", strings.NewReader("png-bytes"), 9)
	require.True(t, ok)
	_, ok = s.SendMessage(ctx, "c1", model.MessageCreateRequest{Content: "hi"})
	require.True(t, ok)

	u, ok := s.AttachmentURL(ctx, "c1", "m-file")
	require.True(t, ok)
	assert.Equal(t, "https://signed.test/"+up.key+"?ttl=15m0s", u)

	_, ok = s.AttachmentURL(ctx, "c1", "m-text")
	assert.False(t, ok)
	assert.Equal(t, errs.ErrInvalidParams, s.Err().Code)

	disabled := store.NewChatStore(srv.Client(), self("me"), store.ChatOptions{})
	_, ok = disabled.AttachmentURL(ctx, "c1", "m-file")
	assert.False(t, ok)
	assert.Equal(t, errs.ErrAttachmentsDisabled, disabled.Err().Code)
}

func TestChatStore_AttachmentsDisabled(t *testing.T) {
	s := store.NewChatStore(nil, self("me"), store.ChatOptions{})

	_, ok := s.SendAttachment(ctx, "c1", "a.png", strings.NewReader("x"), 1)
	assert.False(t, ok)
	assert.Equal(t, errs.ErrAttachmentsDisabled, s.Err().Code)
}
