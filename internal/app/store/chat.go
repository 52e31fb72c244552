package store

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"livesync/internal/app/model"
	"livesync/internal/app/storage"
	"livesync/internal/pkg/errs"
	"livesync/internal/pkg/logx"
	"livesync/internal/pkg/randx"
)

// ActiveChatKey is the persisted-state key of the selected chat id.
const ActiveChatKey = "active_chat"

// ChatService is the slice of the API the ChatStore needs.
type ChatService interface {
	ChatExists(ctx context.Context, id string) (bool, *errs.CustomError)
	Chats(ctx context.Context) ([]model.Chat, *errs.CustomError)
	CreatePrivateChat(ctx context.Context, userID string) (model.Chat, *errs.CustomError)
	CreateGroupChat(ctx context.Context, in model.ChatCreateRequest) (model.Chat, *errs.CustomError)

	Messages(ctx context.Context, chatID string, offset, limit int) (model.MessagePage, *errs.CustomError)
	LastMessage(ctx context.Context, chatID string) (model.Message, *errs.CustomError)
	SendMessage(ctx context.Context, chatID string, in model.MessageCreateRequest) (model.Message, *errs.CustomError)
	EditMessage(ctx context.Context, msgID string, in model.MessageUpdateRequest) (bool, *errs.CustomError)
	DeleteMessage(ctx context.Context, msgID string) (bool, *errs.CustomError)

	Participant(ctx context.Context, chatID, userID string) (model.Participant, *errs.CustomError)
	Participants(ctx context.Context, chatID string) ([]model.Participant, *errs.CustomError)
	IsParticipant(ctx context.Context, chatID, userID string) (bool, *errs.CustomError)
	JoinChat(ctx context.Context, chatID string) (bool, *errs.CustomError)
	LeaveChat(ctx context.Context, chatID string) (bool, *errs.CustomError)
	KickUser(ctx context.Context, chatID, userID string) (bool, *errs.CustomError)
	MuteUser(ctx context.Context, chatID string, in model.MuteRequest) (bool, *errs.CustomError)
	UnmuteUser(ctx context.Context, chatID, userID string) (bool, *errs.CustomError)
}

// Identity yields the id of the authenticated user.
type Identity interface {
	SelfID() string
}

// Persistence stores small values across process restarts.
type Persistence interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Uploader stores attachment bodies under keys and resolves their links.
type Uploader interface {
	Upload(ctx context.Context, key, mimeType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)
	KeyOf(publicURL string) (string, bool)
}

// ChatOptions carries the optional collaborators of a ChatStore.
type ChatOptions struct {
	Persistence Persistence
	Uploader    Uploader

	// PageLimit is the size of the first page fetched on selection.
	PageLimit int

	// Now is the clock used for local edit timestamps.
	Now func() time.Time
}

// chatEntry is everything cached for one chat. Entries are values and are
// replaced, never mutated in place.
type chatEntry struct {
	chat         model.Chat
	messages     []model.Message
	participants []model.Participant
	loaded       bool
	unread       int
}

// ChatStore owns chats, their messages and their participants, the active-chat
// selection, last-message summaries and unread counters.
type ChatStore struct {
	slot

	api       ChatService
	self      Identity
	persist   Persistence
	uploader  Uploader
	pageLimit int
	now       func() time.Time
	logger    zerolog.Logger

	mu          sync.RWMutex
	order       []string
	entries     map[string]chatEntry
	privateWith map[string]string
	lastMessage map[string]model.LastMessage
	activeID    string
}

// NewChatStore returns an empty ChatStore.
func NewChatStore(api ChatService, self Identity, opts ChatOptions) *ChatStore {
	if opts.PageLimit <= 0 {
		opts.PageLimit = 50
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &ChatStore{
		api:         api,
		self:        self,
		persist:     opts.Persistence,
		uploader:    opts.Uploader,
		pageLimit:   opts.PageLimit,
		now:         opts.Now,
		logger:      logx.Component("store.chat"),
		entries:     make(map[string]chatEntry),
		privateWith: make(map[string]string),
		lastMessage: make(map[string]model.LastMessage),
	}
}

func (s *ChatStore) selfID() string {
	if s.self == nil {
		return ""
	}
	return s.self.SelfID()
}

// mergeMessages returns a new newest-first collection holding existing and every
// incoming message whose id is not already present.
func mergeMessages(existing []model.Message, incoming ...model.Message) []model.Message {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]model.Message, 0, len(existing)+len(incoming))

	for _, m := range existing {
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	for _, m := range incoming {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}

	slices.SortStableFunc(out, func(a, b model.Message) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return out
}

// upsertParticipant returns a new set with p replacing any member with the same user id.
func upsertParticipant(set []model.Participant, p model.Participant) []model.Participant {
	out := slices.Clone(set)
	for i := range out {
		if out[i].UserID == p.UserID {
			out[i] = p
			return out
		}
	}
	return append(out, p)
}

func uniqueParticipants(list []model.Participant) []model.Participant {
	var out []model.Participant
	for _, p := range list {
		out = upsertParticipant(out, p)
	}
	return out
}

// ---- chats ----

// FetchChats replaces the chat list. Messages, participants and counters of chats
// that are still listed are kept; the private-counterpart index is rebuilt.
func (s *ChatStore) FetchChats(ctx context.Context) bool {
	chats, ok := call(&s.slot, func() ([]model.Chat, *errs.CustomError) {
		return s.api.Chats(ctx)
	})
	if !ok {
		return false
	}

	self := s.selfID()

	s.mu.Lock()
	order := make([]string, 0, len(chats))
	entries := make(map[string]chatEntry, len(chats))
	privateWith := make(map[string]string)

	for _, c := range chats {
		if _, dup := entries[c.ID]; dup {
			continue
		}

		e := s.entries[c.ID]
		e.chat = c
		if !e.loaded && len(c.Participants) > 0 {
			e.participants = uniqueParticipants(c.Participants)
		}

		entries[c.ID] = e
		order = append(order, c.ID)

		if uid := c.Counterpart(self); uid != "" {
			privateWith[uid] = c.ID
		}
	}

	s.order = order
	s.entries = entries
	s.privateWith = privateWith

	dropped := ""
	if _, ok := entries[s.activeID]; s.activeID != "" && !ok {
		dropped, s.activeID = s.activeID, ""
	}
	s.mu.Unlock()

	if dropped != "" {
		s.logger.Info().Str("chat_id", dropped).Msg("Active chat is no longer listed")
		s.forget(ctx)
	}

	return true
}

// IsChatExists reports whether chatID exists. Cached chats answer without a network call.
func (s *ChatStore) IsChatExists(ctx context.Context, chatID string) bool {
	if _, ok := s.Chat(chatID); ok {
		s.succeed()
		return true
	}

	exists, ok := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.ChatExists(ctx, chatID)
	})
	return ok && exists
}

// HasPrivateWith reports whether a private chat with userID is known.
func (s *ChatStore) HasPrivateWith(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.privateWith[userID]
	return ok
}

// PrivateCounterparts returns the user ids the session has a private chat with.
func (s *ChatStore) PrivateCounterparts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.privateWith))
	for _, chatID := range s.order {
		for uid, id := range s.privateWith {
			if id == chatID {
				ids = append(ids, uid)
			}
		}
	}
	return ids
}

// CreatePrivate opens a private chat with userID. A second private chat with the
// same user is rejected locally; concurrent calls for the same user share one request.
func (s *ChatStore) CreatePrivate(ctx context.Context, userID string) (model.Chat, bool) {
	self := s.selfID()
	if self == "" {
		s.fail(errs.NewError(errs.ErrNotAuthenticated))
		return model.Chat{}, false
	}
	if userID == "" || userID == self {
		s.fail(errs.NewError(errs.ErrInvalidParams))
		return model.Chat{}, false
	}
	if s.HasPrivateWith(userID) {
		s.fail(errs.NewError(errs.ErrPrivateChatExists))
		return model.Chat{}, false
	}

	return call(&s.slot, func() (model.Chat, *errs.CustomError) {
		return shared(&s.slot, "private:"+userID, func() (model.Chat, *errs.CustomError) {
			if s.HasPrivateWith(userID) {
				return model.Chat{}, errs.NewError(errs.ErrPrivateChatExists)
			}

			chat, err := s.api.CreatePrivateChat(ctx, userID)
			if err != nil {
				return model.Chat{}, err
			}

			s.mu.Lock()
			s.addChat(chat)
			s.privateWith[userID] = chat.ID
			s.mu.Unlock()

			return chat, nil
		})
	})
}

// CreateGroup creates a group chat.
func (s *ChatStore) CreateGroup(ctx context.Context, in model.ChatCreateRequest) (model.Chat, bool) {
	self := s.selfID()
	if self == "" {
		s.fail(errs.NewError(errs.ErrNotAuthenticated))
		return model.Chat{}, false
	}
	if in.Name == "" {
		s.fail(errs.NewError(errs.ErrInvalidParams))
		return model.Chat{}, false
	}
	if in.CreatedBy == "" {
		in.CreatedBy = self
	}

	chat, ok := call(&s.slot, func() (model.Chat, *errs.CustomError) {
		return s.api.CreateGroupChat(ctx, in)
	})
	if !ok {
		return model.Chat{}, false
	}

	s.mu.Lock()
	s.addChat(chat)
	s.mu.Unlock()

	return chat, true
}

// addChat puts chat at the top of the list. Caller holds mu.
func (s *ChatStore) addChat(chat model.Chat) {
	e, exists := s.entries[chat.ID]
	e.chat = chat
	if !e.loaded && len(chat.Participants) > 0 {
		e.participants = uniqueParticipants(chat.Participants)
	}
	s.entries[chat.ID] = e

	if !exists {
		s.order = append([]string{chat.ID}, s.order...)
	}
}

// ---- active chat ----

// SelectChat makes chatID the active chat. A chat whose messages were never loaded
// gets its first page and participants fetched before the selection takes effect.
// Selecting "" deselects.
func (s *ChatStore) SelectChat(ctx context.Context, chatID string) bool {
	if chatID == "" {
		s.Deselect(ctx)
		return true
	}

	s.mu.RLock()
	e, exists := s.entries[chatID]
	s.mu.RUnlock()

	if !exists {
		s.fail(errs.NewError(errs.ErrChatNotFound))
		return false
	}

	if e.loaded {
		s.mu.Lock()
		if e, exists = s.entries[chatID]; exists {
			e.unread = 0
			s.entries[chatID] = e
			s.activeID = chatID
		}
		s.mu.Unlock()

		if !exists {
			s.fail(errs.NewError(errs.ErrChatNotFound))
			return false
		}

		s.succeed()
		s.remember(ctx, chatID)
		return true
	}

	page, ok := call(&s.slot, func() (model.MessagePage, *errs.CustomError) {
		return s.api.Messages(ctx, chatID, 0, s.pageLimit)
	})
	if !ok {
		return false
	}

	parts, ok := call(&s.slot, func() ([]model.Participant, *errs.CustomError) {
		return s.api.Participants(ctx, chatID)
	})

	s.mu.Lock()
	e, exists = s.entries[chatID]
	if !exists {
		s.mu.Unlock()
		s.fail(errs.NewError(errs.ErrChatNotFound))
		return false
	}

	e.messages = mergeMessages(e.messages, page.Messages...)
	if ok {
		e.participants = uniqueParticipants(parts)
		e.loaded = true
		e.unread = 0
		s.activeID = chatID
	}
	if _, has := s.lastMessage[chatID]; !has && len(e.messages) > 0 {
		s.lastMessage[chatID] = e.messages[0].Summary()
	}
	s.entries[chatID] = e
	s.mu.Unlock()

	if !ok {
		return false
	}

	s.logger.Debug().Str("chat_id", chatID).Int("messages", len(page.Messages)).Msg("Chat loaded")
	s.remember(ctx, chatID)

	return true
}

// Deselect clears the active chat and its persisted id.
func (s *ChatStore) Deselect(ctx context.Context) {
	s.mu.Lock()
	s.activeID = ""
	s.mu.Unlock()

	s.forget(ctx)
}

// Restore selects the chat id persisted by a previous selection.
func (s *ChatStore) Restore(ctx context.Context) bool {
	if s.persist == nil {
		return false
	}

	id, ok, err := s.persist.Get(ctx, ActiveChatKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read persisted active chat")
		return false
	}
	if !ok || id == "" {
		return false
	}

	return s.SelectChat(ctx, id)
}

// ActiveID returns the selected chat id, "" when none.
func (s *ChatStore) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.activeID
}

func (s *ChatStore) remember(ctx context.Context, chatID string) {
	if s.persist == nil {
		return
	}
	if err := s.persist.Set(ctx, ActiveChatKey, chatID); err != nil {
		s.logger.Warn().Err(err).Str("chat_id", chatID).Msg("Failed to persist active chat")
	}
}

func (s *ChatStore) forget(ctx context.Context) {
	if s.persist == nil {
		return
	}
	if err := s.persist.Delete(ctx, ActiveChatKey); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear persisted active chat")
	}
}

// ---- messages ----

// FetchMessages fetches a page of chatID's messages and merges it into the cached
// collection. Repeated pages accumulate.
func (s *ChatStore) FetchMessages(ctx context.Context, chatID string, offset, limit int) (model.MessagePage, bool) {
	if _, ok := s.Chat(chatID); !ok {
		s.fail(errs.NewError(errs.ErrChatNotFound))
		return model.MessagePage{}, false
	}

	page, ok := call(&s.slot, func() (model.MessagePage, *errs.CustomError) {
		return s.api.Messages(ctx, chatID, offset, limit)
	})
	if !ok {
		return model.MessagePage{}, false
	}

	s.mu.Lock()
	if e, exists := s.entries[chatID]; exists {
		e.messages = mergeMessages(e.messages, page.Messages...)
		s.entries[chatID] = e
	}
	s.mu.Unlock()

	return page, true
}

// FetchLastMessage refreshes the last-message summary of chatID.
func (s *ChatStore) FetchLastMessage(ctx context.Context, chatID string) (model.LastMessage, bool) {
	msg, ok := call(&s.slot, func() (model.Message, *errs.CustomError) {
		return s.api.LastMessage(ctx, chatID)
	})
	if !ok {
		return model.LastMessage{}, false
	}

	lm := msg.Summary()

	s.mu.Lock()
	s.lastMessage[chatID] = lm
	s.mu.Unlock()

	return lm, true
}

// SendMessage sends a message and records it as the chat's newest.
func (s *ChatStore) SendMessage(ctx context.Context, chatID string, in model.MessageCreateRequest) (model.Message, bool) {
	if in.Type == "" {
		in.Type = model.MessageText
	}
	if !in.Type.Valid() || in.Content == "" {
		s.fail(errs.NewError(errs.ErrInvalidParams))
		return model.Message{}, false
	}

	msg, ok := call(&s.slot, func() (model.Message, *errs.CustomError) {
		return s.api.SendMessage(ctx, chatID, in)
	})
	if !ok {
		return model.Message{}, false
	}
	if msg.ChatID == "" {
		msg.ChatID = chatID
	}

	s.mu.Lock()
	if e, exists := s.entries[chatID]; exists {
		e.messages = mergeMessages(e.messages, msg)
		s.entries[chatID] = e
	}
	s.lastMessage[chatID] = msg.Summary()
	s.mu.Unlock()

	return msg, true
}

// SendAttachment uploads a file and sends a message pointing at it.
func (s *ChatStore) SendAttachment(ctx context.Context, chatID, fileName string, body io.Reader, size int64) (model.Message, bool) {
	if s.uploader == nil {
		s.fail(errs.NewError(errs.ErrAttachmentsDisabled))
		return model.Message{}, false
	}

	att, cerr := storage.NewAttachment(fileName, size)
	if cerr != nil {
		s.fail(cerr)
		return model.Message{}, false
	}

	key, err := randx.ObjectKey("chats/"+chatID, fileName)
	if err != nil {
		s.fail(errs.Internal(err))
		return model.Message{}, false
	}

	url, ok := call(&s.slot, func() (string, *errs.CustomError) {
		u, err := s.uploader.Upload(ctx, key, att.MimeType, body, att.Size)
		if err != nil {
			return "", errs.Internal(err)
		}
		return u, nil
	})
	if !ok {
		return model.Message{}, false
	}

	msg, ok := s.SendMessage(ctx, chatID, model.MessageCreateRequest{Content: url, Type: att.Type})
	if !ok {
		if err := s.uploader.Delete(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to remove orphaned attachment")
		}
		return model.Message{}, false
	}

	return msg, true
}

// AttachmentURL returns a short-lived download link for the attachment carried by
// a cached message.
func (s *ChatStore) AttachmentURL(ctx context.Context, chatID, msgID string) (string, bool) {
	if s.uploader == nil {
		s.fail(errs.NewError(errs.ErrAttachmentsDisabled))
		return "", false
	}

	var found *model.Message
	for _, m := range s.Messages(chatID) {
		if m.ID == msgID {
			found = &m
			break
		}
	}
	if found == nil || found.Type == model.MessageText {
		s.fail(errs.NewError(errs.ErrInvalidParams))
		return "", false
	}

	key, ok := s.uploader.KeyOf(found.Content)
	if !ok {
		s.fail(errs.NewError(errs.ErrInvalidParams))
		return "", false
	}

	return call(&s.slot, func() (string, *errs.CustomError) {
		u, err := s.uploader.PresignDownload(ctx, key, storage.DownloadURLDuration)
		if err != nil {
			return "", errs.Internal(err)
		}
		return u, nil
	})
}

// EditMessage edits a message and, when it is the chat's last message, its summary.
func (s *ChatStore) EditMessage(ctx context.Context, chatID, msgID string, in model.MessageUpdateRequest) bool {
	if in.Content == "" {
		s.fail(errs.NewError(errs.ErrInvalidParams))
		return false
	}

	_, ok := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.EditMessage(ctx, msgID, in)
	})
	if !ok {
		return false
	}

	editedAt := s.now()

	s.mu.Lock()
	if e, exists := s.entries[chatID]; exists {
		msgs := slices.Clone(e.messages)
		for i := range msgs {
			if msgs[i].ID == msgID {
				msgs[i].Content = in.Content
				msgs[i].ReplyToMessage = in.ReplyToMessage
				msgs[i].EditedAt = &editedAt
				break
			}
		}
		e.messages = msgs
		s.entries[chatID] = e
	}
	if lm, has := s.lastMessage[chatID]; has && lm.MessageID == msgID {
		lm.Content = in.Content
		s.lastMessage[chatID] = lm
	}
	s.mu.Unlock()

	return true
}

// DeleteMessage deletes a message. When it was the chat's last message the summary
// is recomputed from the new head of the collection, or dropped when it is empty.
func (s *ChatStore) DeleteMessage(ctx context.Context, chatID, msgID string) bool {
	_, ok := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.DeleteMessage(ctx, msgID)
	})
	if !ok {
		return false
	}

	s.mu.Lock()
	e, exists := s.entries[chatID]
	if exists {
		e.messages = slices.DeleteFunc(slices.Clone(e.messages), func(m model.Message) bool {
			return m.ID == msgID
		})
		s.entries[chatID] = e
	}
	if lm, has := s.lastMessage[chatID]; has && lm.MessageID == msgID {
		if exists && len(e.messages) > 0 {
			s.lastMessage[chatID] = e.messages[0].Summary()
		} else {
			delete(s.lastMessage, chatID)
		}
	}
	s.mu.Unlock()

	return true
}

// ApplyNewMessage records a pushed message: it always becomes the chat's last-message
// summary, joins the collection of a loaded chat, and counts as unread when the
// chat is not active, someone else wrote it and its id was not already known.
func (s *ChatStore) ApplyNewMessage(msg model.Message) {
	self := s.selfID()

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, hadLast := s.lastMessage[msg.ChatID]
	s.lastMessage[msg.ChatID] = msg.Summary()

	e, exists := s.entries[msg.ChatID]
	if !exists {
		return
	}

	fresh := !hadLast || prev.MessageID != msg.ID
	if msg.ChatID == s.activeID || e.loaded {
		before := len(e.messages)
		e.messages = mergeMessages(e.messages, msg)
		fresh = len(e.messages) > before
	}
	if fresh && msg.ChatID != s.activeID && !msg.AuthoredBy(self) {
		e.unread++
	}

	s.entries[msg.ChatID] = e
}

// ---- participants ----

// FetchParticipants replaces the participant set of chatID.
func (s *ChatStore) FetchParticipants(ctx context.Context, chatID string) ([]model.Participant, bool) {
	list, ok := call(&s.slot, func() ([]model.Participant, *errs.CustomError) {
		return s.api.Participants(ctx, chatID)
	})
	if !ok {
		return nil, false
	}

	list = uniqueParticipants(list)

	s.mu.Lock()
	if e, exists := s.entries[chatID]; exists {
		e.participants = list
		s.entries[chatID] = e
	}
	s.mu.Unlock()

	return slices.Clone(list), true
}

// GetParticipant fetches one membership and upserts it into the chat's set.
func (s *ChatStore) GetParticipant(ctx context.Context, chatID, userID string) (model.Participant, bool) {
	p, ok := call(&s.slot, func() (model.Participant, *errs.CustomError) {
		return s.api.Participant(ctx, chatID, userID)
	})
	if !ok {
		return model.Participant{}, false
	}

	s.mu.Lock()
	if e, exists := s.entries[chatID]; exists {
		e.participants = upsertParticipant(e.participants, p)
		s.entries[chatID] = e
	}
	s.mu.Unlock()

	return p, true
}

// IsParticipant asks the service whether userID belongs to chatID. The second
// result is false when the question could not be answered.
func (s *ChatStore) IsParticipant(ctx context.Context, chatID, userID string) (bool, bool) {
	return call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.IsParticipant(ctx, chatID, userID)
	})
}

// Join joins chatID and refreshes what the store knows about it.
func (s *ChatStore) Join(ctx context.Context, chatID string) bool {
	_, ok := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.JoinChat(ctx, chatID)
	})
	if !ok {
		return false
	}

	if _, cached := s.Chat(chatID); !cached {
		return s.FetchChats(ctx)
	}

	_, ok = s.FetchParticipants(ctx, chatID)
	return ok
}

// Leave leaves chatID and drops everything cached for it.
func (s *ChatStore) Leave(ctx context.Context, chatID string) bool {
	_, ok := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.LeaveChat(ctx, chatID)
	})
	if !ok {
		return false
	}

	s.mu.Lock()
	delete(s.entries, chatID)
	delete(s.lastMessage, chatID)
	s.order = slices.DeleteFunc(slices.Clone(s.order), func(id string) bool { return id == chatID })
	for uid, id := range s.privateWith {
		if id == chatID {
			delete(s.privateWith, uid)
		}
	}
	wasActive := s.activeID == chatID
	if wasActive {
		s.activeID = ""
	}
	s.mu.Unlock()

	if wasActive {
		s.forget(ctx)
	}

	return true
}

// Kick removes userID from chatID.
func (s *ChatStore) Kick(ctx context.Context, chatID, userID string) bool {
	_, ok := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.KickUser(ctx, chatID, userID)
	})
	if !ok {
		return false
	}

	s.mu.Lock()
	if e, exists := s.entries[chatID]; exists {
		e.participants = slices.DeleteFunc(slices.Clone(e.participants), func(p model.Participant) bool {
			return p.UserID == userID
		})
		s.entries[chatID] = e
	}
	s.mu.Unlock()

	return true
}

// Mute mutes a participant until in.MutedUntil.
func (s *ChatStore) Mute(ctx context.Context, chatID string, in model.MuteRequest) bool {
	_, ok := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.MuteUser(ctx, chatID, in)
	})
	if !ok {
		return false
	}

	until := in.MutedUntil
	s.setMutedUntil(chatID, in.UserID, &until)

	return true
}

// Unmute lifts a participant's mute.
func (s *ChatStore) Unmute(ctx context.Context, chatID, userID string) bool {
	_, ok := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.UnmuteUser(ctx, chatID, userID)
	})
	if !ok {
		return false
	}

	s.setMutedUntil(chatID, userID, nil)

	return true
}

func (s *ChatStore) setMutedUntil(chatID, userID string, until *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[chatID]
	if !exists {
		return
	}

	parts := slices.Clone(e.participants)
	for i := range parts {
		if parts[i].UserID == userID {
			parts[i].MutedUntil = until
		}
	}
	e.participants = parts
	s.entries[chatID] = e
}

// ---- getters ----

// Chats returns the chat list in display order.
func (s *ChatStore) Chats() []model.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Chat, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].chat)
	}
	return out
}

func (s *ChatStore) Chat(chatID string) (model.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[chatID]
	return e.chat, ok
}

// Messages returns the cached messages of chatID, newest first.
func (s *ChatStore) Messages(chatID string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.entries[chatID].messages)
}

func (s *ChatStore) Participants(chatID string) []model.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.entries[chatID].participants)
}

func (s *ChatStore) LastMessage(chatID string) (model.LastMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lm, ok := s.lastMessage[chatID]
	return lm, ok
}

func (s *ChatStore) Unread(chatID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.entries[chatID].unread
}

// IsLoaded reports whether chatID's first page and participants were fetched.
func (s *ChatStore) IsLoaded(chatID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.entries[chatID].loaded
}

// Clear drops every chat and the selection. The persisted id is kept.
func (s *ChatStore) Clear() {
	s.mu.Lock()
	s.order = nil
	s.entries = make(map[string]chatEntry)
	s.privateWith = make(map[string]string)
	s.lastMessage = make(map[string]model.LastMessage)
	s.activeID = ""
	s.mu.Unlock()
}
