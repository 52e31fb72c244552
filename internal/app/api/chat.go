package api

import (
	"context"
	"net/http"
	"strconv"

	"livesync/internal/app/model"
	"livesync/internal/pkg/errs"
	"livesync/internal/pkg/req"
)

// DefaultPageLimit is the message page size used when the caller passes zero.
const DefaultPageLimit = 50

// ChatExists reports whether the chat with the given id exists on the service.
func (c *Client) ChatExists(ctx context.Context, id string) (bool, *errs.CustomError) {
	return Decode[bool](c.Perform(ctx, http.MethodGet, req.Path("chat", id, "check"), nil))
}

// Chats lists the user's chats with their participants embedded.
func (c *Client) Chats(ctx context.Context) ([]model.Chat, *errs.CustomError) {
	return Decode[[]model.Chat](c.Perform(ctx, http.MethodGet, "/chat/all", nil))
}

// CreatePrivateChat opens a private chat with userID.
func (c *Client) CreatePrivateChat(ctx context.Context, userID string) (model.Chat, *errs.CustomError) {
	path := req.WithQuery("/chat/create/private", "uid", userID)
	return Decode[model.Chat](c.Perform(ctx, http.MethodPost, path, nil))
}

// CreateGroupChat creates a group chat.
func (c *Client) CreateGroupChat(ctx context.Context, in model.ChatCreateRequest) (model.Chat, *errs.CustomError) {
	return Decode[model.Chat](c.Perform(ctx, http.MethodPost, "/chat/create/group", in))
}

// Messages returns one offset/limit window of a chat's messages.
func (c *Client) Messages(ctx context.Context, chatID string, offset, limit int) (model.MessagePage, *errs.CustomError) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	path := req.WithQuery(req.Path("chat", chatID, "messages"),
		"limit", strconv.Itoa(limit),
		"offset", strconv.Itoa(offset),
	)

	return Decode[model.MessagePage](c.Perform(ctx, http.MethodGet, path, nil))
}

// LastMessage returns the most recent message of a chat.
func (c *Client) LastMessage(ctx context.Context, chatID string) (model.Message, *errs.CustomError) {
	return Decode[model.Message](c.Perform(ctx, http.MethodGet, req.Path("chat", chatID, "last-message"), nil))
}

// SendMessage posts a message; the response carries the canonical id.
func (c *Client) SendMessage(ctx context.Context, chatID string, in model.MessageCreateRequest) (model.Message, *errs.CustomError) {
	return Decode[model.Message](c.Perform(ctx, http.MethodPost, req.Path("chat", chatID, "send"), in))
}

// EditMessage changes the content and reply target of a message.
func (c *Client) EditMessage(ctx context.Context, msgID string, in model.MessageUpdateRequest) (bool, *errs.CustomError) {
	return Decode[bool](c.Perform(ctx, http.MethodPut, req.Path("chat", "message", msgID), in))
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, msgID string) (bool, *errs.CustomError) {
	return Decode[bool](c.Perform(ctx, http.MethodDelete, req.Path("chat", "message", msgID), nil))
}

// Participant returns the membership of userID in a chat.
func (c *Client) Participant(ctx context.Context, chatID, userID string) (model.Participant, *errs.CustomError) {
	path := req.WithQuery(req.Path("chat", chatID, "user"), "uid", userID)
	return Decode[model.Participant](c.Perform(ctx, http.MethodGet, path, nil))
}

// Participants lists every member of a chat.
func (c *Client) Participants(ctx context.Context, chatID string) ([]model.Participant, *errs.CustomError) {
	return Decode[[]model.Participant](c.Perform(ctx, http.MethodGet, req.Path("chat", chatID, "user", "all"), nil))
}

// IsParticipant reports whether userID is a member of a chat.
func (c *Client) IsParticipant(ctx context.Context, chatID, userID string) (bool, *errs.CustomError) {
	path := req.WithQuery(req.Path("chat", chatID, "user", "check"), "uid", userID)
	return Decode[bool](c.Perform(ctx, http.MethodGet, path, nil))
}

// JoinChat adds the user to a joinable group chat.
func (c *Client) JoinChat(ctx context.Context, chatID string) (bool, *errs.CustomError) {
	return Decode[bool](c.Perform(ctx, http.MethodPost, req.Path("chat", chatID, "join"), nil))
}

// LeaveChat removes the user from a chat.
func (c *Client) LeaveChat(ctx context.Context, chatID string) (bool, *errs.CustomError) {
	return Decode[bool](c.Perform(ctx, http.MethodDelete, req.Path("chat", chatID, "leave"), nil))
}

// KickUser removes userID from a chat.
func (c *Client) KickUser(ctx context.Context, chatID, userID string) (bool, *errs.CustomError) {
	path := req.WithQuery(req.Path("chat", chatID, "kick"), "uid", userID)
	return Decode[bool](c.Perform(ctx, http.MethodDelete, path, nil))
}

// MuteUser mutes a participant until the requested time.
func (c *Client) MuteUser(ctx context.Context, chatID string, in model.MuteRequest) (bool, *errs.CustomError) {
	return Decode[bool](c.Perform(ctx, http.MethodPut, req.Path("chat", chatID, "mute"), in))
}

// UnmuteUser lifts a participant's mute.
func (c *Client) UnmuteUser(ctx context.Context, chatID, userID string) (bool, *errs.CustomError) {
	path := req.WithQuery(req.Path("chat", chatID, "unmute"), "uid", userID)
	return Decode[bool](c.Perform(ctx, http.MethodPut, path, nil))
}
