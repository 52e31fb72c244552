package model

import "time"

// MessageType is the payload kind of a message.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageVideo  MessageType = "video"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageVideo, MessageFile, MessageSystem:
		return true
	}
	return false
}

// Message belongs to exactly one chat. ID, ChatID, UserID and CreatedAt never
// change after creation.
type Message struct {
	ID             string      `json:"id"`
	ChatID         string      `json:"chat_id"`
	UserID         *string     `json:"user_id"`
	Content        string      `json:"content"`
	Type           MessageType `json:"type"`
	ReplyToMessage *string     `json:"reply_to_message"`
	CreatedAt      time.Time   `json:"created_at"`
	EditedAt       *time.Time  `json:"edited_at"`
}

// AuthoredBy reports whether userID wrote m. System messages have no author.
func (m Message) AuthoredBy(userID string) bool {
	return m.UserID != nil && *m.UserID == userID
}

// MessageCreateRequest sends a new message.
type MessageCreateRequest struct {
	Content        string      `json:"content"`
	Type           MessageType `json:"type"`
	ReplyToMessage *string     `json:"reply_to_message"`
}

// MessageUpdateRequest edits an existing message.
type MessageUpdateRequest struct {
	Content        string  `json:"content"`
	ReplyToMessage *string `json:"reply_to_message"`
}

// MessagePage is one offset/limit window of a chat's messages.
type MessagePage struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}

// LastMessage is the denormalized "last message" summary shown in chat lists.
type LastMessage struct {
	MessageID string `json:"msg_id"`
	Content   string `json:"msg_content"`
}

// Summary returns the last-message summary for m.
func (m Message) Summary() LastMessage {
	return LastMessage{MessageID: m.ID, Content: m.Content}
}
