package model

import "time"

// ChatKind distinguishes one-to-one chats from groups.
type ChatKind string

const (
	ChatPrivate ChatKind = "private"
	ChatGroup   ChatKind = "group"
)

// Chat is a conversation. Participants is only populated by the list endpoint.
type Chat struct {
	ID        string    `json:"id"`
	Kind      ChatKind  `json:"type"`
	Name      *string   `json:"name"`
	AvatarURL *string   `json:"avatar_url"`
	CanJoin   *bool     `json:"can_join"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Participants []Participant `json:"Participants,omitempty"`
}

// Counterpart returns the user id of the other member of a private chat,
// or "" when it cannot be determined. Embedded participants win over CreatedBy.
func (c Chat) Counterpart(selfID string) string {
	if c.Kind != ChatPrivate || selfID == "" {
		return ""
	}

	for _, p := range c.Participants {
		if p.UserID != selfID {
			return p.UserID
		}
	}

	if c.CreatedBy != selfID {
		return c.CreatedBy
	}
	return ""
}

// ChatCreateRequest creates a group chat.
type ChatCreateRequest struct {
	Name      string   `json:"name"`
	AvatarURL *string  `json:"avatar_url"`
	CanJoin   bool     `json:"can_join"`
	CreatedBy string   `json:"created_by"`
	Members   []string `json:"members"`
}

// Participant is a chat membership. Unique per user id within a chat.
type Participant struct {
	ID         string     `json:"id"`
	ChatID     string     `json:"chat_id"`
	UserID     string     `json:"user_id"`
	Role       string     `json:"role"`
	JoinedAt   time.Time  `json:"joined_at"`
	MutedUntil *time.Time `json:"muted_until"`
}

// MuteRequest mutes a participant until the given time.
type MuteRequest struct {
	UserID     string    `json:"user_id"`
	MutedUntil time.Time `json:"muted_until"`
}
