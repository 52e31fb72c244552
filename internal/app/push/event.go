/*
Package push maintains the persistent server-push connection.

Frames are JSON objects discriminated by "event_type". ParseEvent turns each frame into
one of the typed events below, validating required fields at the boundary; the Router
then hands the event to the store that owns the affected entity. Frames that fail to
decode are logged and dropped without touching any store.
*/
package push

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"livesync/internal/app/model"
)

// Kind is the value of a frame's discriminator.
type Kind string

const (
	KindBlockUpdate  Kind = "block_update"
	KindStatusUpdate Kind = "status_update"
	KindNewMessage   Kind = "new_message"
)

// ErrMalformedFrame is returned for frames that are not JSON or miss required fields.
var ErrMalformedFrame = errors.New("malformed push frame")

// Event is one decoded push frame.
type Event interface {
	Kind() Kind
}

// BlockUpdate reports that BlockerID blocked or unblocked the session.
type BlockUpdate struct {
	BlockerID string
	IsBlocked bool
}

func (BlockUpdate) Kind() Kind { return KindBlockUpdate }

// StatusUpdate reports a user's presence change.
type StatusUpdate struct {
	UserID   string
	IsOnline bool
	LastSeen *time.Time
}

func (StatusUpdate) Kind() Kind { return KindStatusUpdate }

// Presence returns the update as a presence entry.
func (u StatusUpdate) Presence() model.Presence {
	return model.Presence{Online: u.IsOnline, LastSeen: u.LastSeen}
}

// NewMessage carries a message just posted to one of the session's chats.
type NewMessage struct {
	Message model.Message
}

func (NewMessage) Kind() Kind { return KindNewMessage }

// UnknownEvent is a well-formed frame with a discriminator this client does not handle.
type UnknownEvent struct {
	Type string
}

func (e UnknownEvent) Kind() Kind { return Kind(e.Type) }

type envelope struct {
	EventType string `json:"event_type"`
}

type blockFrame struct {
	BlockerID string `json:"blocker_id"`
	IsBlocked *bool  `json:"is_blocked"`
}

type statusFrame struct {
	UserID   string     `json:"user_id"`
	IsOnline *bool      `json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}

// ParseEvent decodes one frame.
func ParseEvent(frame []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, errors.Wrap(ErrMalformedFrame, err.Error())
	}

	switch Kind(env.EventType) {
	case KindBlockUpdate:
		var f blockFrame
		if err := json.Unmarshal(frame, &f); err != nil {
			return nil, errors.Wrap(ErrMalformedFrame, err.Error())
		}
		if f.BlockerID == "" || f.IsBlocked == nil {
			return nil, errors.Wrap(ErrMalformedFrame, "block_update needs blocker_id and is_blocked")
		}
		return BlockUpdate{BlockerID: f.BlockerID, IsBlocked: *f.IsBlocked}, nil

	case KindStatusUpdate:
		var f statusFrame
		if err := json.Unmarshal(frame, &f); err != nil {
			return nil, errors.Wrap(ErrMalformedFrame, err.Error())
		}
		if f.UserID == "" || f.IsOnline == nil {
			return nil, errors.Wrap(ErrMalformedFrame, "status_update needs user_id and is_online")
		}
		return StatusUpdate{UserID: f.UserID, IsOnline: *f.IsOnline, LastSeen: f.LastSeen}, nil

	case KindNewMessage:
		var m model.Message
		if err := json.Unmarshal(frame, &m); err != nil {
			return nil, errors.Wrap(ErrMalformedFrame, err.Error())
		}
		if m.ID == "" || m.ChatID == "" {
			return nil, errors.Wrap(ErrMalformedFrame, "new_message needs id and chat_id")
		}
		return NewMessage{Message: m}, nil

	case "":
		return nil, errors.Wrap(ErrMalformedFrame, "missing event_type")

	default:
		return UnknownEvent{Type: env.EventType}, nil
	}
}
