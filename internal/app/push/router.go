package push

import (
	"github.com/rs/zerolog"

	"livesync/internal/app/model"
	"livesync/internal/pkg/logx"
)

// BlockSink receives "blocked me" changes.
type BlockSink interface {
	ApplyBlockUpdate(blockerID string, isBlocked bool)
}

// PresenceSink receives presence changes. It reports whether the update was kept.
type PresenceSink interface {
	ApplyStatusUpdate(userID string, p model.Presence) bool
}

// MessageSink receives new messages.
type MessageSink interface {
	ApplyNewMessage(msg model.Message)
}

// Router dispatches each event to the store that owns the affected entity.
// A nil sink drops the events it would receive.
type Router struct {
	Blocks   BlockSink
	Presence PresenceSink
	Messages MessageSink

	logger zerolog.Logger
}

// NewRouter returns a Router over the given sinks.
func NewRouter(blocks BlockSink, presence PresenceSink, messages MessageSink) *Router {
	return &Router{
		Blocks:   blocks,
		Presence: presence,
		Messages: messages,
		logger:   logx.Component("push.router"),
	}
}

// Dispatch applies ev to its sink.
func (r *Router) Dispatch(ev Event) {
	switch e := ev.(type) {
	case BlockUpdate:
		if r.Blocks != nil {
			r.Blocks.ApplyBlockUpdate(e.BlockerID, e.IsBlocked)
		}

	case StatusUpdate:
		if r.Presence != nil && !r.Presence.ApplyStatusUpdate(e.UserID, e.Presence()) {
			r.logger.Debug().Str("user_id", e.UserID).Msg("Status update for untracked user dropped")
		}

	case NewMessage:
		if r.Messages != nil {
			r.Messages.ApplyNewMessage(e.Message)
		}

	case UnknownEvent:
		r.logger.Debug().Str("event_type", e.Type).Msg("Ignoring unknown push event")
	}
}
