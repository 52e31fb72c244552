/*
Package bootstrap wires one authenticated session: the request client, every cache store,
the push channel and the persisted state, constructed once and passed by reference to
whatever needs them.

Init hydrates the stores in the order the application start-up needs them. The session
hooks keep the container consistent with the identity: a verified login hydrates it, and
a logout disconnects the push channel and clears every store.
*/
package bootstrap

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"livesync/internal/app/api"
	"livesync/internal/app/push"
	"livesync/internal/app/state"
	"livesync/internal/app/storage"
	"livesync/internal/app/store"
	"livesync/internal/pkg/cooldown"
	"livesync/internal/pkg/logx"
)

// Options configures a Session.
type Options struct {
	APIURL         string
	WSURL          string
	RequestTimeout time.Duration
	OTPCooldown    time.Duration

	// State persists the selected chat. Optional.
	State state.Store

	// Storage enables attachment uploads. Optional.
	Storage storage.Service

	// Transport is the base HTTP transport. Optional.
	Transport http.RoundTripper
}

// Session is the per-session dependency container.
type Session struct {
	API      *api.Client
	Auth     *store.SessionStore
	Profiles *store.ProfileStore
	Settings *store.SettingsStore
	Blocks   *store.BlockStore
	Presence *store.PresenceStore
	Chats    *store.ChatStore
	Push     *push.Channel
	State    state.Store
	Storage  storage.Service

	logger zerolog.Logger

	closeOnce sync.Once
}

// New builds a Session. Nothing touches the network until Init or a store call.
func New(opts Options) (*Session, error) {
	client, err := api.NewClient(api.Options{
		BaseURL:   opts.APIURL,
		Timeout:   opts.RequestTimeout,
		Transport: opts.Transport,
	})
	if err != nil {
		return nil, err
	}

	cd := opts.OTPCooldown
	if cd <= 0 {
		cd = 30 * time.Second
	}

	s := &Session{
		API:      client,
		Auth:     store.NewSessionStore(client, client, cooldown.New(cd)),
		Profiles: store.NewProfileStore(client),
		Settings: store.NewSettingsStore(client),
		Blocks:   store.NewBlockStore(client),
		Presence: store.NewPresenceStore(client),
		State:    opts.State,
		Storage:  opts.Storage,
		logger:   logx.Component("bootstrap"),
	}

	s.Chats = store.NewChatStore(client, s.Auth, store.ChatOptions{
		Persistence: opts.State,
		Uploader:    opts.Storage,
		PageLimit:   api.DefaultPageLimit,
	})

	s.Push = push.NewChannel(
		push.Options{BaseURL: opts.WSURL, Jar: client.Jar()},
		push.NewRouter(s.Blocks, s.Presence, s.Chats),
	)

	s.Auth.SetHooks(store.SessionHooks{
		OnAuthenticated: func(ctx context.Context) { s.hydrate(ctx) },
		OnLogout:        s.onLogout,
	})

	return s, nil
}

// Init restores a previous session from the ambient credential. It reports whether
// an identity was found; without one the stores stay empty.
func (s *Session) Init(ctx context.Context) bool {
	if !s.Auth.FetchMe(ctx) {
		s.logger.Info().Msg("No active session")
		return false
	}

	s.hydrate(ctx)
	return true
}

// hydrate connects the push channel and loads every store for the current identity.
func (s *Session) hydrate(ctx context.Context) {
	start := time.Now()

	if err := s.Push.Connect(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Continuing without push updates")
	}

	s.Profiles.FetchMe(ctx)
	s.Blocks.FetchAll(ctx)
	s.Settings.Fetch(ctx)

	if !s.Chats.FetchChats(ctx) {
		s.logger.Warn().Interface("error", s.Chats.Err()).Msg("Failed to load chats")
	}

	var wg sync.WaitGroup

	for _, chat := range s.Chats.Chats() {
		wg.Add(1)
		go func(chatID string) {
			defer wg.Done()

			s.Chats.FetchParticipants(ctx, chatID)
			s.Chats.FetchLastMessage(ctx, chatID)
		}(chat.ID)
	}

	for _, userID := range s.Chats.PrivateCounterparts() {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()

			s.Blocks.CheckIfBlockedMe(ctx, userID)
			s.Presence.Fetch(ctx, userID)
		}(userID)
	}

	wg.Wait()

	s.Chats.Restore(ctx)

	s.logger.Info().
		Str("user_id", s.Auth.SelfID()).
		Int("chats", len(s.Chats.Chats())).
		Str("active_chat", s.Chats.ActiveID()).
		Dur("took", time.Since(start)).
		Msg("Session initialized")
}

func (s *Session) onLogout() {
	s.Push.Disconnect()
	s.Clear()
}

// Clear empties every store except the session identity, which SessionStore.Logout drops itself.
func (s *Session) Clear() {
	s.Profiles.Clear()
	s.Settings.Clear()
	s.Blocks.Clear()
	s.Presence.Clear()
	s.Chats.Clear()
}

// Close stops the session's timers and the push channel. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.Auth.Close()
		s.Push.Disconnect()
		s.logger.Info().Msg("Session closed")
	})
}
