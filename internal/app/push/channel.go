package push

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"livesync/internal/pkg/logx"
)

const (
	// Path is where the service accepts push connections.
	Path = "/user/ws"

	// maximum allowed size (in bytes) of a frame sent by the service.
	maxFrameSize = 64 * 1024

	// timeout duration for writing control frames.
	writeWait = 5 * time.Second

	// time allowed to read the next pong or frame from the service.
	pongWait = 60 * time.Second

	// interval for sending pings. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	defaultHandshakeTimeout = 10 * time.Second
)

// State is the lifecycle of a Channel.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Options configures a Channel.
type Options struct {
	// BaseURL is the ws:// or wss:// root of the service; Path is appended.
	BaseURL string

	// Jar supplies the ambient credential for the handshake.
	Jar http.CookieJar

	HandshakeTimeout time.Duration
}

// Channel is the push connection of one session. It never reconnects on its own:
// after the connection drops, the owner decides whether to Connect again.
type Channel struct {
	url    string
	router *Router
	dialer *websocket.Dialer
	logger zerolog.Logger

	mu    sync.Mutex
	state State
	conn  *websocket.Conn
	done  chan struct{}
}

// NewChannel returns a disconnected Channel that dispatches frames through router.
func NewChannel(opts Options, router *Router) *Channel {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}

	done := make(chan struct{})
	close(done)

	u := strings.TrimRight(opts.BaseURL, "/") + Path

	return &Channel{
		url:    u,
		router: router,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
			Jar:              opts.Jar,
		},
		logger: logx.Component("push").With().Str("ws_url", u).Logger(),
		done:   done,
	}
}

// URL returns the endpoint the channel dials.
func (c *Channel) URL() string {
	return c.url
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Done is closed when the current connection ends.
func (c *Channel) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.done
}

// Connect opens the connection. Calling Connect on a channel that is connecting
// or connected is a no-op.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = Connecting
	c.mu.Unlock()

	conn, res, err := c.dialer.DialContext(ctx, c.url, nil)
	if res != nil && res.Body != nil {
		res.Body.Close()
	}
	if err != nil {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()

		c.logger.Error().Err(err).Msg("Push connection failed")
		return errors.Wrap(err, "dial push channel")
	}

	conn.SetReadLimit(maxFrameSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to set initial read deadline")
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	done := make(chan struct{})

	c.mu.Lock()
	if c.state != Connecting {
		// Disconnect ran while dialing.
		c.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	c.conn = conn
	c.done = done
	c.state = Connected
	c.mu.Unlock()

	c.logger.Info().Msg("Push channel connected")

	go c.readLoop(conn, done)
	go c.pingLoop(conn, done)

	return nil
}

// pingLoop keeps the connection alive until done is closed.
func (c *Channel) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug().Err(err).Msg("Ping failed")
				return
			}
		}
	}
}

// readLoop decodes and dispatches frames until the connection ends.
func (c *Channel) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer c.cleanup(conn, done)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("Push connection lost")
			} else {
				c.logger.Info().Err(err).Msg("Push connection closed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		ev, err := ParseEvent(frame)
		if err != nil {
			c.logger.Warn().Err(err).Int("frame_bytes", len(frame)).Msg("Dropping push frame")
			continue
		}

		c.router.Dispatch(ev)
	}
}

func (c *Channel) cleanup(conn *websocket.Conn, done chan struct{}) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.state = Disconnected
	}
	c.mu.Unlock()

	if err := conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Push connection close error")
	}

	close(done)
}

// Disconnect closes the connection and waits for the read loop to exit. Safe to
// call on a disconnected channel.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	conn, done := c.conn, c.done
	c.conn = nil
	c.state = Disconnected
	c.mu.Unlock()

	if conn == nil {
		return
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to send close frame")
	}
	_ = conn.Close()

	<-done

	c.logger.Info().Msg("Push channel disconnected")
}
