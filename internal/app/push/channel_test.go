package push_test

import (
	"context"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livesync/internal/app/api/apitest"
	"livesync/internal/app/model"
	"livesync/internal/app/push"
	"livesync/internal/pkg/auth/jwt"
	"livesync/internal/pkg/logx"
)

func TestMain(m *testing.M) {
	logx.InitTestLogger(io.Discard, zerolog.Disabled)
	os.Exit(m.Run())
}

// recorder implements every sink and records what it received.
type recorder struct {
	mu       sync.Mutex
	blocks   []push.BlockUpdate
	statuses []string
	messages []model.Message
}

func (r *recorder) ApplyBlockUpdate(blockerID string, isBlocked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks = append(r.blocks, push.BlockUpdate{BlockerID: blockerID, IsBlocked: isBlocked})
}

func (r *recorder) ApplyStatusUpdate(userID string, _ model.Presence) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, userID)
	return true
}

func (r *recorder) ApplyNewMessage(msg model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blocks) + len(r.statuses) + len(r.messages)
}

func connect(t *testing.T, srv *apitest.Server, rec *recorder) (*push.Channel, *websocket.Conn) {
	t.Helper()

	ch := push.NewChannel(push.Options{BaseURL: srv.WSURL()}, push.NewRouter(rec, rec, rec))
	require.NoError(t, ch.Connect(context.Background()))
	t.Cleanup(ch.Disconnect)

	return ch, srv.AcceptPush()
}

func write(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func TestChannel_MalformedFrameIsDropped(t *testing.T) {
	srv := apitest.New(t)
	srv.EnablePush()

	rec := &recorder{}
	ch, conn := connect(t, srv, rec)
	require.Equal(t, push.Connected, ch.State())

	write(t, conn, `this is not json`)
	write(t, conn, `{"event_type":"block_update"}`)
	write(t, conn, `{"event_type":"block_update","blocker_id":"A","is_blocked":true}`)

	// Frames are handled in order: once the valid one lands, the bad ones were dropped.
	require.Eventually(t, func() bool { return rec.total() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, push.Connected, ch.State())
	assert.Equal(t, []push.BlockUpdate{{BlockerID: "A", IsBlocked: true}}, rec.blocks)
}

func TestChannel_RoutesEachKind(t *testing.T) {
	srv := apitest.New(t)
	srv.EnablePush()

	rec := &recorder{}
	_, conn := connect(t, srv, rec)

	write(t, conn, `{"event_type":"typing","chat_id":"c1"}`)
	write(t, conn, `{"event_type":"status_update","user_id":"B","is_online":true,"last_seen":null}`)
	write(t, conn, `{"event_type":"new_message","id":"m1","chat_id":"c1","user_id":"B","content":"hi","type":"text","created_at":"2024-06-01T10:00:00Z"}`)
	write(t, conn, `{"event_type":"block_update","blocker_id":"B","is_blocked":false}`)

	require.Eventually(t, func() bool { return rec.total() == 3 }, 2*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"B"}, rec.statuses)
	require.Len(t, rec.messages, 1)
	assert.Equal(t, "m1", rec.messages[0].ID)
	assert.Equal(t, []push.BlockUpdate{{BlockerID: "B", IsBlocked: false}}, rec.blocks)
}

func TestChannel_ServerCloseEndsConnection(t *testing.T) {
	srv := apitest.New(t)
	srv.EnablePush()

	ch, conn := connect(t, srv, &recorder{})
	done := ch.Done()

	require.NoError(t, conn.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not notice the closed connection")
	}
	assert.Equal(t, push.Disconnected, ch.State())
}

func TestChannel_DisconnectIsIdempotent(t *testing.T) {
	srv := apitest.New(t)
	srv.EnablePush()

	ch, _ := connect(t, srv, &recorder{})

	ch.Disconnect()
	ch.Disconnect()

	assert.Equal(t, push.Disconnected, ch.State())
	select {
	case <-ch.Done():
	default:
		t.Fatal("Done must be closed after Disconnect")
	}
}

func TestChannel_HandshakeCarriesCredential(t *testing.T) {
	srv := apitest.New(t)

	cookies := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	srv.Router.Get(push.Path, func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(jwt.AccessCookieName)
		if err == nil {
			cookies <- c.Value
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err == nil {
			conn.Close()
		}
	})

	client := srv.Client()
	token := srv.SetCredential(client.Jar(), "u1", time.Hour)

	ch := push.NewChannel(push.Options{BaseURL: srv.WSURL(), Jar: client.Jar()}, push.NewRouter(nil, nil, nil))
	require.NoError(t, ch.Connect(context.Background()))
	t.Cleanup(ch.Disconnect)

	select {
	case got := <-cookies:
		assert.Equal(t, token, got)
	case <-time.After(2 * time.Second):
		t.Fatal("handshake carried no credential")
	}
}

func TestChannel_ConnectFailure(t *testing.T) {
	srv := apitest.New(t)

	ch := push.NewChannel(push.Options{BaseURL: srv.WSURL()}, push.NewRouter(nil, nil, nil))

	assert.Error(t, ch.Connect(context.Background()))
	assert.Equal(t, push.Disconnected, ch.State())
}
