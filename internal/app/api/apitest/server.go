/*
Package apitest provides a fake of the remote chat service for tests.

Server wraps an httptest.Server around a chi router. Tests register the routes they need,
count how often each was hit, mint credential cookies, and drive the push endpoint by
accepting the client's websocket and writing frames to it.
*/
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"livesync/internal/app/api"
	"livesync/internal/pkg/auth/jwt"
	"livesync/internal/pkg/errs"
)

// Secret signs the tokens the fake service mints.
const Secret = "apitest-secret"

// PushPath is where the fake push endpoint is mounted.
const PushPath = "/user/ws"

// Server is a fake remote service.
type Server struct {
	*httptest.Server

	// Router is where tests register routes.
	Router chi.Router

	t testing.TB

	mu   sync.Mutex
	hits map[string]int

	upgrader websocket.Upgrader
	pushConn chan *websocket.Conn
}

// New starts a fake service that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		t:        t,
		hits:     make(map[string]int),
		pushConn: make(chan *websocket.Conn, 4),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r := chi.NewRouter()
	r.Use(s.count)
	s.Router = r

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)

	return s
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// Hits returns how many requests reached method+path.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hits[method+" "+path]
}

// Client returns an api.Client pointed at the fake service.
func (s *Server) Client() *api.Client {
	s.t.Helper()

	c, err := api.NewClient(api.Options{BaseURL: s.URL, Timeout: 5 * time.Second})
	if err != nil {
		s.t.Fatalf("apitest: new client: %v", err)
	}

	return c
}

// WSURL returns the ws:// root matching the service URL.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

// SetCredential stores a freshly minted access token for userID in jar.
func (s *Server) SetCredential(jar http.CookieJar, userID string, ttl time.Duration) string {
	s.t.Helper()

	token, err := jwt.GenerateToken(&jwt.Payload{UserID: userID}, Secret, ttl)
	if err != nil {
		s.t.Fatalf("apitest: generate token: %v", err)
	}

	u, _ := url.Parse(s.URL)
	jar.SetCookies(u, []*http.Cookie{{Name: jwt.AccessCookieName, Value: token, Path: "/"}})

	return token
}

// EnablePush mounts the push endpoint. Each accepted connection is handed to AcceptPush.
func (s *Server) EnablePush() {
	s.Router.Get(PushPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.t.Errorf("apitest: upgrade: %v", err)
			return
		}
		s.pushConn <- conn
	})
}

// AcceptPush waits for the client to open the push connection.
func (s *Server) AcceptPush() *websocket.Conn {
	s.t.Helper()

	select {
	case conn := <-s.pushConn:
		s.t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(5 * time.Second):
		s.t.Fatal("apitest: push connection was not opened")
		return nil
	}
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Fail writes a domain error payload.
func Fail(w http.ResponseWriter, status, code int, message string) {
	JSON(w, status, errs.Payload{Code: code, Error: message})
}

// Reply returns a handler that always answers status with v.
func Reply(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, status, v)
	}
}
