package store_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livesync/internal/app/api/apitest"
	"livesync/internal/app/model"
	"livesync/internal/app/store"
	"livesync/internal/pkg/errs"
)

// gated holds every request in reply until the returned release func is called.
func gated(reply http.HandlerFunc) (http.HandlerFunc, func()) {
	gate := make(chan struct{})
	var once sync.Once

	h := func(w http.ResponseWriter, r *http.Request) {
		<-gate
		reply(w, r)
	}
	return h, func() { once.Do(func() { close(gate) }) }
}

// together runs fn twice concurrently, releasing the gate once the first request
// reached the service, and returns both results.
func together(t *testing.T, srv *apitest.Server, method, path string, release func(), fn func() bool) []bool {
	t.Helper()
	defer release()

	results := make([]bool, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = fn()
		}()
	}

	require.Eventually(t, func() bool { return srv.Hits(method, path) >= 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	release()
	wg.Wait()

	return results
}

func TestChatStore_ConcurrentCreatePrivateOpensOneChat(t *testing.T) {
	srv := apitest.New(t)
	srv.Router.Get("/chat/all", apitest.Reply(http.StatusOK, []model.Chat{privateChat("c1", "me", "A")}))
	h, release := gated(apitest.Reply(http.StatusOK, privateChat("c2", "me", "B")))
	srv.Router.Post("/chat/create/private", h)

	s := store.NewChatStore(srv.Client(), self("me"), store.ChatOptions{})
	require.True(t, s.FetchChats(ctx))

	results := together(t, srv, http.MethodPost, "/chat/create/private", release, func() bool {
		_, ok := s.CreatePrivate(ctx, "B")
		return ok
	})

	assert.Contains(t, results, true)
	assert.Equal(t, 1, srv.Hits(http.MethodPost, "/chat/create/private"))
	assert.Len(t, s.Chats(), 2)
	assert.True(t, s.HasPrivateWith("B"))
	assert.Equal(t, []string{"B", "A"}, s.PrivateCounterparts())
}

func TestChatStore_CreateWithoutIdentity(t *testing.T) {
	s := store.NewChatStore(nil, self(""), store.ChatOptions{})

	_, ok := s.CreatePrivate(ctx, "B")
	assert.False(t, ok)
	assert.Equal(t, errs.ErrNotAuthenticated, s.Err().Code)

	_, ok = s.CreateGroup(ctx, model.ChatCreateRequest{Name: "team"})
	assert.False(t, ok)
	assert.Equal(t, errs.ErrNotAuthenticated, s.Err().Code)
}

func TestBlockStore_ConcurrentBlockIssuesOneCall(t *testing.T) {
	srv := apitest.New(t)
	h, release := gated(apitest.Reply(http.StatusOK, model.Block{ID: "b1", ProfileID: "me", BlockedProfileID: "A"}))
	srv.Router.Post("/user/block/{id}", h)

	s := store.NewBlockStore(srv.Client())

	results := together(t, srv, http.MethodPost, "/user/block/A", release, func() bool {
		return s.Block(ctx, "A")
	})

	assert.Equal(t, []bool{true, true}, results)
	assert.Equal(t, 1, srv.Hits(http.MethodPost, "/user/block/A"))
	assert.Len(t, s.Blocks(), 1)
}

func TestBlockStore_ConcurrentCheckIfBlockedMeIssuesOneCall(t *testing.T) {
	srv := apitest.New(t)
	h, release := gated(apitest.Reply(http.StatusOK, true))
	srv.Router.Get("/user/block/check/{id}", h)

	s := store.NewBlockStore(srv.Client())

	results := together(t, srv, http.MethodGet, "/user/block/check/A", release, func() bool {
		blocked, ok := s.CheckIfBlockedMe(ctx, "A")
		return ok && blocked
	})

	assert.Equal(t, []bool{true, true}, results)
	assert.Equal(t, 1, srv.Hits(http.MethodGet, "/user/block/check/A"))
}

func TestPresenceStore_ConcurrentFetchIssuesOneCall(t *testing.T) {
	srv := apitest.New(t)
	h, release := gated(apitest.Reply(http.StatusOK, model.Presence{Online: true}))
	srv.Router.Get("/user/profile/{id}/status", h)

	s := store.NewPresenceStore(srv.Client())

	results := together(t, srv, http.MethodGet, "/user/profile/A/status", release, func() bool {
		p, ok := s.Fetch(ctx, "A")
		return ok && p.Online
	})

	assert.Equal(t, []bool{true, true}, results)
	assert.Equal(t, 1, srv.Hits(http.MethodGet, "/user/profile/A/status"))
}

func TestProfileStore_ConcurrentFetchProfileIssuesOneCall(t *testing.T) {
	srv := apitest.New(t)
	h, release := gated(apitest.Reply(http.StatusOK, model.Profile{ID: "A", Username: "alice"}))
	srv.Router.Get("/user/profile/{id}", h)

	s := store.NewProfileStore(srv.Client())

	results := together(t, srv, http.MethodGet, "/user/profile/A", release, func() bool {
		p, ok := s.FetchProfile(ctx, "A")
		return ok && p.Username == "alice"
	})

	assert.Equal(t, []bool{true, true}, results)
	assert.Equal(t, 1, srv.Hits(http.MethodGet, "/user/profile/A"))
}
