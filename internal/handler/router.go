/*
Package handler provides the local inspection API of a running livesync session.

This file defines the main Router, applying the logging, CORS and IP-based rate limiting
middleware before delegating to the read-only views of the cache stores.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"livesync/internal/pkg/limiter"
	"livesync/internal/pkg/logx"
	"livesync/internal/pkg/resp"
)

const (
	InspectRate  = 5
	InspectBurst = 20
)

// Router sets up the routing table of the inspection API.
// The per-IP limiter's cleanup stops when ctx is done.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	inspectLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(InspectRate), InspectBurst)

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "livesync",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(inspectLimiter.Middleware)

		api.Get("/session", HandleGetSession(deps))
		api.Get("/push", HandleGetPush(deps))

		api.Route("/chats", func(chats chi.Router) {
			chats.Get("/", HandleListChats(deps))
			chats.Get("/{id}/messages", HandleListMessages(deps))
			chats.Get("/{id}/messages/{msgID}/attachment", HandleGetAttachmentURL(deps))
			chats.Get("/{id}/participants", HandleListParticipants(deps))
		})

		api.Get("/presence", HandleGetPresence(deps))
		api.Get("/blocks", HandleGetBlocks(deps))
		api.Get("/settings", HandleGetSettings(deps))
	})

	return r
}
