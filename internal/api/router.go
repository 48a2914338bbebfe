package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	mw "github.com/iconidentify/tweetsift/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(time.Minute))

	// Health endpoint
	r.Get("/health", h.Health)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", h.Stats)
		r.Get("/posts", h.ListPosts)
		r.Get("/posts/{tweetID}", h.GetPost)
		r.Get("/posts/{tweetID}/media", h.GetMedia)
	})

	return r
}
