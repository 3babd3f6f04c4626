package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linknest/linknest/internal/httpserver/deps"
	"github.com/linknest/linknest/internal/httpserver/handlers"
	"github.com/linknest/linknest/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	writeLimit := mw.RateLimit(mw.RateLimitConfig{
		Burst:        d.RateLimitBurst,
		RefillPerMin: d.RateLimitPerMin,
		IdleTTL:      15 * time.Minute,
		TrustProxy:   d.TrustProxy,
	})

	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Get("/", handlers.List(d))

		r.With(writeLimit).Post("/", handlers.Add(d))
		r.With(writeLimit).Put("/{id}", handlers.Edit(d))
		r.With(writeLimit).Delete("/{id}", handlers.Delete(d))
		r.With(writeLimit).Post("/{id}/undo", handlers.Undo(d))
		r.With(writeLimit).Post("/{id}/favorite", handlers.ToggleFavorite(d))
		r.With(writeLimit).Post("/{id}/pin", handlers.TogglePin(d))

		// Click tracking is read-adjacent traffic, no write limit.
		r.Post("/{id}/click", handlers.TrackClick(d))

		r.With(writeLimit).Post("/bulk/delete", handlers.BulkDelete(d))
		r.With(writeLimit).Post("/bulk/category", handlers.BulkSetCategory(d))
	})
}
