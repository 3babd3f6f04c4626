package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linknest/linknest/internal/httpserver/deps"
	"github.com/linknest/linknest/internal/httpserver/handlers"
	"github.com/linknest/linknest/internal/httpserver/mw"
)

func init() { Register(registerImportExport) }

func registerImportExport(r chi.Router, d deps.Deps) {
	writeLimit := mw.RateLimit(mw.RateLimitConfig{
		Burst:        d.RateLimitBurst,
		RefillPerMin: d.RateLimitPerMin,
		IdleTTL:      15 * time.Minute,
		TrustProxy:   d.TrustProxy,
	})

	r.With(writeLimit).Post("/api/import", handlers.Import(d))
	r.Get("/api/export", handlers.Export(d))
}
