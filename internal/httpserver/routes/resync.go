package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/linknest/linknest/internal/httpserver/deps"
	"github.com/linknest/linknest/internal/httpserver/handlers"
)

func init() { Register(registerResync) }

func registerResync(r chi.Router, d deps.Deps) {
	r.Post("/resync", handlers.Resync(d))
}
