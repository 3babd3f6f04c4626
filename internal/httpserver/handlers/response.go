package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/linknest/linknest/internal/domain"
	"github.com/linknest/linknest/internal/engine"
	"github.com/linknest/linknest/internal/httpserver/deps"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the engine's error taxonomy onto HTTP statuses:
// validation → 400 (404 for unknown ids), persistence → 502.
func writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		status := http.StatusBadRequest
		if verr.Field == "id" {
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{Error: verr.Error()})
		return
	}

	var perr *domain.PersistenceError
	if errors.As(err, &perr) {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: perr.Error()})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// ownerEngine resolves the caller's engine from the X-Owner-ID header.
// Authentication proper lives in front of this service; the header is
// what the trusted proxy injects after verifying the session.
func ownerEngine(d deps.Deps, w http.ResponseWriter, r *http.Request) (*engine.Engine, bool) {
	ownerID := r.Header.Get("X-Owner-ID")
	if ownerID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing owner"})
		return nil, false
	}

	eng, err := d.Manager.Open(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return eng, true
}
