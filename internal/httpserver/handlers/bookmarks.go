package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linknest/linknest/internal/domain"
	"github.com/linknest/linknest/internal/httpserver/deps"
)

type listResponse struct {
	Bookmarks  []*domain.Bookmark     `json:"bookmarks"`
	Total      int                    `json:"total"`
	Categories []domain.CategoryCount `json:"categories"`
	Tags       []domain.TagCount      `json:"tags"`
}

// List returns the caller's collection through the view projection:
// filter/tag/q/sort query parameters select the derived view, while
// category and tag counts always cover the full collection.
func List(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, ok := ownerEngine(d, w, r)
		if !ok {
			return
		}

		snapshot := eng.Snapshot()
		query := r.URL.Query()

		view := domain.FilterBookmarks(snapshot, domain.ViewQuery{
			Filter:      query.Get("filter"),
			TagFilter:   query.Get("tag"),
			SearchQuery: query.Get("q"),
		})

		sortKey := domain.SortKey(query.Get("sort"))
		if sortKey == "" {
			sortKey = domain.SortNewest
		}
		view = domain.SortBookmarks(view, sortKey)

		writeJSON(w, http.StatusOK, listResponse{
			Bookmarks:  view,
			Total:      len(snapshot),
			Categories: domain.ComputeCategories(snapshot),
			Tags:       domain.ComputeTags(snapshot),
		})
	}
}

type addRequest struct {
	Title string             `json:"title"`
	URL   string             `json:"url"`
	Hint  *domain.Suggestion `json:"hint,omitempty"` // pre-classified by the extension popup
}

func Add(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, ok := ownerEngine(d, w, r)
		if !ok {
			return
		}

		var req addRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		bookmark, err := eng.Add(r.Context(), req.Title, req.URL, req.Hint)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, bookmark)
	}
}

type editRequest struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func Edit(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, ok := ownerEngine(d, w, r)
		if !ok {
			return
		}

		var req editRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		id := chi.URLParam(r, "id")
		if err := eng.Edit(r.Context(), id, req.Title, req.URL, req.Category, req.Tags); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Delete hides the bookmark and starts the undo grace window. The
// remote delete only fires when the window elapses without an undo.
func Delete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, ok := ownerEngine(d, w, r)
		if !ok {
			return
		}
		eng.Delete(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusAccepted)
	}
}

func Undo(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, ok := ownerEngine(d, w, r)
		if !ok {
			return
		}
		if !eng.Undo(chi.URLParam(r, "id")) {
			writeJSON(w, http.StatusGone, errorResponse{Error: "undo window elapsed"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ToggleFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, ok := ownerEngine(d, w, r)
		if !ok {
			return
		}
		if err := eng.ToggleFavorite(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func TogglePin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, ok := ownerEngine(d, w, r)
		if !ok {
			return
		}
		if err := eng.TogglePin(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// TrackClick is fire-and-forget by contract; the handler always
// answers 202.
func TrackClick(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, ok := ownerEngine(d, w, r)
		if !ok {
			return
		}
		eng.TrackClick(r.Context(), chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusAccepted)
	}
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func BulkDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, ok := ownerEngine(d, w, r)
		if !ok {
			return
		}

		var req bulkDeleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		if err := eng.BulkDelete(r.Context(), req.IDs); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type bulkCategoryRequest struct {
	IDs      []string `json:"ids"`
	Category string   `json:"category"`
}

func BulkSetCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, ok := ownerEngine(d, w, r)
		if !ok {
			return
		}

		var req bulkCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		if err := eng.BulkSetCategory(r.Context(), req.IDs, req.Category); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
