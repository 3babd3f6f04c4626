package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/linknest/linknest/internal/httpserver/deps"
	"github.com/linknest/linknest/internal/importexport"
	"github.com/linknest/linknest/internal/logger"
)

const maxImportBytes = 4 << 20

type importResponse struct {
	Imported   int      `json:"imported"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors,omitempty"`
}

// Import accepts a previously exported document (or a bare bookmark
// array) and merges it into the collection, skipping URLs already
// present.
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, ok := ownerEngine(d, w, r)
		if !ok {
			return
		}

		data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "could not read request body"})
			return
		}

		parsed := importexport.Parse(data)
		if len(parsed.Bookmarks) == 0 {
			msg := "no importable bookmarks found"
			if len(parsed.Errors) > 0 {
				msg = parsed.Errors[0]
			}
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
			return
		}

		result, err := eng.ImportBatch(r.Context(), parsed.Bookmarks)
		if err != nil {
			writeError(w, err)
			return
		}

		d.Logger.Info("import completed",
			logger.String("owner_id", eng.OwnerID()),
			logger.Int("imported", result.Imported),
			logger.Int("duplicates", result.Duplicates),
			logger.Int("rejected", len(parsed.Errors)))

		writeJSON(w, http.StatusOK, importResponse{
			Imported:   result.Imported,
			Duplicates: result.Duplicates,
			Errors:     parsed.Errors,
		})
	}
}

// Export streams the full collection as a portable JSON document.
func Export(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, ok := ownerEngine(d, w, r)
		if !ok {
			return
		}

		data, err := importexport.Export(eng.Snapshot(), d.Now())
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "linknest-export.json"))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			d.Logger.Debug("failed to write export", logger.Error(err))
		}
	}
}
