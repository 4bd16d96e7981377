// Package schedule exposes the latest published night plan over HTTP.
package schedule

import (
	"encoding/json"
	"net/http"

	"github.com/peakobs/nightq/core/schedstate"
)

// NewExportHandler returns an HTTP handler exposing the published schedule
// via GET /api/schedule. Without parameters it returns the most recently
// updated night; ?night=YYYY-MM-DD selects a specific night and ?program=
// restricts to nights that scheduled the given program.
func NewExportHandler(store schedstate.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		night := r.URL.Query().Get("night")
		program := r.URL.Query().Get("program")
		w.Header().Set("Content-Type", "application/json")
		if night == "" && program == "" {
			st, ok := store.Latest()
			if !ok {
				http.Error(w, "no schedule published", http.StatusNotFound)
				return
			}
			if err := json.NewEncoder(w).Encode(st); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		entries := store.List(schedstate.Filter{Night: night, Program: program})
		if len(entries) == 0 {
			http.Error(w, "no schedule published", http.StatusNotFound)
			return
		}
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
