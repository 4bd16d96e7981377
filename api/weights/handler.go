// Package weights exposes the weight table edit surface over HTTP.
package weights

import (
	"encoding/json"
	"net/http"

	"github.com/peakobs/nightq/core/weights"
)

type editRequest struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

type editResponse struct {
	OK    bool    `json:"ok"`
	Value float64 `json:"value,omitempty"`
	Error string  `json:"error,omitempty"`
}

// NewEditHandler returns an HTTP handler accepting weight edits via POST.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewEditHandler(store *weights.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		var req editRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		v, err := store.Update(req.Row, req.Column, req.Value, true)
		if err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(editResponse{OK: false, Error: err.Error()})
			return
		}
		if err := json.NewEncoder(w).Encode(editResponse{OK: true, Value: v}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// NewTableHandler returns an HTTP handler exposing the current weight table
// and its version via GET.
func NewTableHandler(store *weights.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		table, version := store.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		out := struct {
			Version uint64             `json:"version"`
			Weights map[string]float64 `json:"weights"`
		}{Version: version, Weights: table}
		if err := json.NewEncoder(w).Encode(out); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
