// Package passes exposes the pass history over HTTP so operators can audit
// past scheduling decisions.
package passes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/peakobs/nightq/core/sched/passlog"
)

// NewHandler returns an HTTP handler exposing pass records via GET /api/passes.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewHandler(store passlog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q := passlog.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.Night = r.URL.Query().Get("night")
		q.OBID = r.URL.Query().Get("ob")
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
