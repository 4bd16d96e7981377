package passes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/core/sched/passlog"
)

type memStore struct{ recs []passlog.PassRecord }

func (m *memStore) Append(ctx context.Context, r passlog.PassRecord) error {
	m.recs = append(m.recs, r)
	return nil
}

func (m *memStore) Query(ctx context.Context, q passlog.Query) ([]passlog.PassRecord, error) {
	var res []passlog.PassRecord
	for _, r := range m.recs {
		if q.Night != "" && r.Night != q.Night {
			continue
		}
		if q.OBID != "" {
			found := false
			for _, row := range r.Assignments {
				if row.OB == q.OBID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		res = append(res, r)
	}
	return res, nil
}

func (m *memStore) Close() error { return nil }

func TestHandler_AuthAndFilters(t *testing.T) {
	store := &memStore{}
	if err := store.Append(context.Background(), passlog.PassRecord{
		Timestamp:   time.Now(),
		Night:       "2026-03-14",
		Strategy:    "greedy",
		Assignments: []model.ExportRow{{OB: "OB-1"}},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	h := NewHandler(store, "tok")

	req := httptest.NewRequest("GET", "/api/passes?ob=OB-1", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []passlog.PassRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 record")
	}
	// unauthorized
	req = httptest.NewRequest("GET", "/api/passes", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
	// filter mismatch
	req = httptest.NewRequest("GET", "/api/passes?night=2026-03-15", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	out = nil
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no records, got %d", len(out))
	}
}
