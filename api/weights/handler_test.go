package weights

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/peakobs/nightq/core/weights"
)

func TestEditHandler_SetWeight(t *testing.T) {
	store := weights.NewStore(nil)
	h := NewEditHandler(store, "tok")

	body := `{"row":0,"column":"P1","value":"2.5"}`
	req := httptest.NewRequest("POST", "/api/weights", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		OK    bool    `json:"ok"`
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.OK || out.Value != 2.5 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if got := store.Get("P1"); got != 2.5 {
		t.Fatalf("store not updated: %v", got)
	}
	if store.Version() != 1 {
		t.Fatalf("version not bumped: %d", store.Version())
	}
}

func TestEditHandler_RejectsBadValue(t *testing.T) {
	store := weights.NewStore(nil)
	h := NewEditHandler(store, "")

	body := `{"row":0,"column":"P1","value":"abc"}`
	req := httptest.NewRequest("POST", "/api/weights", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rr.Code)
	}
	var out struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.OK || out.Error == "" {
		t.Fatalf("expected error response: %+v", out)
	}
	if store.Version() != 0 {
		t.Fatalf("rejected edit must not bump version")
	}
}

func TestEditHandler_Auth(t *testing.T) {
	store := weights.NewStore(nil)
	h := NewEditHandler(store, "tok")
	req := httptest.NewRequest("POST", "/api/weights", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
	req = httptest.NewRequest("GET", "/api/weights", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rr.Code)
	}
}

func TestTableHandler(t *testing.T) {
	store := weights.NewStore(nil)
	if err := store.SetFloat("P1", 3); err != nil {
		t.Fatalf("set: %v", err)
	}
	h := NewTableHandler(store)
	req := httptest.NewRequest("GET", "/api/weights/table", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out struct {
		Version uint64             `json:"version"`
		Weights map[string]float64 `json:"weights"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Version != 1 || out.Weights["P1"] != 3 {
		t.Fatalf("unexpected table: %+v", out)
	}
}
