package schedstate

import (
	"testing"
	"time"

	"github.com/peakobs/nightq/core/model"
)

func TestMemoryStore_Filter(t *testing.T) {
	s := NewMemoryStore()
	s.Set(NightState{Night: "2026-03-14", Rows: []model.ExportRow{{OB: "OB-1", Program: "P1"}}})
	s.Set(NightState{Night: "2026-03-15", Rows: []model.ExportRow{{OB: "OB-2", Program: "P2"}}})
	out := s.List(Filter{Night: "2026-03-14"})
	if len(out) != 1 || out[0].Night != "2026-03-14" {
		t.Fatalf("filter failed: %#v", out)
	}
}

func TestMemoryStore_FilterProgram(t *testing.T) {
	s := NewMemoryStore()
	s.Set(NightState{Night: "2026-03-14", Rows: []model.ExportRow{{OB: "OB-1", Program: "P1"}}})
	s.Set(NightState{Night: "2026-03-15", Rows: []model.ExportRow{{OB: "OB-2", Program: "P2"}}})
	out := s.List(Filter{Program: "P2"})
	if len(out) != 1 || out[0].Night != "2026-03-15" {
		t.Fatalf("program filter failed: %#v", out)
	}
}

func TestMemoryStore_RecordPass(t *testing.T) {
	s := NewMemoryStore()
	s.Set(NightState{Night: "2026-03-14"})
	sum := PassSummary{Strategy: "greedy", SlotsAssigned: 12, Committed: true, Timestamp: time.Now()}
	s.RecordPass("2026-03-14", sum)
	out := s.List(Filter{})
	if !out[0].LastPass.Committed {
		t.Fatalf("pass summary not updated")
	}
}

func TestMemoryStore_RecordPassNew(t *testing.T) {
	s := NewMemoryStore()
	sum := PassSummary{Strategy: "global"}
	s.RecordPass("2026-03-16", sum)
	out := s.List(Filter{})
	if len(out) != 1 || out[0].Night != "2026-03-16" {
		t.Fatalf("auto create failed %#v", out)
	}
}

func TestMemoryStore_Latest(t *testing.T) {
	s := NewMemoryStore()
	if _, ok := s.Latest(); ok {
		t.Fatalf("expected empty store")
	}
	base := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	s.Set(NightState{Night: "2026-03-14", UpdatedAt: base})
	s.Set(NightState{Night: "2026-03-15", UpdatedAt: base.Add(time.Hour)})
	st, ok := s.Latest()
	if !ok || st.Night != "2026-03-15" {
		t.Fatalf("latest failed: %#v", st)
	}
}
