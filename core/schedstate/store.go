// Package schedstate keeps the latest committed schedule per night in memory
// so API consumers see what the planner last published without hitting the
// queue store.
package schedstate

import (
	"sort"
	"sync"
	"time"

	"github.com/peakobs/nightq/core/model"
)

// PassSummary mirrors the outcome of the most recent scheduling pass.
type PassSummary struct {
	Strategy       string    `json:"strategy"`
	WeightsVersion uint64    `json:"weights_version"`
	SlotsTotal     int       `json:"slots_total"`
	SlotsAssigned  int       `json:"slots_assigned"`
	Committed      bool      `json:"committed"`
	Timestamp      time.Time `json:"timestamp"`
}

// NightState captures the current published plan for one night.
type NightState struct {
	Night     string            `json:"night"`
	Rev       uint64            `json:"rev,omitempty"`
	Rows      []model.ExportRow `json:"rows,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
	LastPass  PassSummary       `json:"last_pass"`
}

type Filter struct {
	Night   string
	Program string
}

type Store interface {
	Set(NightState)
	List(Filter) []NightState
	RecordPass(night string, sum PassSummary)
	Latest() (NightState, bool)
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]NightState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]NightState{}}
}

func (s *MemoryStore) Set(st NightState) {
	s.mu.Lock()
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now()
	}
	s.data[st.Night] = st
	s.mu.Unlock()
}

func (s *MemoryStore) RecordPass(night string, sum PassSummary) {
	s.mu.Lock()
	st := s.data[night]
	if st.Night == "" {
		st.Night = night
	}
	st.LastPass = sum
	st.UpdatedAt = sum.Timestamp
	s.data[night] = st
	s.mu.Unlock()
}

func (s *MemoryStore) List(f Filter) []NightState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]NightState, 0, len(s.data))
	for _, st := range s.data {
		if f.Night != "" && st.Night != f.Night {
			continue
		}
		if f.Program != "" && !hasProgram(st.Rows, f.Program) {
			continue
		}
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Night < res[j].Night })
	return res
}

// Latest returns the most recently updated night.
func (s *MemoryStore) Latest() (NightState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best NightState
	found := false
	for _, st := range s.data {
		if !found || st.UpdatedAt.After(best.UpdatedAt) {
			best = st
			found = true
		}
	}
	return best, found
}

func hasProgram(rows []model.ExportRow, program string) bool {
	for _, r := range rows {
		if r.Program == program {
			return true
		}
	}
	return false
}
