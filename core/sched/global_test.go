package sched

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/core/visibility"
	"github.com/peakobs/nightq/core/weights"
)

func TestGlobalFillSchedulesBoth(t *testing.T) {
	ws := weights.NewStore(nil)
	if err := ws.SetFloat("prog-a", 2.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := newTestPlanner(Config{Strategy: StrategyGlobal}, alwaysVisible(), ws)
	sched, err := p.BuildSchedule(context.Background(), Request{
		Night:      "2026-03-14",
		Candidates: []model.OB{queueOB("ob-a", "prog-a", "T1"), queueOB("ob-b", "prog-b", "T2")},
		Slots:      twoSlots(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sched.Assigned() != 2 {
		t.Fatalf("expected 2 assigned, got %d", sched.Assigned())
	}
	if sched.Slots[0].OB.ID != "ob-a" {
		t.Fatalf("heavier program must take the earlier slot, got %s", sched.Slots[0].OB.ID)
	}
	if !strings.Contains(sched.Report, "global fill") {
		t.Fatalf("report must name the strategy:\n%s", sched.Report)
	}
}

func TestGlobalFillPlacesConstrainedOBFirst(t *testing.T) {
	// ob-late can only run in the late slot (its filter arrives then).
	// ob-any runs anywhere. Greedy would give the early slot to ob-any by
	// score and still succeed; global must too, without double-booking.
	early, _ := model.NewSlot(nightStart, nightStart.Add(30*time.Minute), []string{"r"})
	late, _ := model.NewSlot(nightStart.Add(30*time.Minute), nightStart.Add(time.Hour), []string{"r", "z"})

	any := queueOB("ob-any", "prog-a", "T1")
	constrained := queueOB("ob-late", "prog-b", "T2")
	constrained.Filter = "z"

	ws := weights.NewStore(nil)
	if err := ws.SetFloat("prog-b", 3.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := newTestPlanner(Config{Strategy: StrategyGlobal}, alwaysVisible(), ws)
	sched, err := p.BuildSchedule(context.Background(), Request{
		Night:      "2026-03-14",
		Candidates: []model.OB{any, constrained},
		Slots:      []model.Slot{early, late},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sched.Assigned() != 2 {
		t.Fatalf("expected 2 assigned, got %d:\n%s", sched.Assigned(), sched.Report)
	}
	if sched.Slots[1].OB.ID != "ob-late" || sched.Slots[0].OB.ID != "ob-any" {
		t.Fatalf("unexpected placement: %s / %s", sched.Slots[0].OB.ID, sched.Slots[1].OB.ID)
	}
}

func TestGlobalFillHonorsAllocation(t *testing.T) {
	programs := map[string]model.Program{
		"prog-a": {ID: "prog-a", Rank: 9, TotalTime: 30 * time.Minute},
		"prog-b": {ID: "prog-b", Rank: 2},
	}
	ws := weights.NewStore(nil)
	if err := ws.SetFloat("prog-a", 4.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := newTestPlanner(Config{Strategy: StrategyGlobal}, alwaysVisible(), ws)
	sched, err := p.BuildSchedule(context.Background(), Request{
		Night: "2026-03-14",
		Candidates: []model.OB{
			queueOB("ob-a1", "prog-a", "T1"),
			queueOB("ob-a2", "prog-a", "T2"),
			queueOB("ob-b1", "prog-b", "T3"),
		},
		Slots:    twoSlots(),
		Programs: programs,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts := map[string]int{}
	for _, a := range sched.Slots {
		if a.OB != nil {
			counts[a.OB.Program]++
		}
	}
	if counts["prog-a"] != 1 || counts["prog-b"] != 1 {
		t.Fatalf("allocation not honored: %v\n%s", counts, sched.Report)
	}
}

func TestGlobalFillAbortsOnOracleOutage(t *testing.T) {
	oracle := &visibility.MockOracle{Errs: map[string]error{"T1": visibility.ErrUnavailable}}
	ws := weights.NewStore(nil)
	p := newTestPlanner(Config{Strategy: StrategyGlobal}, oracle, ws)
	_, err := p.BuildSchedule(context.Background(), Request{
		Night:      "2026-03-14",
		Candidates: []model.OB{queueOB("ob-a", "prog-a", "T1")},
		Slots:      twoSlots(),
	})
	if err == nil {
		t.Fatalf("expected abort")
	}
}
