package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/peakobs/nightq/core/constraint"
	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/core/sched"
	"github.com/peakobs/nightq/core/visibility"
	"github.com/peakobs/nightq/core/weights"
	"github.com/peakobs/nightq/infra/logger"
)

// RunScenario builds a planner from the scenario and checks the schedule it
// produces against the expectations.
func RunScenario(t *testing.T, sc *Scenario) {
	start, err := time.Parse(time.RFC3339, sc.NightStart)
	if err != nil {
		t.Fatalf("night_start: %v", err)
	}
	nightLen := time.Duration(sc.Hours * float64(time.Hour))
	slotLen := time.Duration(sc.SlotMinutes) * time.Minute
	slots := model.CarveNight(start, nightLen, slotLen, sc.Filters)
	if len(slots) == 0 {
		t.Fatalf("scenario %s carves no slots", sc.Name)
	}

	progDefs := make([]model.Program, 0, len(sc.Programs))
	for _, def := range sc.Programs {
		progDefs = append(progDefs, def.ToModel())
	}
	programs := make(map[string]model.Program, len(progDefs))
	for _, p := range progDefs {
		programs[p.ID] = p
	}
	obs := make([]model.OB, 0, len(sc.OBs))
	for _, def := range sc.OBs {
		ob, err := def.ToModel()
		if err != nil {
			t.Fatalf("ob %s: %v", def.ID, err)
		}
		obs = append(obs, ob)
	}
	used := make(map[string]time.Duration, len(sc.Used))
	for prog, min := range sc.Used {
		used[prog] = time.Duration(min * float64(time.Minute))
	}

	oracle := &visibility.MockOracle{Default: visibility.Result{OK: true}}
	if len(sc.Visibility) > 0 {
		oracle.Results = make(map[string]visibility.Result, len(sc.Visibility))
		for target, ok := range sc.Visibility {
			oracle.Results[target] = visibility.Result{OK: ok}
		}
	}

	wstore := weights.NewStore(logger.NopLogger{})
	wstore.Load(sc.Weights, 1)

	engine := constraint.NewEngine(logger.NopLogger{}, constraint.Defaults(oracle)...)
	cfg := sched.Config{Strategy: sc.Strategy, TieBreak: sc.TieBreak}
	planner := sched.NewPlanner(cfg, engine, wstore, nil, logger.NopLogger{})

	schedule, err := planner.BuildSchedule(context.Background(), sched.Request{
		Night:      start.Format("2006-01-02"),
		Candidates: obs,
		Slots:      slots,
		Programs:   programs,
		Used:       used,
	})
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}

	if got := schedule.Assigned(); got != sc.Expected.Assigned {
		t.Errorf("scenario %s expected %d assigned, got %d\n%s",
			sc.Name, sc.Expected.Assigned, got, schedule.Report)
	}
	if len(sc.Expected.Order) > 0 {
		if len(sc.Expected.Order) != len(schedule.Slots) {
			t.Fatalf("scenario %s expects %d slots, schedule has %d",
				sc.Name, len(sc.Expected.Order), len(schedule.Slots))
		}
		for i, want := range sc.Expected.Order {
			got := ""
			if schedule.Slots[i].OB != nil {
				got = schedule.Slots[i].OB.ID
			}
			if got != want {
				t.Errorf("scenario %s slot %d: expected %q, got %q", sc.Name, i, want, got)
			}
		}
	}
	for _, id := range sc.Expected.Rejected {
		for i, asg := range schedule.Slots {
			if asg.OB != nil && asg.OB.ID == id {
				t.Errorf("scenario %s: ob %s must stay unscheduled but holds slot %d", sc.Name, id, i)
			}
		}
	}
}
