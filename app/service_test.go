package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/peakobs/nightq/config"
	"github.com/peakobs/nightq/core/factory"
	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/core/sched"
	"github.com/peakobs/nightq/core/sched/passlog"
	"github.com/peakobs/nightq/qstore"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Store: config.StoreConfig{
			Addr:     "127.0.0.1:0",
			Path:     filepath.Join(dir, "queue.db"),
			Embedded: true,
		},
		Site: config.SiteConfig{Name: "summit", Timezone: "UTC"},
		Scheduler: sched.Config{
			Strategy: sched.StrategyGreedy, TieBreak: sched.TieBreakUrgency, UrgencyHorizonMinutes: 240,
		},
		Pass: config.PassConfig{
			NightStart: "19:00", NightHours: 2, SlotMinutes: 30,
		},
		PassLog:   config.PassLogConfig{Backend: "jsonl", Path: filepath.Join(dir, "passes.log")},
		Ephemeris: factory.ModuleConfig{Type: "mock"},
	}
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func seedQueue(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	a, err := svc.Store().OpenAdaptor(ctx)
	if err != nil {
		t.Fatalf("open adaptor: %v", err)
	}
	if err := a.PutProgram(model.Program{ID: "S26A-001", Title: "Survey", TotalTime: 10 * time.Hour}); err != nil {
		t.Fatalf("put program: %v", err)
	}
	for _, id := range []string{"OB-1", "OB-2", "OB-3"} {
		ob := model.OB{
			ID:        id,
			Program:   "S26A-001",
			Target:    model.Target{Name: "M81", RA: 148.9, Dec: 69.07, Equinox: 2000},
			Filter:    "r",
			MaxEl:     90,
			TotalTime: 25 * time.Minute,
			Status:    model.StatusPending,
		}
		if err := a.PutOB(ob); err != nil {
			t.Fatalf("put ob: %v", err)
		}
	}
	if err := a.Commit(ctx); err != nil {
		t.Fatalf("seed commit: %v", err)
	}
}

func TestRunPassCommitsSchedule(t *testing.T) {
	svc := newTestService(t)
	seedQueue(t, svc)
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	if err := svc.RunPass(ctx, now); err != nil {
		t.Fatalf("run pass: %v", err)
	}

	// 2h night at 30min slots gives 4 slots for 3 OBs.
	a, err := svc.Store().OpenAdaptor(ctx)
	if err != nil {
		t.Fatalf("open adaptor: %v", err)
	}
	scheduled := model.StatusScheduled
	obs, err := a.ListOBs(ctx, qstore.Filter{Status: &scheduled})
	if err != nil {
		t.Fatalf("list scheduled: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("expected 3 scheduled OBs, got %d", len(obs))
	}

	st, ok := svc.State().Latest()
	if !ok {
		t.Fatalf("no published state")
	}
	if st.Night != "2026-03-14" || !st.LastPass.Committed {
		t.Fatalf("unexpected state: %+v", st)
	}
	if len(st.Rows) != 4 {
		t.Fatalf("expected 4 export rows, got %d", len(st.Rows))
	}
}

func TestRunPassIsIdempotentOnScheduledQueue(t *testing.T) {
	svc := newTestService(t)
	seedQueue(t, svc)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if err := svc.RunPass(ctx, now); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	// A second pass sees no pending OBs and must commit nothing new.
	if err := svc.RunPass(ctx, now); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	st, ok := svc.State().Latest()
	if !ok {
		t.Fatalf("no published state")
	}
	if st.LastPass.SlotsAssigned != 0 {
		t.Fatalf("second pass assigned %d slots", st.LastPass.SlotsAssigned)
	}
}

func TestRunPassRecordsPassLog(t *testing.T) {
	svc := newTestService(t)
	seedQueue(t, svc)
	ctx := context.Background()

	if err := svc.RunPass(ctx, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("run pass: %v", err)
	}
	recs, err := svc.passStore.Query(ctx, passlog.Query{Night: "2026-03-14"})
	if err != nil {
		t.Fatalf("query pass log: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 pass record, got %d", len(recs))
	}
	if !recs[0].Committed || recs[0].SlotsAssigned != 3 {
		t.Fatalf("unexpected record: %+v", recs[0])
	}
}

func TestUsedTimeCapsFollowingPasses(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a, err := svc.Store().OpenAdaptor(ctx)
	if err != nil {
		t.Fatalf("open adaptor: %v", err)
	}
	// 30 minutes of allocation, 25 already burned: nothing fits.
	if err := a.PutProgram(model.Program{ID: "S26A-002", TotalTime: 30 * time.Minute}); err != nil {
		t.Fatalf("put program: %v", err)
	}
	if err := a.PutOB(model.OB{
		ID: "OB-9", Program: "S26A-002",
		Target:    model.Target{Name: "M51", RA: 202.47, Dec: 47.19, Equinox: 2000},
		MaxEl:     90,
		TotalTime: 25 * time.Minute,
		Status:    model.StatusPending,
	}); err != nil {
		t.Fatalf("put ob: %v", err)
	}
	if err := a.Commit(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := svc.Store().RecordExecution(ctx, qstore.ExecutionRecord{
		OBID: "OB-0", Program: "S26A-002", Night: "2026-03-13",
		At: time.Date(2026, 3, 13, 20, 0, 0, 0, time.UTC), Minutes: 25,
	}); err != nil {
		t.Fatalf("record execution: %v", err)
	}

	if err := svc.RunPass(ctx, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("run pass: %v", err)
	}
	pending := model.StatusPending
	obs, err := a.ListOBs(ctx, qstore.Filter{Status: &pending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(obs) != 1 || obs[0].ID != "OB-9" {
		t.Fatalf("over-allocation OB must stay pending: %v", obs)
	}
}
