package sched

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/peakobs/nightq/core/constraint"
	"github.com/peakobs/nightq/core/events"
	"github.com/peakobs/nightq/core/logger"
	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/core/visibility"
	"github.com/peakobs/nightq/core/weights"
	"github.com/peakobs/nightq/internal/eventbus"
)

// WeightProvider hands the planner a consistent view of the weight table.
type WeightProvider interface {
	Snapshot() (map[string]float64, uint64)
}

// Request describes one scheduling pass.
type Request struct {
	// Night labels the pass, e.g. "2026-03-14".
	Night string
	// Candidates is the OB pool. Only pending OBs are considered.
	Candidates []model.OB
	// Slots are the open slots to fill. They may arrive unsorted but must
	// not overlap.
	Slots []model.Slot
	// Programs enables allocation accounting and skip flags when non-nil.
	Programs map[string]model.Program
	// Used carries time already charged against each program, typically
	// summed from executed OBs.
	Used map[string]time.Duration
}

// Planner fills slots with OBs. It is safe for sequential reuse; one pass at
// a time.
type Planner struct {
	cfg        Config
	engine     *constraint.Engine
	weights    WeightProvider
	rejections *eventbus.TypedBus[events.OBRejected]
	log        logger.Logger
}

// NewPlanner builds a planner. The rejection bus may be nil when nobody
// listens.
func NewPlanner(cfg Config, engine *constraint.Engine, provider WeightProvider, rejections *eventbus.TypedBus[events.OBRejected], log logger.Logger) *Planner {
	cfg.SetDefaults()
	return &Planner{cfg: cfg, engine: engine, weights: provider, rejections: rejections, log: logger.OrNop(log)}
}

// candidate pairs an OB with the score it earned for a particular slot.
type candidate struct {
	ob      model.OB
	score   float64
	weight  float64
	urgency float64
}

// rejection remembers why an OB was last kept out of a slot.
type rejection struct {
	Constraint string
	Reason     string
}

// passState carries the bookkeeping of one pass.
type passState struct {
	weights  map[string]float64
	version  uint64
	horizon  time.Duration
	programs map[string]model.Program
	used     map[string]time.Duration
	rejected map[string]rejection
}

// BuildSchedule runs one pass and returns the proposed schedule with its
// report attached. The store is never touched. An oracle outage aborts the
// pass with an *OracleError; everything else is recorded and worked around.
func (p *Planner) BuildSchedule(ctx context.Context, req Request) (*model.Schedule, error) {
	started := time.Now()
	slots, pool, st, err := p.preparePass(req)
	if err != nil {
		return nil, err
	}

	var sched *model.Schedule
	switch p.cfg.Strategy {
	case StrategyGlobal:
		sched, err = p.fillGlobal(ctx, req.Night, slots, pool, st)
	default:
		sched, err = p.fillGreedy(ctx, req.Night, slots, pool, st)
	}
	if err != nil {
		passesTotal.WithLabelValues("aborted").Inc()
		return nil, err
	}

	sched.Report = buildReport(p.cfg, sched, req.Candidates, st)
	sched.WeightsVersion = st.version
	p.observePass(sched, started)
	p.log.Infof("pass for night %s: %d/%d slots filled, weights v%d",
		sched.Night, sched.Assigned(), len(sched.Slots), st.version)
	return sched, nil
}

// preparePass validates slots, prunes the pool and snapshots the weights.
func (p *Planner) preparePass(req Request) ([]model.Slot, []model.OB, *passState, error) {
	slots := append([]model.Slot(nil), req.Slots...)
	model.SortSlots(slots)
	if err := model.ValidateSlots(slots); err != nil {
		return nil, nil, nil, fmt.Errorf("pass for night %s: %w", req.Night, err)
	}

	st := &passState{
		horizon:  p.cfg.Horizon(),
		programs: req.Programs,
		used:     make(map[string]time.Duration, len(req.Used)),
		rejected: make(map[string]rejection),
	}
	for k, v := range req.Used {
		st.used[k] = v
	}
	if p.weights != nil {
		st.weights, st.version = p.weights.Snapshot()
	} else {
		st.weights = map[string]float64{}
	}

	seen := make(map[string]bool, len(req.Candidates))
	pool := make([]model.OB, 0, len(req.Candidates))
	for _, ob := range req.Candidates {
		switch {
		case seen[ob.ID]:
			continue
		case ob.Status != model.StatusPending:
			st.note(p.rejections, ob, time.Time{}, "ob_status",
				fmt.Sprintf("status %s is not schedulable", ob.Status))
		case len(req.Programs) > 0 && req.Programs[ob.Program].ID == "":
			st.note(p.rejections, ob, time.Time{}, "program_unknown",
				fmt.Sprintf("program %s not found", ob.Program))
		case req.Programs[ob.Program].Skip:
			st.note(p.rejections, ob, time.Time{}, "program_skipped",
				fmt.Sprintf("program %s excluded from scheduling", ob.Program))
		default:
			pool = append(pool, ob)
		}
		seen[ob.ID] = true
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	return slots, pool, st, nil
}

// fillGreedy walks slots chronologically and gives each to the best feasible
// candidate still in the pool.
func (p *Planner) fillGreedy(ctx context.Context, night string, slots []model.Slot, pool []model.OB, st *passState) (*model.Schedule, error) {
	assignments := make([]model.Assignment, 0, len(slots))
	for _, slot := range slots {
		slotsConsidered.Inc()
		best, err := p.chooseBest(ctx, slot, pool, st)
		if err != nil {
			return nil, &OracleError{Night: night, Slot: slot.Start, Err: err}
		}
		if best == nil {
			assignments = append(assignments, model.Assignment{Slot: slot, Reason: "no feasible ob"})
			continue
		}
		ob := best.ob
		assignments = append(assignments, model.Assignment{Slot: slot, OB: &ob})
		st.used[ob.Program] += ob.TotalTime
		pool = removeOB(pool, ob.ID)
		delete(st.rejected, ob.ID)
	}
	return &model.Schedule{Night: night, Slots: assignments}, nil
}

// chooseBest scores every pool OB against the slot and returns the winner,
// nil when nothing fits. Oracle outages bubble up; transient evaluation
// errors exclude the OB for this slot only.
func (p *Planner) chooseBest(ctx context.Context, slot model.Slot, pool []model.OB, st *passState) (*candidate, error) {
	var best *candidate
	for _, ob := range pool {
		res, err := p.engine.Eval(ctx, slot, ob)
		if err != nil {
			if errors.Is(err, visibility.ErrUnavailable) {
				return nil, err
			}
			st.note(p.rejections, ob, slot.Start, "evaluation_error", err.Error())
			continue
		}
		if !res.OK {
			st.note(p.rejections, ob, slot.Start, res.Name, res.Reason)
			continue
		}
		if reason, over := st.overAllocation(ob); over {
			st.note(p.rejections, ob, slot.Start, "program_allocation", reason)
			continue
		}
		c := p.score(ob, slot, res, st)
		if best == nil || p.beats(c, *best) {
			bc := c
			best = &bc
		}
	}
	return best, nil
}

// score combines the program weight with slot-relative urgency.
func (p *Planner) score(ob model.OB, slot model.Slot, res constraint.Result, st *passState) candidate {
	w := st.weightOf(ob.Program)
	u := urgencyScore(res.SetsAt, slot.Start, st.horizon)
	return candidate{ob: ob, weight: w, urgency: u, score: w * u}
}

// weightOf resolves the scheduling weight for a program: the program key
// wins, then the program's category tag, then the default.
func (st *passState) weightOf(program string) float64 {
	if w, ok := st.weights[program]; ok {
		return w
	}
	if prog, ok := st.programs[program]; ok && prog.Category != "" {
		if w, ok := st.weights[prog.Category]; ok {
			return w
		}
	}
	return weights.DefaultWeight
}

// beats reports whether c should replace best. Higher score wins; equal
// scores fall back to the configured tie-break dimension, then to the OB
// identifier in byte order.
func (p *Planner) beats(c, best candidate) bool {
	if c.score != best.score {
		return c.score > best.score
	}
	switch p.cfg.TieBreak {
	case TieBreakWeight:
		if c.weight != best.weight {
			return c.weight > best.weight
		}
	default:
		if c.urgency != best.urgency {
			return c.urgency > best.urgency
		}
	}
	return c.ob.ID < best.ob.ID
}

// urgencyScore ramps from 1 (deadline at or beyond the horizon, or unknown)
// to 2 (deadline now). setsAt is when the target leaves its constraints.
func urgencyScore(setsAt, ref time.Time, horizon time.Duration) float64 {
	if setsAt.IsZero() || horizon <= 0 {
		return 1
	}
	remaining := setsAt.Sub(ref)
	if remaining >= horizon {
		return 1
	}
	if remaining <= 0 {
		return 2
	}
	return 2 - remaining.Seconds()/horizon.Seconds()
}

// overAllocation reports whether charging the OB would exceed its program's
// allocated time.
func (st *passState) overAllocation(ob model.OB) (string, bool) {
	prog, ok := st.programs[ob.Program]
	if !ok || prog.TotalTime <= 0 {
		return "", false
	}
	if st.used[ob.Program]+ob.TotalTime > prog.TotalTime {
		return fmt.Sprintf("program %s used %v of %v, ob needs %v",
			ob.Program, st.used[ob.Program], prog.TotalTime, ob.TotalTime), true
	}
	return "", false
}

// note records the latest rejection for an OB and publishes it when a bus is
// attached.
func (st *passState) note(bus *eventbus.TypedBus[events.OBRejected], ob model.OB, slot time.Time, name, reason string) {
	st.rejected[ob.ID] = rejection{Constraint: name, Reason: reason}
	obsRejected.WithLabelValues(name).Inc()
	if bus != nil {
		bus.Publish(events.OBRejected{OB: ob.ID, Slot: slot, Constraint: name, Reason: reason})
	}
}

func removeOB(pool []model.OB, id string) []model.OB {
	for i, ob := range pool {
		if ob.ID == id {
			return append(pool[:i], pool[i+1:]...)
		}
	}
	return pool
}

func (p *Planner) observePass(sched *model.Schedule, started time.Time) {
	passesTotal.WithLabelValues("ok").Inc()
	passDuration.Observe(time.Since(started).Seconds())
	obsScheduled.Add(float64(sched.Assigned()))
	slotsUnassigned.Add(float64(sched.Unassigned()))
}
