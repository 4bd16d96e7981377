package sched

import (
	"context"
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/core/visibility"
)

// infeasibleCell marks (slot, ob) pairs the pipeline rejected. Feasible
// scores are always >= 0, so any negative sentinel is safe.
const infeasibleCell = -1

// fillGlobal scores every (slot, ob) pair up front and then assigns by
// repeatedly taking the best remaining cell. Unlike the greedy fill, a high
// scoring OB can claim a late slot before lower scoring OBs claim early
// ones.
func (p *Planner) fillGlobal(ctx context.Context, night string, slots []model.Slot, pool []model.OB, st *passState) (*model.Schedule, error) {
	rows, cols := len(slots), len(pool)
	assignments := make([]model.Assignment, len(slots))
	for i, slot := range slots {
		slotsConsidered.Inc()
		assignments[i] = model.Assignment{Slot: slot, Reason: "no feasible ob"}
	}
	if rows == 0 || cols == 0 {
		return &model.Schedule{Night: night, Slots: assignments}, nil
	}

	scores := mat.NewDense(rows, cols, nil)
	urgencies := mat.NewDense(rows, cols, nil)
	for r, slot := range slots {
		for c, ob := range pool {
			res, err := p.engine.Eval(ctx, slot, ob)
			if err != nil {
				if errors.Is(err, visibility.ErrUnavailable) {
					return nil, &OracleError{Night: night, Slot: slot.Start, OB: ob.ID, Err: err}
				}
				st.note(p.rejections, ob, slot.Start, "evaluation_error", err.Error())
				scores.Set(r, c, infeasibleCell)
				continue
			}
			if !res.OK {
				st.note(p.rejections, ob, slot.Start, res.Name, res.Reason)
				scores.Set(r, c, infeasibleCell)
				continue
			}
			cand := p.score(ob, slot, res, st)
			scores.Set(r, c, cand.score)
			urgencies.Set(r, c, cand.urgency)
		}
	}

	usedRow := make([]bool, rows)
	usedCol := make([]bool, cols)
	for n := 0; n < rows && n < cols; {
		r, c, ok := p.bestCell(scores, urgencies, st, pool, usedRow, usedCol)
		if !ok {
			break
		}
		ob := pool[c]
		if reason, over := st.overAllocation(ob); over {
			st.note(p.rejections, ob, slots[r].Start, "program_allocation", reason)
			scores.Set(r, c, infeasibleCell)
			continue
		}
		obCopy := ob
		assignments[r] = model.Assignment{Slot: slots[r], OB: &obCopy}
		st.used[ob.Program] += ob.TotalTime
		usedRow[r], usedCol[c] = true, true
		delete(st.rejected, ob.ID)
		n++
	}
	return &model.Schedule{Night: night, Slots: assignments}, nil
}

// bestCell scans the score matrix row-major for the highest feasible cell.
// Equal scores fall back to the tie-break dimension; remaining ties keep the
// earliest slot and then the lexically smallest OB, which the scan order
// already guarantees.
func (p *Planner) bestCell(scores, urgencies *mat.Dense, st *passState, pool []model.OB, usedRow, usedCol []bool) (int, int, bool) {
	bestR, bestC, found := 0, 0, false
	var bestScore, bestTie float64
	for r := 0; r < len(usedRow); r++ {
		if usedRow[r] {
			continue
		}
		for c := 0; c < len(usedCol); c++ {
			if usedCol[c] {
				continue
			}
			s := scores.At(r, c)
			if s < 0 {
				continue
			}
			tie := urgencies.At(r, c)
			if p.cfg.TieBreak == TieBreakWeight {
				tie = st.weightOf(pool[c].Program)
			}
			if !found || s > bestScore || (s == bestScore && tie > bestTie) {
				bestR, bestC, bestScore, bestTie, found = r, c, s, tie, true
			}
		}
	}
	return bestR, bestC, found
}
