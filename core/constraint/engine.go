package constraint

import (
	"context"

	"github.com/peakobs/nightq/core/logger"
	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/core/visibility"
)

// Engine runs constraints in the order they were registered.
type Engine struct {
	constraints []Constraint
	log         logger.Logger
}

// NewEngine builds an engine over the given pipeline. Order matters: put
// cheap predicates first so expensive ones only see surviving pairs.
func NewEngine(log logger.Logger, cs ...Constraint) *Engine {
	return &Engine{constraints: cs, log: logger.OrNop(log)}
}

// Defaults returns the standard pipeline: structural validation, slot fit,
// filter membership, then target visibility through the oracle.
func Defaults(oracle visibility.Oracle) []Constraint {
	return []Constraint{
		WellFormed{},
		FitsSlot{},
		FilterAvailable{},
		TargetObservable{Oracle: oracle},
	}
}

// Eval checks the pair against every constraint and returns the first
// failing result, or an OK result merging the scheduling hints (earliest
// start, set time) collected from passing predicates.
func (e *Engine) Eval(ctx context.Context, slot model.Slot, ob model.OB) (Result, error) {
	merged := Result{OK: true}
	for _, c := range e.constraints {
		res, err := c.Check(ctx, slot, ob)
		if err != nil {
			return Result{}, &EvalError{
				OB:         ob.ID,
				SlotStart:  slot.Start,
				Constraint: c.Name(),
				Err:        err,
			}
		}
		if !res.OK {
			if res.Name == "" {
				res.Name = c.Name()
			}
			e.log.Debugw("ob rejected", map[string]any{
				"ob":         ob.ID,
				"slot":       slot.Start,
				"constraint": res.Name,
				"reason":     res.Reason,
			})
			return res, nil
		}
		if !res.EarliestStart.IsZero() {
			merged.EarliestStart = res.EarliestStart
		}
		if !res.SetsAt.IsZero() {
			merged.SetsAt = res.SetsAt
		}
	}
	return merged, nil
}
