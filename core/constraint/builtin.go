package constraint

import (
	"context"
	"errors"
	"fmt"

	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/core/visibility"
)

// WellFormed rejects structurally invalid OBs so later predicates can trust
// the fields they read.
type WellFormed struct{}

func (WellFormed) Name() string { return "ob_well_formed" }

func (WellFormed) Check(_ context.Context, _ model.Slot, ob model.OB) (Result, error) {
	if err := ob.Validate(); err != nil {
		return infeasible("ob_well_formed", err.Error()), nil
	}
	return Result{OK: true, Name: "ob_well_formed"}, nil
}

// FitsSlot rejects OBs that need more time than the slot offers.
type FitsSlot struct{}

func (FitsSlot) Name() string { return "fits_slot" }

func (FitsSlot) Check(_ context.Context, slot model.Slot, ob model.OB) (Result, error) {
	if ob.TotalTime > slot.Dur() {
		return infeasible("fits_slot",
			fmt.Sprintf("ob %s needs %v, slot offers %v", ob.ID, ob.TotalTime, slot.Dur())), nil
	}
	return Result{OK: true, Name: "fits_slot"}, nil
}

// FilterAvailable checks that the OB's filter is installed for the slot.
// Unknown filters fail closed: anything outside the slot's set is rejected.
type FilterAvailable struct{}

func (FilterAvailable) Name() string { return "filters_available" }

func (FilterAvailable) Check(_ context.Context, slot model.Slot, ob model.OB) (Result, error) {
	if ob.Filter == "" {
		return infeasible("filters_available", fmt.Sprintf("ob %s has no filter configured", ob.ID)), nil
	}
	if !slot.HasFilter(ob.Filter) {
		return infeasible("filters_available",
			fmt.Sprintf("filter %s not installed (have %v)", ob.Filter, slot.Filters)), nil
	}
	return Result{OK: true, Name: "filters_available"}, nil
}

// TargetObservable asks the visibility oracle whether the target stays
// inside the OB's elevation and airmass limits long enough to fit the slot.
// It is the only predicate that talks to the oracle.
type TargetObservable struct {
	Oracle visibility.Oracle
}

func (TargetObservable) Name() string { return "target_observable" }

func (c TargetObservable) Check(ctx context.Context, slot model.Slot, ob model.OB) (Result, error) {
	if c.Oracle == nil {
		return Result{}, visibility.ErrUnavailable
	}
	if err := ob.Target.Validate(); err != nil {
		return infeasible("target_observable", err.Error()), nil
	}
	res, err := c.Oracle.Observable(ctx, visibility.Request{
		Target:   ob.Target,
		Start:    slot.Start,
		Stop:     slot.Stop,
		MinEl:    ob.MinEl,
		MaxEl:    ob.MaxEl,
		Airmass:  ob.Airmass,
		Duration: ob.TotalTime,
	})
	if err != nil {
		if errors.Is(err, visibility.ErrUnavailable) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("oracle query for target %s: %w", ob.Target.Name, err)
	}
	if !res.OK {
		return infeasible("target_observable",
			fmt.Sprintf("target %s not observable for %v within slot", ob.Target.Name, ob.TotalTime)), nil
	}
	return Result{
		OK:            true,
		Name:          "target_observable",
		EarliestStart: res.EarliestStart,
		SetsAt:        res.SetsAt,
	}, nil
}
