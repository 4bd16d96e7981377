// Package ephem provides the built-in visibility oracle: a coarse
// horizon-model computation over spherical geometry. It ignores refraction,
// proper motion and precession, which keeps altitudes good to about a
// degree. That is enough to bin targets into slots; sites that need
// refraction-accurate ephemerides configure the remote provider from
// connectors/clients/skycalc instead.
package ephem

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/core/visibility"
)

const deg = math.Pi / 180

var j2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// Config shapes the horizon model.
type Config struct {
	// LatitudeDeg is geodetic latitude in degrees, north positive.
	LatitudeDeg float64 `json:"latitude_deg"`
	// LongitudeDeg is longitude in degrees, east positive.
	LongitudeDeg float64 `json:"longitude_deg"`
	// MinElevationDeg is the telescope's hard pointing floor.
	MinElevationDeg float64 `json:"min_elevation_deg"`
	// StepMinutes is the sampling resolution of the window scan.
	StepMinutes int `json:"step_minutes"`
}

// HorizonOracle implements visibility.Oracle for a fixed site.
type HorizonOracle struct {
	lat   float64 // radians
	lonH  float64 // hours, east positive
	floor float64 // degrees
	step  time.Duration
}

// New builds a HorizonOracle for the given site.
func New(cfg Config) *HorizonOracle {
	if cfg.StepMinutes <= 0 {
		cfg.StepMinutes = 5
	}
	if cfg.MinElevationDeg <= 0 {
		cfg.MinElevationDeg = 15
	}
	return &HorizonOracle{
		lat:   cfg.LatitudeDeg * deg,
		lonH:  cfg.LongitudeDeg / 15,
		floor: cfg.MinElevationDeg,
		step:  time.Duration(cfg.StepMinutes) * time.Minute,
	}
}

// Observable scans the request window at the configured step and reports the
// first stretch long enough for the requested duration where the target sits
// inside its altitude band. SetsAt is the instant the target leaves the band
// after that stretch, zero when it holds through the end of the window.
func (o *HorizonOracle) Observable(ctx context.Context, req visibility.Request) (visibility.Result, error) {
	if err := ctx.Err(); err != nil {
		return visibility.Result{}, err
	}
	if !req.Stop.After(req.Start) {
		return visibility.Result{}, fmt.Errorf("window stop %v not after start %v", req.Stop, req.Start)
	}
	if err := req.Target.Validate(); err != nil {
		return visibility.Result{}, err
	}
	minEl, maxEl, err := o.band(req)
	if err != nil {
		return visibility.Result{}, err
	}

	need := req.Duration
	if need <= 0 {
		need = o.step
	}

	var runStart time.Time
	for _, t := range o.samples(req.Start, req.Stop) {
		alt := o.altitude(req.Target, t)
		inside := alt >= minEl && alt <= maxEl
		switch {
		case inside && runStart.IsZero():
			runStart = t
		case !inside && !runStart.IsZero():
			if t.Sub(runStart) >= need {
				return visibility.Result{OK: true, EarliestStart: runStart, SetsAt: t}, nil
			}
			runStart = time.Time{}
		}
	}
	if !runStart.IsZero() && req.Stop.Sub(runStart) >= need {
		return visibility.Result{OK: true, EarliestStart: runStart}, nil
	}
	return visibility.Result{}, nil
}

// band folds the request's elevation and airmass constraints with the site
// floor into one altitude band.
func (o *HorizonOracle) band(req visibility.Request) (minEl, maxEl float64, err error) {
	minEl = o.floor
	if req.MinEl > minEl {
		minEl = req.MinEl
	}
	if req.Airmass > 0 {
		if req.Airmass < 1 {
			return 0, 0, fmt.Errorf("airmass limit %v below 1", req.Airmass)
		}
		if byAirmass := altForAirmass(req.Airmass); byAirmass > minEl {
			minEl = byAirmass
		}
	}
	maxEl = req.MaxEl
	if maxEl <= 0 {
		maxEl = 90
	}
	if maxEl < minEl {
		return 0, 0, fmt.Errorf("elevation band empty: min %.1f above max %.1f", minEl, maxEl)
	}
	return minEl, maxEl, nil
}

// samples returns the scan instants, always including both window ends.
func (o *HorizonOracle) samples(start, stop time.Time) []time.Time {
	out := make([]time.Time, 0, int(stop.Sub(start)/o.step)+2)
	for t := start; t.Before(stop); t = t.Add(o.step) {
		out = append(out, t)
	}
	return append(out, stop)
}

// altitude returns the target's elevation above the horizon in degrees.
func (o *HorizonOracle) altitude(tgt model.Target, t time.Time) float64 {
	ha := (o.lst(t)*15 - tgt.RA) * deg
	dec := tgt.Dec * deg
	sinAlt := math.Sin(o.lat)*math.Sin(dec) + math.Cos(o.lat)*math.Cos(dec)*math.Cos(ha)
	return math.Asin(clamp(sinAlt)) / deg
}

// lst is the local apparent sidereal time in hours, from the linearized
// GMST expansion around J2000.
func (o *HorizonOracle) lst(t time.Time) float64 {
	d := t.UTC().Sub(j2000).Hours() / 24
	lst := math.Mod(18.697374558+24.06570982441908*d+o.lonH, 24)
	if lst < 0 {
		lst += 24
	}
	return lst
}

// altForAirmass converts a plane-parallel airmass cap into the minimum
// altitude satisfying it.
func altForAirmass(x float64) float64 {
	return 90 - math.Acos(1/x)/deg
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
