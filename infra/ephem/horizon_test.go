package ephem

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/core/visibility"
)

var t0 = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func window(h float64) (time.Time, time.Time) {
	return t0, t0.Add(time.Duration(h * float64(time.Hour)))
}

// transitRA returns the right ascension that culminates at the given
// instant for the oracle's site.
func transitRA(o *HorizonOracle, at time.Time) float64 {
	return math.Mod(o.lst(at)*15, 360)
}

func TestCircumpolarTargetAlwaysUp(t *testing.T) {
	o := New(Config{LatitudeDeg: 80, LongitudeDeg: 0})
	start, stop := window(8)
	res, err := o.Observable(context.Background(), visibility.Request{
		Target:   model.Target{Name: "polar", RA: 10, Dec: 89},
		Start:    start,
		Stop:     stop,
		MinEl:    30,
		Duration: time.Hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK {
		t.Fatalf("circumpolar target must be observable")
	}
	if !res.EarliestStart.Equal(start) {
		t.Errorf("expected earliest start at window open, got %v", res.EarliestStart)
	}
	if !res.SetsAt.IsZero() {
		t.Errorf("target never sets, SetsAt must stay zero, got %v", res.SetsAt)
	}
}

func TestSouthernTargetNeverRises(t *testing.T) {
	o := New(Config{LatitudeDeg: 80, LongitudeDeg: 0})
	start, stop := window(24)
	res, err := o.Observable(context.Background(), visibility.Request{
		Target:   model.Target{Name: "south", RA: 180, Dec: -45},
		Start:    start,
		Stop:     stop,
		MinEl:    15,
		Duration: time.Hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK {
		t.Fatalf("target below the horizon all night must be rejected")
	}
}

func TestTransitAltitudeMatchesGeometry(t *testing.T) {
	o := New(Config{LatitudeDeg: 20, LongitudeDeg: -155})
	tgt := model.Target{Name: "transit", RA: 200, Dec: -30}
	maxAlt := -90.0
	for m := 0; m < 24*60; m++ {
		if alt := o.altitude(tgt, t0.Add(time.Duration(m)*time.Minute)); alt > maxAlt {
			maxAlt = alt
		}
	}
	// Culmination altitude is 90 - |lat - dec|.
	want := 90.0 - math.Abs(20.0-(-30.0))
	if math.Abs(maxAlt-want) > 0.5 {
		t.Fatalf("transit altitude %v, want about %v", maxAlt, want)
	}
}

func TestRiseAndSetBracketsTransit(t *testing.T) {
	o := New(Config{LatitudeDeg: 20, LongitudeDeg: 0})
	transit := t0.Add(12 * time.Hour)
	tgt := model.Target{Name: "equatorial", RA: transitRA(o, transit), Dec: 0}
	start, stop := window(24)
	res, err := o.Observable(context.Background(), visibility.Request{
		Target:   tgt,
		Start:    start,
		Stop:     stop,
		MinEl:    30,
		Duration: time.Hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK {
		t.Fatalf("target transiting mid-window must be observable")
	}
	if res.EarliestStart.IsZero() || res.SetsAt.IsZero() {
		t.Fatalf("interior run must carry both hints: %+v", res)
	}
	if !res.EarliestStart.Before(transit) || !res.SetsAt.After(transit) {
		t.Errorf("run [%v, %v] should bracket transit %v", res.EarliestStart, res.SetsAt, transit)
	}
	// At dec 0 and lat 20, the target holds 30 degrees for about 7.7 hours.
	up := res.SetsAt.Sub(res.EarliestStart)
	if up < 7*time.Hour || up > 8*time.Hour+30*time.Minute {
		t.Errorf("up-run %v outside expected range", up)
	}
}

func TestAirmassTightensBand(t *testing.T) {
	o := New(Config{LatitudeDeg: 20, LongitudeDeg: 0})
	transit := t0.Add(12 * time.Hour)
	tgt := model.Target{Name: "low", RA: transitRA(o, transit), Dec: -30}
	start, stop := window(24)

	base := visibility.Request{Target: tgt, Start: start, Stop: stop, Duration: 30 * time.Minute}
	res, err := o.Observable(context.Background(), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK {
		t.Fatalf("target peaking at 40 degrees must pass the site floor")
	}

	capped := base
	capped.Airmass = 1.1 // needs altitude above 65 degrees
	res, err = o.Observable(context.Background(), capped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK {
		t.Fatalf("airmass 1.1 must exclude a target peaking at 40 degrees")
	}
}

func TestRunShorterThanDurationRejected(t *testing.T) {
	o := New(Config{LatitudeDeg: 20, LongitudeDeg: 0})
	transit := t0.Add(12 * time.Hour)
	tgt := model.Target{Name: "short", RA: transitRA(o, transit), Dec: -30}
	start, stop := window(24)
	res, err := o.Observable(context.Background(), visibility.Request{
		Target:   tgt,
		Start:    start,
		Stop:     stop,
		MinEl:    39.5, // leaves only a sliver around the 40 degree transit
		Duration: 4 * time.Hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK {
		t.Fatalf("run around transit is far shorter than 4h, must be rejected")
	}
}

func TestMalformedRequests(t *testing.T) {
	o := New(Config{LatitudeDeg: 20, LongitudeDeg: 0})
	start, stop := window(8)
	cases := []struct {
		name string
		req  visibility.Request
	}{
		{"stop before start", visibility.Request{
			Target: model.Target{Name: "t", RA: 10, Dec: 0}, Start: stop, Stop: start}},
		{"ra out of range", visibility.Request{
			Target: model.Target{Name: "t", RA: 400, Dec: 0}, Start: start, Stop: stop}},
		{"airmass below one", visibility.Request{
			Target: model.Target{Name: "t", RA: 10, Dec: 0}, Start: start, Stop: stop, Airmass: 0.5}},
		{"empty band", visibility.Request{
			Target: model.Target{Name: "t", RA: 10, Dec: 0}, Start: start, Stop: stop, MinEl: 50, MaxEl: 40}},
	}
	for _, tc := range cases {
		if _, err := o.Observable(context.Background(), tc.req); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestContextCancellation(t *testing.T) {
	o := New(Config{LatitudeDeg: 20, LongitudeDeg: 0})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start, stop := window(8)
	if _, err := o.Observable(ctx, visibility.Request{
		Target: model.Target{Name: "t", RA: 10, Dec: 0}, Start: start, Stop: stop,
	}); err == nil {
		t.Fatal("expected context error")
	}
}
