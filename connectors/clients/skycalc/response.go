package skycalc

import (
	"time"

	"github.com/peakobs/nightq/core/visibility"
)

// observabilityRequest is the wire form of a visibility question.
type observabilityRequest struct {
	Target          targetPayload `json:"target"`
	Start           time.Time     `json:"start"`
	Stop            time.Time     `json:"stop"`
	MinElDeg        float64       `json:"min_el_deg"`
	MaxElDeg        float64       `json:"max_el_deg,omitempty"`
	Airmass         float64       `json:"airmass,omitempty"`
	DurationSeconds float64       `json:"duration_seconds"`
}

type targetPayload struct {
	Name     string  `json:"name"`
	RADeg    float64 `json:"ra_deg"`
	DecDeg   float64 `json:"dec_deg"`
	Equinox  float64 `json:"equinox,omitempty"`
	PMRAMas  float64 `json:"pm_ra_mas,omitempty"`
	PMDecMas float64 `json:"pm_dec_mas,omitempty"`
}

func newObservabilityRequest(req visibility.Request) observabilityRequest {
	return observabilityRequest{
		Target: targetPayload{
			Name:     req.Target.Name,
			RADeg:    req.Target.RA,
			DecDeg:   req.Target.Dec,
			Equinox:  req.Target.Equinox,
			PMRAMas:  req.Target.PMRA,
			PMDecMas: req.Target.PMDec,
		},
		Start:           req.Start,
		Stop:            req.Stop,
		MinElDeg:        req.MinEl,
		MaxElDeg:        req.MaxEl,
		Airmass:         req.Airmass,
		DurationSeconds: req.Duration.Seconds(),
	}
}

// observabilityResponse is the service's answer. Absent timestamps mean the
// service could not tell.
type observabilityResponse struct {
	Observable    bool       `json:"observable"`
	EarliestStart *time.Time `json:"earliest_start,omitempty"`
	SetsAt        *time.Time `json:"sets_at,omitempty"`
}

func (r observabilityResponse) toResult() visibility.Result {
	res := visibility.Result{OK: r.Observable}
	if r.EarliestStart != nil {
		res.EarliestStart = *r.EarliestStart
	}
	if r.SetsAt != nil {
		res.SetsAt = *r.SetsAt
	}
	return res
}
