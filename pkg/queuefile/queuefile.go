// Package queuefile loads queue definitions from YAML files, the format
// operators use to bulk-load programs and observing blocks.
package queuefile

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/peakobs/nightq/core/model"
)

type TargetDef struct {
	Name     string  `yaml:"name"`
	RADeg    float64 `yaml:"ra_deg"`
	DecDeg   float64 `yaml:"dec_deg"`
	Equinox  float64 `yaml:"equinox,omitempty"`
	PMRAMas  float64 `yaml:"pm_ra_mas,omitempty"`
	PMDecMas float64 `yaml:"pm_dec_mas,omitempty"`
}

func (t TargetDef) ToModel() model.Target {
	equinox := t.Equinox
	if equinox == 0 {
		equinox = 2000
	}
	return model.Target{
		Name:    t.Name,
		RA:      t.RADeg,
		Dec:     t.DecDeg,
		Equinox: equinox,
		PMRA:    t.PMRAMas,
		PMDec:   t.PMDecMas,
	}
}

type OBDef struct {
	ID           string    `yaml:"id"`
	Program      string    `yaml:"program"`
	Target       TargetDef `yaml:"target"`
	Filter       string    `yaml:"filter,omitempty"`
	MinElDeg     float64   `yaml:"min_el_deg,omitempty"`
	MaxElDeg     float64   `yaml:"max_el_deg,omitempty"`
	Airmass      float64   `yaml:"airmass,omitempty"`
	TotalMinutes float64   `yaml:"total_minutes"`
	Status       string    `yaml:"status,omitempty"`
}

func (o OBDef) ToModel() (model.OB, error) {
	status, err := ParseStatus(o.Status)
	if err != nil {
		return model.OB{}, fmt.Errorf("ob %s: %w", o.ID, err)
	}
	maxEl := o.MaxElDeg
	if maxEl == 0 {
		maxEl = 90
	}
	return model.OB{
		ID:        o.ID,
		Program:   o.Program,
		Target:    o.Target.ToModel(),
		Filter:    o.Filter,
		MinEl:     o.MinElDeg,
		MaxEl:     maxEl,
		Airmass:   o.Airmass,
		TotalTime: time.Duration(o.TotalMinutes * float64(time.Minute)),
		Status:    status,
	}, nil
}

type ProgramDef struct {
	ID             string  `yaml:"id"`
	Title          string  `yaml:"title,omitempty"`
	Category       string  `yaml:"category,omitempty"`
	Rank           float64 `yaml:"rank,omitempty"`
	AllocatedHours float64 `yaml:"allocated_hours"`
	Skip           bool    `yaml:"skip,omitempty"`
}

func (p ProgramDef) ToModel() model.Program {
	return model.Program{
		ID:        p.ID,
		Title:     p.Title,
		Category:  p.Category,
		Rank:      p.Rank,
		TotalTime: time.Duration(p.AllocatedHours * float64(time.Hour)),
		Skip:      p.Skip,
	}
}

// QueueFile is one YAML document holding programs and their OBs.
type QueueFile struct {
	Programs []ProgramDef `yaml:"programs"`
	OBs      []OBDef      `yaml:"obs"`
}

// Load reads and parses a queue definition file.
func Load(path string) (*QueueFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var qf QueueFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, err
	}
	return &qf, nil
}

// Models converts the definitions, validating each one.
func (q *QueueFile) Models() ([]model.Program, []model.OB, error) {
	programs := make([]model.Program, 0, len(q.Programs))
	for _, def := range q.Programs {
		p := def.ToModel()
		if err := p.Validate(); err != nil {
			return nil, nil, err
		}
		programs = append(programs, p)
	}
	obs := make([]model.OB, 0, len(q.OBs))
	for _, def := range q.OBs {
		ob, err := def.ToModel()
		if err != nil {
			return nil, nil, err
		}
		if err := ob.Validate(); err != nil {
			return nil, nil, err
		}
		obs = append(obs, ob)
	}
	return programs, obs, nil
}

// ParseStatus maps the YAML status strings onto queue states. Empty means
// pending.
func ParseStatus(s string) (model.OBStatus, error) {
	switch s {
	case "", "pending":
		return model.StatusPending, nil
	case "scheduled":
		return model.StatusScheduled, nil
	case "executed":
		return model.StatusExecuted, nil
	case "cancelled":
		return model.StatusCancelled, nil
	default:
		return 0, fmt.Errorf("unknown status %q", s)
	}
}
