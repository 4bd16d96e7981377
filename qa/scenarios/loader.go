// Package scenarios replays YAML-defined scheduling situations against the
// planner and checks the outcome, so regressions in scoring or constraint
// handling surface as failing cases rather than operator surprises.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/peakobs/nightq/pkg/queuefile"
)

// Expected describes the outcome a scenario must produce.
type Expected struct {
	// Assigned is the number of slots that must receive an OB.
	Assigned int `yaml:"assigned"`
	// Order lists the OB ids slot by slot; an empty string marks a slot
	// expected to stay unfilled. Omit to skip the per-slot check.
	Order []string `yaml:"order,omitempty"`
	// Rejected lists OB ids that must not appear anywhere in the schedule.
	Rejected []string `yaml:"rejected,omitempty"`
}

// Scenario is one self-contained scheduling situation.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// NightStart is the first slot's start (RFC3339).
	NightStart  string  `yaml:"night_start"`
	Hours       float64 `yaml:"hours"`
	SlotMinutes int     `yaml:"slot_minutes"`
	// Filters installed for the night, empty means unrestricted.
	Filters []string `yaml:"filters,omitempty"`

	Strategy string `yaml:"strategy,omitempty"`
	TieBreak string `yaml:"tie_break,omitempty"`

	Programs []queuefile.ProgramDef `yaml:"programs"`
	OBs      []queuefile.OBDef      `yaml:"obs"`
	Weights  map[string]float64     `yaml:"weights,omitempty"`
	// Visibility overrides the oracle answer per target name. Targets not
	// listed are observable.
	Visibility map[string]bool `yaml:"visibility,omitempty"`
	// Used charges minutes against programs before the pass starts.
	Used map[string]float64 `yaml:"used_minutes,omitempty"`

	Expected Expected `yaml:"expected"`
}

// Load reads one scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
