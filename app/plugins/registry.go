// Package plugins holds the named factories the service resolves its
// configurable components from. Out-of-tree builds can register their own
// implementations before app.New runs.
package plugins

import (
	"fmt"

	"github.com/peakobs/nightq/config"
	"github.com/peakobs/nightq/core/sched/passlog"
	"github.com/peakobs/nightq/core/visibility"
)

// OracleFactory builds a visibility oracle from a raw configuration map.
type OracleFactory func(name string, conf map[string]any) (visibility.Oracle, error)

// LogStoreFactory builds a pass log store from the passlog section.
type LogStoreFactory func(name string, conf config.PassLogConfig) (passlog.Store, error)

var (
	Oracles   = map[string]OracleFactory{}
	LogStores = map[string]LogStoreFactory{}
)

func RegisterOracle(name string, f OracleFactory)     { Oracles[name] = f }
func RegisterLogStore(name string, f LogStoreFactory) { LogStores[name] = f }

// NewOracle builds the named oracle.
func NewOracle(name string, conf map[string]any) (visibility.Oracle, error) {
	f, ok := Oracles[name]
	if !ok {
		return nil, fmt.Errorf("unknown ephemeris oracle %q", name)
	}
	return f(name, conf)
}

// NewLogStore builds the pass log store named by the config backend.
func NewLogStore(cfg config.PassLogConfig) (passlog.Store, error) {
	f, ok := LogStores[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown passlog backend %q", cfg.Backend)
	}
	return f(cfg.Backend, cfg)
}
