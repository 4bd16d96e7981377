package weights

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/peakobs/nightq/core/events"
	"github.com/peakobs/nightq/core/logger"
	"github.com/peakobs/nightq/internal/eventbus"
)

// DefaultWeight is returned for keys that were never set.
const DefaultWeight = 1.0

var errNotFinite = errors.New("weight must be finite")

// Store is the in-memory weight table. All mutations are serialized; reads
// never block each other. Observers receive a WeightsUpdated event per
// accepted edit, stamped with the table version after the edit.
type Store struct {
	mu      sync.RWMutex
	data    map[string]float64
	version uint64
	bus     *eventbus.TypedBus[events.WeightsUpdated]
	log     logger.Logger
}

// NewStore creates an empty weight table.
func NewStore(log logger.Logger) *Store {
	return &Store{
		data: map[string]float64{},
		bus:  eventbus.NewTyped[events.WeightsUpdated](),
		log:  logger.OrNop(log),
	}
}

// Get returns the weight for key, or DefaultWeight when unset.
func (s *Store) Get(key string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.data[key]; ok {
		return v
	}
	return DefaultWeight
}

// Version returns the current table version. It starts at 0 and increases by
// one per accepted edit.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set parses raw and stores it under key. Unparseable or non-finite input is
// rejected with a *ValidationError and the prior value stays in place.
func (s *Store) Set(key, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, s.reject(key, raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, s.reject(key, raw, errNotFinite)
	}
	return v, s.SetFloat(key, v)
}

// SetFloat stores an already-parsed weight. Non-finite values are rejected.
func (s *Store) SetFloat(key string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return s.reject(key, strconv.FormatFloat(v, 'g', -1, 64), errNotFinite)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = v
	s.version++
	s.bus.Publish(events.WeightsUpdated{Key: key, Value: v, Version: s.version})
	s.log.Debugw("weight set", map[string]any{"key": key, "value": v, "version": s.version})
	return nil
}

// Update is the outward edit surface: row is the table row shown to the
// operator (kept for interface compatibility, the table has one row per
// key), column is the weight key and raw the edited cell. The parse flag is
// advisory; the table is typed, so raw must parse either way.
func (s *Store) Update(row int, column, raw string, parse bool) (float64, error) {
	_ = row
	_ = parse
	if column == "" {
		return 0, s.reject(column, raw, errors.New("empty weight key"))
	}
	return s.Set(column, raw)
}

// Snapshot returns a copy of the table and the version it corresponds to.
func (s *Store) Snapshot() (map[string]float64, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]float64, len(s.data))
	for k, v := range s.data {
		cp[k] = v
	}
	return cp, s.version
}

// Keys returns the known weight keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load replaces the whole table, typically with values read from the queue
// store at startup. The version is set to the persisted one.
func (s *Store) Load(values map[string]float64, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]float64, len(values))
	for k, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		s.data[k] = v
	}
	s.version = version
}

// Subscribe registers an observer for accepted edits.
func (s *Store) Subscribe() <-chan events.WeightsUpdated {
	return s.bus.Subscribe()
}

// Unsubscribe removes an observer.
func (s *Store) Unsubscribe(ch <-chan events.WeightsUpdated) {
	s.bus.Unsubscribe(ch)
}

// Close shuts down the observer bus.
func (s *Store) Close() {
	s.bus.Close()
}

func (s *Store) reject(key, raw string, err error) error {
	verr := &ValidationError{Key: key, Raw: raw, Err: err}
	s.log.Warnf("rejected weight edit: %v", verr)
	return verr
}
