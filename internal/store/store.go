// Package store owns the local habit state: the ordered routine collection
// and the per-day completion ledger.
//
// The store loads the JSON blobs from the data directory at construction,
// keeps the working copy in memory, and writes the touched blob back to disk
// before any mutation returns. Local durability never depends on sync.
//
// Mutations fire change events after the write completes, so observers
// (cache refresh, dashboard broadcast, debounced push) always see a state
// that is already on disk.
package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/habitgrid/habitgrid/internal/dateutil"
	"github.com/habitgrid/habitgrid/internal/schema"
)

// Validation errors returned by mutations. The failed mutation is a no-op.
var (
	// ErrEmptyName is returned when a routine name trims to the empty string.
	ErrEmptyName = errors.New("routine name is empty")

	// ErrUnknownRoutine is returned when the given routine id is not in the
	// collection.
	ErrUnknownRoutine = errors.New("unknown routine id")
)

// EventKind identifies which part of the state a change event refers to.
type EventKind int

const (
	// EventRoutines indicates the routine collection changed.
	EventRoutines EventKind = iota
	// EventLedger indicates one or more day records changed.
	EventLedger
	// EventSettings indicates the scalar settings changed.
	EventSettings
)

// String returns a human-readable representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventRoutines:
		return "routines"
	case EventLedger:
		return "ledger"
	case EventSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// Event describes a state change.
type Event struct {
	Kind EventKind
}

// Store holds the routine collection and the completion ledger.
//
// All methods are safe for concurrent use. The store itself is the only
// writer of the blobs during normal operation; Reload exists for the watch
// daemon, which picks up edits made by other processes.
type Store struct {
	mu       sync.Mutex
	dir      string
	routines []schema.Routine
	ledger   schema.Ledger
	settings schema.Settings
	logger   *log.Logger

	observers []func(Event)
}

// Open loads the store from the given data directory.
//
// Missing blobs start empty. Corrupt blobs are logged and also start empty;
// a damaged file never prevents the store from opening.
func Open(dir string, logger *log.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}

	s := &Store{
		dir:    dir,
		ledger: schema.Ledger{},
		logger: logger,
	}

	s.loadLocked()
	return s, nil
}

// Dir returns the data directory the store persists into.
func (s *Store) Dir() string {
	return s.dir
}

// OnChange registers an observer called after every persisted mutation.
// Observers run on the mutating goroutine, outside the store lock, in
// registration order.
func (s *Store) OnChange(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// AddRoutine appends a new routine with a freshly generated id.
//
// The name is trimmed; an empty result is rejected with ErrEmptyName and the
// collection is left unchanged. Re-adding a deleted routine's name produces
// a new id: ids are never reused.
func (s *Store) AddRoutine(name string) (schema.Routine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return schema.Routine{}, ErrEmptyName
	}

	s.mu.Lock()
	routine := schema.NewRoutine(name)
	s.routines = append(s.routines, routine)
	s.persistRoutinesLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventRoutines})
	return routine, nil
}

// RenameRoutine changes a routine's display name in place. Identity and
// position are preserved. Unknown ids and empty trimmed names are no-op
// errors.
func (s *Store) RenameRoutine(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownRoutine
	}
	s.routines[idx].Name = name
	s.persistRoutinesLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventRoutines})
	return nil
}

// DeleteRoutine removes a routine and strips its id from every day record.
//
// This is the only operation that touches more than one day record: it
// enforces the orphan-cleanup invariant that no record references an id
// outside the current collection. Unknown ids are a no-op error.
func (s *Store) DeleteRoutine(id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownRoutine
	}

	s.routines = append(s.routines[:idx], s.routines[idx+1:]...)
	for _, rec := range s.ledger {
		delete(rec, id)
	}

	s.persistRoutinesLocked()
	s.persistLedgerLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventRoutines})
	s.notify(Event{Kind: EventLedger})
	return nil
}

// SetCompletion records completion of a routine for t's calendar day,
// creating the day record lazily.
//
// The routine id is deliberately not validated: a stale id is tolerated in
// the ledger and never surfaces in progress, which iterates the routine
// collection rather than the record.
func (s *Store) SetCompletion(t time.Time, routineID string, done bool) {
	key := dateutil.Key(t)

	s.mu.Lock()
	rec, ok := s.ledger[key]
	if !ok {
		rec = schema.DayRecord{}
		s.ledger[key] = rec
	}
	rec[routineID] = done
	s.persistLedgerLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventLedger})
}

// Completion returns the stored completion for (day, routine), or false if
// either the day record or the routine entry is absent.
func (s *Store) Completion(t time.Time, routineID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.ledger[dateutil.Key(t)]
	if !ok {
		return false
	}
	return rec[routineID]
}

// Routines returns a copy of the routine collection in display order.
func (s *Store) Routines() []schema.Routine {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]schema.Routine, len(s.routines))
	copy(out, s.routines)
	return out
}

// RoutineByID returns the routine with the given id, if present.
func (s *Store) RoutineByID(id string) (schema.Routine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return schema.Routine{}, false
	}
	return s.routines[idx], true
}

// LedgerCopy returns a deep copy of the ledger, safe for the caller to
// serialize or merge without holding up mutations.
func (s *Store) LedgerCopy() schema.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Clone()
}

// ReplaceState installs a whole new routine collection and ledger, persists
// both blobs, and signals both changes. The sync coordinator uses this to
// commit a merged pull result in one step.
func (s *Store) ReplaceState(routines []schema.Routine, ledger schema.Ledger) {
	s.mu.Lock()
	s.routines = make([]schema.Routine, len(routines))
	copy(s.routines, routines)
	if ledger == nil {
		ledger = schema.Ledger{}
	}
	s.ledger = ledger.Clone()
	s.persistRoutinesLocked()
	s.persistLedgerLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventRoutines})
	s.notify(Event{Kind: EventLedger})
}

// Endpoint returns the configured sync endpoint, or "" when sync is off.
func (s *Store) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Endpoint
}

// SetEndpointRaw stores the endpoint string as given and persists settings.
// Validation is the sync coordinator's job; the store persists what it is
// handed.
func (s *Store) SetEndpointRaw(endpoint string) {
	s.mu.Lock()
	s.settings.Endpoint = endpoint
	if err := schema.WriteSettings(s.dir, s.settings); err != nil {
		s.logger.Printf("Failed to persist settings: %v", err)
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventSettings})
}

// Reload re-reads all blobs from disk, discarding the in-memory state.
// The watch daemon calls this when another process edits the blobs.
func (s *Store) Reload() {
	s.mu.Lock()
	s.loadLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventRoutines})
	s.notify(Event{Kind: EventLedger})
}

// loadLocked reads all blobs, falling back to empty state on corruption.
func (s *Store) loadLocked() {
	routines, err := schema.ReadRoutines(s.dir)
	if err != nil {
		s.logger.Printf("Recovering with empty routines: %v", err)
		routines = nil
	}
	s.routines = routines

	ledger, err := schema.ReadLedger(s.dir)
	if err != nil {
		s.logger.Printf("Recovering with empty ledger: %v", err)
		ledger = schema.Ledger{}
	}
	s.ledger = ledger

	settings, err := schema.ReadSettings(s.dir)
	if err != nil {
		s.logger.Printf("Recovering with empty settings: %v", err)
		settings = schema.Settings{}
	}
	s.settings = settings
}

func (s *Store) indexLocked(id string) int {
	for i := range s.routines {
		if s.routines[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistRoutinesLocked() {
	if err := schema.WriteRoutines(s.dir, s.routines); err != nil {
		s.logger.Printf("Failed to persist routines: %v", err)
	}
}

func (s *Store) persistLedgerLocked() {
	if err := schema.WriteLedger(s.dir, s.ledger); err != nil {
		s.logger.Printf("Failed to persist ledger: %v", err)
	}
}

// notify calls observers outside the lock so they can call back into the
// store.
func (s *Store) notify(ev Event) {
	s.mu.Lock()
	observers := make([]func(Event), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}
}
