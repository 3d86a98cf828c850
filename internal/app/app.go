// Package app assembles the core into the single object the presentation
// layers (CLI, daemon, dashboard) talk to.
//
// App owns the store, the sync coordinator, and the current-view-date
// cursor. Presentation issues intents (add, rename, delete, toggle,
// navigate, sync, configure) and reads fresh derived data back; it never
// touches the underlying collections directly. There are no hidden
// singletons: everything hangs off the App constructed for a data
// directory.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	gosync "sync"
	"time"

	"github.com/habitgrid/habitgrid/internal/dateutil"
	"github.com/habitgrid/habitgrid/internal/progress"
	"github.com/habitgrid/habitgrid/internal/schema"
	"github.com/habitgrid/habitgrid/internal/store"
	"github.com/habitgrid/habitgrid/internal/sync"
)

// GridDays is the span of the rolling heatmap window: the grid always
// reaches back a full year from the current week.
const GridDays = 364

// Config holds app construction options.
type Config struct {
	// DataDir is the directory holding the state blobs.
	DataDir string

	// Sync configures the coordinator; nil uses defaults.
	Sync *sync.Config

	// Logger for app-level activity.
	Logger *log.Logger

	// Now is the clock; nil uses time.Now. Tests inject a fixed day.
	Now func() time.Time
}

// ChecklistItem pairs a routine with its completion on the viewed day.
type ChecklistItem struct {
	Routine schema.Routine
	Done    bool
}

// App is the presentation-facing core.
type App struct {
	store *store.Store
	sync  *sync.Coordinator
	now   func() time.Time

	mu   gosync.Mutex
	view time.Time
}

// New opens the store in cfg.DataDir and wires the coordinator.
// The view cursor starts on the invocation-time calendar day.
func New(cfg Config) (*App, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[app] ", log.LstdFlags)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	st, err := store.Open(cfg.DataDir, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	return &App{
		store: st,
		sync:  sync.New(st, cfg.Sync),
		now:   cfg.Now,
		view:  dateutil.StartOfDay(cfg.Now()),
	}, nil
}

// Store exposes the underlying store for the daemon and dashboard wiring.
func (a *App) Store() *store.Store {
	return a.store
}

// Sync exposes the coordinator for status observers.
func (a *App) Sync() *sync.Coordinator {
	return a.sync
}

// Close cancels any pending debounced push.
func (a *App) Close() {
	a.sync.Stop()
}

// AddRoutine creates a routine and schedules a debounced push.
func (a *App) AddRoutine(name string) (schema.Routine, error) {
	r, err := a.store.AddRoutine(name)
	if err != nil {
		return schema.Routine{}, err
	}
	a.sync.SchedulePush()
	return r, nil
}

// RenameRoutine renames a routine and schedules a debounced push.
func (a *App) RenameRoutine(id, name string) error {
	if err := a.store.RenameRoutine(id, name); err != nil {
		return err
	}
	a.sync.SchedulePush()
	return nil
}

// DeleteRoutine deletes a routine (cascading ledger cleanup) and schedules a
// debounced push.
func (a *App) DeleteRoutine(id string) error {
	if err := a.store.DeleteRoutine(id); err != nil {
		return err
	}
	a.sync.SchedulePush()
	return nil
}

// ToggleCompletion flips a routine's completion on the viewed day.
func (a *App) ToggleCompletion(routineID string) error {
	if _, ok := a.store.RoutineByID(routineID); !ok {
		return store.ErrUnknownRoutine
	}

	day := a.ViewDate()
	a.store.SetCompletion(day, routineID, !a.store.Completion(day, routineID))
	a.sync.SchedulePush()
	return nil
}

// SetCompletion records completion for a routine on an explicit day.
func (a *App) SetCompletion(t time.Time, routineID string, done bool) error {
	if _, ok := a.store.RoutineByID(routineID); !ok {
		return store.ErrUnknownRoutine
	}

	a.store.SetCompletion(t, routineID, done)
	a.sync.SchedulePush()
	return nil
}

// Routines returns the collection in display order.
func (a *App) Routines() []schema.Routine {
	return a.store.Routines()
}

// Checklist returns each routine with its completion on the viewed day.
func (a *App) Checklist() []ChecklistItem {
	day := a.ViewDate()
	routines := a.store.Routines()

	items := make([]ChecklistItem, len(routines))
	for i, r := range routines {
		items[i] = ChecklistItem{Routine: r, Done: a.store.Completion(day, r.ID)}
	}
	return items
}

// ViewDate returns the current view cursor.
func (a *App) ViewDate() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// ViewLabel returns the display label of the viewed day.
func (a *App) ViewLabel() string {
	return dateutil.Label(a.ViewDate())
}

// StepDay moves the view cursor by delta calendar days.
func (a *App) StepDay(delta int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view = dateutil.AddDays(a.view, delta)
}

// SetViewDate points the view cursor at t's calendar day.
func (a *App) SetViewDate(t time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view = dateutil.StartOfDay(t)
}

// SetViewKey points the view cursor at a canonical date key, as when the
// user selects a heatmap cell.
func (a *App) SetViewKey(key string) error {
	t, err := time.ParseInLocation("2006-01-02", key, time.Local)
	if err != nil {
		return fmt.Errorf("invalid date key %q: %w", key, err)
	}
	a.SetViewDate(t)
	return nil
}

// DayPercent returns the completion percentage of the viewed day.
func (a *App) DayPercent() int {
	return progress.DayProgress(a.store.Routines(), a.store.LedgerCopy(), a.ViewDate())
}

// Grid returns the rolling-year heatmap ending with the current week.
func (a *App) Grid() []progress.Cell {
	today := a.now()
	anchor := dateutil.AddDays(today, -GridDays)
	return progress.BuildYearGrid(a.store.Routines(), a.store.LedgerCopy(), anchor, today)
}

// MonthSpans returns the month labels for Grid.
func (a *App) MonthSpans() []progress.MonthSpan {
	return progress.MonthSpans(a.Grid())
}

// Streak returns the consecutive fully-completed days ending today.
func (a *App) Streak() int {
	return progress.Streak(a.store.Routines(), a.store.LedgerCopy(), a.now())
}

// SyncNow runs a manual sync: pull the remote state, then push the merged
// result back. Either leg may be dropped or fail; the status indicator
// carries the outcome.
func (a *App) SyncNow(ctx context.Context) error {
	if err := a.sync.Pull(ctx); err != nil {
		return err
	}
	return a.sync.Push(ctx)
}

// StartupPull makes the single best-effort pull that may overwrite local
// state before first render. An unconfigured endpoint is not an error.
func (a *App) StartupPull(ctx context.Context) error {
	err := a.sync.Pull(ctx)
	if errors.Is(err, sync.ErrUnavailable) {
		return nil
	}
	return err
}

// Configure validates and stores the sync endpoint ("" clears it).
func (a *App) Configure(endpoint string) error {
	return a.sync.Configure(endpoint)
}

// SyncStatus returns the sync status indicator.
func (a *App) SyncStatus() sync.Status {
	return a.sync.Status()
}
