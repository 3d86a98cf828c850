package app

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/habitgrid/habitgrid/internal/store"
	"github.com/habitgrid/habitgrid/internal/sync"
)

// fixedDay is the injected "today" for all app tests: Thu 2024-03-07.
var fixedDay = time.Date(2024, 3, 7, 10, 30, 0, 0, time.UTC)

func newTestApp(t *testing.T) *App {
	t.Helper()

	a, err := New(Config{
		DataDir: t.TempDir(),
		Logger:  log.New(io.Discard, "", 0),
		Now:     func() time.Time { return fixedDay },
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestViewCursorStartsToday(t *testing.T) {
	a := newTestApp(t)

	if got := a.ViewDate(); got.Year() != 2024 || got.Month() != 3 || got.Day() != 7 {
		t.Errorf("initial cursor = %v, want 2024-03-07", got)
	}
	if got := a.ViewLabel(); got != "2024.3.7 (Thu)" {
		t.Errorf("label = %q", got)
	}
}

func TestStepDayAndSetViewKey(t *testing.T) {
	a := newTestApp(t)

	a.StepDay(-1)
	if a.ViewLabel() != "2024.3.6 (Wed)" {
		t.Errorf("after -1 step label = %q", a.ViewLabel())
	}
	a.StepDay(2)
	if a.ViewLabel() != "2024.3.8 (Fri)" {
		t.Errorf("after +2 steps label = %q", a.ViewLabel())
	}

	if err := a.SetViewKey("2024-01-15"); err != nil {
		t.Fatalf("SetViewKey failed: %v", err)
	}
	if a.ViewLabel() != "2024.1.15 (Mon)" {
		t.Errorf("after cell selection label = %q", a.ViewLabel())
	}

	if err := a.SetViewKey("not-a-key"); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestToggleCompletion(t *testing.T) {
	a := newTestApp(t)
	r, err := a.AddRoutine("Stretch")
	if err != nil {
		t.Fatalf("AddRoutine failed: %v", err)
	}

	if err := a.ToggleCompletion(r.ID); err != nil {
		t.Fatalf("ToggleCompletion failed: %v", err)
	}
	if a.DayPercent() != 100 {
		t.Errorf("after toggle on, percent = %d, want 100", a.DayPercent())
	}

	if err := a.ToggleCompletion(r.ID); err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if a.DayPercent() != 0 {
		t.Errorf("after toggle off, percent = %d, want 0", a.DayPercent())
	}

	if err := a.ToggleCompletion("ghost"); err != store.ErrUnknownRoutine {
		t.Errorf("unknown id err = %v, want ErrUnknownRoutine", err)
	}
}

func TestChecklistFollowsCursor(t *testing.T) {
	a := newTestApp(t)
	r, _ := a.AddRoutine("Walk")
	a.ToggleCompletion(r.ID)

	items := a.Checklist()
	if len(items) != 1 || !items[0].Done {
		t.Errorf("checklist on toggled day = %+v", items)
	}

	a.StepDay(-1)
	items = a.Checklist()
	if items[0].Done {
		t.Error("previous day must read incomplete")
	}
}

func TestGridWindow(t *testing.T) {
	a := newTestApp(t)

	cells := a.Grid()
	if len(cells)%7 != 0 {
		t.Fatalf("grid length %d not a multiple of 7", len(cells))
	}
	// Rolling year: 364 days back from Thu 2024-03-07 is Thu 2023-03-09,
	// which rounds back to Sun 2023-03-05.
	if first := cells[0].Key; first != "2023-03-05" {
		t.Errorf("first cell = %s, want 2023-03-05", first)
	}
	last := cells[len(cells)-1]
	if last.Key != "2024-03-09" {
		t.Errorf("last cell = %s, want the Saturday of the current week", last.Key)
	}
	if !last.Future {
		t.Error("trailing pad cell must be future")
	}

	spans := a.MonthSpans()
	weeks := 0
	for _, s := range spans {
		weeks += s.Weeks
	}
	if weeks != len(cells)/7 {
		t.Errorf("month spans cover %d weeks, grid has %d", weeks, len(cells)/7)
	}
}

func TestStartupPullUnconfiguredIsQuiet(t *testing.T) {
	a := newTestApp(t)

	if err := a.StartupPull(context.Background()); err != nil {
		t.Errorf("StartupPull without endpoint must be a quiet no-op, got %v", err)
	}
	if a.SyncStatus() != sync.StatusDisconnected {
		t.Errorf("status = %v, want disconnected", a.SyncStatus())
	}
}

func TestConfigureRoundTrip(t *testing.T) {
	a := newTestApp(t)

	if err := a.Configure("https://evil.example/steal"); err == nil {
		t.Error("foreign endpoint must be rejected")
	}

	valid := sync.EndpointPrefix + "s/x/exec"
	if err := a.Configure(valid); err != nil {
		t.Fatalf("valid endpoint rejected: %v", err)
	}
	if a.SyncStatus() != sync.StatusIdle {
		t.Errorf("status = %v, want idle", a.SyncStatus())
	}

	if err := a.Configure(""); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if a.SyncStatus() != sync.StatusDisconnected {
		t.Errorf("status = %v, want disconnected", a.SyncStatus())
	}
}

func TestStreak(t *testing.T) {
	a := newTestApp(t)
	r, _ := a.AddRoutine("Practice")

	a.SetCompletion(fixedDay, r.ID, true)
	a.SetCompletion(fixedDay.AddDate(0, 0, -1), r.ID, true)

	if got := a.Streak(); got != 2 {
		t.Errorf("Streak = %d, want 2", got)
	}
}
