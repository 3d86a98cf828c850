package schema

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestNewRoutineGeneratesUniqueIDs(t *testing.T) {
	a := NewRoutine("Stretch")
	b := NewRoutine("Stretch")

	if a.ID == "" || b.ID == "" {
		t.Fatal("expected non-empty ids")
	}
	if a.ID == b.ID {
		t.Errorf("two routines with the same name must get distinct ids, both got %s", a.ID)
	}
}

func TestRoutineValidate(t *testing.T) {
	valid := Routine{ID: "r1", Name: "Read", CreatedAt: time.Now()}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid routine rejected: %v", err)
	}

	missing := Routine{Name: "Read"}
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing id")
	}

	blank := Routine{ID: "r1", Name: "   "}
	if err := blank.Validate(); err == nil {
		t.Error("expected error for blank name")
	}
}

func TestRoutinesRoundTrip(t *testing.T) {
	dir := t.TempDir()

	in := []Routine{
		{ID: "r1", Name: "Read", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "r2", Name: "Run", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "r3", Name: "Write", CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
	}

	if err := WriteRoutines(dir, in); err != nil {
		t.Fatalf("WriteRoutines failed: %v", err)
	}

	out, err := ReadRoutines(dir)
	if err != nil {
		t.Fatalf("ReadRoutines failed: %v", err)
	}

	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestLedgerRoundTrip(t *testing.T) {
	dir := t.TempDir()

	in := Ledger{
		"2024-01-01": {"r1": true, "r2": false},
		"2024-01-02": {"r1": false},
	}

	if err := WriteLedger(dir, in); err != nil {
		t.Fatalf("WriteLedger failed: %v", err)
	}

	out, err := ReadLedger(dir)
	if err != nil {
		t.Fatalf("ReadLedger failed: %v", err)
	}

	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestMissingBlobsReadAsEmpty(t *testing.T) {
	dir := t.TempDir()

	routines, err := ReadRoutines(dir)
	if err != nil {
		t.Fatalf("ReadRoutines on empty dir: %v", err)
	}
	if len(routines) != 0 {
		t.Errorf("expected no routines, got %d", len(routines))
	}

	ledger, err := ReadLedger(dir)
	if err != nil {
		t.Fatalf("ReadLedger on empty dir: %v", err)
	}
	if len(ledger) != 0 {
		t.Errorf("expected empty ledger, got %d entries", len(ledger))
	}

	settings, err := ReadSettings(dir)
	if err != nil {
		t.Fatalf("ReadSettings on empty dir: %v", err)
	}
	if settings.Endpoint != "" {
		t.Errorf("expected empty endpoint, got %q", settings.Endpoint)
	}
}

func TestCorruptBlobReturnsEmptyStateAndError(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, LedgerFile), []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write corrupt blob: %v", err)
	}

	ledger, err := ReadLedger(dir)
	if err == nil {
		t.Error("expected a parse error for corrupt ledger")
	}
	if len(ledger) != 0 {
		t.Errorf("corrupt ledger must read as empty, got %d entries", len(ledger))
	}
}

func TestDayRecordCompleted(t *testing.T) {
	rec := DayRecord{"r1": true, "r2": false, "stale": true}
	ids := []string{"r1", "r2", "r3"}

	if got := rec.Completed(ids); got != 1 {
		t.Errorf("Completed = %d, want 1 (stale ids must not count)", got)
	}
}

func TestLedgerClone(t *testing.T) {
	in := Ledger{"2024-01-01": {"r1": true}}
	out := in.Clone()

	out["2024-01-01"]["r1"] = false
	if !in["2024-01-01"]["r1"] {
		t.Error("Clone must deep-copy day records")
	}
}
