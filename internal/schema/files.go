package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Blob filenames inside the data directory.
const (
	RoutinesFile = "routines.json"
	LedgerFile   = "ledger.json"
	SettingsFile = "settings.json"
)

// ReadRoutines reads the ordered routine collection from dir.
//
// A missing file is a valid empty state and returns (nil, nil). A corrupt
// file returns the empty state together with the parse error: callers log
// the error and continue with empty defaults, they never fail startup on it.
func ReadRoutines(dir string) ([]Routine, error) {
	var routines []Routine
	if err := readBlob(filepath.Join(dir, RoutinesFile), &routines); err != nil {
		return nil, err
	}
	return routines, nil
}

// WriteRoutines writes the routine collection to dir, preserving order.
func WriteRoutines(dir string, routines []Routine) error {
	if routines == nil {
		routines = []Routine{}
	}
	return writeBlob(dir, RoutinesFile, routines)
}

// ReadLedger reads the date-key to day-record map from dir.
// Missing and corrupt files both yield an empty ledger (see ReadRoutines).
func ReadLedger(dir string) (Ledger, error) {
	ledger := Ledger{}
	if err := readBlob(filepath.Join(dir, LedgerFile), &ledger); err != nil {
		return Ledger{}, err
	}
	if ledger == nil {
		ledger = Ledger{}
	}
	return ledger, nil
}

// WriteLedger writes the ledger to dir.
func WriteLedger(dir string, ledger Ledger) error {
	if ledger == nil {
		ledger = Ledger{}
	}
	return writeBlob(dir, LedgerFile, ledger)
}

// ReadSettings reads the scalar settings from dir.
// Missing and corrupt files both yield zero settings.
func ReadSettings(dir string) (Settings, error) {
	var settings Settings
	if err := readBlob(filepath.Join(dir, SettingsFile), &settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// WriteSettings writes the scalar settings to dir.
func WriteSettings(dir string, settings Settings) error {
	return writeBlob(dir, SettingsFile, settings)
}

// readBlob unmarshals path into v. A missing file leaves v untouched and
// returns nil; a read or parse failure returns the error with v untouched
// beyond whatever json managed to fill in before failing, which callers
// discard.
func readBlob(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}

// writeBlob marshals v as pretty JSON and writes it to dir/name,
// creating the directory if needed.
func writeBlob(dir, name string, v interface{}) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
