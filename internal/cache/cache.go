// Package cache provides the embedded sqlite cache of derived day statistics.
//
// The JSON blobs remain the source of truth; this database only caches the
// per-day progress derivation so the dashboard and the stats command can
// query date ranges without rescanning the whole ledger.
//
// The database runs embedded with WAL mode so the watch daemon can refresh
// it while dashboard readers query concurrently.
//
// Workflow:
//  1. The store mutates the blobs and fires a change event
//  2. The daemon (or the CLI, inline) calls Refresh with the current state
//  3. Refresh recomputes every cached row inside one transaction
//  4. Readers query days/ranges/totals from the cache
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/habitgrid/habitgrid/internal/progress"
	"github.com/habitgrid/habitgrid/internal/schema"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB wraps the sqlite connection holding the day-progress cache.
type DB struct {
	conn *sql.DB
	path string
}

// DayStat is one cached row: the derived completion stats of a ledger day.
type DayStat struct {
	Key       string
	Percent   int
	Level     int
	Completed int
	Total     int
}

// Totals summarizes the cached days.
type Totals struct {
	Days        int
	PerfectDays int
}

// Open creates a connection to the cache database at path, creating the
// parent directory if needed. The caller must Close when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	// WAL lets the daemon refresh while dashboard readers query.
	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close cache database: %w", err)
	}

	db.conn = nil
	return nil
}

// InitSchema creates the cache schema if it doesn't exist. Idempotent.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the cache schema with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS days (
		date TEXT PRIMARY KEY,   -- canonical YYYY-MM-DD key
		percent INTEGER NOT NULL,
		level INTEGER NOT NULL,
		completed INTEGER NOT NULL,
		total INTEGER NOT NULL,
		computed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_days_level ON days(level);
	`

	if _, err := db.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return nil
}

// Refresh recomputes the whole cache from the given state.
func (db *DB) Refresh(routines []schema.Routine, ledger schema.Ledger) error {
	return db.RefreshContext(context.Background(), routines, ledger)
}

// RefreshContext recomputes the whole cache inside one transaction: every
// existing row is dropped and one row is inserted per ledger day. Days absent
// from the ledger stay absent here too (they derive to all-incomplete).
func (db *DB) RefreshContext(ctx context.Context, routines []schema.Routine, ledger schema.Ledger) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM days"); err != nil {
		return fmt.Errorf("failed to clear day cache: %w", err)
	}

	ids := make([]string, len(routines))
	for i, r := range routines {
		ids[i] = r.ID
	}

	keys := make([]string, 0, len(ledger))
	for key := range ledger {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO days (date, percent, level, completed, total, computed_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Format(time.RFC3339)
	for _, key := range keys {
		day, err := time.Parse("2006-01-02", key)
		if err != nil {
			// Malformed keys can only enter the ledger through a merge with
			// a remote writing bad data; skip rather than poison the tx.
			continue
		}

		percent := progress.DayProgress(routines, ledger, day)
		completed := ledger[key].Completed(ids)

		if _, err := stmt.ExecContext(ctx, key, percent, progress.Level(percent), completed, len(ids), now); err != nil {
			return fmt.Errorf("failed to insert day %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit refresh: %w", err)
	}

	return nil
}

// Day returns the cached stats for a date key.
// The second result is false when the day is not cached.
func (db *DB) Day(key string) (DayStat, bool, error) {
	return db.DayContext(context.Background(), key)
}

// DayContext returns the cached stats for a date key with context support.
func (db *DB) DayContext(ctx context.Context, key string) (DayStat, bool, error) {
	var stat DayStat
	err := db.conn.QueryRowContext(ctx,
		"SELECT date, percent, level, completed, total FROM days WHERE date = ?", key,
	).Scan(&stat.Key, &stat.Percent, &stat.Level, &stat.Completed, &stat.Total)
	if err == sql.ErrNoRows {
		return DayStat{}, false, nil
	}
	if err != nil {
		return DayStat{}, false, fmt.Errorf("failed to query day %s: %w", key, err)
	}
	return stat, true, nil
}

// Range returns cached stats for keys in [from, to], ordered by date.
// Canonical keys sort chronologically as text, so this is a string range.
func (db *DB) Range(from, to string) ([]DayStat, error) {
	return db.RangeContext(context.Background(), from, to)
}

// RangeContext returns cached stats for a key range with context support.
func (db *DB) RangeContext(ctx context.Context, from, to string) ([]DayStat, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT date, percent, level, completed, total FROM days WHERE date >= ? AND date <= ? ORDER BY date", from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query range %s..%s: %w", from, to, err)
	}
	defer rows.Close()

	var stats []DayStat
	for rows.Next() {
		var stat DayStat
		if err := rows.Scan(&stat.Key, &stat.Percent, &stat.Level, &stat.Completed, &stat.Total); err != nil {
			return nil, fmt.Errorf("failed to scan day row: %w", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate day rows: %w", err)
	}

	return stats, nil
}

// GetTotals returns summary counts over the cached days.
func (db *DB) GetTotals() (Totals, error) {
	return db.GetTotalsContext(context.Background())
}

// GetTotalsContext returns summary counts with context support.
func (db *DB) GetTotalsContext(ctx context.Context) (Totals, error) {
	var t Totals
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN percent = 100 THEN 1 ELSE 0 END), 0) FROM days",
	).Scan(&t.Days, &t.PerfectDays)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to query totals: %w", err)
	}
	return t, nil
}
