package daemon

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/habitgrid/habitgrid/internal/app"
	"github.com/habitgrid/habitgrid/internal/cache"
	"github.com/habitgrid/habitgrid/internal/schema"
)

// setupDaemon creates an app, a cache, and a started daemon over a temp dir.
func setupDaemon(t *testing.T) (*app.App, *cache.DB, string) {
	t.Helper()

	dir := t.TempDir()
	logger := log.New(io.Discard, "", 0)

	a, err := app.New(app.Config{DataDir: dir, Logger: logger})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	t.Cleanup(a.Close)

	db, err := cache.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatalf("failed to init cache schema: %v", err)
	}

	d, err := NewWithConfig(a, db, &Config{
		CacheRefreshInterval: time.Hour, // periodic refresh out of the way
		DebounceInterval:     20 * time.Millisecond,
		Logger:               logger,
	})
	if err != nil {
		t.Fatalf("failed to create daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to come up.
	time.Sleep(100 * time.Millisecond)
	return a, db, dir
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("expected error for nil app")
	}
}

func TestExternalEditIsPickedUp(t *testing.T) {
	a, db, dir := setupDaemon(t)

	// Simulate another process editing the blobs directly.
	routines := []schema.Routine{{ID: "ext-1", Name: "External", CreatedAt: time.Now()}}
	if err := schema.WriteRoutines(dir, routines); err != nil {
		t.Fatalf("failed to write routines blob: %v", err)
	}
	if err := schema.WriteLedger(dir, schema.Ledger{"2024-04-01": {"ext-1": true}}); err != nil {
		t.Fatalf("failed to write ledger blob: %v", err)
	}

	// Wait for the debounce to settle and the reload to land.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := a.Store().RoutineByID("ext-1"); ok {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}

	if _, ok := a.Store().RoutineByID("ext-1"); !ok {
		t.Fatal("store did not reload the externally written routine")
	}

	// The cache refresh follows the reload.
	deadline = time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if stat, ok, _ := db.Day("2024-04-01"); ok && stat.Percent == 100 {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("cache was not refreshed from the external edit")
}

func TestInitialRefreshSeedsCache(t *testing.T) {
	dir := t.TempDir()
	logger := log.New(io.Discard, "", 0)

	// Pre-existing state before the daemon starts.
	routines := []schema.Routine{{ID: "r1", Name: "Seeded", CreatedAt: time.Now()}}
	if err := schema.WriteRoutines(dir, routines); err != nil {
		t.Fatalf("failed to seed routines: %v", err)
	}
	if err := schema.WriteLedger(dir, schema.Ledger{"2024-04-02": {"r1": true}}); err != nil {
		t.Fatalf("failed to seed ledger: %v", err)
	}

	a, err := app.New(app.Config{DataDir: dir, Logger: logger})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	t.Cleanup(a.Close)

	db, err := cache.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatalf("failed to init cache schema: %v", err)
	}

	d, err := New(a, db)
	if err != nil {
		t.Fatalf("failed to create daemon: %v", err)
	}
	d.config.Logger = logger

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Start(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok, _ := db.Day("2024-04-02"); ok {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("initial refresh did not seed the cache")
}
