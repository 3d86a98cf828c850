// Package daemon provides the watch daemon that keeps derived state fresh
// while other processes edit the blobs.
//
// The daemon:
//  1. Watches the data directory for changes to the state blobs
//  2. Reloads the store and refreshes the sqlite day cache when they settle
//  3. Schedules a debounced push so external edits reach the remote copy
//  4. Handles graceful shutdown
//
// Store reloads fire the store's change events, so an attached dashboard
// handler broadcasts automatically; the daemon itself only orchestrates.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/habitgrid/habitgrid/internal/app"
	"github.com/habitgrid/habitgrid/internal/cache"
	"github.com/habitgrid/habitgrid/internal/schema"
)

// Config holds configuration for the daemon.
type Config struct {
	// CacheRefreshInterval is how often to recompute the day cache even
	// without file events, catching anything a missed event left stale.
	CacheRefreshInterval time.Duration

	// DebounceInterval is how long to wait before processing file changes.
	// This batches rapid updates together.
	DebounceInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CacheRefreshInterval: 5 * time.Second,
		DebounceInterval:     100 * time.Millisecond,
		Logger:               log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates blob watching, cache refresh, and push scheduling.
type Daemon struct {
	app    *app.App
	cache  *cache.DB
	config *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // filepath -> timestamp
	changeQueueMu gosync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     gosync.WaitGroup
}

// New creates a new Daemon over the given app and day cache.
// Use Start() to begin watching.
func New(a *app.App, c *cache.DB) (*Daemon, error) {
	return NewWithConfig(a, c, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(a *app.App, c *cache.DB, config *Config) (*Daemon, error) {
	if a == nil {
		return nil, fmt.Errorf("app cannot be nil")
	}
	if c == nil {
		return nil, fmt.Errorf("cache cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		app:         a,
		cache:       c,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// The daemon performs an initial cache refresh, then watches the data
// directory and processes settled changes. This blocks until ctx is
// cancelled or an error occurs.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if err := d.refreshCache(); err != nil {
		return fmt.Errorf("initial cache refresh failed: %w", err)
	}

	dataDir := d.app.Store().Dir()
	if err := d.watcher.Add(dataDir); err != nil {
		return fmt.Errorf("failed to watch data directory: %w", err)
	}

	d.config.Logger.Printf("Watching: %s", dataDir)

	d.wg.Add(3)
	go d.watchFileEvents()
	go d.processChangeQueue()
	go d.periodicCacheRefresh()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// watchFileEvents monitors filesystem events and queues blob changes.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove) == 0 {
				continue
			}
			if !isStateBlob(event.Name) {
				continue
			}

			d.config.Logger.Printf("File event: %s %s", event.Op, event.Name)
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// isStateBlob reports whether path is one of the persisted blobs.
func isStateBlob(path string) bool {
	switch filepath.Base(path) {
	case schema.RoutinesFile, schema.LedgerFile, schema.SettingsFile:
		return true
	}
	return false
}

// queueChange adds a file to the change queue with debouncing.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// processChangeQueue processes queued file changes with debouncing.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

// processPendingChanges reloads once the queued changes have settled.
func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()

	now := time.Now()
	settled := false
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}
		delete(d.changeQueue, path)
		settled = true
	}
	d.changeQueueMu.Unlock()

	if !settled {
		return
	}

	d.config.Logger.Println("Processing settled blob changes")

	// Reload fires store change events, so dashboard handlers broadcast.
	d.app.Store().Reload()

	if err := d.refreshCache(); err != nil {
		d.config.Logger.Printf("Error refreshing cache: %v", err)
	}

	// External edits deserve the same best-effort upload as local ones.
	d.app.Sync().SchedulePush()
}

// periodicCacheRefresh recomputes the day cache on a fixed interval.
func (d *Daemon) periodicCacheRefresh() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.CacheRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			if err := d.refreshCache(); err != nil {
				d.config.Logger.Printf("Error refreshing cache: %v", err)
			}
		}
	}
}

// refreshCache recomputes the day cache from the current store state.
func (d *Daemon) refreshCache() error {
	st := d.app.Store()
	return d.cache.RefreshContext(d.ctx, st.Routines(), st.LedgerCopy())
}
