// Package dashboard provides event handling and message formatting for the dashboard.
package dashboard

import (
	"encoding/json"
	"log"
	"time"

	"github.com/habitgrid/habitgrid/internal/app"
	"github.com/habitgrid/habitgrid/internal/dateutil"
	"github.com/habitgrid/habitgrid/internal/store"
	"github.com/habitgrid/habitgrid/internal/sync"
)

// Handler bridges core change events to dashboard broadcast messages.
type Handler struct {
	server *Server
	app    *app.App
	logger *log.Logger
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, a *app.App, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		server: server,
		app:    a,
		logger: logger,
	}
}

// Attach subscribes the handler to store change events and sync status
// transitions. Call once after constructing the server.
func (h *Handler) Attach() {
	h.app.Store().OnChange(h.onStoreChange)
	h.app.Sync().OnStatus(h.onSyncStatus)
}

// onStoreChange broadcasts the refreshed derivation for today plus the
// updated overall statistics.
func (h *Handler) onStoreChange(ev store.Event) {
	if ev.Kind == store.EventSettings {
		return
	}

	data := DayUpdateData{Key: dateutil.Key(time.Now())}
	for _, c := range h.app.Grid() {
		if c.Key == data.Key {
			data.Percent = c.Percent
			data.Level = c.Level
			break
		}
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal day update: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeDayUpdate,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})

	h.broadcastStats()
}

// onSyncStatus broadcasts sync indicator transitions.
func (h *Handler) onSyncStatus(status sync.Status) {
	dataJSON, err := json.Marshal(SyncStatusData{Status: status.String()})
	if err != nil {
		h.logger.Printf("Failed to marshal sync status: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeSyncStatus,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// broadcastStats sends the current overall statistics.
func (h *Handler) broadcastStats() {
	ledger := h.app.Store().LedgerCopy()

	stats := StatsData{
		Routines: len(h.app.Routines()),
		Days:     len(ledger),
		Streak:   h.app.Streak(),
	}

	dataJSON, err := json.Marshal(stats)
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}
