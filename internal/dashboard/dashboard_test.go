package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/habitgrid/habitgrid/internal/app"
)

// newTestServer starts a dashboard over a fresh app on a random port.
func newTestServer(t *testing.T) (*Server, *app.App) {
	t.Helper()

	a, err := app.New(app.Config{
		DataDir: t.TempDir(),
		Logger:  log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	t.Cleanup(a.Close)

	server := NewServer(a, &Config{
		Port:   0, // random available port
		Logger: log.New(io.Discard, "", 0),
	})

	if err := server.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })

	time.Sleep(100 * time.Millisecond)
	return server, a
}

func TestServerStartStop(t *testing.T) {
	server, _ := newTestServer(t)

	if server.GetAddr() == "" {
		t.Fatal("server address is empty")
	}
}

func TestWebSocketWelcomeMessage(t *testing.T) {
	server, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.GetAddr()+"/ws", nil)
	if err != nil {
		t.Fatalf("failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if count := server.ClientCount(); count != 1 {
		t.Errorf("expected 1 client, got %d", count)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("failed to read welcome message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeSyncStatus {
		t.Errorf("welcome message type = %s, want %s", msg.Type, MessageTypeSyncStatus)
	}

	var status SyncStatusData
	if err := json.Unmarshal(msg.Data, &status); err != nil {
		t.Fatalf("failed to unmarshal status data: %v", err)
	}
	if status.Status != "disconnected" {
		t.Errorf("welcome status = %q, want disconnected", status.Status)
	}
}

func TestStoreChangeBroadcast(t *testing.T) {
	server, a := newTestServer(t)

	handler := NewHandler(server, a, log.New(io.Discard, "", 0))
	handler.Attach()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.GetAddr()+"/ws", nil)
	if err != nil {
		t.Fatalf("failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Drain the welcome message first.
	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("failed to read welcome message: %v", err)
	}

	r, err := a.AddRoutine("Hydrate")
	if err != nil {
		t.Fatalf("AddRoutine failed: %v", err)
	}
	if err := a.ToggleCompletion(r.ID); err != nil {
		t.Fatalf("ToggleCompletion failed: %v", err)
	}

	// The toggle produces a day_update; earlier messages (from the add)
	// may arrive first.
	deadline := time.After(3 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("no day_update broadcast received")
		default:
		}

		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("failed to read broadcast: %v", err)
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to unmarshal broadcast: %v", err)
		}
		if msg.Type != MessageTypeDayUpdate {
			continue
		}

		var update DayUpdateData
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			t.Fatalf("failed to unmarshal day update: %v", err)
		}
		if update.Percent == 100 && update.Level == 4 {
			return // saw the toggle land
		}
	}
}

func TestGridEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get("http://" + server.GetAddr() + "/grid")
	if err != nil {
		t.Fatalf("grid request failed: %v", err)
	}
	defer resp.Body.Close()

	var grid GridData
	if err := json.NewDecoder(resp.Body).Decode(&grid); err != nil {
		t.Fatalf("failed to decode grid: %v", err)
	}

	if len(grid.Cells)%7 != 0 {
		t.Errorf("grid cell count %d not a multiple of 7", len(grid.Cells))
	}
	if len(grid.Months) == 0 {
		t.Error("expected month spans")
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get("http://" + server.GetAddr() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	var health map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("health status = %v, want ok", health["status"])
	}
}
