package sync

// Status is the sync state machine exposed to the presentation layer.
type Status int

const (
	// StatusDisconnected means no endpoint is configured.
	StatusDisconnected Status = iota
	// StatusIdle means an endpoint is configured and no request has run yet.
	StatusIdle
	// StatusSyncing means a pull or push is in flight.
	StatusSyncing
	// StatusSynced means the last request completed successfully.
	StatusSynced
	// StatusError means the last request failed (transport or application).
	StatusError
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusIdle:
		return "idle"
	case StatusSyncing:
		return "syncing"
	case StatusSynced:
		return "synced"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
