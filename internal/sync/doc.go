// Package sync coordinates the local ledger with an optional remote copy.
//
// # Overview
//
// The coordinator pulls the remote state on startup, pushes the local state
// after mutations, and exposes a status indicator for the presentation
// layer. Sync is strictly best effort: local durability is handled by the
// store before the coordinator ever runs, a failed push is never retried and
// never rolled back, and every failure surfaces only as a status change.
//
//	Store blobs (source of truth)
//	     ↕ ReplaceState / LedgerCopy
//	Coordinator ── GET/POST ──→ remote endpoint
//	     ↓
//	Status (disconnected / idle / syncing / synced / error)
//
// # Merge policy
//
// A successful pull merges remote state into local state with last-writer
// wins at coarse granularity:
//
//   - the remote routine collection replaces the local one wholesale when it
//     is non-empty;
//   - remote day records overwrite local records with the same date key
//     wholesale; local-only date keys survive.
//
// The merge is deliberately not field-level: two devices editing different
// routines on the same day lose one device's edits. That is the accepted
// trade-off for a protocol with no versioning.
//
// # In-flight guard
//
// At most one pull or push is in flight. A second call while busy is dropped
// (ErrUnavailable), not queued. The debounced push timer is reset by every
// schedule call, so only the last mutation of a burst triggers a request.
package sync
