// Package schema provides the persisted data structures for habitgrid.
//
// # Overview
//
// Local state is three independent JSON blobs inside the data directory:
//
//	routines.json   ordered array of routines (order = display order)
//	ledger.json     map of YYYY-MM-DD date keys to per-day completion records
//	settings.json   scalar settings (the optional sync endpoint)
//
// The blobs are the source of truth. Everything else (the sqlite day cache,
// the dashboard payloads, the remote copy) is derived from or synchronized
// with them.
//
// # Round-trip contract
//
// A save/load cycle must reproduce the state structurally: routine order is
// preserved, day-record contents are preserved. A missing blob is a valid
// startup state and reads as empty. A corrupt or unparsable blob also reads
// as empty: the read functions return the zero state together with the parse
// error so the caller can log it, but local operation always continues.
package schema
