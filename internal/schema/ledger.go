package schema

// DayRecord maps routine ids to completion for one calendar day.
// An id absent from the record means incomplete.
type DayRecord map[string]bool

// Ledger maps canonical YYYY-MM-DD date keys to day records.
// A key absent from the ledger means a day with everything incomplete.
type Ledger map[string]DayRecord

// Clone returns a deep copy of the record.
func (d DayRecord) Clone() DayRecord {
	out := make(DayRecord, len(d))
	for id, done := range d {
		out[id] = done
	}
	return out
}

// Clone returns a deep copy of the ledger.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for key, rec := range l {
		out[key] = rec.Clone()
	}
	return out
}

// Completed counts how many of the given routine ids are marked done in the
// record. Ids not present in the record count as incomplete; entries in the
// record that are not in ids are ignored (stale ids never surface).
func (d DayRecord) Completed(ids []string) int {
	n := 0
	for _, id := range ids {
		if d[id] {
			n++
		}
	}
	return n
}

// Settings holds the scalar configuration persisted alongside the ledger.
// An empty Endpoint means sync is not configured (fully functional offline).
type Settings struct {
	Endpoint string `json:"endpoint,omitempty"`
}
