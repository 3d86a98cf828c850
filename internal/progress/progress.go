// Package progress derives completion percentages and the heatmap year grid
// from the routine collection and the ledger.
//
// Everything here is a pure function of its inputs: derivations are
// recomputed from scratch on every call and hold no state of their own.
package progress

import (
	"math"
	"time"

	"github.com/habitgrid/habitgrid/internal/dateutil"
	"github.com/habitgrid/habitgrid/internal/schema"
)

// DayProgress returns the completion percentage for t's calendar day as an
// integer in [0,100].
//
// Only routines in the current collection count; stale ledger entries are
// invisible. An empty collection yields 0. Rounding is round-half-up on the
// percentage itself, not on intermediate counts: 2 of 3 complete is 67.
func DayProgress(routines []schema.Routine, ledger schema.Ledger, t time.Time) int {
	if len(routines) == 0 {
		return 0
	}

	rec := ledger[dateutil.Key(t)]
	completed := 0
	for _, r := range routines {
		if rec[r.ID] {
			completed++
		}
	}

	return int(math.Round(100 * float64(completed) / float64(len(routines))))
}

// Level buckets a percentage into the 0-4 heatmap scale.
//
// 0 only for exactly 0; the remaining quartiles are closed on the upper end,
// so 25 is level 1 and 26 is level 2.
func Level(percent int) int {
	switch {
	case percent == 0:
		return 0
	case percent <= 25:
		return 1
	case percent <= 50:
		return 2
	case percent <= 75:
		return 3
	default:
		return 4
	}
}

// Streak returns the number of consecutive fully-completed days ending at
// today. A day counts when its progress is exactly 100, so an empty routine
// collection always yields 0.
func Streak(routines []schema.Routine, ledger schema.Ledger, today time.Time) int {
	if len(routines) == 0 {
		return 0
	}

	n := 0
	for d := dateutil.StartOfDay(today); DayProgress(routines, ledger, d) == 100; d = dateutil.AddDays(d, -1) {
		n++
	}
	return n
}
