package progress

import (
	"time"

	"github.com/habitgrid/habitgrid/internal/dateutil"
	"github.com/habitgrid/habitgrid/internal/schema"
)

// Cell is one day of the heatmap grid.
type Cell struct {
	// Key is the canonical date key of the cell's day.
	Key string `json:"key"`
	// Label is the display form of the day, e.g. "2024.3.7 (Thu)".
	Label string `json:"label"`
	// Percent is the day's completion percentage.
	Percent int `json:"percent"`
	// Level is the heatmap bucket; forced to 0 for future cells no matter
	// what the ledger holds.
	Level int `json:"level"`
	// Future marks cells strictly after today, padded in to square off the
	// final week.
	Future bool `json:"future"`
}

// MonthSpan labels a run of consecutive grid weeks that start in the same
// calendar month. Weeks is the span's width in grid columns.
type MonthSpan struct {
	Label string `json:"label"`
	Weeks int    `json:"weeks"`
}

// BuildYearGrid produces one cell per calendar day from anchorStart (rounded
// backward to the preceding Sunday) through the Saturday of the week
// containing today.
//
// The final week is padded forward past today with future-marked cells, so
// the result length is always a multiple of 7. The grid is recomputed from
// scratch on every call.
func BuildYearGrid(routines []schema.Routine, ledger schema.Ledger, anchorStart, today time.Time) []Cell {
	start := dateutil.StartOfWeek(anchorStart)
	end := dateutil.AddDays(dateutil.StartOfWeek(today), 6)
	todayKey := dateutil.Key(today)

	var cells []Cell
	for d := start; !d.After(end); d = dateutil.AddDays(d, 1) {
		key := dateutil.Key(d)
		future := key > todayKey
		percent := DayProgress(routines, ledger, d)

		level := Level(percent)
		if future {
			level = 0
		}

		cells = append(cells, Cell{
			Key:     key,
			Label:   dateutil.Label(d),
			Percent: percent,
			Level:   level,
			Future:  future,
		})
	}

	return cells
}

// MonthSpans derives the month labels for a grid produced by BuildYearGrid.
//
// Each week is attributed to the calendar month of its first day; runs of
// consecutive weeks in the same month collapse into one span whose width is
// the week count.
func MonthSpans(cells []Cell) []MonthSpan {
	var spans []MonthSpan
	for i := 0; i+6 < len(cells); i += 7 {
		label := monthLabel(cells[i].Key)
		if n := len(spans); n > 0 && spans[n-1].Label == label {
			spans[n-1].Weeks++
			continue
		}
		spans = append(spans, MonthSpan{Label: label, Weeks: 1})
	}
	return spans
}

// monthLabel extracts the month abbreviation from a canonical date key.
func monthLabel(key string) string {
	t, err := time.Parse("2006-01-02", key)
	if err != nil {
		return ""
	}
	return t.Month().String()[:3]
}
