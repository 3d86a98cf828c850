// Package ui renders core output for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/habitgrid/habitgrid/internal/app"
	"github.com/habitgrid/habitgrid/internal/progress"
)

// levelStyles maps heatmap levels 0-4 to their cell styles, darkest to
// brightest green in the GitHub contribution palette.
var levelStyles = [5]lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("22")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
}

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	cellGlyph   = "■"
	futureGlyph = "·"
)

// RenderAccent highlights a short fragment.
func RenderAccent(s string) string {
	return accentStyle.Render(s)
}

// RenderMuted dims a short fragment.
func RenderMuted(s string) string {
	return mutedStyle.Render(s)
}

// RenderError colors a failure message.
func RenderError(s string) string {
	return errorStyle.Render(s)
}

// RenderGrid draws the heatmap as one row per weekday (Sunday first) and one
// column per week, topped by the month label row.
func RenderGrid(cells []progress.Cell, months []progress.MonthSpan) string {
	if len(cells) == 0 {
		return mutedStyle.Render("no data")
	}

	weeks := len(cells) / 7
	var b strings.Builder

	// Month header: one label per span, padded to the span's week width.
	var header strings.Builder
	for _, m := range months {
		width := m.Weeks * 2 // each week column is a glyph plus a space
		label := m.Label
		if len(label) > width {
			label = label[:width]
		}
		header.WriteString(label)
		header.WriteString(strings.Repeat(" ", width-len(label)))
	}
	b.WriteString(mutedStyle.Render(strings.TrimRight(header.String(), " ")))
	b.WriteString("\n")

	for weekday := 0; weekday < 7; weekday++ {
		for week := 0; week < weeks; week++ {
			c := cells[week*7+weekday]
			if c.Future {
				b.WriteString(mutedStyle.Render(futureGlyph))
			} else {
				b.WriteString(levelStyles[c.Level].Render(cellGlyph))
			}
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderChecklist draws the viewed day's routines with completion marks.
func RenderChecklist(label string, percent int, items []app.ChecklistItem) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s\n", accentStyle.Render(label), progressBadge(percent)))

	if len(items) == 0 {
		b.WriteString(mutedStyle.Render("  no routines yet, add one with `habitgrid add`"))
		b.WriteString("\n")
		return b.String()
	}

	for _, item := range items {
		mark := mutedStyle.Render("[ ]")
		if item.Done {
			mark = doneStyle.Render("[x]")
		}
		b.WriteString(fmt.Sprintf("  %s %s  %s\n", mark, item.Routine.Name, mutedStyle.Render(item.Routine.ID)))
	}

	return b.String()
}

// progressBadge colors a percentage with its heatmap level.
func progressBadge(percent int) string {
	return levelStyles[progress.Level(percent)].Render(fmt.Sprintf("%d%%", percent))
}
