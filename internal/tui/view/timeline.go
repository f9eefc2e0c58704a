package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// LabelWidth is the width of the time column, separator included.
const LabelWidth = 7

// Block is what one lane shows in one row.
type Block struct {
	Text  string
	Style lipgloss.Style
}

// TimelineRow is one row of the day grid.
type TimelineRow struct {
	Label      string // "09:00" on rows that start an hour
	LabelStyle lipgloss.Style
	// Lanes splits the row between overlapping items. Nil draws a free row.
	Lanes []*Block
}

// TimelineViewState holds everything needed to draw the grid.
type TimelineViewState struct {
	Width     int
	Height    int
	Rows      []TimelineRow
	FreeStyle lipgloss.Style
	Bg        lipgloss.Color
}

// RenderTimeline draws the rows top to bottom, one terminal line each.
func RenderTimeline(state TimelineViewState) string {
	if state.Width <= LabelWidth || state.Height <= 0 {
		return ""
	}
	laneArea := state.Width - LabelWidth

	lines := make([]string, 0, len(state.Rows))
	for _, row := range state.Rows {
		label := row.LabelStyle.Width(LabelWidth).Render(row.Label)
		lines = append(lines, label+renderLanes(row.Lanes, laneArea, state.FreeStyle))
	}
	return PlaceBox(state.Width, state.Height, lipgloss.Top, strings.Join(lines, "\n"), state.Bg)
}

func renderLanes(lanes []*Block, width int, free lipgloss.Style) string {
	if len(lanes) == 0 {
		return free.Width(width).Render("")
	}

	var b strings.Builder
	widths := LaneWidths(width, len(lanes))
	for i, lane := range lanes {
		w := widths[i]
		if lane == nil {
			b.WriteString(free.Width(w).Render(""))
			continue
		}
		// one column of gap between lanes
		b.WriteString(fitCell(lane.Text, w-1, lane.Style))
		b.WriteString(free.Render(" "))
	}
	return b.String()
}

// LaneWidths splits width between n lanes, giving the remainder to the last.
func LaneWidths(width, n int) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, n)
	each := width / n
	for i := range out {
		out[i] = each
	}
	out[n-1] += width - each*n
	return out
}
