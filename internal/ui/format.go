package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/layout"
	"github.com/javiermolinar/dayline/internal/recurrence"
)

// PrintOpts configures item printing behavior.
type PrintOpts struct {
	Verbose       bool // Show full titles
	MaxTitleWidth int  // Maximum title width (0 = auto)
}

// CalcMaxTitleWidth calculates the maximum title width based on options.
func (o PrintOpts) CalcMaxTitleWidth(defaultWidth, lanes int) int {
	if o.MaxTitleWidth > 0 {
		return o.MaxTitleWidth
	}
	if !o.Verbose {
		return defaultWidth
	}
	// "  HH:MM-HH:MM  [E]  " plus lanes and the duration suffix
	overhead := 20 + lanes + 2 + 8
	if available := termWidth() - overhead; available > defaultWidth {
		return available
	}
	return defaultWidth
}

// Stats summarizes one day.
type Stats struct {
	Items       int
	Unscheduled int
	BusyMinutes int
	Conflicting int
}

// DayStats computes the summary of items.
func DayStats(date time.Time, items []item.Item) Stats {
	d := item.NewDay(date, items)
	return Stats{
		Items:       d.Len(),
		Unscheduled: len(d.Unscheduled()),
		BusyMinutes: d.BusyMinutes(),
		Conflicting: len(item.ConflictIndex(items)),
	}
}

// PrintDay writes the timeline of one day. Overlapping items show which
// layout column they occupy, so side-by-side items read as lanes.
func PrintDay(w io.Writer, date time.Time, items []item.Item, geo layout.Geometry, opts PrintOpts) {
	fmt.Fprintf(w, "=== %s ===\n\n", formatHeader(date.Format("Monday, January 2, 2006")))

	if len(items) == 0 {
		fmt.Fprintln(w, "Nothing planned.")
		return
	}

	slots := layout.Compute(items, geo)
	lanes := 1
	for _, s := range slots {
		lanes = max(lanes, s.Columns)
	}
	width := opts.CalcMaxTitleWidth(40, lanes)
	index := item.ConflictIndex(items)

	for _, s := range slots {
		printRow(w, s.Item, laneMarker(s, lanes), width, index[s.Item.ID])
	}

	unscheduled := item.NewDay(date, items).Unscheduled()
	if len(unscheduled) > 0 {
		if len(slots) > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, formatMuted("Unscheduled"))
		for _, it := range unscheduled {
			printRow(w, it, strings.Repeat(" ", lanes), width, nil)
		}
	}

	fmt.Fprintln(w)
	PrintStats(w, DayStats(date, items))
}

func printRow(w io.Writer, it item.Item, lane string, width int, conflicts []item.Item) {
	when := "--:--      "
	duration := ""
	if it.Span != nil {
		when = it.Span.String()
		duration = formatMuted(FormatDuration(it.Span.Duration()))
	}

	title := truncate(it.Title, width)
	if it.IsRecurring() {
		title = truncate(it.Title+" ↻", width)
	}

	line := fmt.Sprintf("  %s  %s  %s  %-*s  %s", when, kindBadge(it.Kind), lane, width, title, duration)
	line = strings.TrimRight(line, " ")
	if len(conflicts) > 0 {
		line += "  " + formatConflict("! conflicts with "+item.DescribeConflicts(conflicts))
	}
	fmt.Fprintln(w, line)
	fmt.Fprint(w, idLine(it))
}

// idLine prints the ID under the row so it can be passed to other commands.
func idLine(it item.Item) string {
	extra := ""
	if it.IsRecurring() {
		extra = ", " + recurrence.Describe(it.Recurrence)
	}
	return formatMuted(fmt.Sprintf("               id %s%s", it.ID, extra)) + "\n"
}

// laneMarker renders the slot's column among lanes, e.g. "█·" for the
// first of two columns.
func laneMarker(s layout.Slot, lanes int) string {
	var b strings.Builder
	for i := range lanes {
		switch {
		case i == s.Column:
			b.WriteString("█")
		case i < s.Columns:
			b.WriteString("·")
		default:
			b.WriteString(" ")
		}
	}
	return b.String()
}

func kindBadge(k item.Kind) string {
	if k == item.KindTask {
		return colorTask.Sprint("[T]")
	}
	return colorEvent.Sprint("[E]")
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// PrintStats prints the stats summary line.
func PrintStats(w io.Writer, stats Stats) {
	fmt.Fprintf(w, "Busy: %s | Items: %d", FormatDuration(stats.BusyMinutes), stats.Items)
	if stats.Unscheduled > 0 {
		fmt.Fprintf(w, " (%d unscheduled)", stats.Unscheduled)
	}
	if stats.Conflicting > 0 {
		fmt.Fprintf(w, " | %s", formatConflict(fmt.Sprintf("%d overlapping", stats.Conflicting)))
	}
	fmt.Fprintln(w)
}

// FormatDuration formats minutes as a human-readable duration.
func FormatDuration(minutes int) string {
	if minutes == 0 {
		return "0m"
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}

// printConflicts lists the items a proposal collided with.
func printConflicts(w io.Writer, conflicts []item.Item, authoritative bool) {
	source := "already on the timeline"
	if authoritative {
		source = "on the server"
	}
	fmt.Fprintf(w, "%s\n", formatConflict(fmt.Sprintf("Overlaps %d item(s) %s:", len(conflicts), source)))
	for _, c := range conflicts {
		fmt.Fprintf(w, "  %s  %s\n", c.Span, c.Title)
	}
}
