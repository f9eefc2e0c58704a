package export

import (
	"fmt"
	"strings"

	"github.com/javiermolinar/dayline/internal/item"
)

// Agenda renders days as plain text, one line per item, with overlapping
// items flagged. Days without items are listed as free.
func Agenda(days []Day) string {
	var b strings.Builder
	total := 0
	for i, d := range days {
		if i > 0 {
			b.WriteString("\n")
		}
		busy := d.BusyMinutes()
		total += busy
		fmt.Fprintf(&b, "%s  (%s busy)\n", d.Date.Format("Mon Jan 2, 2006"), FormatMinutes(busy))

		if len(d.Items) == 0 {
			b.WriteString("  free\n")
			continue
		}
		ordered := item.NewDay(d.Date, d.Items).Items()
		index := item.ConflictIndex(ordered)
		for _, it := range ordered {
			b.WriteString(agendaLine(it, index[it.ID]))
		}
	}
	if len(days) > 1 {
		fmt.Fprintf(&b, "\nTotal: %s busy\n", FormatMinutes(total))
	}
	return b.String()
}

func agendaLine(it item.Item, conflicts []item.Item) string {
	when := "--:--      "
	if it.Span != nil {
		when = it.Span.String()
	}
	line := fmt.Sprintf("  %s  %-5s  %s", when, it.Kind, it.Title)
	if it.IsRecurring() {
		line += " (repeats)"
	}
	if len(conflicts) > 0 {
		line += "  ! conflicts with " + item.DescribeConflicts(conflicts)
	}
	return line + "\n"
}

// FormatMinutes renders a duration as "2h30", "45m" or "3h".
func FormatMinutes(m int) string {
	h, rest := m/60, m%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", rest)
	case rest == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%02d", h, rest)
	}
}
