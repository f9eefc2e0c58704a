package item

import (
	"slices"
	"time"

	"github.com/javiermolinar/dayline/internal/dateutil"
)

// Day holds all items for a single calendar day.
type Day struct {
	Date  time.Time
	items []Item // scheduled by start, then unscheduled, input order kept on ties
}

// NewDay creates a Day for the given date from a slice of items.
func NewDay(date time.Time, items []Item) *Day {
	d := &Day{
		Date:  dateutil.TruncateToDay(date),
		items: slices.Clone(items),
	}
	slices.SortStableFunc(d.items, compareStart)
	return d
}

// Items returns a copy of the item slice.
func (d *Day) Items() []Item {
	if d == nil {
		return nil
	}
	return slices.Clone(d.items)
}

// Scheduled returns the items that have a span, ordered by start.
func (d *Day) Scheduled() []Item {
	if d == nil {
		return nil
	}
	var result []Item
	for _, it := range d.items {
		if it.Scheduled() {
			result = append(result, it)
		}
	}
	return result
}

// Unscheduled returns the items without a span.
func (d *Day) Unscheduled() []Item {
	if d == nil {
		return nil
	}
	var result []Item
	for _, it := range d.items {
		if !it.Scheduled() {
			result = append(result, it)
		}
	}
	return result
}

// Find returns the item with the given ID.
func (d *Day) Find(id string) (Item, bool) {
	if d == nil {
		return Item{}, false
	}
	for _, it := range d.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Conflicts returns the day's items that overlap span, ignoring excludeID.
func (d *Day) Conflicts(span Span, excludeID string) []Item {
	if d == nil {
		return nil
	}
	return FindConflicts(span, d.items, excludeID)
}

// Len returns the number of items in the day.
func (d *Day) Len() int {
	if d == nil {
		return 0
	}
	return len(d.items)
}

// BusyMinutes returns the minutes covered by at least one scheduled item.
func (d *Day) BusyMinutes() int {
	var busy, coveredTo int
	for _, it := range d.Scheduled() {
		start := max(it.Span.Start, coveredTo)
		if it.Span.End > start {
			busy += it.Span.End - start
		}
		coveredTo = max(coveredTo, it.Span.End)
	}
	return busy
}

func compareStart(a, b Item) int {
	switch {
	case a.Span == nil && b.Span == nil:
		return 0
	case a.Span == nil:
		return 1
	case b.Span == nil:
		return -1
	default:
		return a.Span.Start - b.Span.Start
	}
}
