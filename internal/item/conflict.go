package item

import (
	"slices"
	"strings"
)

// FindConflicts returns the scheduled items whose spans intersect candidate,
// ordered by start minute. The item with excludeID is skipped so an item
// never conflicts with its own previous position. Unscheduled items never conflict.
func FindConflicts(candidate Span, items []Item, excludeID string) []Item {
	var conflicts []Item
	for _, it := range items {
		if it.Span == nil {
			continue
		}
		if excludeID != "" && it.ID == excludeID {
			continue
		}
		if candidate.Overlaps(*it.Span) {
			conflicts = append(conflicts, it)
		}
	}
	slices.SortStableFunc(conflicts, func(a, b Item) int {
		return a.Span.Start - b.Span.Start
	})
	return conflicts
}

// ConflictIndex maps each scheduled item's ID to the items it overlaps.
// Items without conflicts are absent from the map.
func ConflictIndex(items []Item) map[string][]Item {
	index := make(map[string][]Item)
	for _, it := range items {
		if it.Span == nil {
			continue
		}
		if conflicts := FindConflicts(*it.Span, items, it.ID); len(conflicts) > 0 {
			index[it.ID] = conflicts
		}
	}
	return index
}

// DescribeConflicts renders conflicts as "09:00-10:00 Standup, 09:30-10:30 Review".
func DescribeConflicts(conflicts []Item) string {
	parts := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ", ")
}
