// Package layout places a day's items into side-by-side columns.
package layout

import (
	"slices"

	"github.com/javiermolinar/dayline/internal/item"
)

const (
	// DefaultPixelsPerHour is the vertical scale of the timeline.
	DefaultPixelsPerHour = 100
	// DefaultMinHeight keeps very short items visible and tappable.
	DefaultMinHeight = 40
)

// Geometry holds the vertical scale used to position slots.
type Geometry struct {
	PixelsPerHour float64
	MinHeight     float64
	// Origin is the minute drawn at offset 0 (the top of the viewport).
	Origin int
}

// DefaultGeometry returns the reference scale: 100px per hour, 40px floor.
func DefaultGeometry() Geometry {
	return Geometry{PixelsPerHour: DefaultPixelsPerHour, MinHeight: DefaultMinHeight}
}

// Top converts a minute offset to a vertical offset.
func (g Geometry) Top(minute int) float64 {
	return float64(minute-g.Origin) * g.PixelsPerHour / 60
}

// Height converts a duration to a height, applying the floor.
func (g Geometry) Height(minutes int) float64 {
	return max(float64(minutes)*g.PixelsPerHour/60, g.MinHeight)
}

// Slot is the derived position of one item. Slots are never stored.
type Slot struct {
	Item    item.Item
	Column  int
	Columns int
	Top     float64
	Height  float64
	Left    float64 // percent of the lane width
	Width   float64 // percent of the lane width
}

// Compute lays out the scheduled items of one day. Unscheduled items are
// skipped. Slots are returned in start order, ties in input order.
// Spans are assumed valid (End > Start).
func Compute(items []item.Item, geo Geometry) []Slot {
	var slots []Slot
	for _, cluster := range Clusters(items) {
		slots = append(slots, place(cluster, geo)...)
	}
	return slots
}

// Clusters groups scheduled items connected by direct or transitive overlap.
// An item joins the current cluster when it starts before the cluster's
// running maximum end.
func Clusters(items []item.Item) [][]item.Item {
	sorted := make([]item.Item, 0, len(items))
	for _, it := range items {
		if it.Span != nil {
			sorted = append(sorted, it)
		}
	}
	slices.SortStableFunc(sorted, func(a, b item.Item) int {
		return a.Span.Start - b.Span.Start
	})

	var (
		clusters [][]item.Item
		current  []item.Item
		maxEnd   int
	)
	for _, it := range sorted {
		if len(current) > 0 && it.Span.Start >= maxEnd {
			clusters = append(clusters, current)
			current = nil
		}
		if len(current) == 0 {
			maxEnd = it.Span.End
		}
		current = append(current, it)
		maxEnd = max(maxEnd, it.Span.End)
	}
	if len(current) > 0 {
		clusters = append(clusters, current)
	}
	return clusters
}

// place assigns columns first-fit: the lowest column whose last item ends
// at or before the item's start, or a new column.
func place(cluster []item.Item, geo Geometry) []Slot {
	var columnEnds []int
	columns := make([]int, len(cluster))

	for i, it := range cluster {
		col := -1
		for c, end := range columnEnds {
			if end <= it.Span.Start {
				col = c
				break
			}
		}
		if col < 0 {
			col = len(columnEnds)
			columnEnds = append(columnEnds, 0)
		}
		columnEnds[col] = it.Span.End
		columns[i] = col
	}

	count := len(columnEnds)
	width := 100 / float64(count)
	slots := make([]Slot, len(cluster))
	for i, it := range cluster {
		slots[i] = Slot{
			Item:    it,
			Column:  columns[i],
			Columns: count,
			Top:     geo.Top(it.Span.Start),
			Height:  geo.Height(it.Span.Duration()),
			Left:    float64(columns[i]) * width,
			Width:   width,
		}
	}
	return slots
}

// Find returns the slot for the item with the given ID.
func Find(slots []Slot, id string) (Slot, bool) {
	for _, s := range slots {
		if s.Item.ID == id {
			return s, true
		}
	}
	return Slot{}, false
}
