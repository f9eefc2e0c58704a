package item

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinutesPerDay is the exclusive upper bound of a minute offset.
const MinutesPerDay = 24 * 60

// DefaultSnapMinutes is the drag/resize grid.
const DefaultSnapMinutes = 5

// ToMinutes converts "H:MM" or "HH:MM" to minutes since midnight.
func ToMinutes(hhmm string) (int, error) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrFormat, hhmm)
	}
	h, m := parts[0], parts[1]
	if len(h) < 1 || len(h) > 2 || len(m) != 2 || !digits(h) || !digits(m) {
		return 0, fmt.Errorf("%w: %q", ErrFormat, hhmm)
	}

	hour, _ := strconv.Atoi(h)
	minute, _ := strconv.Atoi(m)
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrFormat, hhmm)
	}
	return hour*60 + minute, nil
}

// ToClock converts minutes since midnight to zero-padded "HH:MM".
func ToClock(minutes int) (string, error) {
	if minutes < 0 || minutes >= MinutesPerDay {
		return "", fmt.Errorf("%w: %d", ErrRange, minutes)
	}
	return clock(minutes), nil
}

// Snap rounds minutes to the nearest multiple of grid. Ties round up.
func Snap(minutes, grid int) int {
	if grid <= 0 {
		return minutes
	}
	return int(math.Floor(float64(minutes)/float64(grid)+0.5)) * grid
}

func clock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Span is a half-open [Start, End) range of minutes within one day.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewSpan validates and returns a span.
func NewSpan(start, end int) (Span, error) {
	s := Span{Start: start, End: end}
	if err := s.Validate(); err != nil {
		return Span{}, err
	}
	return s, nil
}

// ParseSpan builds a span from two "HH:MM" strings.
func ParseSpan(start, end string) (Span, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return Span{}, fmt.Errorf("start time: %w", err)
	}
	e, err := ToMinutes(end)
	if err != nil {
		return Span{}, fmt.Errorf("end time: %w", err)
	}
	return NewSpan(s, e)
}

// Validate checks 0 <= Start < End < 1440.
func (s Span) Validate() error {
	if s.Start < 0 || s.Start >= MinutesPerDay || s.End < 0 || s.End >= MinutesPerDay {
		return fmt.Errorf("%w: %d-%d", ErrRange, s.Start, s.End)
	}
	if s.End <= s.Start {
		return ErrEndBeforeStart
	}
	return nil
}

// Overlaps reports whether two half-open spans intersect.
// Back-to-back spans (a.End == b.Start) do not overlap.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Duration returns the span length in minutes.
func (s Span) Duration() int {
	return s.End - s.Start
}

// StartClock returns the start as "HH:MM".
func (s Span) StartClock() string {
	return clock(s.Start)
}

// EndClock returns the end as "HH:MM".
func (s Span) EndClock() string {
	return clock(s.End)
}

func (s Span) String() string {
	return clock(s.Start) + "-" + clock(s.End)
}
