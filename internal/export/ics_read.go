package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/javiermolinar/dayline/internal/item"
)

// ErrEmptyCalendar is returned when a calendar has no usable events.
var ErrEmptyCalendar = errors.New("calendar has no events")

// Skipped is an event that could not become an item.
type Skipped struct {
	UID    string
	Reason string
}

// ReadCalendar turns the VEVENTs of an iCalendar stream into create
// proposals. Timed events keep their clock range in loc; an event that
// runs past midnight is cut at the end of its first day. All-day events
// become unscheduled items. Recurrence rules are not expanded: only the
// first occurrence is read.
func ReadCalendar(r io.Reader, loc *time.Location) ([]item.Proposal, []Skipped, error) {
	if loc == nil {
		loc = time.Local
	}
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing calendar: %w", err)
	}

	var (
		out     []item.Proposal
		skipped []Skipped
	)
	for _, ev := range cal.Events() {
		p, err := readEvent(ev, loc)
		if err != nil {
			skipped = append(skipped, Skipped{UID: ev.Id(), Reason: err.Error()})
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 && len(skipped) == 0 {
		return nil, nil, ErrEmptyCalendar
	}
	return out, skipped, nil
}

func readEvent(ev *ical.VEvent, loc *time.Location) (item.Proposal, error) {
	p := item.Proposal{Kind: item.KindEvent}

	if prop := ev.GetProperty(ical.ComponentPropertySummary); prop != nil {
		p.Title = strings.TrimSpace(prop.Value)
	}
	if p.Title == "" {
		return p, item.ErrEmptyTitle
	}
	if prop := ev.GetProperty(ical.ComponentPropertyCategories); prop != nil {
		for _, c := range strings.Split(prop.Value, ",") {
			if strings.EqualFold(strings.TrimSpace(c), string(item.KindTask)) {
				p.Kind = item.KindTask
			}
		}
	}

	if allDay(ev) {
		start, err := ev.GetAllDayStartAt()
		if err != nil {
			return p, fmt.Errorf("reading start: %w", err)
		}
		p.Date = midnight(start)
		return p, nil
	}

	start, err := ev.GetStartAt()
	if err != nil {
		return p, fmt.Errorf("reading start: %w", err)
	}
	end, err := ev.GetEndAt()
	if err != nil {
		return p, fmt.Errorf("reading end: %w", err)
	}
	start, end = start.In(loc), end.In(loc)
	p.Date = midnight(start)

	from := start.Hour()*60 + start.Minute()
	to := end.Hour()*60 + end.Minute()
	if !sameDate(start, end) {
		to = item.MinutesPerDay - 1
	}
	span, err := item.NewSpan(from, to)
	if err != nil {
		return p, err
	}
	p.Span = &span
	return p, nil
}

func allDay(ev *ical.VEvent) bool {
	prop := ev.GetProperty(ical.ComponentPropertyDtStart)
	if prop == nil {
		return false
	}
	if vs, ok := prop.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(prop.Value, "T")
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
