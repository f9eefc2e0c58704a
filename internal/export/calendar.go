package export

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/recurrence"
)

const productID = "-//dayline//planner//EN"

// CalendarOptions tune the iCalendar output.
type CalendarOptions struct {
	// Location interprets item times. Defaults to time.Local.
	Location *time.Location
	// Stamp is written as DTSTAMP. Defaults to time.Now.
	Stamp time.Time
}

// Calendar renders days as a VCALENDAR. Scheduled items become timed
// events, unscheduled ones all-day events. Each occurrence of a recurring
// task is exported on its own so the feed matches the timeline exactly.
func Calendar(days []Day, opts CalendarOptions) string {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Stamp.IsZero() {
		opts.Stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, d := range days {
		for _, it := range d.Items {
			addEvent(cal, d.Date, it, opts)
		}
	}
	return cal.Serialize()
}

func addEvent(cal *ical.Calendar, day time.Time, it item.Item, opts CalendarOptions) {
	ev := cal.AddEvent(uid(day, it))
	ev.SetDtStampTime(opts.Stamp.UTC())
	ev.SetSummary(it.Title)
	ev.AddProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(it.Kind)))
	if it.IsRecurring() {
		ev.SetDescription(recurrence.Describe(it.Recurrence))
	}

	if it.Span == nil {
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		return
	}
	ev.SetStartAt(at(day, it.Span.Start, opts.Location))
	ev.SetEndAt(at(day, it.Span.End, opts.Location))
}

// uid is stable across exports. Recurring occurrences share an item ID, so
// the date is part of it.
func uid(day time.Time, it item.Item) string {
	return it.ID + "-" + dateutil.FormatDate(day) + "@dayline"
}

func at(day time.Time, minute int, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, minute/60, minute%60, 0, 0, loc)
}
