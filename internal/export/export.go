// Package export renders planned days as an iCalendar feed or a plain text
// agenda.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/item"
)

// maxDays bounds a single export.
const maxDays = 62

// ErrTooManyDays is returned for ranges longer than maxDays.
var ErrTooManyDays = fmt.Errorf("export range is limited to %d days", maxDays)

// Loader returns the items of one day.
type Loader interface {
	Items(ctx context.Context, day time.Time) ([]item.Item, error)
}

// Day is one exported day.
type Day struct {
	Date  time.Time
	Items []item.Item
}

// BusyMinutes returns the minutes covered by at least one item.
func (d Day) BusyMinutes() int {
	return item.NewDay(d.Date, d.Items).BusyMinutes()
}

// Collect loads every day of r in order.
func Collect(ctx context.Context, loader Loader, r dateutil.DateRange) ([]Day, error) {
	start := dateutil.TruncateToDay(r.Start)
	end := dateutil.TruncateToDay(r.End)
	if end.Before(start) {
		return nil, dateutil.ErrEndDateBeforeStart
	}
	if int(end.Sub(start).Hours()/24) >= maxDays {
		return nil, ErrTooManyDays
	}

	var days []Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		items, err := loader.Items(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", dateutil.FormatDate(d), err)
		}
		days = append(days, Day{Date: d, Items: items})
	}
	return days, nil
}

// Week returns the Monday to Sunday range containing t.
func Week(t time.Time) dateutil.DateRange {
	monday, sunday := dateutil.WeekRange(t)
	return dateutil.DateRange{Start: monday, End: sunday}
}
