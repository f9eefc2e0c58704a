// Package recurrence handles weekly repeating tasks, stored as RRULE strings.
package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrNoDays is returned when a weekly rule names no weekdays.
var ErrNoDays = errors.New("recurrence needs at least one weekday")

var dayCodes = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseDays reads a comma separated weekday list such as "mon,wed,fri".
// "weekdays" and "daily" are accepted as shorthands.
func ParseDays(s string) ([]time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return nil, ErrNoDays
	case "weekdays":
		return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}, nil
	case "daily", "everyday":
		return []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}, nil
	}

	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, ok := dayNames[part]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		if !slices.Contains(days, d) {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return nil, ErrNoDays
	}
	slices.Sort(days)
	return days, nil
}

// Weekly builds the rule for a task repeating on the given weekdays.
func Weekly(days []time.Weekday) (string, error) {
	if len(days) == 0 {
		return "", ErrNoDays
	}
	sorted := slices.Clone(days)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	codes := make([]string, len(sorted))
	for i, d := range sorted {
		codes[i] = dayCodes[d]
	}
	rule := "FREQ=WEEKLY;BYDAY=" + strings.Join(codes, ",")
	if err := Validate(rule); err != nil {
		return "", err
	}
	return rule, nil
}

// Validate reports whether rule is a usable recurrence.
func Validate(rule string) error {
	if _, err := rrule.StrToRRule(rule); err != nil {
		return fmt.Errorf("invalid recurrence %q: %w", rule, err)
	}
	return nil
}

// OccursOn reports whether a rule anchored on anchor has an occurrence on
// day. Nothing occurs before the anchor.
func OccursOn(rule string, anchor, day time.Time) (bool, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return false, fmt.Errorf("invalid recurrence %q: %w", rule, err)
	}

	start := midnight(anchor)
	from := midnight(day)
	if from.Before(start) {
		return false, nil
	}
	r.DTStart(start)
	return len(r.Between(from, from.Add(24*time.Hour-time.Nanosecond), true)) > 0, nil
}

// Days returns the weekdays a rule repeats on.
func Days(rule string) ([]time.Weekday, error) {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence %q: %w", rule, err)
	}
	days := make([]time.Weekday, 0, len(opt.Byweekday))
	for _, wd := range opt.Byweekday {
		// rrule counts from Monday
		days = append(days, time.Weekday((wd.Day()+1)%7))
	}
	slices.Sort(days)
	return days, nil
}

// Describe renders a rule for humans, e.g. "every Mon, Wed".
func Describe(rule string) string {
	days, err := Days(rule)
	if err != nil || len(days) == 0 {
		return rule
	}
	if len(days) == 7 {
		return "every day"
	}
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()[:3]
	}
	return "every " + strings.Join(names, ", ")
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
