package quickadd

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/javiermolinar/dayline/internal/item"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOK    bool
		wantStart int
		wantEnd   int
	}{
		{name: "bare hours", input: "9-10", wantOK: true, wantStart: 540, wantEnd: 600},
		{name: "dotted minutes", input: "9.30-10.30", wantOK: true, wantStart: 570, wantEnd: 630},
		{name: "colon minutes", input: "9:30-10:30", wantOK: true, wantStart: 570, wantEnd: 630},
		{name: "spaces around hyphen", input: "14 - 15:15 review", wantOK: true, wantStart: 840, wantEnd: 915},
		{name: "embedded in text", input: "team sync 9-10 room B", wantOK: true, wantStart: 540, wantEnd: 600},
		{name: "mixed separators", input: "9.15-10:45", wantOK: true, wantStart: 555, wantEnd: 645},
		{name: "inverted range still parses", input: "22-1", wantOK: true, wantStart: 1320, wantEnd: 60},
		{name: "no numbers", input: "no numbers here", wantOK: false},
		{name: "out of range hours", input: "25-26", wantOK: false},
		{name: "out of range minutes", input: "9:75-10", wantOK: false},
		{name: "single time", input: "9 gym", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRange(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseRange(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Start != tt.wantStart || got.End != tt.wantEnd {
				t.Errorf("ParseRange(%q) = {%d %d}, want {%d %d}", tt.input, got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestNormalizeLeadingTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "morning hour", input: "9 gym", want: "9am gym"},
		{name: "five is morning", input: "5 run", want: "5am run"},
		{name: "eleven is morning", input: "11 standup", want: "11am standup"},
		{name: "noon", input: "12 lunch", want: "12pm lunch"},
		{name: "afternoon hour", input: "3 call mom", want: "3pm call mom"},
		{name: "early hour is pm", input: "4 pickup", want: "4pm pickup"},
		{name: "one is pm", input: "1 lunch", want: "1pm lunch"},
		{name: "late 24 hour clock untouched", input: "23 deploy", want: "23 deploy"},
		{name: "with minutes", input: "9:30 standup", want: "9:30am standup"},
		{name: "dotted minutes", input: "7.45 train", want: "7.45am train"},
		{name: "hour alone", input: "9", want: "9am"},
		{name: "already marked", input: "9am gym", want: "9am gym"},
		{name: "already marked with space", input: "9 PM dinner", want: "9 PM dinner"},
		{name: "range untouched", input: "9-10 sync", want: "9-10 sync"},
		{name: "spaced range untouched", input: "9 - 10 sync", want: "9 - 10 sync"},
		{name: "24 hour clock untouched", input: "14 review", want: "14 review"},
		{name: "zero untouched", input: "0 backup", want: "0 backup"},
		{name: "ordinal untouched", input: "9th floor", want: "9th floor"},
		{name: "no leading time", input: "gym at 9", want: "gym at 9"},
		{name: "word starting with am", input: "9 amsterdam call", want: "9am amsterdam call"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeLeadingTime(tt.input); got != tt.want {
				t.Errorf("NormalizeLeadingTime(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	friday := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		input     string
		wantTitle string
		wantSpan  *item.Span
		wantDate  time.Time
	}{
		{
			name:      "leading range",
			input:     "9-10 team sync",
			wantTitle: "team sync",
			wantSpan:  &item.Span{Start: 540, End: 600},
		},
		{
			name:      "trailing range",
			input:     "  dentist   14:30-15:15 ",
			wantTitle: "dentist",
			wantSpan:  &item.Span{Start: 870, End: 915},
		},
		{
			name:      "range only keeps text as title",
			input:     "9-10",
			wantTitle: "9-10",
			wantSpan:  &item.Span{Start: 540, End: 600},
		},
		{
			name:      "no range is unscheduled",
			input:     "buy milk",
			wantTitle: "buy milk",
		},
		{
			name:      "inverted range degrades to unscheduled",
			input:     "22-1 deploy",
			wantTitle: "22-1 deploy",
		},
		{
			name:      "out of range degrades to unscheduled",
			input:     "25-26 party",
			wantTitle: "25-26 party",
		},
		{
			name:      "bare leading hour is annotated",
			input:     "9 gym",
			wantTitle: "9am gym",
		},
		{
			name:      "tomorrow",
			input:     "tomorrow 9-10 gym",
			wantTitle: "gym",
			wantSpan:  &item.Span{Start: 540, End: 600},
			wantDate:  time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "next weekday",
			input:     "review 9.30-10.30 next monday",
			wantTitle: "review",
			wantSpan:  &item.Span{Start: 570, End: 630},
			wantDate:  time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "next without weekday stays in title",
			input:     "plan next steps",
			wantTitle: "plan next steps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input, friday)
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			switch {
			case tt.wantSpan == nil && got.Span != nil:
				t.Errorf("Span = %v, want nil", got.Span)
			case tt.wantSpan != nil && (got.Span == nil || *got.Span != *tt.wantSpan):
				t.Errorf("Span = %v, want %v", got.Span, tt.wantSpan)
			}
			if !got.Date.Equal(tt.wantDate) {
				t.Errorf("Date = %v, want %v", got.Date, tt.wantDate)
			}
		})
	}
}

func TestParseRangeFindsFormattedSpans(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.IntRange(0, item.MinutesPerDay-2).Draw(t, "start")
		end := rapid.IntRange(start+1, item.MinutesPerDay-1).Draw(t, "end")
		sep := rapid.SampledFrom([]string{":", "."}).Draw(t, "sep")
		title := rapid.StringMatching(`[a-z]{1,12}( [a-z]{1,8})?`).Filter(func(s string) bool {
			for _, w := range strings.Fields(s) {
				if w == "today" || w == "tomorrow" || w == "next" {
					return false
				}
			}
			return true
		}).Draw(t, "title")

		text := fmtClock(start, sep) + "-" + fmtClock(end, sep) + " " + title
		got, ok := ParseRange(text)
		if !ok {
			t.Fatalf("ParseRange(%q) found nothing", text)
		}
		if got.Start != start || got.End != end {
			t.Fatalf("ParseRange(%q) = %v, want {%d %d}", text, got, start, end)
		}

		entry := Parse(text, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
		if entry.Title != title {
			t.Fatalf("Parse(%q).Title = %q, want %q", text, entry.Title, title)
		}
	})
}

func TestParseNeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		entry := Parse(text, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
		if entry.Span != nil {
			if err := entry.Span.Validate(); err != nil {
				t.Fatalf("Parse(%q) produced invalid span %v: %v", text, entry.Span, err)
			}
		}
	})
}

func fmtClock(m int, sep string) string {
	return fmt.Sprintf("%d%s%02d", m/60, sep, m%60)
}
