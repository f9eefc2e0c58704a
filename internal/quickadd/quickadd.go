// Package quickadd extracts coarse time ranges from free-text entries.
package quickadd

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/item"
)

// Matches: 9-10 | 9.30-10.30 | 9:30-10:30
var rangePattern = regexp.MustCompile(`(\d{1,2})(?:[.:](\d{2}))?\s*-\s*(\d{1,2})(?:[.:](\d{2}))?`)

var leadingTimePattern = regexp.MustCompile(`^(\d{1,2})(?:[.:](\d{2}))?`)

// Entry is the result of parsing one quick-add line.
type Entry struct {
	Title string
	Span  *item.Span // nil when no usable range was found
	Date  time.Time  // zero when the text names no day
}

// ParseRange returns the first time range in text. The returned span is not
// ordered-checked; hours above 23 or minutes above 59 yield false.
func ParseRange(text string) (item.Span, bool) {
	span, _, ok := findRange(text)
	return span, ok
}

func findRange(text string) (item.Span, []int, bool) {
	m := rangePattern.FindStringSubmatchIndex(text)
	if m == nil {
		return item.Span{}, nil, false
	}

	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return text[m[2*i]:m[2*i+1]]
	}

	sh, sm, ok1 := clockParts(group(1), group(2))
	eh, em, ok2 := clockParts(group(3), group(4))
	if !ok1 || !ok2 {
		return item.Span{}, nil, false
	}
	return item.Span{Start: sh*60 + sm, End: eh*60 + em}, m[:2], true
}

func clockParts(hour, minute string) (int, int, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil || h > 23 {
		return 0, 0, false
	}
	m := 0
	if minute != "" {
		m, err = strconv.Atoi(minute)
		if err != nil || m > 59 {
			return 0, 0, false
		}
	}
	return h, m, true
}

// NormalizeLeadingTime appends an am/pm marker to a bare leading hour from
// 1 to 12: 12 is pm, 5 through 11 are am, 1 through 4 are pm. Hours 0 and
// 13-23 already read as 24-hour clock times and get no marker; ranges and
// already-marked times are left alone too.
func NormalizeLeadingTime(text string) string {
	m := leadingTimePattern.FindStringSubmatchIndex(text)
	if m == nil {
		return text
	}

	hour, _ := strconv.Atoi(text[m[2]:m[3]])
	if hour < 1 || hour > 12 {
		return text
	}
	if m[4] >= 0 {
		if minute, _ := strconv.Atoi(text[m[4]:m[5]]); minute > 59 {
			return text
		}
	}

	rest := text[m[1]:]
	if rest != "" && !unicode.IsSpace(rune(rest[0])) {
		return text
	}
	trimmed := strings.ToLower(strings.TrimLeftFunc(rest, unicode.IsSpace))
	if hasMarker(trimmed) || strings.HasPrefix(trimmed, "-") {
		return text
	}

	return text[:m[1]] + marker(hour) + rest
}

func marker(hour int) string {
	switch {
	case hour == 12:
		return "pm"
	case hour >= 5 && hour <= 11:
		return "am"
	default:
		return "pm"
	}
}

func hasMarker(s string) bool {
	for _, p := range []string{"am", "pm", "a.m", "p.m"} {
		if !strings.HasPrefix(s, p) {
			continue
		}
		if len(s) == len(p) || !unicode.IsLetter(rune(s[len(p)])) {
			return true
		}
	}
	return false
}

// Parse turns a quick-add line into an entry. It never fails: text without a
// usable range becomes an unscheduled entry with the whole text as its title.
func Parse(text string, today time.Time) Entry {
	text = strings.Join(strings.Fields(text), " ")

	var entry Entry
	text, entry.Date = extractDay(text, today)

	span, loc, ok := findRange(text)
	if ok && span.Validate() == nil {
		title := strings.TrimSpace(text[:loc[0]] + " " + text[loc[1]:])
		title = strings.Trim(strings.Join(strings.Fields(title), " "), " ,;:-")
		if title == "" {
			title = text
		}
		entry.Title = title
		entry.Span = &span
		return entry
	}

	entry.Title = NormalizeLeadingTime(text)
	return entry
}

// extractDay removes a "today", "tomorrow" or "next <weekday>" token from text.
func extractDay(text string, today time.Time) (string, time.Time) {
	words := strings.Fields(text)
	for i := 0; i < len(words); i++ {
		w := strings.ToLower(strings.Trim(words[i], ",;"))
		phrase, n := w, 1
		switch {
		case w == "today" || w == "tomorrow":
		case w == "next" && i+1 < len(words):
			phrase, n = "next-"+strings.ToLower(strings.Trim(words[i+1], ",;")), 2
		default:
			continue
		}
		day, err := dateutil.ParseRelativeDate(phrase, today)
		if err != nil {
			continue
		}
		rest := append(append([]string{}, words[:i]...), words[i+n:]...)
		if len(rest) == 0 {
			return text, day
		}
		return strings.Join(rest, " "), day
	}
	return text, time.Time{}
}
