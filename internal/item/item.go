// Package item defines the core domain types for dayline.
package item

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/dayline/internal/dateutil"
)

// Validation errors.
var (
	ErrFormat         = errors.New("time must be in H:MM or HH:MM format")
	ErrRange          = errors.New("minute offset must be within [0, 1440)")
	ErrEndBeforeStart = errors.New("end time must be after start time")
	ErrEmptyTitle     = errors.New("title cannot be empty")
	ErrInvalidKind    = errors.New("kind must be 'event' or 'task'")
	ErrMissingDate    = errors.New("date is required")
	ErrRecurringEvent = errors.New("only tasks can repeat")
)

// Domain errors.
var (
	ErrNotFound = errors.New("item not found")
)

// Kind distinguishes how an item is persisted. Layout treats both kinds alike.
type Kind string

const (
	KindEvent Kind = "event"
	KindTask  Kind = "task"
)

// Valid returns true if the kind is a known value.
func (k Kind) Valid() bool {
	switch k {
	case KindEvent, KindTask:
		return true
	default:
		return false
	}
}

// ParseKind parses a kind name. Empty input defaults to KindEvent.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "event":
		return KindEvent, nil
	case "task":
		return KindTask, nil
	default:
		return "", ErrInvalidKind
	}
}

// Item is one event or project task occurrence on a day's timeline.
type Item struct {
	ID    string    `json:"id"`
	Kind  Kind      `json:"kind"`
	Date  time.Time `json:"date"`
	Title string    `json:"title"`
	Span  *Span     `json:"span,omitempty"` // nil means unscheduled

	// Recurrence is an RRULE string (weekly BYDAY) for recurring project tasks.
	Recurrence string `json:"recurrence,omitempty"`

	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// New creates a new Item with validation.
// date can be empty (defaults to today) or in YYYY-MM-DD format.
// start and end are either both empty (unscheduled) or both in H:MM/HH:MM format.
func New(kind, title, date, start, end string) (*Item, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	day, err := dateutil.ParseDate(date)
	if err != nil {
		return nil, err
	}

	it := &Item{
		Kind:      k,
		Date:      day,
		Title:     title,
		CreatedAt: time.Now(),
	}

	if start == "" && end == "" {
		return it, nil
	}

	span, err := ParseSpan(start, end)
	if err != nil {
		return nil, err
	}
	it.Span = &span
	return it, nil
}

// Scheduled reports whether the item has a time range on the timeline.
func (it Item) Scheduled() bool {
	return it.Span != nil
}

// IsRecurring reports whether the item repeats on a weekly schedule.
func (it Item) IsRecurring() bool {
	return it.Recurrence != ""
}

// IsDeleted reports whether the item is in the trash.
func (it Item) IsDeleted() bool {
	return it.DeletedAt != nil
}

// Start returns the start minute, or -1 when unscheduled.
func (it Item) Start() int {
	if it.Span == nil {
		return -1
	}
	return it.Span.Start
}

// String renders the item as "HH:MM-HH:MM title" or just the title.
func (it Item) String() string {
	if it.Span == nil {
		return it.Title
	}
	return fmt.Sprintf("%s %s", it.Span, it.Title)
}

// WithSpan returns a copy of the item placed at span.
func (it Item) WithSpan(span Span) Item {
	it.Span = &span
	return it
}

// Proposal is a pending create, move or resize awaiting conflict resolution.
type Proposal struct {
	TargetID string // empty creates a new item
	Kind     Kind
	Date     time.Time
	Span     *Span // nil submits an unscheduled item
	Title    string
	// Recurrence is applied on create only.
	Recurrence string
	Force      bool
}

// IsCreate reports whether the proposal creates a new item.
func (p Proposal) IsCreate() bool {
	return p.TargetID == ""
}

// Validate checks the proposal's local invariants.
func (p Proposal) Validate() error {
	if p.Date.IsZero() {
		return ErrMissingDate
	}
	if p.Kind != "" && !p.Kind.Valid() {
		return ErrInvalidKind
	}
	if p.IsCreate() && strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if p.Recurrence != "" && p.Kind != KindTask {
		return ErrRecurringEvent
	}
	if p.Span != nil {
		if err := p.Span.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Forced returns a copy of the proposal with the force flag set.
func (p Proposal) Forced() Proposal {
	p.Force = true
	return p
}

// WriteResult is the server's answer to a proposal.
// Exactly one of OK, Conflict or a non-empty Message describes the outcome.
type WriteResult struct {
	OK        bool
	ID        string
	Conflict  bool
	Conflicts []Item
	Message   string
}

// Accepted builds a successful write result.
func Accepted(id string) WriteResult {
	return WriteResult{OK: true, ID: id}
}

// Rejected builds a conflict write result.
func Rejected(conflicts []Item) WriteResult {
	return WriteResult{Conflict: true, Conflicts: conflicts}
}

// Failed builds a non-conflict failure result.
func Failed(message string) WriteResult {
	return WriteResult{Message: message}
}

// ConflictError carries the items a write collided with.
type ConflictError struct {
	Conflicts []Item
}

func (e *ConflictError) Error() string {
	return "conflicts with " + DescribeConflicts(e.Conflicts)
}
