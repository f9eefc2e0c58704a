package session

import (
	"fmt"

	"github.com/javiermolinar/dayline/internal/item"
)

// DraftID identifies the preview of an item that does not exist yet.
const DraftID = "draft"

// GestureKind is what a pointer gesture does to an item.
type GestureKind int

const (
	Move GestureKind = iota
	Resize
	Create
)

// Gesture is an in-progress drag or resize. Updates only move the visual
// preview; nothing is checked or written until End.
type Gesture struct {
	s        *Session
	kind     GestureKind
	original item.Item
	span     item.Span
	done     bool
}

// BeginMove starts dragging an item to a new start time.
func (s *Session) BeginMove(id string) (*Gesture, error) {
	return s.begin(id, Move)
}

// BeginResize starts dragging an item's end time.
func (s *Session) BeginResize(id string) (*Gesture, error) {
	return s.begin(id, Resize)
}

// BeginCreate starts placing a new item at span.
func (s *Session) BeginCreate(kind item.Kind, title string, span item.Span) (*Gesture, error) {
	if err := span.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture != nil {
		return nil, ErrGestureActive
	}
	draft := item.Item{ID: DraftID, Kind: kind, Date: s.date, Title: title, Span: &span}
	return s.start(draft, Create), nil
}

func (s *Session) begin(id string, kind GestureKind) (*Gesture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gesture != nil {
		return nil, ErrGestureActive
	}
	if s.isLocked(id) {
		return nil, ErrItemLocked
	}
	it, ok := s.day.Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", item.ErrNotFound, id)
	}
	if it.Span == nil {
		return nil, ErrUnscheduled
	}
	return s.start(it, kind), nil
}

// start must be called with mu held.
func (s *Session) start(it item.Item, kind GestureKind) *Gesture {
	g := &Gesture{s: s, kind: kind, original: it, span: *it.Span}
	s.gesture = g
	preview := it
	s.preview = &preview
	return g
}

// Kind returns what the gesture does.
func (g *Gesture) Kind() GestureKind {
	return g.kind
}

// ItemID returns the ID of the item being edited.
func (g *Gesture) ItemID() string {
	return g.original.ID
}

// Span returns the previewed range.
func (g *Gesture) Span() item.Span {
	return g.span
}

// Drag updates the preview by delta minutes from the gesture's starting
// position, snapped to the session grid and kept inside the day.
func (g *Gesture) Drag(delta int) item.Span {
	s := g.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.done {
		return g.span
	}

	delta = item.Snap(delta, s.snap)
	orig := *g.original.Span
	switch g.kind {
	case Resize:
		minEnd := orig.Start + min(s.snap, orig.Duration())
		g.span.End = clamp(orig.End+delta, minEnd, item.MinutesPerDay-1)
	default:
		dur := orig.Duration()
		g.span.Start = clamp(orig.Start+delta, 0, item.MinutesPerDay-1-dur)
		g.span.End = g.span.Start + dur
	}

	preview := g.original.WithSpan(g.span)
	s.preview = &preview
	return g.span
}

// Cancel drops the preview. The cached items were never touched.
func (g *Gesture) Cancel() {
	g.finish()
}

// End drops the preview and returns the proposal for the final position.
// It returns false when a move or resize ended where it started.
func (g *Gesture) End() (item.Proposal, bool) {
	if !g.finish() {
		return item.Proposal{}, false
	}
	span := g.span
	p := item.Proposal{
		Kind:  g.original.Kind,
		Date:  g.original.Date,
		Span:  &span,
		Title: g.original.Title,
	}
	if g.kind == Create {
		return p, true
	}
	p.TargetID = g.original.ID
	return p, span != *g.original.Span
}

func (g *Gesture) finish() bool {
	s := g.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.done {
		return false
	}
	g.done = true
	if s.gesture == g {
		s.gesture = nil
		s.preview = nil
	}
	return true
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
