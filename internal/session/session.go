// Package session coordinates edits of one day's timeline against the
// authoritative planner backend.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/layout"
	"github.com/javiermolinar/dayline/internal/quickadd"
)

// Session errors.
var (
	ErrWriteFailed       = errors.New("write failed")
	ErrStaleReload       = errors.New("saved, but reloading the day failed; items may be stale")
	ErrBusy              = errors.New("another write is in progress")
	ErrItemLocked        = errors.New("item is locked by a pending edit")
	ErrNoDecisionPending = errors.New("no conflict decision is pending")
	ErrGestureActive     = errors.New("another gesture is in progress")
	ErrUnscheduled       = errors.New("item has no time range")
)

// Backend is the authoritative side of the edit protocol.
type Backend interface {
	Items(ctx context.Context, day time.Time) ([]item.Item, error)
	ProposeWrite(ctx context.Context, p item.Proposal) (item.WriteResult, error)
	Reschedule(ctx context.Context, id string, day time.Time) error
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}

// State is a step of the edit state machine.
type State int

const (
	Idle State = iota
	Proposing
	AwaitingServer
	Conflicted
	ForceWriting
	Committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Proposing:
		return "proposing"
	case AwaitingServer:
		return "awaiting-server"
	case Conflicted:
		return "conflicted"
	case ForceWriting:
		return "force-writing"
	case Committed:
		return "committed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// settled reports whether a new write may start.
func (s State) settled() bool {
	return s == Idle || s == Committed
}

// Decision answers a conflict.
type Decision int

const (
	Cancel Decision = iota
	Force
)

// Outcome describes where a session call left the state machine.
type Outcome struct {
	State State
	ID    string // ID of the written item once committed
	// Conflicts are the colliding items when State is Conflicted.
	Conflicts []item.Item
	// Authoritative is true when Conflicts came from the backend rather than
	// the local hint.
	Authoritative bool
}

// Options tune a Session.
type Options struct {
	SnapMinutes int
	Geometry    layout.Geometry
	Logger      *zap.Logger
	Now         func() time.Time
}

// Session owns the cached items of one day and runs at most one write at a time.
type Session struct {
	backend Backend
	snap    int
	geo     layout.Geometry
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	date      time.Time
	day       *item.Day
	state     State
	pending   *item.Proposal
	conflicts []item.Item
	locked    string
	stale     bool
	gesture   *Gesture
	preview   *item.Item
}

// New creates a session for date. Call Load to fill the cache.
func New(backend Backend, date time.Time, opts Options) *Session {
	if opts.SnapMinutes <= 0 {
		opts.SnapMinutes = item.DefaultSnapMinutes
	}
	if opts.Geometry.PixelsPerHour <= 0 {
		opts.Geometry = layout.DefaultGeometry()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	date = dateutil.TruncateToDay(date)
	return &Session{
		backend: backend,
		snap:    opts.SnapMinutes,
		geo:     opts.Geometry,
		logger:  opts.Logger,
		now:     opts.Now,
		date:    date,
		day:     item.NewDay(date, nil),
	}
}

// Load replaces the cache with the backend's items for date.
// On failure the previous cache is kept.
func (s *Session) Load(ctx context.Context, date time.Time) error {
	date = dateutil.TruncateToDay(date)
	items, err := s.backend.Items(ctx, date)
	if err != nil {
		return fmt.Errorf("loading %s: %w", dateutil.FormatDate(date), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = date
	s.day = item.NewDay(date, items)
	s.stale = false
	return nil
}

// Date returns the day the session shows.
func (s *Session) Date() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stale reports whether the last reload after a commit failed.
func (s *Session) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Items returns the cached items. Gesture previews are not included.
func (s *Session) Items() []item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.day.Items()
}

// Unscheduled returns cached items without a time range.
func (s *Session) Unscheduled() []item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.day.Unscheduled()
}

// Find returns a cached item.
func (s *Session) Find(id string) (item.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.day.Find(id)
}

// ConflictIndex flags cached items that overlap each other.
func (s *Session) ConflictIndex() map[string][]item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return item.ConflictIndex(s.day.Items())
}

// Layout positions the cached items, with the active gesture's preview
// drawn in place of the item it edits.
func (s *Session) Layout() []layout.Slot {
	s.mu.Lock()
	items := s.day.Items()
	preview := s.preview
	s.mu.Unlock()

	if preview != nil {
		replaced := false
		for i := range items {
			if items[i].ID == preview.ID {
				items[i] = *preview
				replaced = true
			}
		}
		if !replaced {
			items = append(items, *preview)
		}
	}
	return layout.Compute(items, s.geo)
}

// IsLocked reports whether id is being written and must not be edited.
func (s *Session) IsLocked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLocked(id)
}

func (s *Session) isLocked(id string) bool {
	return id != "" && !s.state.settled() && s.locked == id
}

// Pending returns the proposal and conflicts awaiting a decision.
func (s *Session) Pending() (item.Proposal, []item.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Conflicted || s.pending == nil {
		return item.Proposal{}, nil, false
	}
	return *s.pending, s.conflicts, true
}

// Propose starts a write. Conflicts found in the cache are surfaced before
// any network call; otherwise the proposal goes to the backend, which has
// the final say.
func (s *Session) Propose(ctx context.Context, p item.Proposal) (Outcome, error) {
	s.mu.Lock()
	if !s.state.settled() {
		s.mu.Unlock()
		return Outcome{State: s.State()}, ErrBusy
	}
	if p.Date.IsZero() {
		p.Date = s.date
	}
	if err := p.Validate(); err != nil {
		state := s.state
		s.mu.Unlock()
		return Outcome{State: state}, err
	}
	if !p.IsCreate() {
		if _, ok := s.day.Find(p.TargetID); !ok {
			state := s.state
			s.mu.Unlock()
			return Outcome{State: state}, fmt.Errorf("%w: %s", item.ErrNotFound, p.TargetID)
		}
	}

	s.state = Proposing
	s.locked = p.TargetID
	var local []item.Item
	if p.Span != nil && !p.Force && dateutil.SameDay(p.Date, s.date) {
		local = s.day.Conflicts(*p.Span, p.TargetID)
	}
	if len(local) > 0 {
		s.state = Conflicted
		s.pending = &p
		s.conflicts = local
		s.mu.Unlock()
		s.logger.Debug("local conflict hint",
			zap.String("target", p.TargetID),
			zap.Int("conflicts", len(local)),
		)
		return Outcome{State: Conflicted, Conflicts: local}, nil
	}
	s.mu.Unlock()

	state := AwaitingServer
	if p.Force {
		state = ForceWriting
	}
	return s.submit(ctx, p, state)
}

// Resolve answers a pending conflict. Cancel discards the proposal without
// any write; Force resubmits it with the force flag.
func (s *Session) Resolve(ctx context.Context, d Decision) (Outcome, error) {
	s.mu.Lock()
	if s.state != Conflicted || s.pending == nil {
		state := s.state
		s.mu.Unlock()
		return Outcome{State: state}, ErrNoDecisionPending
	}
	p := *s.pending

	if d == Cancel {
		s.reset(Idle)
		s.mu.Unlock()
		s.logger.Debug("proposal cancelled", zap.String("target", p.TargetID))
		return Outcome{State: Idle}, nil
	}
	// Leave Conflicted before unlocking so a second Resolve cannot force
	// the same proposal again.
	s.state = ForceWriting
	s.locked = p.TargetID
	s.mu.Unlock()

	return s.submit(ctx, p.Forced(), ForceWriting)
}

// QuickAdd parses text and proposes the resulting entry. Text without a
// usable time range is submitted as an unscheduled item.
func (s *Session) QuickAdd(ctx context.Context, kind item.Kind, text string) (Outcome, error) {
	entry := quickadd.Parse(text, s.now())

	p := item.Proposal{
		Kind:  kind,
		Title: entry.Title,
		Span:  entry.Span,
		Date:  entry.Date,
	}
	return s.Propose(ctx, p)
}

// Reschedule moves an item to another day keeping its time range.
func (s *Session) Reschedule(ctx context.Context, id string, day time.Time) (Outcome, error) {
	return s.transition(ctx, id, func(ctx context.Context) error {
		return s.backend.Reschedule(ctx, id, dateutil.TruncateToDay(day))
	})
}

// Delete moves an item to the trash.
func (s *Session) Delete(ctx context.Context, id string) (Outcome, error) {
	return s.transition(ctx, id, func(ctx context.Context) error {
		return s.backend.Delete(ctx, id)
	})
}

// Restore takes an item out of the trash.
func (s *Session) Restore(ctx context.Context, id string) (Outcome, error) {
	return s.transition(ctx, id, func(ctx context.Context) error {
		return s.backend.Restore(ctx, id)
	})
}

func (s *Session) transition(ctx context.Context, id string, write func(context.Context) error) (Outcome, error) {
	s.mu.Lock()
	if !s.state.settled() {
		state := s.state
		s.mu.Unlock()
		return Outcome{State: state}, ErrBusy
	}
	if s.gesture != nil && s.gesture.original.ID == id {
		state := s.state
		s.mu.Unlock()
		return Outcome{State: state}, ErrItemLocked
	}
	s.state = AwaitingServer
	s.locked = id
	s.mu.Unlock()

	if err := write(ctx); err != nil {
		return s.fail(fmt.Errorf("%w: %w", ErrWriteFailed, err))
	}
	return s.commit(ctx, id)
}

func (s *Session) submit(ctx context.Context, p item.Proposal, state State) (Outcome, error) {
	s.mu.Lock()
	s.state = state
	s.pending = &p
	s.conflicts = nil
	s.locked = p.TargetID
	s.mu.Unlock()

	res, err := s.backend.ProposeWrite(ctx, p)
	switch {
	case err != nil:
		return s.fail(fmt.Errorf("%w: %w", ErrWriteFailed, err))
	case res.OK:
		return s.commit(ctx, res.ID)
	case res.Conflict && !p.Force:
		s.mu.Lock()
		s.state = Conflicted
		s.conflicts = res.Conflicts
		s.mu.Unlock()
		s.logger.Debug("backend reported conflicts",
			zap.String("target", p.TargetID),
			zap.Int("conflicts", len(res.Conflicts)),
		)
		return Outcome{State: Conflicted, Conflicts: res.Conflicts, Authoritative: true}, nil
	default:
		msg := res.Message
		if msg == "" {
			msg = "backend rejected the write"
		}
		return s.fail(fmt.Errorf("%w: %s", ErrWriteFailed, msg))
	}
}

// commit reloads the day from the backend; the cache is never patched locally.
func (s *Session) commit(ctx context.Context, id string) (Outcome, error) {
	date := s.Date()
	items, err := s.backend.Items(ctx, date)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(Committed)
	if err != nil {
		s.stale = true
		s.logger.Warn("reload after commit failed", zap.String("id", id), zap.Error(err))
		return Outcome{State: Committed, ID: id}, fmt.Errorf("%w: %w", ErrStaleReload, err)
	}
	s.day = item.NewDay(date, items)
	s.stale = false
	return Outcome{State: Committed, ID: id}, nil
}

func (s *Session) fail(err error) (Outcome, error) {
	s.mu.Lock()
	s.reset(Idle)
	s.mu.Unlock()
	s.logger.Warn("write failed", zap.Error(err))
	return Outcome{State: Idle}, err
}

// reset must be called with mu held.
func (s *Session) reset(state State) {
	s.state = state
	s.pending = nil
	s.conflicts = nil
	s.locked = ""
}
