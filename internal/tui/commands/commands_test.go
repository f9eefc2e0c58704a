package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/session"
)

var day = time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)

type fakeBackend struct {
	items     []item.Item
	loadErr   error
	deleteErr error
	proposals []item.Proposal
}

func (f *fakeBackend) Items(context.Context, time.Time) ([]item.Item, error) {
	return f.items, f.loadErr
}

func (f *fakeBackend) ProposeWrite(_ context.Context, p item.Proposal) (item.WriteResult, error) {
	f.proposals = append(f.proposals, p)
	return item.WriteResult{OK: true, ID: "new"}, nil
}

func (f *fakeBackend) Reschedule(context.Context, string, time.Time) error { return nil }

func (f *fakeBackend) Delete(context.Context, string) error { return f.deleteErr }

func (f *fakeBackend) Restore(context.Context, string) error { return nil }

func newSession(t *testing.T, b *fakeBackend) *session.Session {
	t.Helper()
	s := session.New(b, day, session.Options{})
	if err := s.Load(context.Background(), day); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s
}

func TestLoadReturnsDayLoadedMsg(t *testing.T) {
	b := &fakeBackend{items: []item.Item{{ID: "a", Title: "Standup", Date: day}}}
	s := session.New(b, day, session.Options{})

	msg := Load(s, day.AddDate(0, 0, 1))()
	loaded, ok := msg.(DayLoadedMsg)
	if !ok {
		t.Fatalf("msg type = %T, want DayLoadedMsg", msg)
	}
	if !loaded.Date.Equal(day.AddDate(0, 0, 1)) {
		t.Fatalf("date = %v", loaded.Date)
	}
	if len(s.Items()) != 1 {
		t.Fatalf("items = %d, want 1", len(s.Items()))
	}

	b.loadErr = errors.New("offline")
	if _, ok := Load(s, day)().(ErrMsg); !ok {
		t.Fatal("expected ErrMsg when the backend fails")
	}
}

func TestProposeAndResolve(t *testing.T) {
	b := &fakeBackend{items: []item.Item{
		{ID: "a", Kind: item.KindEvent, Title: "Standup", Date: day, Span: &item.Span{Start: 540, End: 600}},
	}}
	s := newSession(t, b)

	p := item.Proposal{Kind: item.KindEvent, Date: day, Title: "Review", Span: &item.Span{Start: 570, End: 630}}
	done, ok := Propose(s, p, "Added")().(WriteDoneMsg)
	if !ok {
		t.Fatal("expected WriteDoneMsg")
	}
	if done.Outcome.State != session.Conflicted || done.Verb != "Added" {
		t.Fatalf("done = %+v, want a conflict", done)
	}
	if len(b.proposals) != 0 {
		t.Fatalf("backend saw %d proposals before a decision", len(b.proposals))
	}

	done = Resolve(s, session.Force)().(WriteDoneMsg)
	if done.Err != nil || done.Outcome.State != session.Committed || done.Outcome.ID != "new" {
		t.Fatalf("forced done = %+v", done)
	}
	if len(b.proposals) != 1 || !b.proposals[0].Force {
		t.Fatalf("proposals = %+v, want one forced", b.proposals)
	}

	done = Resolve(s, session.Cancel)().(WriteDoneMsg)
	if !errors.Is(done.Err, session.ErrNoDecisionPending) || done.Verb != "Cancelled" {
		t.Fatalf("cancel without a conflict = %+v", done)
	}
}

func TestDeleteFailure(t *testing.T) {
	b := &fakeBackend{deleteErr: errors.New("disk full")}
	s := newSession(t, b)

	done := Delete(s, "a")().(WriteDoneMsg)
	if !errors.Is(done.Err, session.ErrWriteFailed) {
		t.Fatalf("err = %v, want ErrWriteFailed", done.Err)
	}
	if done.Outcome.State != session.Idle {
		t.Fatalf("state = %v, want idle", done.Outcome.State)
	}
}

func TestStatus(t *testing.T) {
	msg, ok := Status("hello")().(StatusMsgCmd)
	if !ok || msg.Msg != "hello" {
		t.Fatalf("msg = %+v", msg)
	}
}
