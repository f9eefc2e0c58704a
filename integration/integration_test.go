package integration

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/javiermolinar/dayline/internal/api"
	"github.com/javiermolinar/dayline/internal/db"
	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/planner"
	"github.com/javiermolinar/dayline/internal/recurrence"
	"github.com/javiermolinar/dayline/internal/session"
)

// openRepo creates a fresh file-backed repository with automatic cleanup.
func openRepo(t *testing.T, dbPath string) *db.SQLite {
	t.Helper()
	repo, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// mustParseDate parses a date string or fails the test.
func mustParseDate(t *testing.T, s string) time.Time {
	t.Helper()
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", s, err)
	}
	return date
}

func newPlanner(repo item.Repository, now func() time.Time) *planner.Service {
	n := 0
	return planner.New(repo, planner.Options{
		TaskDefaultMinutes: 30,
		Now:                now,
		NewID: func() string {
			n++
			return fmt.Sprintf("item-%d", n)
		},
	})
}

// propose writes p and fails the test unless it was accepted.
func propose(t *testing.T, b session.Backend, p item.Proposal) string {
	t.Helper()
	res, err := b.ProposeWrite(context.Background(), p)
	if err != nil {
		t.Fatalf("ProposeWrite: %v", err)
	}
	if !res.OK {
		t.Fatalf("proposal rejected: conflict=%v message=%q", res.Conflict, res.Message)
	}
	return res.ID
}

func span(t *testing.T, start, end string) *item.Span {
	t.Helper()
	s, err := item.ParseSpan(start, end)
	if err != nil {
		t.Fatalf("ParseSpan(%s, %s): %v", start, end, err)
	}
	return &s
}

func TestItemsSurviveReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dayline.db")
	day := mustParseDate(t, "2025-01-20")
	now := func() time.Time { return day }

	repo, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}
	svc := newPlanner(repo, now)
	id := propose(t, svc, item.Proposal{Kind: item.KindEvent, Date: day, Span: span(t, "08:00", "09:00"), Title: "Standup"})
	propose(t, svc, item.Proposal{Kind: item.KindTask, Date: day, Title: "Inbox"})
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	svc = newPlanner(openRepo(t, dbPath), now)
	items, err := svc.Items(context.Background(), day)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items after reopen, got %d", len(items))
	}
	got, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Standup" || got.Span == nil || got.Span.String() != "08:00-09:00" {
		t.Errorf("unexpected item after reopen: %+v", got)
	}
}

// TestRemoteSessions runs two sessions against one server. The second
// session's cache is stale, so only the server can catch its conflict.
func TestRemoteSessions(t *testing.T) {
	day := mustParseDate(t, "2025-01-20")
	now := func() time.Time { return day.Add(7 * time.Hour) }
	svc := newPlanner(openRepo(t, filepath.Join(t.TempDir(), "dayline.db")), now)

	ts := httptest.NewServer(api.NewServer(svc, api.ServerOptions{Now: now}).Handler())
	t.Cleanup(ts.Close)

	ctx := context.Background()
	alice := session.New(api.NewClient(ts.URL, ts.Client()), day, session.Options{Now: now})
	bob := session.New(api.NewClient(ts.URL, ts.Client()), day, session.Options{Now: now})
	for _, s := range []*session.Session{alice, bob} {
		if err := s.Load(ctx, day); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}

	out, err := alice.Propose(ctx, item.Proposal{Kind: item.KindEvent, Span: span(t, "09:00", "10:00"), Title: "Planning"})
	if err != nil || out.State != session.Committed {
		t.Fatalf("alice propose: state=%v err=%v", out.State, err)
	}

	out, err = bob.Propose(ctx, item.Proposal{Kind: item.KindEvent, Span: span(t, "09:30", "10:30"), Title: "Review"})
	if err != nil {
		t.Fatalf("bob propose: %v", err)
	}
	if out.State != session.Conflicted || !out.Authoritative {
		t.Fatalf("expected an authoritative conflict, got state=%v authoritative=%v", out.State, out.Authoritative)
	}
	if len(out.Conflicts) != 1 || out.Conflicts[0].Title != "Planning" {
		t.Fatalf("unexpected conflicts: %+v", out.Conflicts)
	}

	out, err = bob.Resolve(ctx, session.Force)
	if err != nil || out.State != session.Committed {
		t.Fatalf("bob force: state=%v err=%v", out.State, err)
	}
	if n := len(bob.Items()); n != 2 {
		t.Fatalf("bob should see both items after the reload, got %d", n)
	}
	if n := len(bob.ConflictIndex()); n != 2 {
		t.Errorf("expected both items flagged as overlapping, got %d", n)
	}
}

func TestRemoteSession_CancelWritesNothing(t *testing.T) {
	day := mustParseDate(t, "2025-01-20")
	now := func() time.Time { return day }
	svc := newPlanner(openRepo(t, filepath.Join(t.TempDir(), "dayline.db")), now)
	ts := httptest.NewServer(api.NewServer(svc, api.ServerOptions{Now: now}).Handler())
	t.Cleanup(ts.Close)

	ctx := context.Background()
	propose(t, svc, item.Proposal{Kind: item.KindEvent, Date: day, Span: span(t, "09:00", "10:00"), Title: "Planning"})

	s := session.New(api.NewClient(ts.URL, ts.Client()), day, session.Options{Now: now})
	if err := s.Load(ctx, day); err != nil {
		t.Fatalf("Load: %v", err)
	}
	out, err := s.Propose(ctx, item.Proposal{Kind: item.KindEvent, Span: span(t, "09:30", "10:30"), Title: "Review"})
	if err != nil || out.State != session.Conflicted || out.Authoritative {
		t.Fatalf("expected a local conflict hint, got state=%v authoritative=%v err=%v", out.State, out.Authoritative, err)
	}
	if _, err := s.Resolve(ctx, session.Cancel); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	items, err := svc.Items(ctx, day)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("cancel must not write, found %d items", len(items))
	}
}

func TestRecurringTaskShowsOnItsWeekdays(t *testing.T) {
	monday := mustParseDate(t, "2025-01-20")
	svc := newPlanner(openRepo(t, filepath.Join(t.TempDir(), "dayline.db")), func() time.Time { return monday })

	rule, err := recurrence.Weekly([]time.Weekday{time.Tuesday, time.Thursday})
	if err != nil {
		t.Fatalf("Weekly: %v", err)
	}
	propose(t, svc, item.Proposal{
		Kind: item.KindTask, Date: monday, Span: span(t, "17:00", "17:30"), Title: "Timesheet", Recurrence: rule,
	})

	ctx := context.Background()
	want := map[string]bool{
		"2025-01-20": false,
		"2025-01-21": true,
		"2025-01-22": false,
		"2025-01-23": true,
		"2025-01-28": true,
	}
	for date, occurs := range want {
		items, err := svc.Items(ctx, mustParseDate(t, date))
		if err != nil {
			t.Fatalf("Items(%s): %v", date, err)
		}
		if got := len(items) == 1; got != occurs {
			t.Errorf("%s: occurs = %v, want %v", date, got, occurs)
		}
	}

	_, err = svc.ProposeWrite(ctx, item.Proposal{
		Kind: item.KindEvent, Date: monday, Title: "Bad", Recurrence: rule,
	})
	if err != nil {
		t.Fatalf("ProposeWrite: %v", err)
	}
	if n, _ := svc.Items(ctx, monday); len(n) != 0 {
		t.Errorf("recurring events must be refused")
	}
}

func TestTrashLifecycle(t *testing.T) {
	day := mustParseDate(t, "2025-01-20")
	dbPath := filepath.Join(t.TempDir(), "dayline.db")
	repo := openRepo(t, dbPath)
	svc := newPlanner(repo, time.Now)
	ctx := context.Background()

	id := propose(t, svc, item.Proposal{Kind: item.KindEvent, Date: day, Span: span(t, "09:00", "10:00"), Title: "Planning"})
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if items, _ := svc.Items(ctx, day); len(items) != 0 {
		t.Fatalf("deleted item still listed")
	}
	trash, err := svc.Trash(ctx)
	if err != nil || len(trash) != 1 {
		t.Fatalf("Trash: %d items, err=%v", len(trash), err)
	}

	if err := svc.Restore(ctx, id); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if items, _ := svc.Items(ctx, day); len(items) != 1 {
		t.Fatalf("restored item missing")
	}
	if err := svc.Restore(ctx, id); err == nil {
		t.Errorf("restoring a live item should fail")
	}

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// a clock past the retention period sees the item as expired
	later := newPlanner(repo, func() time.Time { return time.Now().AddDate(0, 0, 31) })
	n, err := later.PurgeTrash(ctx)
	if err != nil {
		t.Fatalf("PurgeTrash: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d items, want 1", n)
	}
	if _, err := svc.Get(ctx, id); !errors.Is(err, item.ErrNotFound) {
		t.Errorf("expected ErrNotFound after purge, got %v", err)
	}
}

func TestRescheduleKeepsSpan(t *testing.T) {
	day := mustParseDate(t, "2025-01-20")
	next := day.AddDate(0, 0, 1)
	svc := newPlanner(openRepo(t, filepath.Join(t.TempDir(), "dayline.db")), func() time.Time { return day })
	ctx := context.Background()

	id := propose(t, svc, item.Proposal{Kind: item.KindEvent, Date: day, Span: span(t, "09:00", "10:00"), Title: "Planning"})
	propose(t, svc, item.Proposal{Kind: item.KindEvent, Date: next, Span: span(t, "09:30", "10:30"), Title: "Busy"})

	if err := svc.Reschedule(ctx, id, next); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	items, err := svc.Items(ctx, next)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected both items on the new day, got %d", len(items))
	}
	got, _ := svc.Get(ctx, id)
	if got.Span.String() != "09:00-10:00" || !got.Date.Equal(next) {
		t.Errorf("rescheduled item = %s on %s", got.Span, got.Date.Format("2006-01-02"))
	}
}
