package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/javiermolinar/dayline/internal/config"
	"github.com/javiermolinar/dayline/internal/db"
	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/layout"
	"github.com/javiermolinar/dayline/internal/planner"
	"github.com/javiermolinar/dayline/internal/session"
)

var (
	thursday = time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	friday   = thursday.AddDate(0, 0, 1)
)

type testApp struct {
	*App
	svc *planner.Service
	out *bytes.Buffer
}

// newTestApp builds an App on an in-memory planner. input answers prompts.
func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()
	DisableColor()

	repo, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	now := func() time.Time { return thursday.Add(8 * time.Hour) }
	n := 0
	svc := planner.New(repo, planner.Options{
		TaskDefaultMinutes: 30,
		Now:                now,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})

	a := NewApp(config.Default())
	a.in = strings.NewReader(input)
	a.now = now
	a.logger = zap.NewNop()
	a.backend = svc

	return &testApp{App: a, svc: svc, out: &bytes.Buffer{}}
}

func (ta *testApp) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ta.out.Reset()
	ta.root = ta.newRoot()
	ta.root.SetOut(ta.out)
	ta.root.SetErr(ta.out)
	ta.root.SetArgs(args)
	err := ta.Execute()
	return ta.out.String(), err
}

func (ta *testApp) items(t *testing.T, day time.Time) []item.Item {
	t.Helper()
	items, err := ta.svc.Items(context.Background(), day)
	require.NoError(t, err)
	return items
}

func TestAdd_ConflictPrompt(t *testing.T) {
	ta := newTestApp(t, "n\ny\n")

	out, err := ta.run(t, "add", "Standup", "--start=09:00", "--end=10:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Added id-1")
	assert.Contains(t, out, "09:00-10:00 Standup")

	out, err = ta.run(t, "add", "Review", "--start=09:30", "--end=10:30")
	require.NoError(t, err)
	assert.Contains(t, out, "Overlaps 1 item(s) already on the timeline")
	assert.Contains(t, out, "Cancelled, nothing was saved.")
	assert.Len(t, ta.items(t, thursday), 1)

	out, err = ta.run(t, "add", "Review", "--start=09:30", "--end=10:30")
	require.NoError(t, err)
	assert.Contains(t, out, "Added id-2")
	assert.Len(t, ta.items(t, thursday), 2)
}

func TestAdd_Variants(t *testing.T) {
	ta := newTestApp(t, "")

	_, err := ta.run(t, "add", "Write", "report", "--kind=task", "--start=14:00", "--date=tomorrow")
	require.NoError(t, err)
	got := ta.items(t, friday)
	require.Len(t, got, 1)
	assert.Equal(t, "Write report", got[0].Title)
	assert.Equal(t, &item.Span{Start: 840, End: 870}, got[0].Span)

	_, err = ta.run(t, "add", "Inbox")
	require.NoError(t, err)
	assert.Nil(t, ta.items(t, thursday)[0].Span)

	_, err = ta.run(t, "add", "Gym", "--kind=task", "--start=18:00", "--end=19:00", "--repeat=tue,thu")
	require.NoError(t, err)
	next := ta.items(t, thursday.AddDate(0, 0, 5))
	require.Len(t, next, 1)
	assert.True(t, next[0].IsRecurring())

	_, err = ta.run(t, "add", "Bad", "--kind=meeting")
	assert.ErrorIs(t, err, item.ErrInvalidKind)
	_, err = ta.run(t, "add", "Bad", "--start=10:00", "--end=09:00")
	assert.Error(t, err)
	_, err = ta.run(t, "add", "Bad", "--start=10:00", "--end=11:00", "--repeat=tue")
	assert.ErrorIs(t, err, item.ErrRecurringEvent)
}

func TestQuick(t *testing.T) {
	ta := newTestApp(t, "")

	out, err := ta.run(t, "quick", "tomorrow", "9.30-10", "dentist")
	require.NoError(t, err)
	assert.Contains(t, out, "Added id-1")

	got := ta.items(t, friday)
	require.Len(t, got, 1)
	assert.Equal(t, "dentist", got[0].Title)
	assert.Equal(t, &item.Span{Start: 570, End: 600}, got[0].Span)

	// forced past the overlap without prompting
	out, err = ta.run(t, "quick", "--force", "tomorrow", "9-10", "call")
	require.NoError(t, err)
	assert.Contains(t, out, "Added id-2")
	assert.Len(t, ta.items(t, friday), 2)
}

func TestMoveResize(t *testing.T) {
	ta := newTestApp(t, "")
	_, err := ta.run(t, "add", "Standup", "--start=09:00", "--end=10:00")
	require.NoError(t, err)

	out, err := ta.run(t, "move", "id-1", "10:30")
	require.NoError(t, err)
	assert.Contains(t, out, "Moved id-1")
	assert.Equal(t, &item.Span{Start: 630, End: 690}, ta.items(t, thursday)[0].Span)

	out, err = ta.run(t, "resize", "id-1", "--by=30")
	require.NoError(t, err)
	assert.Contains(t, out, "Resized id-1")
	assert.Equal(t, &item.Span{Start: 630, End: 720}, ta.items(t, thursday)[0].Span)

	out, err = ta.run(t, "move", "id-1", "10:30")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to change.")

	_, err = ta.run(t, "move", "id-1")
	assert.ErrorIs(t, err, errNoTarget)
	_, err = ta.run(t, "move", "missing", "10:00")
	assert.ErrorIs(t, err, item.ErrNotFound)
}

func TestDay(t *testing.T) {
	ta := newTestApp(t, "")

	out, err := ta.run(t, "day")
	require.NoError(t, err)
	assert.Contains(t, out, "Thursday, January 9, 2025")
	assert.Contains(t, out, "Nothing planned.")

	_, err = ta.run(t, "add", "Standup", "--start=09:00", "--end=10:00")
	require.NoError(t, err)
	_, err = ta.run(t, "add", "Review", "--start=09:30", "--end=10:30", "--force")
	require.NoError(t, err)
	_, err = ta.run(t, "add", "Inbox", "--kind=task")
	require.NoError(t, err)

	out, err = ta.run(t, "day", "2025-01-09", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "█·")
	assert.Contains(t, out, "·█")
	assert.Contains(t, out, "! conflicts with 09:30-10:30 Review")
	assert.Contains(t, out, "Unscheduled")
	assert.Contains(t, out, "id id-3")
	assert.Contains(t, out, "(1 unscheduled)")
	assert.Contains(t, out, "2 overlapping")

	_, err = ta.run(t, "day", "someday")
	assert.Error(t, err)
}

func TestRescheduleDeleteRestore(t *testing.T) {
	ta := newTestApp(t, "")
	_, err := ta.run(t, "add", "Dentist", "--start=09:00", "--end=10:00")
	require.NoError(t, err)

	out, err := ta.run(t, "reschedule", "id-1", "tomorrow")
	require.NoError(t, err)
	assert.Contains(t, out, "Rescheduled id-1 to 2025-01-10")
	assert.Empty(t, ta.items(t, thursday))
	assert.Len(t, ta.items(t, friday), 1)

	out, err = ta.run(t, "rm", "id-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted id-1")
	assert.Empty(t, ta.items(t, friday))

	out, err = ta.run(t, "trash")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-01-10")
	assert.Contains(t, out, "Dentist")

	out, err = ta.run(t, "restore", "id-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored id-1")
	assert.Len(t, ta.items(t, friday), 1)

	out, err = ta.run(t, "trash")
	require.NoError(t, err)
	assert.Contains(t, out, "Trash is empty.")

	_, err = ta.run(t, "restore", "id-1")
	assert.ErrorIs(t, err, item.ErrNotFound)
}

func TestExport(t *testing.T) {
	ta := newTestApp(t, "")
	_, err := ta.run(t, "add", "Standup", "--start=09:00", "--end=09:15")
	require.NoError(t, err)

	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { copyToClipboard = orig })

	out, err := ta.run(t, "export", "--week", "--format=text", "--clipboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Copied 7 day(s)")
	assert.Contains(t, copied, "09:00-09:15  event  Standup")

	path := filepath.Join(t.TempDir(), "day.ics")
	_, err = ta.run(t, "export", "-o", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "BEGIN:VCALENDAR"))
	assert.Contains(t, string(data), "SUMMARY:Standup")

	_, err = ta.run(t, "export", "--format=pdf")
	assert.ErrorContains(t, err, `unknown format "pdf"`)

	copyToClipboard = func(string) error { return errors.New("no clipboard") }
	_, err = ta.run(t, "export", "--clipboard")
	assert.ErrorContains(t, err, "no clipboard")
}

func TestImport(t *testing.T) {
	src := newTestApp(t, "")
	_, err := src.run(t, "add", "Standup", "--start=09:00", "--end=10:00")
	require.NoError(t, err)
	_, err = src.run(t, "add", "Inbox", "--kind=task")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "day.ics")
	_, err = src.run(t, "export", "-o", path)
	require.NoError(t, err)

	dst := newTestApp(t, "")
	out, err := dst.run(t, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 item(s)")
	got := dst.items(t, thursday)
	require.Len(t, got, 2)

	out, err = dst.run(t, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 item(s)")
	assert.Contains(t, out, "1 overlapping item(s) left out")

	out, err = dst.run(t, "import", "--force", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 item(s)")

	_, err = dst.run(t, "import", filepath.Join(t.TempDir(), "missing.ics"))
	assert.Error(t, err)
}

type fakePurger struct {
	calls int
	err   error
}

func (f *fakePurger) PurgeTrash(context.Context) (int64, error) {
	f.calls++
	return 3, f.err
}

func TestSchedulePurge(t *testing.T) {
	jobs := cron.New()
	p := &fakePurger{}

	id, err := schedulePurge(context.Background(), jobs, "0 3 * * *", p, zap.NewNop())
	require.NoError(t, err)

	entry := jobs.Entry(id)
	require.NotNil(t, entry.Job)
	entry.Job.Run()
	assert.Equal(t, 1, p.calls)

	p.err = errors.New("locked")
	entry.Job.Run()
	assert.Equal(t, 2, p.calls)

	_, err = schedulePurge(context.Background(), jobs, "every day", p, zap.NewNop())
	assert.ErrorContains(t, err, `invalid purge_schedule "every day"`)
}

func TestGestureDelta(t *testing.T) {
	ta := newTestApp(t, "")
	_, err := ta.run(t, "add", "Standup", "--start=09:00", "--end=10:00")
	require.NoError(t, err)

	tests := []struct {
		name    string
		kind    session.GestureKind
		args    []string
		by      int
		want    int
		wantErr error
	}{
		{name: "move to time", kind: session.Move, args: []string{"10:30"}, want: 90},
		{name: "move earlier", kind: session.Move, args: []string{"8:00"}, want: -60},
		{name: "resize to time", kind: session.Resize, args: []string{"11:00"}, want: 60},
		{name: "offset", kind: session.Move, by: -15, want: -15},
		{name: "time wins over offset", kind: session.Resize, args: []string{"10:15"}, by: 60, want: 15},
		{name: "nothing", kind: session.Move, wantErr: errNoTarget},
		{name: "bad time", kind: session.Move, args: []string{"25:00"}, wantErr: item.ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ta.newSession(context.Background(), thursday)
			require.NoError(t, err)
			var g *session.Gesture
			if tt.kind == session.Resize {
				g, err = s.BeginResize("id-1")
			} else {
				g, err = s.BeginMove("id-1")
			}
			require.NoError(t, err)
			defer g.Cancel()

			got, err := gestureDelta(g, tt.args, tt.by)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigInteractive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	ta := newTestApp(t, "n\n")
	out, err := ta.run(t, "config", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+path)
	assert.Contains(t, out, "[timeline]")

	// defaults except for snap and theme; bad answers are asked again
	input := "y\n" + strings.Repeat("\n", 5) + "abc\n15\n" + "\n" + "neon\nlatte\n"
	ta = newTestApp(t, input)
	out, err = ta.run(t, "config", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"abc" is not a number`)
	assert.Contains(t, out, `Invalid theme "neon"`)
	assert.Contains(t, out, "Configuration saved!")

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "latte", cfg.UI.Theme)
	assert.Equal(t, 15, cfg.Timeline.SnapMinutes)
}

func TestVersion(t *testing.T) {
	ta := newTestApp(t, "")
	out, err := ta.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dayline dev (commit: none)\n", out)
}

func TestLaneMarker(t *testing.T) {
	tests := []struct {
		slot  layout.Slot
		lanes int
		want  string
	}{
		{layout.Slot{Column: 0, Columns: 1}, 1, "█"},
		{layout.Slot{Column: 0, Columns: 2}, 2, "█·"},
		{layout.Slot{Column: 1, Columns: 2}, 2, "·█"},
		{layout.Slot{Column: 0, Columns: 1}, 3, "█  "},
		{layout.Slot{Column: 2, Columns: 3}, 3, "··█"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, laneMarker(tt.slot, tt.lanes))
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{0: "0m", 45: "45m", 60: "1h", 90: "1h30m", 605: "10h5m"}
	for in, want := range tests {
		assert.Equal(t, want, FormatDuration(in), "FormatDuration(%d)", in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a long...", truncate("a long title", 9))
	assert.Equal(t, "año...", truncate("añoñoñoñoño", 6))
}
