package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/planner"
	"github.com/javiermolinar/dayline/internal/recurrence"
	"github.com/javiermolinar/dayline/internal/session"
)

func (a *App) addCmd() *cobra.Command {
	var (
		date   string
		start  string
		end    string
		kind   string
		repeat string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add an event or project task",
		Long: `Add an item to a day.

Without --start and --end the item is unscheduled. A task given only a
start lasts task_default_minutes. If the new item overlaps others you are
asked whether to save it anyway.`,
		Example: `  dayline add "Standup" --start=09:00 --end=09:15
  dayline add "Write report" --kind=task --start=14:00 --date=tomorrow
  dayline add "Gym" --kind=task --start=18:00 --end=19:00 --repeat=mon,wed,fri`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := item.ParseKind(kind)
			if err != nil {
				return err
			}
			day, err := a.parseDay(date)
			if err != nil {
				return err
			}
			span, err := planner.ResolveSpan(k, start, end, a.config.Timeline.TaskDefaultMinutes)
			if err != nil {
				return err
			}

			p := item.Proposal{
				Kind:  k,
				Date:  day,
				Span:  span,
				Title: strings.Join(args, " "),
				Force: force,
			}
			if repeat != "" {
				days, err := recurrence.ParseDays(repeat)
				if err != nil {
					return err
				}
				if p.Recurrence, err = recurrence.Weekly(days); err != nil {
					return err
				}
			}

			ctx := orBackground(cmd.Context())
			s, err := a.newSession(ctx, day)
			if err != nil {
				return err
			}
			out, err := s.Propose(ctx, p)
			return a.finish(ctx, cmd.OutOrStdout(), s, out, err, "Added")
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day (YYYY-MM-DD, tomorrow, monday..., default: today)")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM)")
	cmd.Flags().StringVar(&end, "end", "", "End time (HH:MM)")
	cmd.Flags().StringVar(&kind, "kind", "event", "Kind: event or task")
	cmd.Flags().StringVar(&repeat, "repeat", "", "Repeat a task weekly on these days (mon,wed or weekdays)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Save even if it overlaps other items")

	return cmd
}

func (a *App) quickCmd() *cobra.Command {
	var (
		kind  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "quick <text>",
		Short: "Add an item from a line of text",
		Long: `Add an item by typing it the way you would write it down.

A range like "9-10", "9.30-11" or "14:00-15:30" becomes the time range and
is removed from the title. "today", "tomorrow" and "next monday" pick the
day. Text without a range is added unscheduled.`,
		Example: `  dayline quick 9-10 team sync
  dayline quick tomorrow 14.30-15 dentist
  dayline quick --kind=task call the bank`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := item.ParseKind(kind)
			if err != nil {
				return err
			}
			ctx := orBackground(cmd.Context())
			s, err := a.newSession(ctx, a.today())
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			out, err := s.QuickAdd(ctx, k, text)
			if force && err == nil && out.State == session.Conflicted {
				out, err = s.Resolve(ctx, session.Force)
			}
			return a.finish(ctx, cmd.OutOrStdout(), s, out, err, "Added")
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "event", "Kind: event or task")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Save even if it overlaps other items")
	return cmd
}

// finish reports the outcome of a write. A conflict asks the user whether
// to cancel or save anyway.
func (a *App) finish(ctx context.Context, w io.Writer, s *session.Session, out session.Outcome, err error, verb string) error {
	if err == nil && out.State == session.Conflicted {
		printConflicts(w, out.Conflicts, out.Authoritative)
		decision := session.Cancel
		if promptYesNo(a.input(), w, "Save anyway?") {
			decision = session.Force
		}
		out, err = s.Resolve(ctx, decision)
		if err == nil && out.State == session.Idle {
			fmt.Fprintln(w, "Cancelled, nothing was saved.")
			return nil
		}
	}

	switch {
	case errors.Is(err, session.ErrStaleReload):
		fmt.Fprintf(w, "%s %s\n", verb, out.ID)
		fmt.Fprintln(w, formatMuted("Saved, but the day could not be reloaded."))
		return nil
	case err != nil:
		return err
	}

	fmt.Fprintf(w, "%s %s\n", verb, out.ID)
	if it, ok := s.Find(out.ID); ok {
		fmt.Fprintf(w, "  %s  %s\n", dateutil.FormatDate(s.Date()), it)
	}
	return nil
}

func promptYesNo(reader *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

// parseDay accepts the same day words as quick add, defaulting to today.
func (a *App) parseDay(s string) (time.Time, error) {
	d, err := dateutil.ParseDay(s, a.now())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (a *App) today() time.Time {
	d, _ := a.parseDay("")
	return d
}
