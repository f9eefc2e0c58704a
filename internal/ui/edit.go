package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/session"
)

// errNoTarget is returned when neither an absolute time nor an offset is given.
var errNoTarget = errors.New("pass a time or --by")

func (a *App) moveCmd() *cobra.Command {
	var (
		date  string
		by    int
		force bool
	)

	cmd := &cobra.Command{
		Use:   "move <id> [HH:MM]",
		Short: "Move an item to a new start time",
		Long: `Move an item to a new start time keeping its length.

The new start is snapped to the grid. Editing one day of a repeating task
moves every occurrence.`,
		Example: `  dayline move 3f2a 10:30
  dayline move 3f2a --by=-15 --date=tomorrow`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.drag(cmd, args, date, by, force, session.Move)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day the item is on (default: today)")
	cmd.Flags().IntVar(&by, "by", 0, "Move by this many minutes instead of to a time")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Save even if it overlaps other items")
	return cmd
}

func (a *App) resizeCmd() *cobra.Command {
	var (
		date  string
		by    int
		force bool
	)

	cmd := &cobra.Command{
		Use:   "resize <id> [HH:MM]",
		Short: "Change when an item ends",
		Example: `  dayline resize 3f2a 11:00
  dayline resize 3f2a --by=30`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.drag(cmd, args, date, by, force, session.Resize)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day the item is on (default: today)")
	cmd.Flags().IntVar(&by, "by", 0, "Change the end by this many minutes instead of to a time")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Save even if it overlaps other items")
	return cmd
}

// drag replays a move or resize as a gesture on the day's session.
func (a *App) drag(cmd *cobra.Command, args []string, date string, by int, force bool, kind session.GestureKind) error {
	day, err := a.parseDay(date)
	if err != nil {
		return err
	}
	ctx := orBackground(cmd.Context())
	s, err := a.newSession(ctx, day)
	if err != nil {
		return err
	}

	var g *session.Gesture
	if kind == session.Resize {
		g, err = s.BeginResize(args[0])
	} else {
		g, err = s.BeginMove(args[0])
	}
	if err != nil {
		return err
	}

	delta, err := gestureDelta(g, args[1:], by)
	if err != nil {
		g.Cancel()
		return err
	}
	g.Drag(delta)
	p, changed := g.End()
	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to change.")
		return nil
	}
	p.Force = force

	out, err := s.Propose(ctx, p)
	verb := "Moved"
	if kind == session.Resize {
		verb = "Resized"
	}
	return a.finish(ctx, cmd.OutOrStdout(), s, out, err, verb)
}

// gestureDelta turns an absolute time or a --by offset into drag minutes.
func gestureDelta(g *session.Gesture, args []string, by int) (int, error) {
	if len(args) == 0 {
		if by == 0 {
			return 0, errNoTarget
		}
		return by, nil
	}
	to, err := item.ToMinutes(args[0])
	if err != nil {
		return 0, err
	}
	span := g.Span()
	if g.Kind() == session.Resize {
		return to - span.End, nil
	}
	return to - span.Start, nil
}

func (a *App) rescheduleCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "reschedule <id> <date>",
		Short: "Move an item to another day",
		Long: `Move an item to another day keeping its time range.

Overlaps on the new day are allowed; they are flagged when the day is shown.`,
		Example: `  dayline reschedule 3f2a tomorrow
  dayline reschedule 3f2a 2025-01-20 --from=2025-01-17`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := a.parseDay(from)
			if err != nil {
				return err
			}
			to, err := a.parseDay(args[1])
			if err != nil {
				return err
			}
			suffix := " to " + dateutil.FormatDate(to)
			return a.transition(cmd, day, "Rescheduled", suffix, func(ctx context.Context, s *session.Session) (session.Outcome, error) {
				return s.Reschedule(ctx, args[0], to)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Day the item is on (default: today)")
	return cmd
}

func (a *App) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Move an item to the trash",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.transition(cmd, a.today(), "Deleted", "", func(ctx context.Context, s *session.Session) (session.Outcome, error) {
				return s.Delete(ctx, args[0])
			})
		},
	}
}

func (a *App) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Take an item out of the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.transition(cmd, a.today(), "Restored", "", func(ctx context.Context, s *session.Session) (session.Outcome, error) {
				return s.Restore(ctx, args[0])
			})
		},
	}
}

// transition runs a day-level write through a session on day.
func (a *App) transition(cmd *cobra.Command, day time.Time, verb, suffix string, run func(context.Context, *session.Session) (session.Outcome, error)) error {
	ctx := orBackground(cmd.Context())
	s, err := a.newSession(ctx, day)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	out, err := run(ctx, s)
	switch {
	case errors.Is(err, session.ErrStaleReload):
		fmt.Fprintf(w, "%s %s%s\n", verb, out.ID, suffix)
		fmt.Fprintln(w, formatMuted("Saved, but the day could not be reloaded."))
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintf(w, "%s %s%s\n", verb, out.ID, suffix)
	return nil
}

func (a *App) trashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trash",
		Short: "List deleted items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, err := a.ensureBackend()
			if err != nil {
				return err
			}
			items, err := backend.Trash(orBackground(cmd.Context()))
			if err != nil {
				return fmt.Errorf("listing trash: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(w, "Trash is empty.")
				return nil
			}
			for _, it := range items {
				when := "--:--      "
				if it.Span != nil {
					when = it.Span.String()
				}
				deleted := ""
				if it.DeletedAt != nil {
					deleted = formatMuted("deleted " + it.DeletedAt.Local().Format("Jan 2 15:04"))
				}
				fmt.Fprintf(w, "  %s  %s  %s  %s  %s\n", dateutil.FormatDate(it.Date), when, kindBadge(it.Kind), it.Title, deleted)
				fmt.Fprint(w, idLine(it))
			}
			return nil
		},
	}
}
