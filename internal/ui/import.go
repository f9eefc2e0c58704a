package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/export"
	"github.com/javiermolinar/dayline/internal/item"
)

// ImportReport counts what an import did.
type ImportReport struct {
	Imported  int
	Conflicts []item.Proposal // refused because they overlap existing items
	Skipped   []export.Skipped
}

func (a *App) importCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <file.ics>",
		Short: "Import events from an iCalendar file",
		Long: `Import the events of an iCalendar file as dayline items.

Events tagged TASK become project tasks, all-day events are added
unscheduled. Events that overlap items already on the timeline are
reported and left out unless --force is given. Use "-" to read stdin.`,
		Example: `  dayline import ~/Downloads/team.ics
  dayline export --week | dayline --server=http://host:8420 import -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = a.in
			if args[0] != "-" {
				path, err := resolvePath(args[0])
				if err != nil {
					return err
				}
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("opening calendar: %w", err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			backend, err := a.ensureBackend()
			if err != nil {
				return err
			}
			report, err := importCalendar(orBackground(cmd.Context()), backend, r, force)
			if err != nil {
				return err
			}
			printImportReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Import events even if they overlap existing items")
	return cmd
}

func importCalendar(ctx context.Context, dest Backend, r io.Reader, force bool) (ImportReport, error) {
	var report ImportReport

	proposals, skipped, err := export.ReadCalendar(r, nil)
	if err != nil {
		return report, err
	}
	report.Skipped = skipped

	for _, p := range proposals {
		p.Force = force
		res, err := dest.ProposeWrite(ctx, p)
		switch {
		case err != nil:
			return report, fmt.Errorf("importing %q: %w", p.Title, err)
		case res.OK:
			report.Imported++
		case res.Conflict:
			report.Conflicts = append(report.Conflicts, p)
		default:
			report.Skipped = append(report.Skipped, export.Skipped{UID: p.Title, Reason: res.Message})
		}
	}
	return report, nil
}

func printImportReport(w io.Writer, r ImportReport) {
	fmt.Fprintf(w, "Imported %d item(s)\n", r.Imported)
	if len(r.Conflicts) > 0 {
		fmt.Fprintln(w, formatConflict(fmt.Sprintf("%d overlapping item(s) left out, rerun with --force to add them:", len(r.Conflicts))))
		for _, p := range r.Conflicts {
			fmt.Fprintf(w, "  %s  %s  %s\n", dateutil.FormatDate(p.Date), p.Span, p.Title)
		}
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintln(w, formatMuted(fmt.Sprintf("%d event(s) skipped:", len(r.Skipped))))
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "  %s: %s\n", s.UID, s.Reason)
		}
	}
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}
