package ui

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/export"
)

// copyToClipboard is swapped out in tests.
var copyToClipboard = clipboard.WriteAll

func (a *App) exportCmd() *cobra.Command {
	var (
		from   string
		to     string
		week   bool
		format string
		output string
		toClip bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export days as iCalendar or a text agenda",
		Long: `Export a day, a week or a range of days.

The ics format can be imported by calendar apps; each occurrence of a
repeating task becomes its own event. The text format is an agenda that
flags overlapping items.`,
		Example: `  dayline export > today.ics
  dayline export --week --format=text --clipboard
  dayline export --from=2025-01-13 --to=2025-01-17 -o week.ics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := a.parseDay(from)
			if err != nil {
				return err
			}
			r := dateutil.DateRange{Start: start, End: start}
			switch {
			case week:
				r = export.Week(start)
			case to != "":
				end, err := a.parseDay(to)
				if err != nil {
					return err
				}
				r.End = end
			}

			backend, err := a.ensureBackend()
			if err != nil {
				return err
			}
			days, err := export.Collect(orBackground(cmd.Context()), backend, r)
			if err != nil {
				return err
			}

			var text string
			switch format {
			case "ics":
				text = export.Calendar(days, export.CalendarOptions{Stamp: a.now()})
			case "text":
				text = export.Agenda(days)
			default:
				return fmt.Errorf("unknown format %q: must be ics or text", format)
			}

			if toClip {
				if err := copyToClipboard(text); err != nil {
					return fmt.Errorf("copying to clipboard: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Copied %d day(s) to the clipboard.\n", len(days))
				return nil
			}
			if output != "" {
				if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d day(s) to %s\n", len(days), output)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (default: today)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (default: --from)")
	cmd.Flags().BoolVar(&week, "week", false, "Export the Monday to Sunday week containing --from")
	cmd.Flags().StringVar(&format, "format", "ics", "Output format: ics or text")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&toClip, "clipboard", false, "Copy to the clipboard instead of printing")
	cmd.MarkFlagsMutuallyExclusive("week", "to")
	cmd.MarkFlagsMutuallyExclusive("clipboard", "output")

	return cmd
}
