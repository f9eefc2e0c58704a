package ui

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) dayCmd() *cobra.Command {
	var (
		verbose bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:     "day [date]",
		Aliases: []string{"show"},
		Short:   "Show a day's timeline",
		Long: `Display one day's items in start order.

Items that overlap are drawn in side-by-side lanes and flagged with the
items they collide with. The ID under each row is what the editing
commands take.`,
		Example: `  dayline day
  dayline day tomorrow
  dayline day 2025-01-15 --verbose`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				DisableColor()
			}

			date := ""
			if len(args) == 1 {
				date = args[0]
			}
			day, err := a.parseDay(date)
			if err != nil {
				return err
			}

			backend, err := a.ensureBackend()
			if err != nil {
				return err
			}
			items, err := backend.Items(orBackground(cmd.Context()), day)
			if err != nil {
				return fmt.Errorf("fetching items: %w", err)
			}

			PrintDay(cmd.OutOrStdout(), day, items, a.geometry(), PrintOpts{Verbose: verbose})
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show full titles")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	return cmd
}
