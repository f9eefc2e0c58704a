package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/dayline/internal/config"
	"github.com/javiermolinar/dayline/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  dayline config`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = config.DefaultConfigPath()
			}
			return runConfigInteractive(path, a.input(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Config file (default: ~/.config/dayline/config.toml)")
	return cmd
}

func runConfigInteractive(configPath string, reader *bufio.Reader, w io.Writer) error {
	fmt.Fprintf(w, "Config file: %s\n\n", configPath)

	// Load existing config or create defaults
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Fprintln(w, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(w, "Created %s\n\n", configPath)
	}

	printConfig(w, cfg)

	if !promptYesNo(reader, w, "\nWould you like to edit the configuration?") {
		return nil
	}

	cfg.Server.URL = promptValue(reader, w, "Server URL (empty for local database)", cfg.Server.URL)
	cfg.Storage.DBPath = promptValue(reader, w, "Database path", cfg.Storage.DBPath)
	cfg.Storage.TrashRetentionDays = promptInt(reader, w, "Days to keep deleted items", cfg.Storage.TrashRetentionDays)
	cfg.Timeline.DayStart = promptValue(reader, w, "Day start", cfg.Timeline.DayStart)
	cfg.Timeline.DayEnd = promptValue(reader, w, "Day end", cfg.Timeline.DayEnd)
	cfg.Timeline.SnapMinutes = promptInt(reader, w, "Snap to minutes", cfg.Timeline.SnapMinutes)
	cfg.Timeline.TaskDefaultMinutes = promptInt(reader, w, "Default task length (minutes)", cfg.Timeline.TaskDefaultMinutes)
	cfg.UI.Theme = promptTheme(reader, w, cfg.UI.Theme)

	// Validate before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(w, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[server]")
	fmt.Fprintf(w, "  listen               = %s\n", cfg.Server.Listen)
	fmt.Fprintf(w, "  url                  = %s\n", cfg.Server.URL)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  db_path              = %s\n", cfg.Storage.DBPath)
	fmt.Fprintf(w, "  trash_retention_days = %d\n", cfg.Storage.TrashRetentionDays)
	fmt.Fprintf(w, "  purge_schedule       = %s\n", cfg.Storage.PurgeSchedule)
	fmt.Fprintln(w, "\n[timeline]")
	fmt.Fprintf(w, "  day_start            = %s\n", cfg.Timeline.DayStart)
	fmt.Fprintf(w, "  day_end              = %s\n", cfg.Timeline.DayEnd)
	fmt.Fprintf(w, "  snap_minutes         = %d\n", cfg.Timeline.SnapMinutes)
	fmt.Fprintf(w, "  task_default_minutes = %d\n", cfg.Timeline.TaskDefaultMinutes)
	if cfg.Cache.RedisAddr != "" {
		fmt.Fprintln(w, "\n[cache]")
		fmt.Fprintf(w, "  redis_addr           = %s\n", cfg.Cache.RedisAddr)
		fmt.Fprintf(w, "  ttl_seconds          = %d\n", cfg.Cache.TTLSeconds)
	}
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  theme                = %s\n", cfg.UI.Theme)
}

func promptValue(reader *bufio.Reader, w io.Writer, label, current string) string {
	if current == "" {
		fmt.Fprintf(w, "  %s: ", label)
	} else {
		fmt.Fprintf(w, "  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptInt(reader *bufio.Reader, w io.Writer, label string, current int) int {
	for {
		value := promptValue(reader, w, label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		fmt.Fprintf(w, "  %q is not a number\n", value)
	}
}

func promptTheme(reader *bufio.Reader, w io.Writer, current string) string {
	options := strings.Join(theme.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for range 3 {
		value := strings.ToLower(promptValue(reader, w, label, current))
		if theme.IsAvailable(value) {
			return value
		}
		fmt.Fprintf(w, "  Invalid theme %q. Available: %s\n", value, options)
	}
	fmt.Fprintf(w, "  Using %s\n", theme.Default)
	return theme.Default
}
