// Package ui implements the dayline command line.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javiermolinar/dayline/internal/api"
	"github.com/javiermolinar/dayline/internal/config"
	"github.com/javiermolinar/dayline/internal/db"
	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/layout"
	"github.com/javiermolinar/dayline/internal/logging"
	"github.com/javiermolinar/dayline/internal/planner"
	"github.com/javiermolinar/dayline/internal/session"
	"github.com/javiermolinar/dayline/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// Backend is what the commands edit through: the local planner or a
// remote server.
type Backend interface {
	session.Backend
	Trash(ctx context.Context) ([]item.Item, error)
}

var (
	_ Backend = (*planner.Service)(nil)
	_ Backend = (*api.Client)(nil)
)

// App holds the CLI application state.
type App struct {
	config *config.Config
	root   *cobra.Command
	debug  bool // log at debug level
	server string

	in     io.Reader
	reader *bufio.Reader // shared by every prompt
	out    io.Writer
	now    func() time.Time

	logger  *zap.Logger
	backend Backend
	closers []func() error
}

// NewApp creates a new CLI application with the given config.
func NewApp(cfg *config.Config) *App {
	a := &App{config: cfg, in: os.Stdin, out: os.Stdout, now: time.Now}
	a.root = a.newRoot()
	return a
}

// newRoot builds the command tree. Flag values live in the tree, so each
// call starts from the flag defaults.
func (a *App) newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "dayline",
		Short: "Plan your day on a timeline",
		Long: `Dayline keeps a day's events and project tasks on a single timeline.

Items are placed with start and end times on a 5-minute grid. Writes that
overlap other items are refused unless you confirm them.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd.Context(), "")
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)

	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Log at debug level")
	root.PersistentFlags().StringVar(&a.server, "server", "", "Server URL (overrides server.url)")

	root.AddCommand(a.versionCmd())
	root.AddCommand(a.configCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(a.dayCmd())
	root.AddCommand(a.addCmd())
	root.AddCommand(a.quickCmd())
	root.AddCommand(a.moveCmd())
	root.AddCommand(a.resizeCmd())
	root.AddCommand(a.rescheduleCmd())
	root.AddCommand(a.deleteCmd())
	root.AddCommand(a.restoreCmd())
	root.AddCommand(a.trashCmd())
	root.AddCommand(a.exportCmd())
	root.AddCommand(a.importCmd())
	root.AddCommand(a.tuiCmd())

	return root
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dayline %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// ExecuteContext runs the CLI application with ctx.
func (a *App) ExecuteContext(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}

// Close releases the database and flushes the logger.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

// input returns the reader prompts answer from.
func (a *App) input() *bufio.Reader {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	return a.reader
}

func (a *App) ensureLogger() (*zap.Logger, error) {
	if a.logger != nil {
		return a.logger, nil
	}
	cfg := a.config.Log
	if a.debug {
		cfg.Level = "debug"
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	a.logger = logger
	return logger, nil
}

// serverURL is the server the client talks to, or empty for local mode.
func (a *App) serverURL() string {
	if a.server != "" {
		return a.server
	}
	return a.config.Server.URL
}

// ensureBackend opens the backend on first use.
func (a *App) ensureBackend() (Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}
	logger, err := a.ensureLogger()
	if err != nil {
		return nil, err
	}

	if url := a.serverURL(); url != "" {
		logger.Debug("using remote backend", zap.String("url", url))
		a.backend = api.NewClient(url, nil)
		return a.backend, nil
	}

	repo, err := db.New(a.config.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.closers = append(a.closers, repo.Close)
	logger.Debug("using local database", zap.String("path", a.config.Storage.DBPath))

	a.backend = planner.New(repo, planner.Options{
		TaskDefaultMinutes: a.config.Timeline.TaskDefaultMinutes,
		TrashRetention:     a.config.TrashRetention(),
		Logger:             logger,
		Now:                a.now,
	})
	return a.backend, nil
}

// newSession opens a session on day.
func (a *App) newSession(ctx context.Context, day time.Time) (*session.Session, error) {
	backend, err := a.ensureBackend()
	if err != nil {
		return nil, err
	}
	s := session.New(backend, day, session.Options{
		SnapMinutes: a.config.Timeline.SnapMinutes,
		Geometry:    a.geometry(),
		Logger:      a.logger,
		Now:         a.now,
	})
	if err := s.Load(ctx, day); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *App) geometry() layout.Geometry {
	start, _ := a.config.DayBounds()
	return layout.Geometry{
		PixelsPerHour: float64(a.config.Timeline.PixelsPerHour),
		MinHeight:     float64(a.config.Timeline.MinItemHeight),
		Origin:        start,
	}
}

func (a *App) tuiCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive timeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd.Context(), date)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to open (YYYY-MM-DD, tomorrow, monday...)")
	return cmd
}

func (a *App) runTUI(ctx context.Context, date string) error {
	day, err := a.parseDay(date)
	if err != nil {
		return err
	}
	s, err := a.newSession(orBackground(ctx), day)
	if err != nil {
		return err
	}
	return tui.Run(s, tui.Options{
		Theme:      a.config.UI.Theme,
		DayStart:   a.config.Timeline.DayStart,
		DayEnd:     a.config.Timeline.DayEnd,
		TaskLength: a.config.Timeline.TaskDefaultMinutes,
		Logger:     a.logger,
	})
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
