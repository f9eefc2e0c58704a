package ui

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javiermolinar/dayline/internal/api"
	"github.com/javiermolinar/dayline/internal/cache"
	"github.com/javiermolinar/dayline/internal/db"
	"github.com/javiermolinar/dayline/internal/metrics"
	"github.com/javiermolinar/dayline/internal/planner"
)

// Purger removes expired items from the trash.
type Purger interface {
	PurgeTrash(ctx context.Context) (int64, error)
}

func (a *App) serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planner API server",
		Long: `Serve the planner over HTTP.

The server is the single authority for conflict checks, so several
clients can edit the same days safely. Deleted items older than
trash_retention_days are purged on purge_schedule.`,
		Example: `  dayline serve
  dayline serve --listen=0.0.0.0:8420`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = a.config.Server.Listen
			}
			ctx, stop := signal.NotifyContext(orBackground(cmd.Context()), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (overrides server.listen)")
	return cmd
}

func (a *App) serve(ctx context.Context, listen string) error {
	logger, err := a.ensureLogger()
	if err != nil {
		return err
	}
	m := metrics.New()

	repo, err := db.New(a.config.Storage.DBPath, db.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.closers = append(a.closers, repo.Close)

	dayCache := a.openCache(ctx, logger)
	a.closers = append(a.closers, dayCache.Close)

	svc := planner.New(repo, planner.Options{
		TaskDefaultMinutes: a.config.Timeline.TaskDefaultMinutes,
		CacheTTL:           a.config.CacheTTL(),
		TrashRetention:     a.config.TrashRetention(),
		Cache:              dayCache,
		Logger:             logger,
		Metrics:            m,
	})

	jobs := cron.New()
	if _, err := schedulePurge(ctx, jobs, a.config.Storage.PurgeSchedule, svc, logger); err != nil {
		return err
	}
	jobs.Start()
	defer func() { <-jobs.Stop().Done() }()

	srv := api.NewServer(svc, api.ServerOptions{Logger: logger, Metrics: m})
	return srv.Run(ctx, listen)
}

// openCache connects to Redis when configured. The server still runs
// without it, reading every day from the database.
func (a *App) openCache(ctx context.Context, logger *zap.Logger) cache.Cache {
	cfg := a.config.Cache
	if cfg.RedisAddr == "" {
		return cache.Nop{}
	}
	c, err := cache.NewRedis(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.Warn("redis unavailable, serving without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		return cache.Nop{}
	}
	return c
}

// schedulePurge registers the trash purge on spec.
func schedulePurge(ctx context.Context, jobs *cron.Cron, spec string, p Purger, logger *zap.Logger) (cron.EntryID, error) {
	id, err := jobs.AddFunc(spec, func() {
		n, err := p.PurgeTrash(ctx)
		if err != nil {
			logger.Error("trash purge failed", zap.Error(err))
			return
		}
		logger.Debug("trash purge finished", zap.Int64("purged", n))
	})
	if err != nil {
		return 0, fmt.Errorf("invalid purge_schedule %q: %w", spec, err)
	}
	return id, nil
}
