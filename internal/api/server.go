// Package api exposes the planner over HTTP and provides the matching client.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/logging"
	"github.com/javiermolinar/dayline/internal/metrics"
	"github.com/javiermolinar/dayline/internal/planner"
	"github.com/javiermolinar/dayline/internal/requestid"
)

// Planner is the service the handlers call.
type Planner interface {
	List(ctx context.Context, day time.Time, kind item.Kind) ([]item.Item, error)
	Items(ctx context.Context, day time.Time) ([]item.Item, error)
	ProposeWrite(ctx context.Context, p item.Proposal) (item.WriteResult, error)
	Reschedule(ctx context.Context, id string, day time.Time) error
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Trash(ctx context.Context) ([]item.Item, error)
	PreviewQuickAdd(ctx context.Context, text string, today time.Time) (planner.Preview, error)
	TaskDefaultMinutes() int
}

// Server serves the planner API.
type Server struct {
	planner Planner
	logger  *zap.Logger
	metrics *metrics.Metrics
	engine  *gin.Engine
	now     func() time.Time
}

// ServerOptions configure a Server.
type ServerOptions struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// NewServer builds the router.
func NewServer(p Planner, opts ServerOptions) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		planner: p,
		logger:  logging.OrNop(opts.Logger),
		metrics: opts.Metrics,
		now:     opts.Now,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestid.Middleware(), logging.GinMiddleware(s.logger), s.metrics.Middleware(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/items", s.listItems)
	v1.GET("/trash", s.listTrash)
	v1.POST("/proposals", s.proposeWrite)
	v1.POST("/items/:id/reschedule", s.reschedule)
	v1.DELETE("/items/:id", s.deleteItem)
	v1.POST("/items/:id/restore", s.restore)
	v1.POST("/quick-add/preview", s.previewQuickAdd)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
