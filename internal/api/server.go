// Package api serves the signalbox HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/signalbox/internal/ingest"
	"github.com/zulandar/signalbox/internal/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Puller fetches report files from object storage into the issues directory.
type Puller interface {
	Pull(ctx context.Context, key string) (*ingest.Pulled, error)
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB   *gorm.DB
	Port int
	Out  io.Writer
	Log  *zap.SugaredLogger

	// APIKey is compared against the X-API-Key header when RequireAPIKey is set.
	APIKey        string
	RequireAPIKey bool

	IssuesDir *ingest.Dir
	// Puller is optional; without it /s3/pull-file reports a configuration error.
	Puller   Puller
	Notifier *notify.Dispatcher

	// Now supplies the visibility clock. Defaults to time.Now.
	Now func() time.Time
}

type server struct {
	db       *gorm.DB
	log      *zap.SugaredLogger
	now      func() time.Time
	proc     *ingest.Processor
	puller   Puller
	notifier *notify.Dispatcher
}

// NewRouter builds the gin engine with every route and middleware installed.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("api: db is required")
	}
	if opts.RequireAPIKey && opts.APIKey == "" {
		return nil, fmt.Errorf("api: require_api_key is set but no API key is configured")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IssuesDir == nil {
		dir, err := ingest.NewDir("issues")
		if err != nil {
			return nil, fmt.Errorf("api: %w", err)
		}
		opts.IssuesDir = dir
	}

	s := &server{
		db:       opts.DB,
		log:      opts.Log,
		now:      opts.Now,
		proc:     ingest.NewProcessor(opts.DB, opts.IssuesDir, opts.Log),
		puller:   opts.Puller,
		notifier: opts.Notifier,
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Log), securityHeaders())
	s.registerRoutes(router, opts)
	return router, nil
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			opts.Log.Warnw("api: shutdown", "error", err)
		}
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "signalbox API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
