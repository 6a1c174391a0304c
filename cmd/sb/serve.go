package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/signalbox/internal/api"
	"github.com/zulandar/signalbox/internal/config"
	"github.com/zulandar/signalbox/internal/ingest"
	"github.com/zulandar/signalbox/internal/logging"
	"github.com/zulandar/signalbox/internal/notify"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Serves the agent messaging API. Requests must carry X-API-Key unless server.require_api_key is false.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Server.APIKeyRequired() && cfg.Server.APIKey == "" {
		return fmt.Errorf("server.require_api_key is set but no key is configured (set server.api_key or %s)", config.APIKeyEnv)
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	log, err := logging.New(cfg.Log.Development)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	dir, err := ingest.NewDir(cfg.Ingest.IssuesDir)
	if err != nil {
		return err
	}
	notifier, err := notify.FromConfig(cfg.Notify, log)
	if err != nil {
		return err
	}

	opts := api.StartOpts{
		DB:            gormDB,
		Port:          port,
		Out:           cmd.OutOrStdout(),
		Log:           log,
		APIKey:        cfg.Server.APIKey,
		RequireAPIKey: cfg.Server.APIKeyRequired(),
		IssuesDir:     dir,
		Notifier:      notifier,
	}
	if cfg.Ingest.S3.Bucket != "" {
		puller, err := newS3Puller(ctx, cfg, dir)
		if err != nil {
			return err
		}
		opts.Puller = puller
	}

	log.Infow("starting api", "port", port, "driver", cfg.Database.Driver, "issues_dir", dir.Root())
	return api.Start(ctx, opts)
}

func newS3Puller(ctx context.Context, cfg *config.Config, dir *ingest.Dir) (*ingest.S3Puller, error) {
	client, err := ingest.NewS3Client(ctx, cfg.Ingest.S3)
	if err != nil {
		return nil, err
	}
	return ingest.NewS3Puller(client, cfg.Ingest.S3, dir)
}
