package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rhuss/packagefeed/pkg/config"
	transporthttp "github.com/rhuss/packagefeed/pkg/transport/http"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the feed server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides server.port)")
	cmd.Flags().StringP("log-level", "l", "", "Log level: debug, info, warn, error (overrides logging.level)")
	return cmd
}

// loadConfig loads configuration and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		port, err := strconv.Atoi(f.Value.String())
		if err != nil {
			return nil, fmt.Errorf("invalid --port: %w", err)
		}
		cfg.Server.Port = port
	}
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		cfg.Logging.Level = f.Value.String()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cfg.Logging.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.Storage.SeedFile != "" {
		n, err := importFile(ctx, app.repo, cfg.Storage.SeedFile)
		if err != nil {
			return fmt.Errorf("seeding repository: %w", err)
		}
		logger.Info("repository seeded", "file", cfg.Storage.SeedFile, "packages", n)
	}

	srv := transporthttp.NewServer(app.handler,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(transporthttp.Timeouts{
			ReadHeader: cfg.Server.ReadHeaderTimeout,
			Idle:       cfg.Server.IdleTimeout,
			Shutdown:   cfg.Server.ShutdownTimeout,
		}),
		transporthttp.WithLogger(logger),
	)

	logger.Info("feed starting",
		"version", version,
		"port", cfg.Server.Port,
		"site_root", cfg.Feed.SiteRoot,
		"storage", cfg.Storage.Type,
		"cache", cfg.Cache.Type,
		"search", cfg.Search.Enabled(),
	)
	return srv.Run(ctx)
}
