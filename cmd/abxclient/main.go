package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/zsiec/abxclient/internal/client"
	"github.com/zsiec/abxclient/internal/config"
	"github.com/zsiec/abxclient/internal/health"
	"github.com/zsiec/abxclient/internal/logger"
	"github.com/zsiec/abxclient/internal/server"
	"github.com/zsiec/abxclient/internal/store"
	"github.com/zsiec/abxclient/pkg/version"
)

func main() {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file (defaults and ABX_* environment when empty)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	base, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	log := logger.Root(base, runID)
	log.WithFields(map[string]interface{}{
		"server":      cfg.Server.Addr(),
		"store":       cfg.Store.Backend,
		"config_path": configPath,
	}).Debug("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.WithField("signal", sig.String()).Warn("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := run(ctx, cfg, log, runID); err != nil {
		log.Errorf("Fatal error: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger, runID string) error {
	st, err := store.Open(ctx, cfg.Store, runID)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.WithError(err).Error("Failed to close packet store")
		}
	}()

	if cfg.Metrics.Enabled {
		mgr := health.NewManager(log)
		mgr.Register(health.NewStoreChecker(st, cfg.Store.Backend))

		srvCtx, stop := context.WithCancel(ctx)
		defer stop()
		srv := server.New(cfg.Metrics, log, mgr)
		go func() {
			if err := srv.Start(srvCtx); err != nil {
				log.WithError(err).Error("Metrics server error")
			}
		}()
	}

	_, err = client.Run(ctx, cfg, client.Options{
		Store:  st,
		Logger: log,
		Output: os.Stdout,
		RunID:  runID,
	})
	return err
}
