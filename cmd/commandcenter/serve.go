package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"commandcenter/internal/config"
	"commandcenter/internal/domain"
	"commandcenter/internal/handler"
	"commandcenter/internal/hub"
	"commandcenter/internal/kernel"
	"commandcenter/internal/metrics"
	"commandcenter/internal/repository"
	"commandcenter/internal/repository/sqlite"
	"commandcenter/internal/service"
	"commandcenter/internal/session"
	"commandcenter/internal/watcher"
)

// loadConfig honours --config, falling back to the search path
func loadConfig() (*config.Config, string, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if path != "" {
		logger.Info("Config loaded", zap.String("path", path))
	} else {
		logger.Info("No config file found, using defaults")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	bus := service.NewEventBus()
	sink := kernel.NewSink(cfg.Kernel.SinkCapacity)
	sup := kernel.NewSupervisor(cfg.KernelCommand(), logger)

	var (
		archiver *repository.Archiver
		store    repository.TranscriptStore
	)
	if cfg.Archive.Enabled {
		repo, err := sqlite.New(cfg.Archive.Path)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer repo.Close()
		logger.Info("Transcript archive opened", zap.String("path", cfg.Archive.Path))

		opts := cfg.ArchiverOptions()
		opts.OnDrop = m.ArchiveDropped.Inc
		archiver = repository.NewArchiver(repo, opts, logger)
		store = repo
	}

	sess, err := session.New(session.Deps{
		Supervisor: sup,
		Sink:       sink,
		Graph:      domain.NewGraph(domain.WithPhysics(cfg.Physics)),
		Bus:        bus,
		Archive:    archiver,
		Metrics:    m,
		Logger:     logger,
	}, cfg.SessionOptions())
	if err != nil {
		return err
	}

	eventHub := hub.New(sess, logger, hub.WithClientGauge(m.HubClients))
	api := handler.NewAPIHandler(sess, store, cfg.Kernel.StopTimeout.Duration(), logger)
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.NewRouter(api, handler.RouterOptions{
			Hub:         eventHub,
			Metrics:     m.Handler(),
			CORSOrigins: cfg.Server.CORSOrigins,
			Logger:      logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sess.Run(gctx) })
	g.Go(func() error { return eventHub.Run(gctx, bus) })
	if archiver != nil {
		g.Go(func() error { return archiver.Run(gctx) })
	}
	if path != "" {
		w := watcher.New(path, func() { reloadPhysics(path, sess, logger) }, logger)
		g.Go(func() error { return w.Watch(gctx) })
	}

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		// release readers blocked on a full sink before waiting for the kernel
		sink.Close()
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Kernel.StopTimeout.Duration())
		defer cancel()
		if err := sess.Stop(stopCtx); err != nil {
			logger.Warn("Kernel stop", zap.Error(err))
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if launchOnRun || cfg.Kernel.AutoLaunch {
		if err := sess.Launch(); err != nil {
			logger.Warn("Kernel launch on startup failed", zap.Error(err))
		}
	}

	return g.Wait()
}

// reloadPhysics re-reads the config file and hands new layout constants to the session
func reloadPhysics(path string, sess *session.Session, logger *zap.Logger) {
	cfg, _, err := config.LoadFromPath(path)
	if err != nil {
		logger.Warn("Ignoring invalid config change", zap.String("path", path), zap.Error(err))
		return
	}
	sess.SetPhysics(cfg.Physics)
	logger.Info("Physics reloaded", zap.Float64("repulsion", cfg.Physics.Repulsion), zap.Float64("damping", cfg.Physics.Damping))
}
