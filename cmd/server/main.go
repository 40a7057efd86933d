package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/zynqcloud/kvfs/internal/config"
	"github.com/zynqcloud/kvfs/internal/engine"
	"github.com/zynqcloud/kvfs/internal/httpapi"
	"github.com/zynqcloud/kvfs/internal/kv"
	"github.com/zynqcloud/kvfs/internal/metrics"
	"github.com/zynqcloud/kvfs/internal/sweep"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if cfg.ServiceToken == "" {
		logger.Warn("KVFS_SERVICE_TOKEN is not set — all requests will be accepted (dev mode only)")
	}

	sub, err := openSubstrate(cfg)
	if err != nil {
		logger.Fatal("failed to open substrate", zap.String("substrate", cfg.Substrate), zap.Error(err))
	}

	mx := metrics.New()
	eng := engine.New(sub, logger, mx)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	if cfg.SweepOnStartup {
		sweep.RunPeriodic(sweepCtx, eng, time.Duration(cfg.SweepIntervalSeconds)*time.Second)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpapi.New(cfg, eng, logger, mx),
		// Large timeouts accommodate slow substrates and long-running streams.
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("kvfs starting", zap.String("port", cfg.Port), zap.String("substrate", cfg.Substrate))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// drainSignals is defined in shutdown.go (os.Interrupt) and extended by
	// shutdown_unix.go (+ SIGTERM) via build tags — no OS-specific imports here.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, drainSignals...)
	<-quit

	logger.Info("shutdown signal received — draining connections")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownDrainSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := eng.Close(); err != nil {
		logger.Error("substrate close failed", zap.Error(err))
	}
	logger.Info("kvfs stopped")
}

func openSubstrate(cfg *config.Config) (kv.Substrate, error) {
	switch cfg.Substrate {
	case "dir":
		return kv.NewDir(cfg.DirPath)
	case "memory":
		return kv.NewMemory(), nil
	default:
		return kv.OpenBolt(cfg.BoltPath, kv.BoltOptions{})
	}
}
