package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadcall_backend/internal/adapters"
	"leadcall_backend/internal/adapters/storage"
	"leadcall_backend/internal/calls/processor"
	"leadcall_backend/internal/classification"
	"leadcall_backend/internal/leads/repository"
	"leadcall_backend/internal/scheduler"
	"leadcall_backend/platform/bootstrap"
	"leadcall_backend/platform/config"
	"leadcall_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting call event worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.OpenDatabase(ctx, cfg, log, false)
	if err != nil {
		log.Error("failed to open database", "error", err)
		panic("failed to open database: " + err.Error())
	}
	defer pool.Close()

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage", "error", err)
		panic("failed to initialize storage: " + err.Error())
	}
	bucket := cfg.GetMinioBucketCallArtifacts()
	if err := bootstrap.EnsureBucket(ctx, log, storageSvc, bucket); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}

	llm, err := classification.NewModel(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize classification model", "error", err)
		panic("failed to initialize classification model: " + err.Error())
	}
	classifier := classification.New(llm, log)

	callProcessor := processor.New(
		repository.New(pool),
		adapters.NewCallArtifactStore(storageSvc, bucket),
		processor.NewHTTPRecordingFetcher(cfg.GetRecordingFetchTimeout(), cfg.GetRecordingMaxBytes(),
			processor.WithAllowedHosts(cfg.GetRecordingAllowedHosts()...)),
		classifier,
		log,
	)

	worker, err := scheduler.NewWorker(cfg, callProcessor, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	monitor, err := scheduler.NewArchiveMonitor(cfg, bootstrap.DurationEnv("ARCHIVE_MONITOR_INTERVAL", 15*time.Minute), log)
	if err != nil {
		log.Error("failed to initialize archive monitor", "error", err)
		panic("failed to initialize archive monitor: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		monitor.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}
