package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"leadcall_backend/internal/calls"
	"leadcall_backend/internal/dynamicvars"
	apphttp "leadcall_backend/internal/http"
	"leadcall_backend/internal/http/router"
	"leadcall_backend/internal/leads/repository"
	"leadcall_backend/internal/scheduler"
	"leadcall_backend/internal/voice"
	"leadcall_backend/platform/bootstrap"
	"leadcall_backend/platform/config"
	"leadcall_backend/platform/logger"
	"leadcall_backend/platform/redisclient"
	"leadcall_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting api", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.OpenDatabase(ctx, cfg, log, true)
	if err != nil {
		log.Error("failed to open database", "error", err)
		panic("failed to open database: " + err.Error())
	}
	defer pool.Close()

	queue, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize queue client", "error", err)
		panic("failed to initialize queue client: " + err.Error())
	}
	defer func() { _ = queue.Close() }()

	cache, closeCache, err := newVariableCache(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize variable cache", "error", err)
		panic("failed to initialize variable cache: " + err.Error())
	}
	defer closeCache()

	repo := repository.New(pool)
	vars := dynamicvars.NewProvider(repo, cache, log)

	if !cfg.IsVoiceEnabled() {
		log.Warn("VOICE_API_KEY or VOICE_AGENT_ID not configured; outbound calls disabled")
	}
	voiceClient := voice.NewClient(cfg, log)

	val := validator.New()
	callsModule := calls.NewModule(repo, queue, vars, voiceClient, cfg, val, log)

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: pool,
		Modules: []apphttp.Module{
			callsModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// newVariableCache returns the cache shared with the voice platform lookup. The Redis
// backend lets several API replicas serve a conversation the initiator cached.
func newVariableCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (dynamicvars.Cache, func(), error) {
	ttl := cfg.GetVariableCacheTTL()
	if strings.EqualFold(cfg.GetVariableCacheBackend(), "memory") {
		log.Info("using in-process variable cache", "ttl", ttl.String())
		return dynamicvars.NewMemoryCache(ttl, time.Now), func() {}, nil
	}

	rdb, err := redisclient.Open(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, nil, err
	}
	log.Info("using redis variable cache", "ttl", ttl.String())
	return dynamicvars.NewRedisCache(rdb, ttl), func() { _ = rdb.Close() }, nil
}
