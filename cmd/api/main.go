package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"scriptvault/api/internal/audit"
	"scriptvault/api/internal/cache"
	"scriptvault/api/internal/config"
	"scriptvault/api/internal/handlers"
	"scriptvault/api/internal/jobs"
	"scriptvault/api/internal/log"
	"scriptvault/api/internal/repository"
	"scriptvault/api/internal/server"
	"scriptvault/api/internal/service"
	"scriptvault/api/internal/session"
	"scriptvault/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	objectStore, err := newObjectStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("script cache unavailable, continuing without it")
			redisClient = nil
		}
	}

	records := storage.NewRecordStore(objectStore, cfg.Storage.CallTimeout, logger)
	trail := audit.NewTrail(records, logger)

	userRepo := repository.NewUserRepository(records)
	codeRepo := repository.NewAccessCodeRepository(records)
	scriptRepo := repository.NewScriptRepository(records)

	sessions := session.NewManager(cfg.Security.SessionTTL, logger)

	codeService := service.NewAccessCodeService(codeRepo, trail, cfg, logger)
	authService := service.NewAuthService(userRepo, codeService, sessions, trail, cfg, logger)
	scriptService := service.NewScriptService(scriptRepo, redisClient, trail, cfg, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, authService, codeService, scriptService, sessions)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler, err := jobs.NewScheduler(sessions, cfg.Security.SweepSpec, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler init failed")
	}
	scheduler.Start()

	if state, err := authService.EnsureAdmin(ctx); err != nil {
		logger.Warn().Err(err).Str("state", string(state)).Msg("startup admin bootstrap failed")
	} else {
		logger.Info().Str("state", string(state)).Msg("admin bootstrap")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, redisClient)
}

func newObjectStore(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (storage.ObjectStore, error) {
	if cfg.Storage.Driver == "memory" {
		logger.Warn().Msg("using in-memory object store, data is volatile")
		return storage.NewMemoryStore(), nil
	}

	store, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}
	return store, nil
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
