package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"tableizer/api/internal/cache"
	"tableizer/api/internal/config"
	"tableizer/api/internal/database"
	"tableizer/api/internal/log"
	"tableizer/api/internal/queue"
	"tableizer/api/internal/repository"
	"tableizer/api/internal/storage"
	"tableizer/api/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer redisClient.Close()

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}

	imageRepo := repository.NewImageRepository(dbPool)
	producer := queue.NewProducer(redisClient, cfg.Worker.Stream)
	processor := tasks.NewProcessor(imageRepo, objectStore, producer, logger)

	consumer := queue.NewConsumer(
		redisClient,
		cfg.Worker.Stream,
		cfg.Worker.Group,
		cfg.Worker.Consumer,
		cfg.Worker.ClaimInterval,
		logger,
		processor,
	)

	logger.Info().
		Str("stream", cfg.Worker.Stream).
		Str("group", cfg.Worker.Group).
		Msg("worker starting")

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("consumer stopped")
	}

	logger.Info().Msg("worker exited cleanly")
}
