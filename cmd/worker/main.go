package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"soumiSpace/internal/config"
	"soumiSpace/internal/database"
	"soumiSpace/internal/logging"
	"soumiSpace/internal/metrics"
	"soumiSpace/internal/pdf"
	"soumiSpace/internal/preview"
	"soumiSpace/internal/storage"
	"soumiSpace/internal/store"
	"soumiSpace/internal/tasks"
	"soumiSpace/internal/worker"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg := config.MustLoad()

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	logger.Info("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	// worker 直接读库，不经过 Redis 缓存。
	fetcher := store.NewGormStore(db, cfg.Store.Timeout)

	var renderer worker.PDFRenderer
	if cfg.Worker.PDFEnabled {
		renderer = pdf.NewGenerator(pdf.DefaultTimeout)
	}

	publishHandler := worker.NewPublishTaskHandler(
		db,
		fetcher,
		storageClient,
		preview.NewBridge(redisClient, logger),
		renderer,
		cfg.Worker.KeepSnapshots,
		logger,
	)

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
	})

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeSitePublish, publishHandler)

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.Int("concurrency", cfg.Worker.Concurrency),
		slog.Bool("pdf_enabled", cfg.Worker.PDFEnabled),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
