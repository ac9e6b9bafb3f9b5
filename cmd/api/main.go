package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"soumiSpace/internal/api"
	"soumiSpace/internal/auth"
	"soumiSpace/internal/config"
	"soumiSpace/internal/content"
	"soumiSpace/internal/database"
	"soumiSpace/internal/editor"
	"soumiSpace/internal/logging"
	"soumiSpace/internal/metrics"
	"soumiSpace/internal/preview"
	"soumiSpace/internal/render"
	"soumiSpace/internal/storage"
	"soumiSpace/internal/store"
	"soumiSpace/internal/tasks"
	"soumiSpace/internal/upload"
)

const (
	noticeCapacity  = 32
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg := config.MustLoad()

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("api bootstrapped",
		slog.String("db_host", cfg.Database.Host),
		slog.Int("db_port", cfg.Database.Port),
		slog.String("db_name", cfg.Database.Name),
	)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("database migrated")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	st := store.NewCachedStore(store.NewGormStore(db, cfg.Store.Timeout), redisClient, cfg.Store.CacheTTL, logger)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()
	publisher := tasks.NewPublishEnqueuer(asynqClient, cfg.Worker.PDFEnabled)

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		return fmt.Errorf("init storage client: %w", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	authService, err := auth.NewAuthServiceFromConfig(cfg.Auth)
	if err != nil {
		return fmt.Errorf("init auth service: %w", err)
	}

	notices := editor.NewNoticeBoard(noticeCapacity, editor.NoticeTTL)

	hub := preview.NewHub(logger)
	surface := preview.NewSurface(render.New(nil), preview.LoaderFunc(func(ctx context.Context) *content.Site {
		return content.Load(ctx, st, logger)
	}), logger)
	hub.AttachSurface(surface)

	bridge := preview.NewBridge(redisClient, logger)
	hub.SetBridge(bridge)
	go func() {
		if err := bridge.Run(ctx, hub); err != nil {
			logger.Error("preview bridge stopped", slog.Any("error", err))
		}
	}()

	synchronizer := editor.New(editor.Options{
		Store:          st,
		Fetcher:        st,
		Notifier:       notices,
		Broadcaster:    hub,
		Publisher:      publisher,
		Logger:         logger,
		OnSectionSaved: metrics.ObserveSectionSave,
	})
	synchronizer.Reload(ctx)
	hub.SetSource(synchronizer)

	var scanner upload.Scanner
	if cfg.Upload.ClamdAddr != "" {
		scanner = upload.NewClamdScanner(cfg.Upload.ClamdAddr)
	}
	validator := upload.NewValidator(cfg.Upload.MaxBytes, scanner)

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, authService, api.Handlers{
		Auth:     api.NewAuthHandler(db, authService, redisClient, logger, cfg.Auth.LoginRateLimitPerHour),
		Site:     api.NewSiteHandler(st, surface, logger),
		Editor:   api.NewEditorHandler(synchronizer, notices, logger),
		Asset:    api.NewAssetHandler(validator, synchronizer, notices, logger),
		Snapshot: api.NewSnapshotHandler(storageClient, logger),
		Ws:       api.NewWsHandler(hub, authService, logger, cfg.API.AllowedOrigins),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           api.WithCORS(router, cfg.API.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}
