package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/golfmax/fitting-edge/internal/api/handler"
	"github.com/golfmax/fitting-edge/internal/api/middleware"
	"github.com/golfmax/fitting-edge/internal/config"
	"github.com/golfmax/fitting-edge/internal/domain/repository"
	"github.com/golfmax/fitting-edge/internal/infrastructure/cache"
	"github.com/golfmax/fitting-edge/internal/infrastructure/places"
	"github.com/golfmax/fitting-edge/internal/infrastructure/postgres"
	"github.com/golfmax/fitting-edge/internal/infrastructure/queue"
	"github.com/golfmax/fitting-edge/internal/infrastructure/storage"
	"github.com/golfmax/fitting-edge/internal/notify"
	"github.com/golfmax/fitting-edge/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	reviewSvc, err := buildReviewService(cfg, logger)
	if err != nil {
		return err
	}

	uploadSvc, cleanup, err := buildUploadService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	r := setupRouter(cfg, logger, reviewSvc, uploadSvc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// buildReviewService wires the reviews proxy: Places client, optional
// Redis edge tier and the in-process micro cache.
func buildReviewService(cfg *config.Config, logger *slog.Logger) (usecase.ReviewService, error) {
	var placesClient *places.Client
	if cfg.Reviews.GoogleAPIKey != "" || cfg.Reviews.MockFile != "" {
		placesClient = places.NewClient(places.ClientConfig{
			APIKey:   cfg.Reviews.GoogleAPIKey,
			MockFile: cfg.Reviews.MockFile,
		})
	} else {
		logger.Warn("reviews proxy disabled, no Google API key or mock file configured")
	}

	var edge repository.ResponseCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		edge = cache.NewRedisResponseCache(redisClient, cfg.Reviews.CacheTTL)
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis.Addr))
	}

	micro := cache.NewMemory(cfg.Reviews.MicroCacheTTL)

	// A nil *places.Client wrapped in the interface would not compare
	// equal to nil, so the unconfigured path passes a nil literal.
	svcCfg := usecase.ReviewServiceConfig{DefaultPlaceID: cfg.Reviews.PlaceID}
	if placesClient == nil {
		return usecase.NewReviewService(nil, edge, micro, svcCfg), nil
	}
	return usecase.NewReviewService(placesClient, edge, micro, svcCfg), nil
}

// buildUploadService wires the intake pipeline: MinIO storage, the
// optional Postgres ledger and the notification sink, which is either
// the RabbitMQ queue or the in-process dispatcher. The returned cleanup
// closes whichever optional clients were opened.
func buildUploadService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (usecase.UploadService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var objectStorage repository.ObjectStorage
	if cfg.MinIO.Enabled() {
		storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
			Endpoint:       cfg.MinIO.Endpoint,
			PublicEndpoint: cfg.MinIO.PublicEndpoint,
			AccessKey:      cfg.MinIO.AccessKey,
			SecretKey:      cfg.MinIO.SecretKey,
			Bucket:         cfg.MinIO.Bucket,
			UseSSL:         cfg.MinIO.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MinIO: %w", err)
		}
		objectStorage = storageClient
		logger.Info("connected to MinIO", slog.String("bucket", cfg.MinIO.Bucket))
	} else {
		logger.Warn("upload pipeline disabled, no MinIO endpoint or bucket configured")
	}

	var ledger repository.SubmissionRepository
	if cfg.Database.DSN != "" {
		pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN))
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		closers = append(closers, pgClient.Close)
		ledger = postgres.NewSubmissionRepository(pgClient.Pool())
		logger.Info("connected to PostgreSQL")
	}

	var notifier usecase.Notifier
	if cfg.Notify.QueueEnabled {
		queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		closers = append(closers, func() { queueClient.Close() })
		notifier = queueClient
		logger.Info("connected to RabbitMQ, notifications go through the queue")
	} else {
		notifier = notify.NewDispatcher(
			notify.NewWebhook(cfg.Upload.WebhookURL, 10*time.Second),
			notify.NewEmail(notify.EmailConfig{
				APIKey:     cfg.Notify.SendGridAPIKey,
				Recipients: cfg.Notify.To,
				From:       cfg.Notify.From,
				FromName:   cfg.Notify.FromName,
				Subject:    cfg.Notify.Subject,
			}),
			logger,
		)
	}

	svc := usecase.NewUploadService(objectStorage, ledger, notifier, usecase.UploadServiceConfig{
		MaxBytes:      cfg.Upload.MaxBytes(),
		AllowedTypes:  cfg.Upload.AllowedTypes,
		SignedLinkTTL: cfg.Upload.SignedLinkTTL,
	})
	return svc, cleanup, nil
}

func setupRouter(cfg *config.Config, logger *slog.Logger, reviewSvc usecase.ReviewService, uploadSvc usecase.UploadService) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	policy := middleware.NewOriginPolicy(cfg.CORS.AllowedOrigins)

	// Preflights never reach this handler, the CORS middleware answers
	// them first.
	preflight := func(w http.ResponseWriter, r *http.Request) {}

	reviewsHandler := handler.NewReviewsHandler(reviewSvc)
	r.Route("/api/reviews", func(r chi.Router) {
		r.Use(middleware.CORS(policy, "GET, OPTIONS"))
		r.Get("/", reviewsHandler.Get)
		r.Options("/", preflight)
	})

	uploadHandler := handler.NewUploadHandler(uploadSvc, cfg.Upload.MaxBytes())
	r.Route("/api/upload", func(r chi.Router) {
		r.Use(middleware.CORS(policy, "GET, POST, OPTIONS"))
		r.Post("/", uploadHandler.Create)
		r.Options("/", preflight)
	})

	return r
}
