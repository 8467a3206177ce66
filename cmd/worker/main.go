package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/golfmax/fitting-edge/internal/config"
	"github.com/golfmax/fitting-edge/internal/domain/repository"
	"github.com/golfmax/fitting-edge/internal/infrastructure/queue"
	"github.com/golfmax/fitting-edge/internal/infrastructure/storage"
	"github.com/golfmax/fitting-edge/internal/notify"
	"github.com/golfmax/fitting-edge/internal/usecase"
)

// maxDeliveryAttempts caps notification retries before a task is
// dropped. Receipts are convenience mail, not money movements.
const maxDeliveryAttempts = 3

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	dispatcher := notify.NewDispatcher(
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

	scheduler, err := startSweep(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer scheduler.Stop()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting worker, consuming notification tasks")
		err := queueClient.ConsumeNotifications(ctx, func(task repository.NotificationTask) error {
			wg.Add(1)
			defer wg.Done()

			logger.Info("delivering notification",
				slog.String("task_id", task.ID.String()),
				slog.String("object_key", task.Receipt.ObjectKey),
				slog.Int("retry_count", task.RetryCount),
			)

			if task.RetryCount >= maxDeliveryAttempts {
				logger.Error("dropping notification after repeated failures",
					slog.String("task_id", task.ID.String()),
					slog.String("object_key", task.Receipt.ObjectKey),
				)
				return nil
			}

			if err := dispatcher.Notify(ctx, task.Receipt); err != nil {
				logger.Error("notification delivery failed",
					slog.String("task_id", task.ID.String()),
					slog.Int("retry_count", task.RetryCount),
					slog.String("error", err.Error()),
				)
				return err
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	cancel()
	wg.Wait()

	logger.Info("worker stopped")
	return nil
}

// startSweep schedules the orphan sweep when storage and a schedule are
// configured. The worker still runs as a pure notification consumer
// without them.
func startSweep(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*cron.Cron, error) {
	if !cfg.MinIO.Enabled() || cfg.Sweep.Schedule == "" {
		logger.Info("orphan sweep disabled")
		return nil, nil
	}

	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO: %w", err)
	}

	sweepSvc := usecase.NewSweepService(storageClient, usecase.SweepServiceConfig{
		Grace: cfg.Sweep.Grace,
	})

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Sweep.Schedule, func() {
		deleted, err := sweepSvc.Sweep(ctx)
		if err != nil {
			logger.Error("orphan sweep failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("orphan sweep completed", slog.Int("deleted", deleted))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.Sweep.Schedule, err)
	}

	scheduler.Start()
	logger.Info("orphan sweep scheduled",
		slog.String("schedule", cfg.Sweep.Schedule),
		slog.Duration("grace", cfg.Sweep.Grace),
	)
	return scheduler, nil
}
