package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seatsurge/ticketing/internal/bootstrap"
	"github.com/seatsurge/ticketing/internal/notifier"
	"github.com/seatsurge/ticketing/internal/observability"
	infraRedis "github.com/seatsurge/ticketing/internal/redis"
	"github.com/seatsurge/ticketing/internal/repository/postgres"
	"github.com/seatsurge/ticketing/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "ticketing-worker", "ticketing_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	workerCfg := app.Config.Worker
	consumer := infraRedis.NewStreamConsumer(
		app.Redis,
		notifier.Stream,
		workerCfg.ConsumerGroup,
		app.Config.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group (may already exist)")
	}

	sender := notifier.NewSender(app.Config.Notifications.BaseURL, app.Config.Notifications.SendTimeout, app.Logger)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)

	retryCfg := retry.DefaultConfig()
	if workerCfg.MaxRetries > 0 {
		retryCfg.MaxAttempts = workerCfg.MaxRetries
	}
	if workerCfg.RetryDelay > 0 {
		retryCfg.InitialDelay = workerCfg.RetryDelay
	}

	app.Logger.Info().
		Str("stream", notifier.Stream).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Msg("Worker started, listening for messages...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Notification delivery (reads from Redis Streams).
	g.Go(func() error {
		return runNotificationSender(gCtx, app.Logger, app.Metrics, consumer, sender, retryCfg)
	})

	// 2. Expired idempotency key cleanup.
	g.Go(func() error {
		return runIdempotencyCleanup(gCtx, app.Logger, idempotencyRepo)
	})

	// 3. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

func runNotificationSender(
	ctx context.Context,
	logger zerolog.Logger,
	metrics *observability.Metrics,
	consumer *infraRedis.StreamConsumer,
	sender *notifier.Sender,
	retryCfg retry.Config,
) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streams, err := consumer.Read(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read from stream")
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				start := time.Now()

				payload, _ := msg.Values["payload"].(string)
				var n notifier.PurchaseConfirmed
				if err := json.Unmarshal([]byte(payload), &n); err != nil {
					logger.Error().Str("message_id", msg.ID).Msg("Invalid notification payload, dropping")
					metrics.WorkerMessagesProcessed.WithLabelValues(notifier.Stream, "invalid").Inc()
					consumer.Ack(ctx, msg.ID)
					continue
				}

				err := retry.Do(ctx, retryCfg, func() error {
					return sender.Send(ctx, n)
				})
				if err != nil {
					// Leave the message unacked so another consumer can claim it.
					logger.Error().Err(err).
						Str("message_id", msg.ID).
						Int64("user_id", n.UserID).
						Msg("Failed to deliver notification")
					metrics.WorkerMessagesProcessed.WithLabelValues(notifier.Stream, "error").Inc()
					metrics.NotificationsDelivered.WithLabelValues("failure").Inc()
					continue
				}

				logger.Info().
					Int64("user_id", n.UserID).
					Str("ticket_number", n.TicketNumber).
					Msg("Notification delivered")
				metrics.WorkerMessagesProcessed.WithLabelValues(notifier.Stream, "success").Inc()
				metrics.NotificationsDelivered.WithLabelValues("success").Inc()
				metrics.WorkerProcessingDuration.WithLabelValues(notifier.Stream).Observe(time.Since(start).Seconds())
				consumer.Ack(ctx, msg.ID)
			}
		}
	}
}

func runIdempotencyCleanup(ctx context.Context, logger zerolog.Logger, repo *postgres.IdempotencyRepository) error {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		removed, err := repo.Cleanup(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Idempotency cleanup failed")
			continue
		}
		if removed > 0 {
			logger.Info().Int64("removed", removed).Msg("Expired idempotency keys removed")
		}
	}
}
