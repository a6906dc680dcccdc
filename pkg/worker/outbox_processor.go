package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trimtime/booking-api/internal/model"
	"github.com/trimtime/booking-api/internal/repository"
	"github.com/trimtime/booking-api/pkg/logger"
	"github.com/trimtime/booking-api/pkg/messaging"
	"github.com/trimtime/booking-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	// RetainProcessed bounds how long processed rows stay around before
	// the cleanup pass deletes them.
	RetainProcessed time.Duration
	CleanupEvery    time.Duration
}

// OutboxProcessor drains outbox_events to the message broker. Events
// are published to the channel recorded on the row, so subscribers on
// a shop's slot channel see that shop's claims and releases only.
// Delivery is at-least-once: a crash between publish and status update
// republishes on the next poll.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 30 * time.Second
	}
	if config.RetainProcessed <= 0 {
		config.RetainProcessed = 24 * time.Hour
	}
	if config.CleanupEvery <= 0 {
		config.CleanupEvery = time.Hour
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()
	cleanup := time.NewTicker(p.config.CleanupEvery)
	defer cleanup.Stop()

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processEvents(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox events")
			}
		case <-cleanup.C:
			p.cleanupProcessed(ctx)
		}
	}
}

func (p *OutboxProcessor) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingEventsWithLock(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return fmt.Errorf("failed to get pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType,
			)
		}
	}
	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	err := p.broker.Publish(ctx, event.Channel, messaging.Message{
		Type:    event.EventType,
		Payload: event.Payload,
	})
	if err != nil {
		p.metrics.OutboxEventsFailed.Inc()
		return p.handlePublishFailure(ctx, event, err)
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.UpdateStatusTx(ctx, nil, event.ID, model.OutboxStatusProcessed, nil, nil); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (p *OutboxProcessor) handlePublishFailure(ctx context.Context, event *model.OutboxEvent, pubErr error) error {
	errStr := pubErr.Error()

	if event.RetryCount+1 >= p.config.MaxRetries {
		tx, err := p.repo.BeginTx(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin dead-letter tx: %w", err)
		}
		event.ErrorMessage = &errStr
		if err := p.repo.MoveToDeadLetter(ctx, tx, event); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to dead-letter event: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit dead-letter tx: %w", err)
		}
		p.logger.Warn("event moved to dead letter",
			"event_id", event.ID.String(),
			"retries", event.RetryCount,
		)
		return pubErr
	}

	retryAt := time.Now().Add(p.config.RetryDelay)
	if err := p.repo.UpdateStatusTx(ctx, nil, event.ID, model.OutboxStatusRetry, &errStr, &retryAt); err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}
	return pubErr
}

func (p *OutboxProcessor) cleanupProcessed(ctx context.Context) {
	deleted, err := p.repo.DeleteProcessedBefore(ctx, time.Now().Add(-p.config.RetainProcessed))
	if err != nil {
		p.logger.Error(err, "failed to clean up processed events")
		return
	}
	if deleted > 0 {
		p.logger.Info("cleaned up processed outbox events", "deleted", deleted)
	}
}
