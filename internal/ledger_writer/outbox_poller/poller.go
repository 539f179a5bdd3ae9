package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/startup-investment-ledger/internal/config"
	"github.com/startup-investment-ledger/internal/domain/outbox"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/platform/metrics"
)

// Poller drains pending outbox messages onto the investment event stream
type Poller struct {
	outboxRepo       outbox.Repository
	eventPublisher   EventPublisher
	metrics          *metrics.Metrics
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	eventPublisher EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		eventPublisher:   eventPublisher,
		metrics:          m,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopped")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Outbox poll failed", "error", err)
			}
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}

	p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		logger := p.logger.With("outbox_id", msg.ID, "investment_id", msg.InvestmentID.String())

		err := p.eventPublisher.PublishEvent(ctx, msg)
		if err == nil {
			p.metrics.ObserveOutbox(shared.OutboxStatusProcessed)
			continue
		}

		status, errRecord := p.outboxRepo.RecordFailure(ctx, msg.ID, p.maxRetryAttempts)
		if errRecord != nil {
			logger.Error("Failed to record outbox publish failure", "publish_error", err, "error", errRecord)
			continue
		}
		if status == shared.OutboxStatusFailedToPublish {
			logger.Error("Investment event gave up after max publish attempts",
				"attempts", msg.Attempts+1,
				"error", err,
			)
			p.metrics.ObserveOutbox(shared.OutboxStatusFailedToPublish)
			continue
		}
		logger.Warn("Investment event publish failed, will retry", "attempts", msg.Attempts+1, "error", err)
	}
	return nil
}
