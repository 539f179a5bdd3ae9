package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/startup-investment-ledger/internal/domain/outbox"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/platform/messaging/producers"
)

// EventPublisher delivers one outbox message to the event stream
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// KafkaEventPublisher implements EventPublisher on the investment topic
type KafkaEventPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	dlq        producers.DeadLetterPublisher
	logger     *slog.Logger
}

func NewKafkaEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	dlq producers.DeadLetterPublisher,
	logger *slog.Logger,
) EventPublisher {
	return &KafkaEventPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		dlq:        dlq,
		logger:     logger,
	}
}

// PublishEvent publishes the recorded event keyed by startup, so consumers see
// one startup's investments in commit order, then marks the message processed.
// A payload that cannot be decoded is parked as FAILED_TO_PUBLISH and copied to
// the DLQ instead of being retried.
func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.RecordedEvent()
	if err != nil {
		p.logger.Error("Failed to decode investment event from outbox payload",
			"outbox_id", message.ID, "investment_id", message.InvestmentID.String(), "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after decode error", "outbox_id", message.ID, "update_error", updateErr)
		}
		if p.dlq != nil {
			if dlqErr := p.dlq.PublishToDLQ(ctx, message.InvestmentID.String(), message.Payload, "undecodable outbox payload"); dlqErr != nil {
				p.logger.Warn("Failed to copy undecodable outbox payload to DLQ", "outbox_id", message.ID, "error", dlqErr)
			}
		}
		return fmt.Errorf("decode payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	if err := p.producer.PublishWithCorrelation(ctx, event.StartupID.String(), event, event.CorrelationID); err != nil {
		return fmt.Errorf("failed to publish investment %s: %w", event.InvestmentID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "investment_id", event.InvestmentID.String(), "error", err,
		)
		return fmt.Errorf("event for %s published, but failed to mark outbox %d as PROCESSED: %w", event.InvestmentID, message.ID, err)
	}

	logger.Info("Investment event published",
		"outbox_id", message.ID,
		"investment_id", event.InvestmentID.String(),
		"startup_id", event.StartupID.String(),
	)
	return nil
}
