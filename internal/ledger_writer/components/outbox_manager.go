package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/outbox"
	"github.com/startup-investment-ledger/internal/ledger_writer/service"
)

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateOutboxEntry enqueues the investment.recorded event for a freshly
// inserted record
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, record *investment.Record, correlationID string) error {
	logger := m.logger
	if correlationID != "" {
		logger = m.logger.With("correlation_id", correlationID)
	}

	message, err := outbox.NewMessage(investment.NewRecordedEvent(record, correlationID))
	if err != nil {
		logger.Error("Failed to create new outbox message (marshal payload)",
			"investment_id", record.ID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for investment %s: %w", record.ID, err)
	}

	if err = m.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		logger.Error("Failed to create outbox message",
			"investment_id", record.ID.String(),
			"startup_id", record.StartupID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for investment %s: %w", record.ID, err)
	}

	logger.Debug("Outbox message created",
		"investment_id", record.ID.String(),
		"outbox_id", message.ID,
	)
	return nil
}
