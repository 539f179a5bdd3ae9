package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/startup-investment-ledger/internal/domain/outbox"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/platform/persistence"
)

const outboxSelectColumns = `id, investment_id, startup_id, event_type, payload, status, attempts, created_at, last_attempt_at`

// OutboxRepository implements the outbox.Repository interface for PostgreSQL
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to tx so the event is enqueued in the same
// transaction as the investment it describes
func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanOutboxMessage(row pgx.CollectableRow) (*outbox.Message, error) {
	var m outbox.Message
	err := row.Scan(&m.ID, &m.InvestmentID, &m.StartupID, &m.EventType, &m.Payload,
		&m.Status, &m.Attempts, &m.CreatedAt, &m.LastAttemptAt)
	return &m, err
}

func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	query := `
		INSERT INTO investment_outbox (investment_id, startup_id, event_type, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		message.InvestmentID,
		message.StartupID,
		message.EventType,
		message.Payload,
		message.Status,
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)
	if err != nil {
		r.logger.Error("Failed to enqueue investment event",
			"investment_id", message.InvestmentID.String(),
			"event_type", message.EventType,
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}

	return nil
}

// GetPending returns up to limit pending messages, oldest first, so events
// for one startup are published in the order they were recorded.
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	query := `SELECT ` + outboxSelectColumns + `
		FROM investment_outbox
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2`

	rows, err := r.querier.Query(ctx, query, shared.OutboxStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to query pending investment events", "error", err)
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, scanOutboxMessage)
	if err != nil {
		r.logger.Error("Failed to read pending investment events", "error", err)
		return nil, fmt.Errorf("failed to scan outbox messages: %w", err)
	}
	return messages, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	query := `
		UPDATE investment_outbox
		SET status = $1, last_attempt_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update investment event status", "id", id, "status", string(status), "error", err)
		return fmt.Errorf("failed to update outbox message status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

// RecordFailure bumps attempts and flips the status in one statement, so a
// poller crash between the two can never leave a message retrying forever.
func (r *OutboxRepository) RecordFailure(ctx context.Context, id int64, maxAttempts int) (shared.OutboxStatus, error) {
	query := `
		UPDATE investment_outbox
		SET attempts = attempts + 1,
		    last_attempt_at = NOW(),
		    status = CASE WHEN attempts + 1 >= $1 THEN $2 ELSE status END
		WHERE id = $3
		RETURNING status
	`

	var status shared.OutboxStatus
	err := r.querier.QueryRow(ctx, query, maxAttempts, shared.OutboxStatusFailedToPublish, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", outbox.ErrMessageNotFound{ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to record investment event publish failure", "id", id, "error", err)
		return "", fmt.Errorf("failed to record outbox publish failure: %w", err)
	}
	return status, nil
}
