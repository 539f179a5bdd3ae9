// Package postgres provides PostgreSQL implementations of the domain repositories.
// The unique session_id constraint on investments and the atomic funding delta
// on startups are the concurrency primitives the ledger relies on.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/domain/startup"
	"github.com/startup-investment-ledger/internal/platform/persistence"
)

// investmentColumns is shared by every query that scans a full record.
// investor_id is nullable and surfaces as an empty string.
const investmentColumns = `id, session_id, COALESCE(investor_id, ''), startup_id, amount, currency, status, source, created_at`

// InvestmentRepository implements the investment.Repository interface for PostgreSQL
type InvestmentRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewInvestmentRepository creates a new PostgreSQL investment repository
func NewInvestmentRepository(logger *slog.Logger, db *persistence.PostgresDB) investment.Repository {
	return &InvestmentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx so inserts share the writer's transaction
func (r *InvestmentRepository) WithTx(tx pgx.Tx) investment.Repository {
	return &InvestmentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// FindBySessionID retrieves the record for a processor session, or nil, nil
func (r *InvestmentRepository) FindBySessionID(ctx context.Context, sessionID string) (*investment.Record, error) {
	query := `SELECT ` + investmentColumns + `
		FROM investments
		WHERE session_id = $1
	`

	rec, err := scanRecord(r.querier.QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get investment by session", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("failed to get investment by session: %w", err)
	}

	return rec, nil
}

// InsertIfAbsent inserts the record unless its session is already present.
// ON CONFLICT DO NOTHING makes the insert a compare-and-swap: an empty
// RETURNING means another writer won and ErrDuplicateSession is returned.
func (r *InvestmentRepository) InsertIfAbsent(ctx context.Context, rec *investment.Record) (*investment.Record, error) {
	query := `
		INSERT INTO investments (id, session_id, investor_id, startup_id, amount, currency, status, source, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING id, created_at
	`

	inserted := *rec
	err := r.querier.QueryRow(ctx, query,
		rec.ID,
		rec.SessionID,
		rec.InvestorID,
		rec.StartupID,
		rec.Amount,
		rec.Currency,
		rec.Status,
		rec.Source,
		rec.CreatedAt,
	).Scan(&inserted.ID, &inserted.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows), isPgErrorCode(err, uniqueViolationCode):
			return nil, investment.ErrDuplicateSession
		case isPgErrorCode(err, foreignKeyViolationCode):
			return nil, startup.ErrStartupNotFound{StartupID: rec.StartupID}
		}
		r.logger.Error("Failed to insert investment", "session_id", rec.SessionID, "error", err)
		return nil, fmt.Errorf("failed to insert investment: %w", err)
	}

	return &inserted, nil
}

// SumCompletedByStartup computes the live ledger total for a startup
func (r *InvestmentRepository) SumCompletedByStartup(ctx context.Context, startupID uuid.UUID) (investment.Totals, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(amount), 0)
		FROM investments
		WHERE startup_id = $1 AND status = $2
	`

	var totals investment.Totals
	err := r.querier.QueryRow(ctx, query, startupID, shared.PaymentStatusCompleted).Scan(&totals.Count, &totals.TotalInvested)
	if err != nil {
		r.logger.Error("Failed to sum investments for startup", "startup_id", startupID.String(), "error", err)
		return investment.Totals{}, fmt.Errorf("failed to sum investments for startup: %w", err)
	}

	return totals, nil
}

func scanRecord(row pgx.Row) (*investment.Record, error) {
	var rec investment.Record
	err := row.Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.InvestorID,
		&rec.StartupID,
		&rec.Amount,
		&rec.Currency,
		&rec.Status,
		&rec.Source,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanRecords(rows pgx.Rows) ([]*investment.Record, error) {
	defer rows.Close()

	records := []*investment.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
