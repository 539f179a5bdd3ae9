package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

// WriteResult is the outcome of one ledger write. Record is the stored
// investment for recorded and duplicate outcomes and nil when skipped.
type WriteResult struct {
	Outcome shared.WriteOutcome
	Record  *investment.Record
}

// WriterService is the only code path that creates investment records or
// moves a startup's funding counter. Both confirmation entry points call it.
type WriterService interface {
	RecordPayment(ctx context.Context, confirmation *shared.PaymentConfirmation) (*WriteResult, error)
}

// ReconcileService recomputes funding counters from the investment ledger
type ReconcileService interface {
	ReconcileStartup(ctx context.Context, startupID uuid.UUID) (*shared.ReconcileResult, error)
	ReconcileAll(ctx context.Context) ([]*shared.ReconcileResult, error)
}

// PaymentValidator checks confirmations before any database transaction
type PaymentValidator interface {
	// Validate returns the record to insert, or a shared.ValidationError
	Validate(ctx context.Context, confirmation *shared.PaymentConfirmation) (*investment.Record, error)
	FindExisting(ctx context.Context, sessionID string) (*investment.Record, error)
}

// InvestmentRecorder inserts records inside the writer transaction
type InvestmentRecorder interface {
	InsertIfAbsent(ctx context.Context, tx pgx.Tx, record *investment.Record) (*investment.Record, error)
}

// FundingManager handles the startup side of a ledger write
type FundingManager interface {
	EnsureStartup(ctx context.Context, tx pgx.Tx, startupID uuid.UUID) error
	IncrementFunding(ctx context.Context, tx pgx.Tx, startupID uuid.UUID, amount int64) error
}

// OutboxManager enqueues the investment event in the writer transaction
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, tx pgx.Tx, record *investment.Record, correlationID string) error
}

// InconsistencyRecorder persists partial commits and requests reconciliation
type InconsistencyRecorder interface {
	RecordInconsistency(ctx context.Context, partial *shared.PartialCommitError, correlationID string) error
}

// InconsistencyResolver clears the inconsistency log once a startup is reconciled
type InconsistencyResolver interface {
	ResolveInconsistencies(ctx context.Context, startupID uuid.UUID) (int64, error)
}
