package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/startup-investment-ledger/internal/domain/startup"
	"github.com/startup-investment-ledger/internal/platform/persistence"
)

const startupColumns = `id, COALESCE(owner_id, ''), name, description, industry, stage, funding_required, funding_received, created_at, updated_at`

// StartupRepository implements the startup.Repository interface for PostgreSQL
type StartupRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewStartupRepository creates a new PostgreSQL startup repository
func NewStartupRepository(logger *slog.Logger, db *persistence.PostgresDB) startup.Repository {
	return &StartupRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing the funding
// increment to commit together with the investment insert
func (r *StartupRepository) WithTx(tx pgx.Tx) startup.Repository {
	return &StartupRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new startup listing
func (r *StartupRepository) Create(ctx context.Context, s *startup.Startup) error {
	query := `
		INSERT INTO startups (id, owner_id, name, description, industry, stage, funding_required, funding_received, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		s.ID,
		s.OwnerID,
		s.Name,
		s.Description,
		s.Industry,
		s.Stage,
		s.FundingRequired,
		s.FundingReceived,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create startup", "name", s.Name, "error", err)
		return fmt.Errorf("failed to create startup: %w", err)
	}

	return nil
}

// Exists reports whether a startup with the given id is present
func (r *StartupRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM startups WHERE id = $1)`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		r.logger.Error("Failed to check startup existence", "startup_id", id.String(), "error", err)
		return false, fmt.Errorf("failed to check startup existence: %w", err)
	}

	return exists, nil
}

// FindByID retrieves a startup by its ID
func (r *StartupRepository) FindByID(ctx context.Context, id uuid.UUID) (*startup.Startup, error) {
	query := `SELECT ` + startupColumns + `
		FROM startups
		WHERE id = $1
	`
	return r.findOne(ctx, query, id, "get startup")
}

// LockByID acquires a row lock on the startup for the rest of the transaction.
// Concurrent IncrementFunding calls block until the lock holder commits.
func (r *StartupRepository) LockByID(ctx context.Context, id uuid.UUID) (*startup.Startup, error) {
	query := `SELECT ` + startupColumns + `
		FROM startups
		WHERE id = $1
		FOR UPDATE
	`
	return r.findOne(ctx, query, id, "lock startup")
}

func (r *StartupRepository) findOne(ctx context.Context, query string, id uuid.UUID, op string) (*startup.Startup, error) {
	var s startup.Startup
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.OwnerID,
		&s.Name,
		&s.Description,
		&s.Industry,
		&s.Stage,
		&s.FundingRequired,
		&s.FundingReceived,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, startup.ErrStartupNotFound{StartupID: id}
		}
		r.logger.Error("Failed to "+op, "startup_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	return &s, nil
}

// IncrementFunding adds amount to funding_received as a single atomic delta.
// The counter is never read and rewritten by the application.
func (r *StartupRepository) IncrementFunding(ctx context.Context, id uuid.UUID, amount int64) error {
	query := `
		UPDATE startups
		SET funding_received = funding_received + $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, amount, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to increment startup funding",
			"startup_id", id.String(),
			"amount", amount,
			"error", err,
		)
		return fmt.Errorf("failed to increment startup funding: %w", err)
	}

	if result.RowsAffected() == 0 {
		return startup.ErrStartupNotFound{StartupID: id}
	}

	return nil
}

// SetFunding overwrites funding_received. Callers must hold the row lock
// from LockByID and pass a value recomputed from the ledger.
func (r *StartupRepository) SetFunding(ctx context.Context, id uuid.UUID, amount int64) error {
	query := `
		UPDATE startups
		SET funding_received = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, amount, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to set startup funding",
			"startup_id", id.String(),
			"amount", amount,
			"error", err,
		)
		return fmt.Errorf("failed to set startup funding: %w", err)
	}

	if result.RowsAffected() == 0 {
		return startup.ErrStartupNotFound{StartupID: id}
	}

	return nil
}

// ListIDs returns every startup id, used for a full reconciliation sweep
func (r *StartupRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.querier.Query(ctx, `SELECT id FROM startups ORDER BY created_at ASC`)
	if err != nil {
		r.logger.Error("Failed to list startup ids", "error", err)
		return nil, fmt.Errorf("failed to list startup ids: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			r.logger.Error("Failed to scan startup id", "error", err)
			return nil, fmt.Errorf("failed to scan startup id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over startup ids", "error", err)
		return nil, fmt.Errorf("error iterating over startup ids: %w", err)
	}

	return ids, nil
}
