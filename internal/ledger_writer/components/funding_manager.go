package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/domain/startup"
	"github.com/startup-investment-ledger/internal/ledger_writer/service"
)

type FundingManagerImpl struct {
	startupRepo startup.Repository
	logger      *slog.Logger
}

func NewFundingManager(startupRepo startup.Repository, logger *slog.Logger) service.FundingManager {
	return &FundingManagerImpl{
		startupRepo: startupRepo,
		logger:      logger,
	}
}

// EnsureStartup rejects confirmations that reference an unknown startup
// before anything is inserted
func (m *FundingManagerImpl) EnsureStartup(ctx context.Context, tx pgx.Tx, startupID uuid.UUID) error {
	exists, err := m.startupRepo.WithTx(tx).Exists(ctx, startupID)
	if err != nil {
		return fmt.Errorf("failed to check startup %s: %w", startupID, err)
	}
	if !exists {
		m.logger.Warn("Payment references unknown startup", "startup_id", startupID.String())
		return shared.ValidationError{Field: "startup_id", Reason: "startup does not exist"}
	}
	return nil
}

// IncrementFunding adds amount to the startup's counter as a single delta
// update, never a read-modify-write
func (m *FundingManagerImpl) IncrementFunding(ctx context.Context, tx pgx.Tx, startupID uuid.UUID, amount int64) error {
	if err := m.startupRepo.WithTx(tx).IncrementFunding(ctx, startupID, amount); err != nil {
		m.logger.Error("Failed to increment startup funding",
			"startup_id", startupID.String(),
			"amount", amount,
			"error", err,
		)
		return fmt.Errorf("failed to increment funding for startup %s: %w", startupID, err)
	}
	return nil
}
