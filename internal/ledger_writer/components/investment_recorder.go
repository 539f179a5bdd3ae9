package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/domain/startup"
	"github.com/startup-investment-ledger/internal/ledger_writer/service"
)

type InvestmentRecorderImpl struct {
	investmentRepo investment.Repository
	logger         *slog.Logger
}

func NewInvestmentRecorder(investmentRepo investment.Repository, logger *slog.Logger) service.InvestmentRecorder {
	return &InvestmentRecorderImpl{
		investmentRepo: investmentRepo,
		logger:         logger,
	}
}

// InsertIfAbsent inserts the record in tx. investment.ErrDuplicateSession is
// passed through untouched so the writer can resolve the race.
func (r *InvestmentRecorderImpl) InsertIfAbsent(ctx context.Context, tx pgx.Tx, record *investment.Record) (*investment.Record, error) {
	inserted, err := r.investmentRepo.WithTx(tx).InsertIfAbsent(ctx, record)
	switch {
	case err == nil:
		return inserted, nil
	case errors.Is(err, investment.ErrDuplicateSession):
		r.logger.Info("Session already recorded by another writer", "session_id", record.SessionID)
		return nil, err
	case errors.Is(err, startup.ErrStartupNotFound{}):
		// The startup vanished between the existence check and the insert
		return nil, shared.ValidationError{Field: "startup_id", Reason: "startup does not exist"}
	default:
		r.logger.Error("Failed to insert investment record",
			"session_id", record.SessionID,
			"startup_id", record.StartupID.String(),
			"error", err,
		)
		return nil, err
	}
}
