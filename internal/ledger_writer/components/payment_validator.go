package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/ledger_writer/service"
)

type PaymentValidatorImpl struct {
	investmentRepo investment.Repository
	logger         *slog.Logger
}

func NewPaymentValidator(investmentRepo investment.Repository, logger *slog.Logger) service.PaymentValidator {
	return &PaymentValidatorImpl{
		investmentRepo: investmentRepo,
		logger:         logger,
	}
}

// Validate builds the record for a completed confirmation. Rejections are
// returned as shared.ValidationError naming the offending field.
func (v *PaymentValidatorImpl) Validate(_ context.Context, c *shared.PaymentConfirmation) (*investment.Record, error) {
	record, err := investment.NewRecord(c)
	if err != nil {
		v.logger.Warn("Invalid payment confirmation", "session_id", c.SessionID, "error", err)
		return nil, shared.ValidationError{Field: fieldFor(err), Reason: err.Error()}
	}
	return record, nil
}

// FindExisting returns the stored record for a session, or nil when the
// session has not been recorded yet
func (v *PaymentValidatorImpl) FindExisting(ctx context.Context, sessionID string) (*investment.Record, error) {
	record, err := v.investmentRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		v.logger.Error("Failed to look up investment by session", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("failed to look up session %s: %w", sessionID, err)
	}
	return record, nil
}

func fieldFor(err error) string {
	switch {
	case errors.Is(err, investment.ErrEmptySessionID):
		return "session_id"
	case errors.Is(err, investment.ErrMissingStartupID):
		return "startup_id"
	case errors.Is(err, investment.ErrInvalidAmount):
		return "amount"
	case errors.Is(err, investment.ErrInvalidCurrencyFormat):
		return "currency"
	case errors.Is(err, investment.ErrNotCompleted):
		return "status"
	default:
		return "confirmation"
	}
}
