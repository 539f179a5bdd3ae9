package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/domain/journal"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/ledger_writer/service"
	"github.com/startup-investment-ledger/internal/platform/messaging/producers"
)

const ReasonPartialCommit = "partial_commit"

type InconsistencyRecorderImpl struct {
	journalRepo journal.Repository
	publisher   producers.MessagePublisher // Optional, nil disables reconcile requests
	logger      *slog.Logger
}

func NewInconsistencyRecorder(journalRepo journal.Repository, publisher producers.MessagePublisher, logger *slog.Logger) service.InconsistencyRecorder {
	return &InconsistencyRecorderImpl{
		journalRepo: journalRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// RecordInconsistency stores the partial commit in the inconsistency log and
// asks the reconcile consumer to recompute the startup's counter. Both steps
// are attempted even if the first fails.
func (r *InconsistencyRecorderImpl) RecordInconsistency(ctx context.Context, partial *shared.PartialCommitError, correlationID string) error {
	logger := r.logger.With("session_id", partial.SessionID, "startup_id", partial.StartupID.String())
	now := time.Now().UTC()

	var errs []error

	inc := &journal.Inconsistency{
		ID:         uuid.New(),
		SessionID:  partial.SessionID,
		StartupID:  partial.StartupID,
		Amount:     partial.Amount,
		Reason:     partial.Error(),
		DetectedAt: now,
	}
	if err := r.journalRepo.RecordInconsistency(ctx, inc); err != nil {
		logger.Error("Failed to store inconsistency", "error", err)
		errs = append(errs, fmt.Errorf("failed to store inconsistency: %w", err))
	}

	if r.publisher != nil {
		request := &shared.ReconcileRequest{
			RequestID:     uuid.New(),
			StartupID:     partial.StartupID,
			Reason:        ReasonPartialCommit,
			SessionID:     partial.SessionID,
			CorrelationID: correlationID,
			RequestedAt:   now,
		}
		// Keyed by startup so requests for one startup stay ordered
		if err := r.publisher.PublishWithCorrelation(ctx, partial.StartupID.String(), request, correlationID); err != nil {
			logger.Error("Failed to publish reconcile request", "error", err)
			errs = append(errs, fmt.Errorf("failed to publish reconcile request: %w", err))
		}
	}

	if len(errs) == 0 {
		logger.Warn("Inconsistency recorded, reconciliation requested", "inconsistency_id", inc.ID.String())
	}
	return errors.Join(errs...)
}
