package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/platform/metrics"
	"github.com/startup-investment-ledger/internal/platform/persistence"
)

type WriterServiceImpl struct {
	db              persistence.TxBeginner
	validator       PaymentValidator
	recorder        InvestmentRecorder
	fundingManager  FundingManager
	outboxManager   OutboxManager
	inconsistencies InconsistencyRecorder
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

func NewWriterService(
	db persistence.TxBeginner,
	validator PaymentValidator,
	recorder InvestmentRecorder,
	fundingManager FundingManager,
	outboxManager OutboxManager,
	inconsistencies InconsistencyRecorder,
	m *metrics.Metrics,
	logger *slog.Logger,
) WriterService {
	return &WriterServiceImpl{
		db:              db,
		validator:       validator,
		recorder:        recorder,
		fundingManager:  fundingManager,
		outboxManager:   outboxManager,
		inconsistencies: inconsistencies,
		metrics:         m,
		logger:          logger,
	}
}

// RecordPayment records a completed payment exactly once per session.
//
// The record insert, the funding increment and the outbox message commit in
// one transaction. The unique session_id constraint arbitrates concurrent
// writers for the same session: the loser sees no inserted row, rolls back
// and reports the winner's record as a duplicate.
func (s *WriterServiceImpl) RecordPayment(ctx context.Context, c *shared.PaymentConfirmation) (*WriteResult, error) {
	start := time.Now()
	defer s.metrics.ObserveWrite(start)

	logger := s.logger.With("session_id", c.SessionID, "source", string(c.Source))
	if c.CorrelationID != "" {
		logger = logger.With("correlation_id", c.CorrelationID)
	}

	// 1. Only completed payments touch the ledger
	if c.Status != shared.PaymentStatusCompleted {
		logger.Info("Payment not completed, skipping ledger write", "status", string(c.Status))
		return s.done(c, &WriteResult{Outcome: shared.OutcomeSkipped})
	}

	// 2. Validate the untrusted confirmation fields
	record, err := s.validator.Validate(ctx, c)
	if err != nil {
		logger.Warn("Payment confirmation rejected", "error", err)
		return nil, err
	}

	// 3. Fast path for redelivered confirmations
	existing, err := s.validator.FindExisting(ctx, c.SessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Info("Session already recorded", "investment_id", existing.ID.String())
		return s.done(c, &WriteResult{Outcome: shared.OutcomeDuplicate, Record: existing})
	}

	// 4. Insert, increment and enqueue atomically
	var inserted *investment.Record
	err = persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.fundingManager.EnsureStartup(ctx, tx, record.StartupID); err != nil {
			return err
		}

		var err error
		inserted, err = s.recorder.InsertIfAbsent(ctx, tx, record)
		if err != nil {
			return err
		}

		if err := s.fundingManager.IncrementFunding(ctx, tx, inserted.StartupID, inserted.Amount); err != nil {
			return err
		}

		return s.outboxManager.CreateOutboxEntry(ctx, tx, inserted, c.CorrelationID)
	})

	switch {
	case err == nil:
		logger.Info("Investment recorded",
			"investment_id", inserted.ID.String(),
			"startup_id", inserted.StartupID.String(),
			"amount", inserted.Amount,
		)
		return s.done(c, &WriteResult{Outcome: shared.OutcomeRecorded, Record: inserted})

	case errors.Is(err, investment.ErrDuplicateSession):
		// 5. A concurrent writer won the insert; its transaction has committed
		winner, findErr := s.validator.FindExisting(ctx, c.SessionID)
		if findErr != nil {
			return nil, findErr
		}
		if winner == nil {
			logger.Warn("Duplicate session reported but no record found")
		}
		logger.Info("Lost insert race, session recorded by concurrent writer")
		return s.done(c, &WriteResult{Outcome: shared.OutcomeDuplicate, Record: winner})

	case errors.Is(err, persistence.ErrCommitFailed):
		// 6. The commit outcome is unknown, the counter may disagree with the ledger
		partial := &shared.PartialCommitError{
			SessionID: record.SessionID,
			StartupID: record.StartupID,
			Amount:    record.Amount,
			Err:       err,
		}
		logger.Error("Ledger write commit outcome unknown, requesting reconciliation",
			"startup_id", record.StartupID.String(),
			"amount", record.Amount,
			"error", err,
		)
		s.metrics.ObservePartialCommit()
		if recErr := s.inconsistencies.RecordInconsistency(ctx, partial, c.CorrelationID); recErr != nil {
			logger.Error("Failed to record ledger inconsistency", "error", recErr)
		}
		s.metrics.ObserveConfirmation(c.Source, "error")
		return nil, partial

	default:
		var validationErr shared.ValidationError
		if !errors.As(err, &validationErr) {
			logger.Error("Ledger write failed, transaction rolled back", "error", err)
			s.metrics.ObserveConfirmation(c.Source, "error")
			return nil, fmt.Errorf("failed to record payment for session %s: %w", c.SessionID, err)
		}
		logger.Warn("Payment confirmation rejected", "error", err)
		return nil, err
	}
}

func (s *WriterServiceImpl) done(c *shared.PaymentConfirmation, result *WriteResult) (*WriteResult, error) {
	s.metrics.ObserveConfirmation(c.Source, string(result.Outcome))
	return result, nil
}
