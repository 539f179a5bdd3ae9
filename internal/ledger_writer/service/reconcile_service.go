package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/panjf2000/ants/v2"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/domain/startup"
	"github.com/startup-investment-ledger/internal/platform/metrics"
	"github.com/startup-investment-ledger/internal/platform/persistence"
)

const defaultReconcileConcurrency = 4

type ReconcileServiceImpl struct {
	db             persistence.TxBeginner
	startupRepo    startup.Repository
	investmentRepo investment.Repository
	resolver       InconsistencyResolver
	metrics        *metrics.Metrics
	logger         *slog.Logger
	concurrency    int
}

func NewReconcileService(
	db persistence.TxBeginner,
	startupRepo startup.Repository,
	investmentRepo investment.Repository,
	resolver InconsistencyResolver,
	m *metrics.Metrics,
	logger *slog.Logger,
	concurrency int,
) ReconcileService {
	if concurrency <= 0 {
		concurrency = defaultReconcileConcurrency
	}
	return &ReconcileServiceImpl{
		db:             db,
		startupRepo:    startupRepo,
		investmentRepo: investmentRepo,
		resolver:       resolver,
		metrics:        m,
		logger:         logger,
		concurrency:    concurrency,
	}
}

// ReconcileStartup overwrites a startup's funding counter with the sum of its
// completed investments. The startup row stays locked from read to write so
// a concurrent increment is either fully counted or waits for the new value.
func (s *ReconcileServiceImpl) ReconcileStartup(ctx context.Context, startupID uuid.UUID) (*shared.ReconcileResult, error) {
	logger := s.logger.With("startup_id", startupID.String())

	var result *shared.ReconcileResult
	err := persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		locked, err := s.startupRepo.WithTx(tx).LockByID(ctx, startupID)
		if err != nil {
			return err
		}

		totals, err := s.investmentRepo.WithTx(tx).SumCompletedByStartup(ctx, startupID)
		if err != nil {
			return err
		}

		result = &shared.ReconcileResult{
			StartupID:   startupID,
			Previous:    locked.FundingReceived,
			Recomputed:  totals.TotalInvested,
			RecordCount: totals.Count,
			Adjusted:    locked.FundingReceived != totals.TotalInvested,
		}
		if !result.Adjusted {
			return nil
		}

		return s.startupRepo.WithTx(tx).SetFunding(ctx, startupID, totals.TotalInvested)
	})
	if err != nil {
		if !errors.Is(err, startup.ErrStartupNotFound{}) {
			logger.Error("Failed to reconcile startup funding", "error", err)
		}
		return nil, err
	}

	s.metrics.ObserveReconcile(result)
	if result.Adjusted {
		logger.Warn("Funding counter drifted from ledger, corrected",
			"previous", result.Previous,
			"recomputed", result.Recomputed,
			"drift", result.Recomputed-result.Previous,
		)
	} else {
		logger.Info("Funding counter matches ledger", "total", result.Recomputed, "records", result.RecordCount)
	}

	if s.resolver != nil {
		resolved, err := s.resolver.ResolveInconsistencies(ctx, startupID)
		if err != nil {
			logger.Error("Failed to resolve recorded inconsistencies", "error", err)
		} else if resolved > 0 {
			logger.Info("Resolved recorded inconsistencies", "count", resolved)
		}
	}

	return result, nil
}

// ReconcileAll reconciles every startup on a bounded pool. Results are
// returned in startup id order; failures are joined into the error.
func (s *ReconcileServiceImpl) ReconcileAll(ctx context.Context) ([]*shared.ReconcileResult, error) {
	ids, err := s.startupRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list startups: %w", err)
	}

	pool, err := ants.NewPool(s.concurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([]*shared.ReconcileResult, len(ids))
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = s.ReconcileStartup(ctx, id)
		}); err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	completed := make([]*shared.ReconcileResult, 0, len(ids))
	adjusted := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		completed = append(completed, r)
		if r.Adjusted {
			adjusted++
		}
	}

	s.logger.Info("Reconciliation run finished",
		"startups", len(ids),
		"reconciled", len(completed),
		"adjusted", adjusted,
	)

	return completed, errors.Join(errs...)
}
