package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/journal"
	"github.com/startup-investment-ledger/internal/domain/startup"
)

// ReportServiceImpl implements the ReportService interface
type ReportServiceImpl struct {
	investmentRepo investment.Repository
	reportRepo     investment.ReportRepository
	startupRepo    startup.Repository
	journalRepo    journal.Repository
	logger         *slog.Logger
}

// NewReportService creates a new report service
func NewReportService(
	logger *slog.Logger,
	investmentRepo investment.Repository,
	reportRepo investment.ReportRepository,
	startupRepo startup.Repository,
	journalRepo journal.Repository,
) ReportService {
	return &ReportServiceImpl{
		investmentRepo: investmentRepo,
		reportRepo:     reportRepo,
		startupRepo:    startupRepo,
		journalRepo:    journalRepo,
		logger:         logger,
	}
}

// GetInvestment retrieves the record for a processor session
func (s *ReportServiceImpl) GetInvestment(ctx context.Context, sessionID string) (*investment.Record, error) {
	record, err := s.investmentRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, investment.ErrRecordNotFound{SessionID: sessionID}
	}
	return record, nil
}

// Portfolio sums an investor's completed investments. The totals are computed
// from the ledger on every call, never cached, and are derived from the same
// rows returned in Data so the two always agree.
func (s *ReportServiceImpl) Portfolio(ctx context.Context, investorID string) (*Portfolio, error) {
	records, err := s.reportRepo.ListCompletedByInvestor(ctx, investorID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*investment.Record{}
	}

	portfolio := &Portfolio{
		InvestorID: investorID,
		Data:       records,
		ByStartup:  []investment.StartupTotals{},
	}

	index := make(map[uuid.UUID]int)
	for _, rec := range records {
		portfolio.Count++
		portfolio.TotalInvested += rec.Amount

		i, ok := index[rec.StartupID]
		if !ok {
			i = len(portfolio.ByStartup)
			index[rec.StartupID] = i
			portfolio.ByStartup = append(portfolio.ByStartup, investment.StartupTotals{StartupID: rec.StartupID})
		}
		portfolio.ByStartup[i].Count++
		portfolio.ByStartup[i].TotalInvested += rec.Amount
	}
	if len(portfolio.ByStartup) == 0 {
		return portfolio, nil
	}

	ids := make([]uuid.UUID, 0, len(portfolio.ByStartup))
	for _, st := range portfolio.ByStartup {
		ids = append(ids, st.StartupID)
	}
	names, err := s.reportRepo.StartupNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range portfolio.ByStartup {
		portfolio.ByStartup[i].StartupName = names[portfolio.ByStartup[i].StartupID]
	}

	sort.SliceStable(portfolio.ByStartup, func(i, j int) bool {
		return portfolio.ByStartup[i].TotalInvested > portfolio.ByStartup[j].TotalInvested
	})
	return portfolio, nil
}

// StartupFunding reports the counter next to the live ledger sum
func (s *ReportServiceImpl) StartupFunding(ctx context.Context, startupID uuid.UUID) (*StartupFunding, error) {
	target, err := s.startupRepo.FindByID(ctx, startupID)
	if err != nil {
		return nil, err
	}

	totals, err := s.investmentRepo.SumCompletedByStartup(ctx, startupID)
	if err != nil {
		return nil, err
	}

	funding := &StartupFunding{
		StartupID:       target.ID,
		Name:            target.Name,
		FundingRequired: target.FundingRequired,
		FundingReceived: target.FundingReceived,
		LedgerTotal:     totals.TotalInvested,
		LedgerCount:     totals.Count,
		Consistent:      target.FundingReceived == totals.TotalInvested,
		Progress:        target.Progress(),
	}
	if !funding.Consistent {
		s.logger.Warn("Startup funding counter differs from ledger",
			"startup_id", startupID.String(),
			"counter", target.FundingReceived,
			"ledger_total", totals.TotalInvested,
		)
	}
	return funding, nil
}

// AdminLedger returns one page of records and the totals over the whole filter
func (s *ReportServiceImpl) AdminLedger(ctx context.Context, filter investment.LedgerFilter, page, perPage int) (*LedgerPage, error) {
	records, err := s.reportRepo.ListLedger(ctx, filter, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*investment.Record{}
	}

	totals, err := s.reportRepo.LedgerTotals(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &LedgerPage{Records: records, Totals: totals}, nil
}

// Stats returns completed totals grouped by startup
func (s *ReportServiceImpl) Stats(ctx context.Context) ([]investment.StartupTotals, error) {
	stats, err := s.reportRepo.TotalsByStartup(ctx)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []investment.StartupTotals{}
	}
	return stats, nil
}

// Confirmations lists journal entries, narrowed to one session when sessionID is set
func (s *ReportServiceImpl) Confirmations(ctx context.Context, sessionID string, page, perPage int) ([]*journal.Entry, int64, error) {
	if sessionID != "" {
		entries, err := s.journalRepo.GetBySessionID(ctx, sessionID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load confirmations for session %s: %w", sessionID, err)
		}
		return entries, int64(len(entries)), nil
	}

	entries, err := s.journalRepo.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list confirmations: %w", err)
	}
	total, err := s.journalRepo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count confirmations: %w", err)
	}
	return entries, total, nil
}
