package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/journal"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/domain/startup"
	ledger "github.com/startup-investment-ledger/internal/ledger_writer/service"
	"github.com/startup-investment-ledger/internal/platform/payment"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string {
	return payment.ProviderStripe
}

func (m *MockGateway) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

func (m *MockGateway) RetrieveSession(ctx context.Context, sessionID string) (*payment.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

func (m *MockGateway) ParseEvent(ctx context.Context, payload []byte, headers http.Header) (*payment.Event, error) {
	args := m.Called(ctx, payload, headers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Event), args.Error(1)
}

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) RecordPayment(ctx context.Context, c *shared.PaymentConfirmation) (*ledger.WriteResult, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.WriteResult), args.Error(1)
}

type MockStartupRepo struct {
	mock.Mock
}

func (m *MockStartupRepo) Create(ctx context.Context, s *startup.Startup) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockStartupRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStartupRepo) FindByID(ctx context.Context, id uuid.UUID) (*startup.Startup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*startup.Startup), args.Error(1)
}

func (m *MockStartupRepo) IncrementFunding(ctx context.Context, id uuid.UUID, amount int64) error {
	return m.Called(ctx, id, amount).Error(0)
}

func (m *MockStartupRepo) LockByID(ctx context.Context, id uuid.UUID) (*startup.Startup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*startup.Startup), args.Error(1)
}

func (m *MockStartupRepo) SetFunding(ctx context.Context, id uuid.UUID, amount int64) error {
	return m.Called(ctx, id, amount).Error(0)
}

func (m *MockStartupRepo) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockStartupRepo) WithTx(pgx.Tx) startup.Repository {
	return m
}

type MockInvestmentRepo struct {
	mock.Mock
}

func (m *MockInvestmentRepo) FindBySessionID(ctx context.Context, sessionID string) (*investment.Record, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*investment.Record), args.Error(1)
}

func (m *MockInvestmentRepo) InsertIfAbsent(ctx context.Context, rec *investment.Record) (*investment.Record, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*investment.Record), args.Error(1)
}

func (m *MockInvestmentRepo) SumCompletedByStartup(ctx context.Context, startupID uuid.UUID) (investment.Totals, error) {
	args := m.Called(ctx, startupID)
	return args.Get(0).(investment.Totals), args.Error(1)
}

func (m *MockInvestmentRepo) WithTx(pgx.Tx) investment.Repository {
	return m
}

type MockReportRepo struct {
	mock.Mock
}

func (m *MockReportRepo) ListCompletedByInvestor(ctx context.Context, investorID string) ([]*investment.Record, error) {
	args := m.Called(ctx, investorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*investment.Record), args.Error(1)
}

func (m *MockReportRepo) StartupNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

func (m *MockReportRepo) TotalsByStartup(ctx context.Context) ([]investment.StartupTotals, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]investment.StartupTotals), args.Error(1)
}

func (m *MockReportRepo) ListLedger(ctx context.Context, filter investment.LedgerFilter, limit, offset int) ([]*investment.Record, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*investment.Record), args.Error(1)
}

func (m *MockReportRepo) ListLedgerBefore(ctx context.Context, filter investment.LedgerFilter, cursor *investment.LedgerCursor, limit int) ([]*investment.Record, error) {
	args := m.Called(ctx, filter, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*investment.Record), args.Error(1)
}

func (m *MockReportRepo) LedgerTotals(ctx context.Context, filter investment.LedgerFilter) (investment.Totals, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(investment.Totals), args.Error(1)
}

type MockJournalRepo struct {
	mock.Mock
}

func (m *MockJournalRepo) Append(ctx context.Context, entry *journal.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockJournalRepo) GetBySessionID(ctx context.Context, sessionID string) ([]*journal.Entry, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Entry), args.Error(1)
}

func (m *MockJournalRepo) List(ctx context.Context, limit, offset int) ([]*journal.Entry, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Entry), args.Error(1)
}

func (m *MockJournalRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalRepo) RecordInconsistency(ctx context.Context, inc *journal.Inconsistency) error {
	return m.Called(ctx, inc).Error(0)
}

func (m *MockJournalRepo) ResolveInconsistencies(ctx context.Context, startupID uuid.UUID) (int64, error) {
	args := m.Called(ctx, startupID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalRepo) ListUnresolved(ctx context.Context, limit int) ([]*journal.Inconsistency, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Inconsistency), args.Error(1)
}
