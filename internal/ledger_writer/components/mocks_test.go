package components

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/journal"
	"github.com/startup-investment-ledger/internal/domain/outbox"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/domain/startup"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
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

func (m *MockInvestmentRepo) WithTx(tx pgx.Tx) investment.Repository {
	args := m.Called(tx)
	return args.Get(0).(investment.Repository)
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

func (m *MockStartupRepo) WithTx(tx pgx.Tx) startup.Repository {
	args := m.Called(tx)
	return args.Get(0).(startup.Repository)
}

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockOutboxRepo) RecordFailure(ctx context.Context, id int64, maxAttempts int) (shared.OutboxStatus, error) {
	args := m.Called(ctx, id, maxAttempts)
	return args.Get(0).(shared.OutboxStatus), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
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

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockPublisher) PublishWithCorrelation(ctx context.Context, key string, value interface{}, correlationID string) error {
	return m.Called(ctx, key, value, correlationID).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}
