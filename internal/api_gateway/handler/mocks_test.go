package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/api_gateway/service"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/journal"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) CreateSession(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CheckoutSession), args.Error(1)
}

type MockConfirmationService struct {
	mock.Mock
}

func (m *MockConfirmationService) HandleWebhook(ctx context.Context, payload []byte, headers http.Header, correlationID string) (*service.WebhookResult, error) {
	args := m.Called(ctx, payload, headers, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WebhookResult), args.Error(1)
}

func (m *MockConfirmationService) VerifySession(ctx context.Context, sessionID, correlationID string) (*service.VerifyResult, error) {
	args := m.Called(ctx, sessionID, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VerifyResult), args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) GetInvestment(ctx context.Context, sessionID string) (*investment.Record, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*investment.Record), args.Error(1)
}

func (m *MockReportService) Portfolio(ctx context.Context, investorID string) (*service.Portfolio, error) {
	args := m.Called(ctx, investorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Portfolio), args.Error(1)
}

func (m *MockReportService) StartupFunding(ctx context.Context, startupID uuid.UUID) (*service.StartupFunding, error) {
	args := m.Called(ctx, startupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StartupFunding), args.Error(1)
}

func (m *MockReportService) AdminLedger(ctx context.Context, filter investment.LedgerFilter, page, perPage int) (*service.LedgerPage, error) {
	args := m.Called(ctx, filter, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LedgerPage), args.Error(1)
}

func (m *MockReportService) Stats(ctx context.Context) ([]investment.StartupTotals, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]investment.StartupTotals), args.Error(1)
}

func (m *MockReportService) Confirmations(ctx context.Context, sessionID string, page, perPage int) ([]*journal.Entry, int64, error) {
	args := m.Called(ctx, sessionID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*journal.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockReportService) ExportLedger(ctx context.Context, filter investment.LedgerFilter, w io.Writer) error {
	args := m.Called(ctx, filter, w)
	if err := args.Error(0); err != nil {
		return err
	}
	_, err := w.Write([]byte("xlsx"))
	return err
}

type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) ReconcileStartup(ctx context.Context, startupID uuid.UUID) (*shared.ReconcileResult, error) {
	args := m.Called(ctx, startupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.ReconcileResult), args.Error(1)
}

func (m *MockReconcileService) ReconcileAll(ctx context.Context) ([]*shared.ReconcileResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shared.ReconcileResult), args.Error(1)
}
