package service

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/journal"
)

// CheckoutService opens processor checkout sessions for investments
type CheckoutService interface {
	// CreateSession validates the request before contacting the processor.
	// Returns shared.ValidationError for bad input; nothing is written to the ledger.
	CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// ConfirmationService receives payment confirmations from both entry points
// and hands them to the ledger writer
type ConfirmationService interface {
	// HandleWebhook verifies a processor delivery over its raw body.
	// Returns payment.ErrInvalidSignature if verification fails.
	HandleWebhook(ctx context.Context, payload []byte, headers http.Header, correlationID string) (*WebhookResult, error)

	// VerifySession re-fetches the session from the processor and records it
	// if paid. Returns payment.ErrUpstreamUnavailable when the processor is unreachable.
	VerifySession(ctx context.Context, sessionID, correlationID string) (*VerifyResult, error)
}

// ReportService serves read-only views over completed investments
type ReportService interface {
	// GetInvestment returns investment.ErrRecordNotFound for unknown sessions
	GetInvestment(ctx context.Context, sessionID string) (*investment.Record, error)
	Portfolio(ctx context.Context, investorID string) (*Portfolio, error)
	StartupFunding(ctx context.Context, startupID uuid.UUID) (*StartupFunding, error)
	AdminLedger(ctx context.Context, filter investment.LedgerFilter, page, perPage int) (*LedgerPage, error)
	Stats(ctx context.Context) ([]investment.StartupTotals, error)
	Confirmations(ctx context.Context, sessionID string, page, perPage int) ([]*journal.Entry, int64, error)

	// ExportLedger writes the filtered ledger as an XLSX workbook
	ExportLedger(ctx context.Context, filter investment.LedgerFilter, w io.Writer) error
}
