// Package payment adapts external payment processors to the ledger. A Gateway
// creates hosted checkout sessions, re-fetches them for verification and
// turns signed webhook deliveries into events.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"github.com/startup-investment-ledger/internal/config"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

var (
	// ErrInvalidSignature is returned when a webhook payload fails verification
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrUpstreamUnavailable means the processor could not be reached or answered with a server error
	ErrUpstreamUnavailable = errors.New("payment processor unavailable")

	// ErrSessionNotFound means the processor does not know the session
	ErrSessionNotFound = errors.New("payment session not found")

	// ErrRequestRejected means the processor refused the request as invalid
	ErrRequestRejected = errors.New("payment request rejected by processor")
)

// Supported PAYMENT_PROVIDER values
const (
	ProviderStripe = "stripe"
	ProviderPayPal = "paypal"
)

// Metadata keys attached to every checkout session
const (
	MetaInvestorID  = "investor_id"
	MetaStartupID   = "startup_id"
	MetaAmount      = "amount"
	MetaStartupName = "startup_name"
)

// Gateway is the processor boundary used by the checkout and confirmation services
type Gateway interface {
	Name() string
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
	ParseEvent(ctx context.Context, payload []byte, headers http.Header) (*Event, error)
}

// SessionRequest describes a checkout to open with the processor
type SessionRequest struct {
	Amount      int64 // minor units
	Currency    string
	StartupID   uuid.UUID
	StartupName string
	InvestorID  string
	SuccessURL  string
	CancelURL   string
}

// Metadata is the correlation data echoed back by the processor. It is
// untrusted and must be re-validated before use.
type Metadata struct {
	InvestorID  string
	StartupID   uuid.UUID
	Amount      int64
	StartupName string
}

// Session is a processor checkout session mapped to ledger terms
type Session struct {
	ID       string
	URL      string
	Status   shared.PaymentStatus
	Amount   int64 // as reported by the processor, authoritative
	Currency string
	Metadata Metadata
}

// Event is a verified webhook delivery. Session is nil for events that do
// not concern a checkout.
type Event struct {
	ID      string
	Type    string
	Session *Session
}

// Confirmation converts the session into a ledger write request. A metadata
// amount that disagrees with the processor amount is reported through mismatch.
func (s *Session) Confirmation(source shared.ConfirmationSource, correlationID string) (c *shared.PaymentConfirmation, mismatch bool) {
	mismatch = s.Metadata.Amount != 0 && s.Metadata.Amount != s.Amount
	return &shared.PaymentConfirmation{
		SessionID:     s.ID,
		InvestorID:    s.Metadata.InvestorID,
		StartupID:     s.Metadata.StartupID,
		Amount:        s.Amount,
		Currency:      strings.ToLower(s.Currency),
		Status:        s.Status,
		Source:        source,
		CorrelationID: correlationID,
	}, mismatch
}

func (r SessionRequest) metadata() map[string]string {
	return map[string]string{
		MetaInvestorID:  r.InvestorID,
		MetaStartupID:   r.StartupID.String(),
		MetaAmount:      cast.ToString(r.Amount),
		MetaStartupName: r.StartupName,
	}
}

// parseMetadata coerces a loosely typed processor metadata map. A missing or
// malformed startup id yields uuid.Nil, which the ledger writer rejects.
func parseMetadata(raw map[string]interface{}) Metadata {
	meta := Metadata{
		InvestorID:  cast.ToString(raw[MetaInvestorID]),
		StartupName: cast.ToString(raw[MetaStartupName]),
	}
	if id, err := uuid.Parse(cast.ToString(raw[MetaStartupID])); err == nil {
		meta.StartupID = id
	}
	if amount, err := cast.ToInt64E(raw[MetaAmount]); err == nil {
		meta.Amount = amount
	}
	return meta
}

// NewGateway builds the gateway selected by PAYMENT_PROVIDER
func NewGateway(ctx context.Context, logger *slog.Logger, cfg *config.PaymentConfig) (Gateway, error) {
	switch cfg.Provider {
	case ProviderStripe:
		return NewStripeGateway(logger, cfg), nil
	case ProviderPayPal:
		return NewPayPalGateway(ctx, logger, cfg)
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Provider)
	}
}
