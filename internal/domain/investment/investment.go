package investment

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

// Common errors
var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrEmptySessionID        = errors.New("session id cannot be empty")
	ErrMissingStartupID      = errors.New("startup id is required")
	ErrInvalidCurrencyFormat = errors.New("currency must be three ASCII letters")
	ErrNotCompleted          = errors.New("only completed payments can be recorded")
)

// Record is one confirmed payment. It is immutable once created and there is
// exactly one per processor session.
type Record struct {
	ID         uuid.UUID                 `json:"id"`
	SessionID  string                    `json:"session_id"`
	InvestorID string                    `json:"investor_id,omitempty"` // Empty for anonymous checkouts
	StartupID  uuid.UUID                 `json:"startup_id"`
	Amount     int64                     `json:"amount"` // Stored in cents/minor units
	Currency   string                    `json:"currency"`
	Status     shared.PaymentStatus      `json:"status"`
	Source     shared.ConfirmationSource `json:"source"`
	CreatedAt  time.Time                 `json:"created_at"`
}

// NewRecord builds a completed investment record from a payment confirmation
func NewRecord(c *shared.PaymentConfirmation) (*Record, error) {
	if strings.TrimSpace(c.SessionID) == "" {
		return nil, ErrEmptySessionID
	}
	if c.StartupID == uuid.Nil {
		return nil, ErrMissingStartupID
	}
	if c.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !shared.IsCurrencyCode(c.Currency) {
		return nil, ErrInvalidCurrencyFormat
	}
	if c.Status != shared.PaymentStatusCompleted {
		return nil, ErrNotCompleted
	}

	return &Record{
		ID:         uuid.New(),
		SessionID:  c.SessionID,
		InvestorID: c.InvestorID,
		StartupID:  c.StartupID,
		Amount:     c.Amount,
		Currency:   strings.ToLower(c.Currency),
		Status:     shared.PaymentStatusCompleted,
		Source:     c.Source,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
