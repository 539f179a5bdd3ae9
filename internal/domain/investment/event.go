package investment

import (
	"time"

	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

// RecordedEvent is published on the investment event stream once a record
// and its funding increment have committed together
type RecordedEvent struct {
	EventType     string                    `json:"event_type"`
	InvestmentID  uuid.UUID                 `json:"investment_id"`
	SessionID     string                    `json:"session_id"`
	InvestorID    string                    `json:"investor_id,omitempty"`
	StartupID     uuid.UUID                 `json:"startup_id"`
	Amount        int64                     `json:"amount"` // Stored in cents/minor units
	Currency      string                    `json:"currency"`
	Source        shared.ConfirmationSource `json:"source"`
	CorrelationID string                    `json:"correlation_id,omitempty"`
	RecordedAt    time.Time                 `json:"recorded_at"`
}

// NewRecordedEvent derives the stream event for a freshly inserted record
func NewRecordedEvent(r *Record, correlationID string) *RecordedEvent {
	return &RecordedEvent{
		EventType:     shared.EventTypeInvestmentRecorded,
		InvestmentID:  r.ID,
		SessionID:     r.SessionID,
		InvestorID:    r.InvestorID,
		StartupID:     r.StartupID,
		Amount:        r.Amount,
		Currency:      r.Currency,
		Source:        r.Source,
		CorrelationID: correlationID,
		RecordedAt:    r.CreatedAt,
	}
}
