package shared

import (
	"time"

	"github.com/google/uuid"
)

// PaymentConfirmation is the normalized form of a processor notification,
// produced by either confirmation path and consumed by the ledger writer.
// Amount is authoritative from the processor, not from session metadata.
type PaymentConfirmation struct {
	SessionID     string             `json:"session_id"`
	InvestorID    string             `json:"investor_id,omitempty"`
	StartupID     uuid.UUID          `json:"startup_id"`
	Amount        int64              `json:"amount"` // Stored in cents/minor units
	Currency      string             `json:"currency"`
	Status        PaymentStatus      `json:"status"`
	Source        ConfirmationSource `json:"source"`
	CorrelationID string             `json:"correlation_id,omitempty"`
	ReceivedAt    time.Time          `json:"received_at"`
}

// ReconcileRequest defines a Kafka message asking for a startup's
// funding counter to be recomputed from its ledger
type ReconcileRequest struct {
	RequestID     uuid.UUID `json:"request_id"`
	StartupID     uuid.UUID `json:"startup_id"`
	Reason        string    `json:"reason"`
	SessionID     string    `json:"session_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	RequestedAt   time.Time `json:"requested_at"`
}

// ReconcileResult reports the outcome of recomputing one startup's counter
type ReconcileResult struct {
	StartupID   uuid.UUID `json:"startup_id"`
	Previous    int64     `json:"previous"`
	Recomputed  int64     `json:"recomputed"`
	RecordCount int64     `json:"record_count"`
	Adjusted    bool      `json:"adjusted"`
}
