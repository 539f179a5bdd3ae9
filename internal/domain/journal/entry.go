package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

// Entry records one confirmation attempt as observed by either entry point,
// including duplicates and rejected deliveries
type Entry struct {
	ID            uuid.UUID                 `json:"id" bson:"_id"`
	SessionID     string                    `json:"session_id" bson:"session_id"`
	StartupID     uuid.UUID                 `json:"startup_id,omitempty" bson:"startup_id,omitempty"`
	Source        shared.ConfirmationSource `json:"source" bson:"source"`
	Status        shared.PaymentStatus      `json:"status,omitempty" bson:"status,omitempty"`
	Outcome       shared.WriteOutcome       `json:"outcome,omitempty" bson:"outcome,omitempty"`
	Amount        int64                     `json:"amount,omitempty" bson:"amount,omitempty"` // Stored in cents/minor units
	Error         string                    `json:"error,omitempty" bson:"error,omitempty"`
	CorrelationID string                    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	ObservedAt    time.Time                 `json:"observed_at" bson:"observed_at"`
}

// Inconsistency records a write whose funding increment could not be
// confirmed and needs reconciliation
type Inconsistency struct {
	ID         uuid.UUID  `json:"id" bson:"_id"`
	SessionID  string     `json:"session_id" bson:"session_id"`
	StartupID  uuid.UUID  `json:"startup_id" bson:"startup_id"`
	Amount     int64      `json:"amount" bson:"amount"`
	Reason     string     `json:"reason" bson:"reason"`
	Resolved   bool       `json:"resolved" bson:"resolved"`
	DetectedAt time.Time  `json:"detected_at" bson:"detected_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
}
