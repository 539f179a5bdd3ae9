package shared

// PaymentStatus mirrors the processor-facing lifecycle of an investment payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded" // Schema slot only, no refund flow writes it
)

// Valid reports whether s is one of the known payment statuses
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// ConfirmationSource tags which entry point observed a payment confirmation
type ConfirmationSource string

const (
	ConfirmationSourceWebhook ConfirmationSource = "webhook"
	ConfirmationSourcePoll    ConfirmationSource = "poll"
)

// WriteOutcome describes what the ledger writer did with a confirmation
type WriteOutcome string

const (
	OutcomeRecorded  WriteOutcome = "recorded"  // New record inserted and counter incremented
	OutcomeDuplicate WriteOutcome = "duplicate" // Session already recorded, nothing changed
	OutcomeSkipped   WriteOutcome = "skipped"   // Status was not completed, nothing written
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// Outbox event types
const (
	EventTypeInvestmentRecorded = "investment.recorded"
)

// IsCurrencyCode reports whether code is exactly three ASCII letters, in
// either case.
func IsCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}
