package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

// Message stores an investment event for reliable publishing, written in the
// same database transaction as the investment record
type Message struct {
	ID            int64               `json:"id"`
	InvestmentID  uuid.UUID           `json:"investment_id"`
	StartupID     uuid.UUID           `json:"startup_id"`
	EventType     string              `json:"event_type"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *investment.RecordedEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		InvestmentID: event.InvestmentID,
		StartupID:    event.StartupID,
		EventType:    event.EventType,
		Payload:      payload,
		Status:       shared.OutboxStatusPending,
		CreatedAt:    time.Now(),
	}, nil
}

// RecordedEvent decodes the payload back into the investment event
func (m *Message) RecordedEvent() (*investment.RecordedEvent, error) {
	var event investment.RecordedEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
