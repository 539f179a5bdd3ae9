package handler

import (
	"github.com/shopspring/decimal"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

// CreateCheckoutSessionRequest represents a request to open a checkout.
// Amount is in major units, e.g. 125.50.
type CreateCheckoutSessionRequest struct {
	StartupID  string          `json:"startup_id" binding:"required,uuid"`
	InvestorID string          `json:"investor_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency" binding:"omitempty,len=3"`
}

// WebhookResponse acknowledges a processor delivery
type WebhookResponse struct {
	Received  bool                `json:"received"`
	EventID   string              `json:"event_id"`
	EventType string              `json:"event_type"`
	Outcome   shared.WriteOutcome `json:"outcome,omitempty"`
}

// VerifyResponse reports what polling the processor found
type VerifyResponse struct {
	SessionID  string               `json:"session_id"`
	Status     shared.PaymentStatus `json:"status"`
	Outcome    shared.WriteOutcome  `json:"outcome"`
	Investment *investment.Record   `json:"investment,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// LedgerQuery filters the admin ledger and its export
type LedgerQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=pending completed failed refunded"`
	StartupID  string `form:"startup_id" binding:"omitempty,uuid"`
	InvestorID string `form:"investor_id"`
	Page       int    `form:"page,default=1" binding:"min=1"`
	PerPage    int    `form:"per_page,default=20" binding:"min=1,max=100"`
}

// ConfirmationsQuery selects confirmation journal entries
type ConfirmationsQuery struct {
	SessionID string `form:"session_id"`
	Page      int    `form:"page,default=1" binding:"min=1"`
	PerPage   int    `form:"per_page,default=20" binding:"min=1,max=100"`
}
