package service

import (
	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

// CheckoutRequest is an investor's intent to fund a startup
type CheckoutRequest struct {
	StartupID     uuid.UUID
	InvestorID    string // Optional, anonymous checkouts are allowed
	Amount        int64  // Stored in cents/minor units
	Currency      string
	CorrelationID string
}

// CheckoutSession is returned to the client to redirect into the processor
type CheckoutSession struct {
	SessionID   string `json:"session_id"`
	URL         string `json:"url"`
	Provider    string `json:"provider"`
	StartupID   string `json:"startup_id"`
	StartupName string `json:"startup_name"`
	InvestorID  string `json:"investor_id,omitempty"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// WebhookResult describes what a verified webhook delivery caused
type WebhookResult struct {
	EventID   string
	EventType string
	Handled   bool // false when the event does not concern a checkout
	Outcome   shared.WriteOutcome
	Record    *investment.Record
}

// VerifyResult is the outcome of polling the processor for one session
type VerifyResult struct {
	SessionID string
	Status    shared.PaymentStatus
	Outcome   shared.WriteOutcome
	Record    *investment.Record
}

// Portfolio aggregates an investor's completed investments
type Portfolio struct {
	InvestorID    string                     `json:"investor_id"`
	Count         int64                      `json:"count"`
	TotalInvested int64                      `json:"totalInvested"`
	Data          []*investment.Record       `json:"data"`
	ByStartup     []investment.StartupTotals `json:"byStartup"`
}

// StartupFunding compares a startup's funding counter with its ledger
type StartupFunding struct {
	StartupID       uuid.UUID `json:"startup_id"`
	Name            string    `json:"name"`
	FundingRequired int64     `json:"funding_required"`
	FundingReceived int64     `json:"funding_received"` // The counter
	LedgerTotal     int64     `json:"ledger_total"`     // Live sum of completed records
	LedgerCount     int64     `json:"ledger_count"`
	Consistent      bool      `json:"consistent"`
	Progress        float64   `json:"progress"`
}

// LedgerPage is one page of the admin ledger with totals over the whole filter
type LedgerPage struct {
	Records []*investment.Record `json:"records"`
	Totals  investment.Totals    `json:"totals"`
}
