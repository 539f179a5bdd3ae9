package startup

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyName              = errors.New("startup name cannot be empty")
	ErrInvalidFundingRequired = errors.New("funding required must be positive")
)

// Stage values accepted for a listing
var validStages = map[string]bool{
	"idea":     true,
	"mvp":      true,
	"seed":     true,
	"series-a": true,
	"growth":   true,
}

// Startup is a listing that investors fund. FundingReceived is derived from
// the investment ledger and is only ever changed by an atomic delta or by
// reconciliation.
type Startup struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         string    `json:"owner_id,omitempty"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Industry        string    `json:"industry,omitempty"`
	Stage           string    `json:"stage,omitempty"`
	FundingRequired int64     `json:"funding_required"` // Stored in cents/minor units
	FundingReceived int64     `json:"funding_received"` // Stored in cents/minor units
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewStartup creates a startup listing with no funding received yet
func NewStartup(ownerID, name, description, industry, stage string, fundingRequired int64) (*Startup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if fundingRequired <= 0 {
		return nil, ErrInvalidFundingRequired
	}
	stage = strings.ToLower(strings.TrimSpace(stage))
	if stage != "" && !validStages[stage] {
		return nil, ErrInvalidStage{Stage: stage}
	}

	now := time.Now().UTC()
	return &Startup{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Name:            name,
		Description:     description,
		Industry:        industry,
		Stage:           stage,
		FundingRequired: fundingRequired,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Progress returns the funded share of the target in percent, capped at 100
func (s *Startup) Progress() float64 {
	if s.FundingRequired <= 0 {
		return 0
	}
	p := float64(s.FundingReceived) * 100 / float64(s.FundingRequired)
	if p > 100 {
		return 100
	}
	return p
}

// ErrInvalidStage indicates an unknown funding stage
type ErrInvalidStage struct {
	Stage string
}

func (e ErrInvalidStage) Error() string {
	return "invalid startup stage: " + e.Stage
}
