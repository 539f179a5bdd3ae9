package investment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

// ErrDuplicateSession is returned by InsertIfAbsent when another writer
// already recorded the session. It is an expected outcome, not a failure.
var ErrDuplicateSession = errors.New("investment already recorded for session")

// Repository defines investment ledger persistence operations
type Repository interface {
	// FindBySessionID returns nil, nil when no record exists for the session
	FindBySessionID(ctx context.Context, sessionID string) (*Record, error)

	// InsertIfAbsent relies on the unique session_id constraint and returns
	// ErrDuplicateSession when the row already exists
	InsertIfAbsent(ctx context.Context, record *Record) (*Record, error)

	// SumCompletedByStartup computes the live ledger total for a startup
	SumCompletedByStartup(ctx context.Context, startupID uuid.UUID) (Totals, error)
	WithTx(tx pgx.Tx) Repository
}

// Totals is a count/sum rollup over completed records
type Totals struct {
	Count         int64 `json:"count"`
	TotalInvested int64 `json:"totalInvested"` // Stored in cents/minor units
}

// StartupTotals is a rollup of completed records for one startup
type StartupTotals struct {
	StartupID   uuid.UUID `json:"startup_id"`
	StartupName string    `json:"startup_name"`
	Totals
}

// LedgerFilter narrows the admin ledger view. Zero values mean no filter.
type LedgerFilter struct {
	Status     shared.PaymentStatus
	StartupID  uuid.UUID
	InvestorID string
}

// LedgerCursor is the (created_at, id) position of the last record of a page
type LedgerCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// CursorOf returns the position just past rec
func CursorOf(rec *Record) *LedgerCursor {
	return &LedgerCursor{CreatedAt: rec.CreatedAt, ID: rec.ID}
}

// ReportRepository serves the read-only aggregation views
type ReportRepository interface {
	ListCompletedByInvestor(ctx context.Context, investorID string) ([]*Record, error)
	StartupNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	TotalsByStartup(ctx context.Context) ([]StartupTotals, error)
	ListLedger(ctx context.Context, filter LedgerFilter, limit, offset int) ([]*Record, error)
	ListLedgerBefore(ctx context.Context, filter LedgerFilter, cursor *LedgerCursor, limit int) ([]*Record, error)
	LedgerTotals(ctx context.Context, filter LedgerFilter) (Totals, error)
}

// ErrRecordNotFound indicates no investment exists for a session
type ErrRecordNotFound struct {
	SessionID string
}

func (e ErrRecordNotFound) Error() string {
	return "investment not found for session: " + e.SessionID
}

// Is matches any ErrRecordNotFound when the target carries no session id
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.SessionID == "" {
		return true
	}
	return e.SessionID == t.SessionID
}
