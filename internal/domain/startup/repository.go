package startup

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines startup persistence operations
type Repository interface {
	Create(ctx context.Context, startup *Startup) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Startup, error)

	// IncrementFunding applies an atomic delta to funding_received
	IncrementFunding(ctx context.Context, id uuid.UUID, amount int64) error

	// LockByID acquires a row lock, used only by reconciliation
	LockByID(ctx context.Context, id uuid.UUID) (*Startup, error)

	// SetFunding overwrites funding_received with a value recomputed from the ledger
	SetFunding(ctx context.Context, id uuid.UUID, amount int64) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrStartupNotFound indicates missing startup
type ErrStartupNotFound struct {
	StartupID uuid.UUID
}

func (e ErrStartupNotFound) Error() string {
	return "startup not found: " + e.StartupID.String()
}

// Is matches any ErrStartupNotFound when the target has a nil id
func (e ErrStartupNotFound) Is(target error) bool {
	t, ok := target.(ErrStartupNotFound)
	if !ok {
		return false
	}
	if t.StartupID == uuid.Nil {
		return true
	}
	return e.StartupID == t.StartupID
}
