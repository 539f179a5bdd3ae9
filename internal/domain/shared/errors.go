package shared

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError is returned for input rejected before any ledger or
// processor side effect. Its message is safe to show to clients.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PartialCommitError signals that an investment may have been persisted
// while its funding increment is unconfirmed. The startup's counter must be
// reconciled from the ledger.
type PartialCommitError struct {
	SessionID string
	StartupID uuid.UUID
	Amount    int64
	Err       error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("partial commit for session %s (startup %s, amount %d): %v", e.SessionID, e.StartupID, e.Amount, e.Err)
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}
