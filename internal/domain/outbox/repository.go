package outbox

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

// Repository persists investment events awaiting publication. Create is only
// meaningful inside the transaction that inserts the investment (see WithTx).
type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	// RecordFailure counts one failed publish and moves the message to
	// FAILED_TO_PUBLISH once maxAttempts is reached. It returns the status
	// the message ended up in.
	RecordFailure(ctx context.Context, id int64, maxAttempts int) (shared.OutboxStatus, error)
	WithTx(tx pgx.Tx) Repository
}

type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return fmt.Sprintf("outbox message %d not found", e.ID)
}
