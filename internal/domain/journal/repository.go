package journal

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists the confirmation journal and inconsistency log
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	GetBySessionID(ctx context.Context, sessionID string) ([]*Entry, error)
	List(ctx context.Context, limit, offset int) ([]*Entry, error)
	Count(ctx context.Context) (int64, error)

	RecordInconsistency(ctx context.Context, inc *Inconsistency) error
	ResolveInconsistencies(ctx context.Context, startupID uuid.UUID) (int64, error)
	ListUnresolved(ctx context.Context, limit int) ([]*Inconsistency, error)
}
