package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/startup-investment-ledger/internal/domain/journal"
)

const (
	// ConfirmationCollectionName holds one document per confirmation attempt
	ConfirmationCollectionName = "payment_confirmations"
	// InconsistencyCollectionName holds writes that need counter reconciliation
	InconsistencyCollectionName = "ledger_inconsistencies"
)

// Indexes lists the indexes the journal queries rely on, keyed by collection
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		ConfirmationCollectionName: {
			{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "observed_at", Value: 1}}},
			{Keys: bson.D{{Key: "observed_at", Value: -1}}},
		},
		InconsistencyCollectionName: {
			{Keys: bson.D{{Key: "resolved", Value: 1}, {Key: "detected_at", Value: 1}}},
			{Keys: bson.D{{Key: "startup_id", Value: 1}, {Key: "resolved", Value: 1}}},
		},
	}
}

// JournalRepository implements the journal.Repository interface for MongoDB
type JournalRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewJournalRepository creates a new MongoDB confirmation journal repository
func NewJournalRepository(logger *slog.Logger, db *mongo.Database) journal.Repository {
	return &JournalRepository{
		db:     db,
		logger: logger,
	}
}

// Append stores a confirmation attempt. Entries are append-only.
func (r *JournalRepository) Append(ctx context.Context, entry *journal.Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ObservedAt.IsZero() {
		entry.ObservedAt = time.Now().UTC()
	}

	_, err := r.db.Collection(ConfirmationCollectionName).InsertOne(ctx, entry)
	if err != nil {
		r.logger.Error("Failed to append confirmation journal entry",
			"session_id", entry.SessionID,
			"source", string(entry.Source),
			"error", err)
		return fmt.Errorf("failed to append confirmation journal entry: %w", err)
	}

	return nil
}

// GetBySessionID returns every attempt recorded for a session, oldest first
func (r *JournalRepository) GetBySessionID(ctx context.Context, sessionID string) ([]*journal.Entry, error) {
	opts := options.Find().SetSort(bson.M{"observed_at": 1})

	cursor, err := r.db.Collection(ConfirmationCollectionName).Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		r.logger.Error("Failed to get confirmation journal entries",
			"session_id", sessionID,
			"error", err)
		return nil, fmt.Errorf("failed to get confirmation journal entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*journal.Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode confirmation journal entries",
			"session_id", sessionID,
			"error", err)
		return nil, fmt.Errorf("failed to decode confirmation journal entries: %w", err)
	}

	return entries, nil
}

// List retrieves paginated journal entries, newest first
func (r *JournalRepository) List(ctx context.Context, limit, offset int) ([]*journal.Entry, error) {
	opts := options.Find().
		SetSort(bson.M{"observed_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(ConfirmationCollectionName).Find(ctx, bson.M{}, opts)
	if err != nil {
		r.logger.Error("Failed to list confirmation journal entries", "error", err)
		return nil, fmt.Errorf("failed to list confirmation journal entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*journal.Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode confirmation journal entries", "error", err)
		return nil, fmt.Errorf("failed to decode confirmation journal entries: %w", err)
	}

	return entries, nil
}

// Count returns the total number of journal entries
func (r *JournalRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.db.Collection(ConfirmationCollectionName).CountDocuments(ctx, bson.M{})
	if err != nil {
		r.logger.Error("Failed to count confirmation journal entries", "error", err)
		return 0, fmt.Errorf("failed to count confirmation journal entries: %w", err)
	}
	return count, nil
}

// RecordInconsistency stores a partial-commit report for later reconciliation
func (r *JournalRepository) RecordInconsistency(ctx context.Context, inc *journal.Inconsistency) error {
	if inc.ID == uuid.Nil {
		inc.ID = uuid.New()
	}
	if inc.DetectedAt.IsZero() {
		inc.DetectedAt = time.Now().UTC()
	}

	_, err := r.db.Collection(InconsistencyCollectionName).InsertOne(ctx, inc)
	if err != nil {
		r.logger.Error("Failed to record ledger inconsistency",
			"session_id", inc.SessionID,
			"startup_id", inc.StartupID.String(),
			"error", err)
		return fmt.Errorf("failed to record ledger inconsistency: %w", err)
	}

	return nil
}

// ResolveInconsistencies marks every open inconsistency for a startup as
// resolved, returning how many were closed
func (r *JournalRepository) ResolveInconsistencies(ctx context.Context, startupID uuid.UUID) (int64, error) {
	filter := bson.M{"startup_id": startupID, "resolved": false}
	update := bson.M{
		"$set": bson.M{
			"resolved":    true,
			"resolved_at": time.Now().UTC(),
		},
	}

	result, err := r.db.Collection(InconsistencyCollectionName).UpdateMany(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to resolve ledger inconsistencies",
			"startup_id", startupID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to resolve ledger inconsistencies: %w", err)
	}

	return result.ModifiedCount, nil
}

// ListUnresolved returns open inconsistencies, oldest first
func (r *JournalRepository) ListUnresolved(ctx context.Context, limit int) ([]*journal.Inconsistency, error) {
	opts := options.Find().
		SetSort(bson.M{"detected_at": 1}).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(InconsistencyCollectionName).Find(ctx, bson.M{"resolved": false}, opts)
	if err != nil {
		r.logger.Error("Failed to list unresolved inconsistencies", "error", err)
		return nil, fmt.Errorf("failed to list unresolved inconsistencies: %w", err)
	}
	defer cursor.Close(ctx)

	incs := []*journal.Inconsistency{}
	if err := cursor.All(ctx, &incs); err != nil {
		r.logger.Error("Failed to decode unresolved inconsistencies", "error", err)
		return nil, fmt.Errorf("failed to decode unresolved inconsistencies: %w", err)
	}

	return incs, nil
}
