package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/startup-investment-ledger/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB holds the client backing the confirmation journal
type MongoDB struct {
	logger   *slog.Logger
	client   *mongo.Client
	database *mongo.Database
}

func NewMongoDB(ctx context.Context, logger *slog.Logger, cfg *config.MongoDBConfig) (*MongoDB, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetServerSelectionTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB at %s: %w", cfg.Database, err)
	}

	logger.Info("Connected to MongoDB", "database", cfg.Database)

	return newMongoDB(logger, client, cfg.Database), nil
}

func newMongoDB(logger *slog.Logger, client *mongo.Client, database string) *MongoDB {
	return &MongoDB{
		logger:   logger,
		client:   client,
		database: client.Database(database),
	}
}

func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

// EnsureIndexes creates the given indexes per collection. Creating an index
// that already exists with the same keys and options is a no-op in MongoDB,
// so this runs on every start.
func (m *MongoDB) EnsureIndexes(ctx context.Context, indexes map[string][]mongo.IndexModel) error {
	for collection, models := range indexes {
		if len(models) == 0 {
			continue
		}
		names, err := m.database.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
		m.logger.Debug("MongoDB indexes ensured", "collection", collection, "indexes", names)
	}
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	m.logger.Info("Closed MongoDB connection")
	return nil
}
