package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/startup-investment-ledger/internal/config"
	"github.com/startup-investment-ledger/internal/data/mongo"
	"github.com/startup-investment-ledger/internal/data/postgres"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/ledger_writer/components"
	"github.com/startup-investment-ledger/internal/logger"
	"github.com/startup-investment-ledger/internal/platform/persistence"
)

// app holds the connections a single command needs
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	postgres *persistence.PostgresDB
	mongo    *persistence.MongoDB
	repos    components.Repositories
	reports  investment.ReportRepository
}

func openApp(ctx context.Context, configName string) (*app, error) {
	cfg, err := config.LoadConfig(configName)
	if err != nil {
		return nil, err
	}
	log := logger.NewLogger(cfg)

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		postgresDB.Close()
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	return &app{
		cfg:      cfg,
		log:      log,
		postgres: postgresDB,
		mongo:    mongoDB,
		repos: components.Repositories{
			Investments: postgres.NewInvestmentRepository(log, postgresDB),
			Startups:    postgres.NewStartupRepository(log, postgresDB),
			Outbox:      postgres.NewOutboxRepository(log, postgresDB),
			Journal:     mongo.NewJournalRepository(log, mongoDB.Database()),
		},
		reports: postgres.NewReportRepository(log, postgresDB),
	}, nil
}

func (a *app) Close(ctx context.Context) {
	a.postgres.Close()
	if err := a.mongo.Close(ctx); err != nil {
		a.log.Error("Error closing MongoDB connection", "error", err)
	}
}

// parseMajorUnits converts an operator-entered amount such as "2500.50" to minor units
func parseMajorUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("invalid amount %q: at most two decimal places", s)
	}
	if !minor.IsPositive() {
		return 0, fmt.Errorf("invalid amount %q: must be positive", s)
	}
	return minor.IntPart(), nil
}

func formatMinorUnits(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}
