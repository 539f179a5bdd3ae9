package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/startup-investment-ledger/internal/api_gateway"
	"github.com/startup-investment-ledger/internal/api_gateway/service"
	"github.com/startup-investment-ledger/internal/config"
	"github.com/startup-investment-ledger/internal/data/mongo"
	"github.com/startup-investment-ledger/internal/data/postgres"
	"github.com/startup-investment-ledger/internal/ledger_writer/components"
	ledger "github.com/startup-investment-ledger/internal/ledger_writer/service"
	"github.com/startup-investment-ledger/internal/logger"
	"github.com/startup-investment-ledger/internal/platform/messaging/producers"
	"github.com/startup-investment-ledger/internal/platform/metrics"
	"github.com/startup-investment-ledger/internal/platform/payment"
	"github.com/startup-investment-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}
	if err := mongoDB.EnsureIndexes(appCtx, mongo.Indexes()); err != nil {
		log.Error("Failed to ensure journal indexes", "error", err)
		os.Exit(1)
	}

	// Reconcile requests raised by partial commits
	reconcileProducer, err := producers.NewReconcileRequestProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize reconcile request producer", "error", err)
		os.Exit(1)
	}

	gateway, err := payment.NewGateway(appCtx, log, &cfg.Payment)
	if err != nil {
		log.Error("Failed to initialize payment gateway", "provider", cfg.Payment.Provider, "error", err)
		os.Exit(1)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Initialize repositories
	repos := components.Repositories{
		Investments: postgres.NewInvestmentRepository(log, postgresDB),
		Startups:    postgres.NewStartupRepository(log, postgresDB),
		Outbox:      postgres.NewOutboxRepository(log, postgresDB),
		Journal:     mongo.NewJournalRepository(log, mongoDB.Database()),
	}
	reportRepo := postgres.NewReportRepository(log, postgresDB)

	// Initialize services
	writer := components.CreateWriterService(postgresDB.Pool(), repos, reconcileProducer, m, log, cfg)
	reconciler := components.CreateReconcileService(postgresDB.Pool(), repos, m, log, cfg)

	services := api_gateway.Services{
		Checkout:     service.NewCheckoutService(log, gateway, repos.Startups, m, &cfg.Payment),
		Confirmation: service.NewConfirmationService(log, gateway, writer, repos.Journal, m),
		Report:       service.NewReportService(log, repos.Investments, reportRepo, repos.Startups, repos.Journal),
		Reconcile:    reconciler,
	}

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, services, prometheus.DefaultGatherer)
	log.Info("REST server initialized", "payment_provider", gateway.Name())

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before the writer and stores go away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Cancel the application context
	cancelAppCtx()

	if pool, ok := writer.(*ledger.WorkerPoolWriterService); ok {
		log.Info("Shutting down writer pool", "running_workers", pool.Running())
		pool.Shutdown()
	}

	if err = reconcileProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
