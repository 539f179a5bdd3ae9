// Command ledger_worker publishes recorded investments from the outbox and
// reconciles startup funding counters on request.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/startup-investment-ledger/internal/config"
	"github.com/startup-investment-ledger/internal/data/mongo"
	"github.com/startup-investment-ledger/internal/data/postgres"
	"github.com/startup-investment-ledger/internal/ledger_writer/components"
	"github.com/startup-investment-ledger/internal/ledger_writer/consumer"
	"github.com/startup-investment-ledger/internal/ledger_writer/outbox_poller"
	"github.com/startup-investment-ledger/internal/logger"
	"github.com/startup-investment-ledger/internal/platform/messaging/consumers"
	"github.com/startup-investment-ledger/internal/platform/messaging/producers"
	"github.com/startup-investment-ledger/internal/platform/metrics"
	"github.com/startup-investment-ledger/internal/platform/persistence"
)

func main() {
	cfg, err := config.LoadConfig("ledger_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting ledger worker", "app_name", cfg.Application.Name, "env", cfg.Application.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Ledger worker stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Ledger worker stopped")
}

// closer is released in reverse order of acquisition on shutdown
type closer struct {
	name  string
	close func(ctx context.Context) error
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) (err error) {
	var closers []closer
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if cErr := closers[i].close(shutdownCtx); cErr != nil {
				log.Error("Failed to close "+closers[i].name, "error", cErr)
			}
		}
	}()

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	closers = append(closers, closer{"postgres", func(context.Context) error { postgresDB.Close(); return nil }})

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	closers = append(closers, closer{"mongodb", mongoDB.Close})

	eventProducer, err := producers.NewInvestmentEventProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("investment event producer: %w", err)
	}
	closers = append(closers, closer{"investment event producer", func(context.Context) error { return eventProducer.Close() }})

	dlqProducer, err := producers.NewDLQProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("dead letter producer: %w", err)
	}
	// A nil *DLQProducer must not become a non-nil interface
	var dlq producers.DeadLetterPublisher
	if dlqProducer != nil {
		dlq = dlqProducer
		closers = append(closers, closer{"dead letter producer", func(context.Context) error { return dlqProducer.Close() }})
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	repos := components.Repositories{
		Investments: postgres.NewInvestmentRepository(log, postgresDB),
		Startups:    postgres.NewStartupRepository(log, postgresDB),
		Outbox:      postgres.NewOutboxRepository(log, postgresDB),
		Journal:     mongo.NewJournalRepository(log, mongoDB.Database()),
	}

	reconciler := components.CreateReconcileService(postgresDB.Pool(), repos, m, log, cfg)
	reconcileHandler := consumer.NewReconcileRequestHandler(log, reconciler, dlq)
	reconcileConsumer := consumers.NewKafkaConsumer(ctx, log, &cfg.Kafka, cfg.Kafka.ReconcileTopic, cfg.Reconcile.ConsumerGroup)
	closers = append(closers, closer{"reconcile consumer", func(context.Context) error { return reconcileConsumer.Close() }})

	eventPublisher := outbox_poller.NewKafkaEventPublisher(repos.Outbox, eventProducer, dlq, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, repos.Outbox, eventPublisher, m, log)

	workCtx, cancelWork := context.WithCancel(ctx)
	defer cancelWork()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(workCtx)
	}()

	if err := reconcileConsumer.Subscribe(workCtx, reconcileHandler.HandleMessage); err != nil {
		return fmt.Errorf("reconcile consumer: %w", err)
	}

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("Serving metrics", "port", cfg.Server.Port)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err = <-serveErr:
		err = fmt.Errorf("metrics server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if sErr := metricsServer.Shutdown(shutdownCtx); sErr != nil {
		log.Error("Failed to stop metrics server", "error", sErr)
	}

	cancelWork()
	stopped := make(chan struct{})
	go func() {
		wg.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		log.Warn("Outbox poller did not stop before the shutdown timeout")
	}

	return err
}
