package components

import (
	"log/slog"

	"github.com/startup-investment-ledger/internal/config"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/journal"
	"github.com/startup-investment-ledger/internal/domain/outbox"
	"github.com/startup-investment-ledger/internal/domain/startup"
	"github.com/startup-investment-ledger/internal/ledger_writer/service"
	"github.com/startup-investment-ledger/internal/platform/messaging/producers"
	"github.com/startup-investment-ledger/internal/platform/metrics"
	"github.com/startup-investment-ledger/internal/platform/persistence"
)

// Repositories groups the stores the ledger writer depends on
type Repositories struct {
	Investments investment.Repository
	Startups    startup.Repository
	Outbox      outbox.Repository
	Journal     journal.Repository
}

// CreateWriterService creates a new WriterService with all its dependencies.
func CreateWriterService(
	db persistence.TxBeginner,
	repos Repositories,
	reconcilePublisher producers.MessagePublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg *config.Config,
) service.WriterService {
	baseService := service.NewWriterService(
		db,
		NewPaymentValidator(repos.Investments, logger),
		NewInvestmentRecorder(repos.Investments, logger),
		NewFundingManager(repos.Startups, logger),
		NewOutboxManager(repos.Outbox, logger),
		NewInconsistencyRecorder(repos.Journal, reconcilePublisher, logger),
		m,
		logger,
	)

	if cfg.WorkerPool.Size <= 0 {
		logger.Warn("Worker pool size not set, writes are unbounded", "pool_size", cfg.WorkerPool.Size)
		return baseService
	}

	workerPoolService, err := service.NewWorkerPoolWriterService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool writer service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}

// CreateReconcileService creates the counter reconciliation service.
func CreateReconcileService(
	db persistence.TxBeginner,
	repos Repositories,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg *config.Config,
) service.ReconcileService {
	var resolver service.InconsistencyResolver
	if repos.Journal != nil {
		resolver = repos.Journal
	}
	return service.NewReconcileService(
		db,
		repos.Startups,
		repos.Investments,
		resolver,
		m,
		logger.With("component", "reconciler"),
		cfg.Reconcile.Concurrency,
	)
}
