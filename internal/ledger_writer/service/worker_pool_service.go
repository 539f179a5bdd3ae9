package service

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

// WorkerPoolWriterService bounds how many ledger writes run concurrently.
// Each write still holds its own transaction; the pool only caps the number
// of database connections the writer can claim at once.
type WorkerPoolWriterService struct {
	baseService WriterService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolWriterService(
	baseService WriterService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolWriterService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolWriterService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

type writeOutcome struct {
	result *WriteResult
	err    error
}

// RecordPayment runs the write on a pooled worker and waits for it. If ctx
// ends first the caller gets ctx.Err() while the worker finishes its
// transaction, so the ledger never sees a half-applied write.
func (s *WorkerPoolWriterService) RecordPayment(ctx context.Context, c *shared.PaymentConfirmation) (*WriteResult, error) {
	logger := s.logger
	if c.CorrelationID != "" {
		logger = s.logger.With("correlation_id", c.CorrelationID)
	}

	logger.Debug("Submitting payment confirmation to worker pool",
		"session_id", c.SessionID,
		"source", string(c.Source),
	)

	// Buffered so an abandoned worker never blocks on send
	resultChan := make(chan writeOutcome, 1)
	confirmation := *c

	err := s.pool.Submit(func() {
		result, err := s.baseService.RecordPayment(ctx, &confirmation)
		resultChan <- writeOutcome{result: result, err: err}
	})
	if err != nil {
		logger.Error("Failed to submit payment confirmation to worker pool",
			"session_id", c.SessionID,
			"error", err,
		)
		return nil, err
	}

	select {
	case out := <-resultChan:
		return out.result, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolWriterService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolWriterService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolWriterService) Capacity() int {
	return s.pool.Cap()
}
