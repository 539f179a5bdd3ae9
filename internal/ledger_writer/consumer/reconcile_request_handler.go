package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/domain/startup"
	"github.com/startup-investment-ledger/internal/ledger_writer/service"
	"github.com/startup-investment-ledger/internal/platform/messaging/producers"
)

// ReconcileRequestHandler consumes reconcile requests raised by partial commits
type ReconcileRequestHandler struct {
	reconcileService service.ReconcileService
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

func NewReconcileRequestHandler(
	logger *slog.Logger,
	reconcileService service.ReconcileService,
	producer producers.DeadLetterPublisher,
) *ReconcileRequestHandler {
	return &ReconcileRequestHandler{
		reconcileService: reconcileService,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage reconciles the requested startup. A nil return commits the
// offset; an error makes the consumer retry the same request.
func (h *ReconcileRequestHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.ReconcileRequest
	if err := json.Unmarshal(value, &request); err != nil {
		return h.deadLetter(ctx, key, value, "Failed to unmarshal reconcile request", err)
	}
	if request.StartupID == uuid.Nil {
		return h.deadLetter(ctx, key, value, "Reconcile request has no startup id", errors.New("missing startup_id"))
	}

	logger := h.logger.With("startup_id", request.StartupID.String(), "reason", request.Reason)
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received reconcile request", "request_id", request.RequestID.String(), "session_id", request.SessionID)

	result, err := h.reconcileService.ReconcileStartup(ctx, request.StartupID)
	if errors.Is(err, startup.ErrStartupNotFound{}) {
		logger.Warn("Reconcile requested for unknown startup, dropping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconciling startup %s failed: %w", request.StartupID, err)
	}

	logger.Info("Reconcile request handled", "adjusted", result.Adjusted, "recomputed", result.Recomputed)
	return nil
}

// deadLetter parks a message that can never succeed. Without a DLQ the
// message is dropped; only a failed DLQ publish is retried.
func (h *ReconcileRequestHandler) deadLetter(ctx context.Context, key, value []byte, msg string, cause error) error {
	h.logger.Error(msg, "error", cause, "message_key", string(key))

	if h.producer == nil {
		h.logger.Warn("No DLQ configured, dropping unprocessable message", "message_key", string(key))
		return nil
	}

	reason := fmt.Sprintf("%s: %s", msg, cause.Error())
	if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, reason); dlqErr != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", dlqErr,
			"original_error", cause,
			"message_key", string(key),
		)
		return fmt.Errorf("%s: %w", msg, cause)
	}
	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
	return nil
}
