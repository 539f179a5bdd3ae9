package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/domain/journal"
	"github.com/startup-investment-ledger/internal/domain/shared"
	ledger "github.com/startup-investment-ledger/internal/ledger_writer/service"
	"github.com/startup-investment-ledger/internal/platform/metrics"
	"github.com/startup-investment-ledger/internal/platform/payment"
)

// ConfirmationServiceImpl implements the ConfirmationService interface
type ConfirmationServiceImpl struct {
	gateway     payment.Gateway
	writer      ledger.WriterService
	journalRepo journal.Repository
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewConfirmationService creates a new confirmation service
func NewConfirmationService(
	logger *slog.Logger,
	gateway payment.Gateway,
	writer ledger.WriterService,
	journalRepo journal.Repository,
	m *metrics.Metrics,
) ConfirmationService {
	return &ConfirmationServiceImpl{
		gateway:     gateway,
		writer:      writer,
		journalRepo: journalRepo,
		metrics:     m,
		logger:      logger,
	}
}

// HandleWebhook records the payment carried by a verified checkout event
func (s *ConfirmationServiceImpl) HandleWebhook(ctx context.Context, payload []byte, headers http.Header, correlationID string) (*WebhookResult, error) {
	logger := s.logger.With("source", string(shared.ConfirmationSourceWebhook))
	if correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}

	event, err := s.gateway.ParseEvent(ctx, payload, headers)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			s.metrics.ObserveWebhookRejection()
			logger.Warn("Rejected webhook delivery", "error", err)
		} else {
			logger.Error("Failed to parse webhook delivery", "error", err)
		}
		return nil, err
	}

	result := &WebhookResult{EventID: event.ID, EventType: event.Type}
	if event.Session == nil {
		logger.Debug("Ignoring webhook event", "event_id", event.ID, "event_type", event.Type)
		return result, nil
	}

	result.Handled = true
	outcome, err := s.confirm(ctx, logger, event.Session, shared.ConfirmationSourceWebhook, correlationID)
	if err != nil {
		return nil, err
	}
	result.Outcome = outcome.Outcome
	result.Record = outcome.Record
	return result, nil
}

// VerifySession polls the processor for the session's current state
func (s *ConfirmationServiceImpl) VerifySession(ctx context.Context, sessionID, correlationID string) (*VerifyResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, shared.ValidationError{Field: "session_id", Reason: "is required"}
	}

	logger := s.logger.With("source", string(shared.ConfirmationSourcePoll), "session_id", sessionID)
	if correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}

	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		logger.Warn("Failed to retrieve session from processor", "error", err)
		s.journal(ctx, logger, &journal.Entry{
			SessionID:     sessionID,
			Source:        shared.ConfirmationSourcePoll,
			Error:         err.Error(),
			CorrelationID: correlationID,
		})
		return nil, err
	}

	outcome, err := s.confirm(ctx, logger, session, shared.ConfirmationSourcePoll, correlationID)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		SessionID: session.ID,
		Status:    session.Status,
		Outcome:   outcome.Outcome,
		Record:    outcome.Record,
	}, nil
}

func (s *ConfirmationServiceImpl) confirm(
	ctx context.Context,
	logger *slog.Logger,
	session *payment.Session,
	source shared.ConfirmationSource,
	correlationID string,
) (*ledger.WriteResult, error) {
	confirmation, mismatch := session.Confirmation(source, correlationID)
	confirmation.ReceivedAt = time.Now().UTC()
	if mismatch {
		logger.Warn("Session metadata amount differs from processor amount, using processor amount",
			"session_id", session.ID,
			"metadata_amount", session.Metadata.Amount,
			"amount", session.Amount,
		)
	}

	entry := &journal.Entry{
		SessionID:     session.ID,
		StartupID:     confirmation.StartupID,
		Source:        source,
		Status:        session.Status,
		Amount:        session.Amount,
		CorrelationID: correlationID,
	}

	result, err := s.writer.RecordPayment(ctx, confirmation)
	if err != nil {
		entry.Error = err.Error()
		s.journal(ctx, logger, entry)
		return nil, err
	}

	entry.Outcome = result.Outcome
	s.journal(ctx, logger, entry)
	return result, nil
}

// journal appends to the confirmation journal; failures never fail the request
func (s *ConfirmationServiceImpl) journal(ctx context.Context, logger *slog.Logger, entry *journal.Entry) {
	if s.journalRepo == nil {
		return
	}
	entry.ID = uuid.New()
	entry.ObservedAt = time.Now().UTC()
	if err := s.journalRepo.Append(ctx, entry); err != nil {
		logger.Error("Failed to append confirmation journal entry", "session_id", entry.SessionID, "error", err)
	}
}
