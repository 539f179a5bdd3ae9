package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/journal"
	"github.com/startup-investment-ledger/internal/domain/shared"
	ledger "github.com/startup-investment-ledger/internal/ledger_writer/service"
	"github.com/startup-investment-ledger/internal/platform/metrics"
	"github.com/startup-investment-ledger/internal/platform/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type confirmationMocks struct {
	gateway *MockGateway
	writer  *MockWriter
	journal *MockJournalRepo
}

func newConfirmationUnderTest() (ConfirmationService, *confirmationMocks) {
	m := &confirmationMocks{
		gateway: new(MockGateway),
		writer:  new(MockWriter),
		journal: new(MockJournalRepo),
	}
	return NewConfirmationService(newTestLogger(), m.gateway, m.writer, m.journal, metrics.Noop()), m
}

func paidSession(id string, startupID uuid.UUID, amount int64) *payment.Session {
	return &payment.Session{
		ID:       id,
		Status:   shared.PaymentStatusCompleted,
		Amount:   amount,
		Currency: "usd",
		Metadata: payment.Metadata{InvestorID: "investor-1", StartupID: startupID, Amount: amount},
	}
}

func TestConfirmationService_HandleWebhook(t *testing.T) {
	ctx := context.Background()
	payload := []byte(`{"id":"evt_1"}`)
	headers := http.Header{"Stripe-Signature": []string{"t=1,v1=abc"}}
	startupID := uuid.New()

	t.Run("records completed checkout", func(t *testing.T) {
		svc, m := newConfirmationUnderTest()
		record := &investment.Record{ID: uuid.New(), SessionID: "sess_A"}
		m.gateway.On("ParseEvent", ctx, payload, headers).Return(&payment.Event{
			ID: "evt_1", Type: "checkout.session.completed", Session: paidSession("sess_A", startupID, 50000),
		}, nil)
		m.writer.On("RecordPayment", ctx, mock.MatchedBy(func(c *shared.PaymentConfirmation) bool {
			return c.SessionID == "sess_A" &&
				c.Source == shared.ConfirmationSourceWebhook &&
				c.StartupID == startupID &&
				c.Amount == 50000 &&
				c.CorrelationID == "corr-1"
		})).Return(&ledger.WriteResult{Outcome: shared.OutcomeRecorded, Record: record}, nil)
		m.journal.On("Append", ctx, mock.MatchedBy(func(e *journal.Entry) bool {
			return e.SessionID == "sess_A" && e.Outcome == shared.OutcomeRecorded && e.Error == "" && e.ID != uuid.Nil
		})).Return(nil)

		result, err := svc.HandleWebhook(ctx, payload, headers, "corr-1")
		require.NoError(t, err)
		assert.True(t, result.Handled)
		assert.Equal(t, shared.OutcomeRecorded, result.Outcome)
		assert.Equal(t, record, result.Record)
		m.writer.AssertExpectations(t)
		m.journal.AssertExpectations(t)
	})

	t.Run("invalid signature writes nothing", func(t *testing.T) {
		svc, m := newConfirmationUnderTest()
		m.gateway.On("ParseEvent", ctx, payload, headers).Return(nil, payment.ErrInvalidSignature)

		result, err := svc.HandleWebhook(ctx, payload, headers, "")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
		m.writer.AssertNotCalled(t, "RecordPayment", mock.Anything, mock.Anything)
		m.journal.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("unrelated event is acknowledged", func(t *testing.T) {
		svc, m := newConfirmationUnderTest()
		m.gateway.On("ParseEvent", ctx, payload, headers).Return(&payment.Event{ID: "evt_2", Type: "customer.created"}, nil)

		result, err := svc.HandleWebhook(ctx, payload, headers, "")
		require.NoError(t, err)
		assert.False(t, result.Handled)
		assert.Equal(t, "customer.created", result.EventType)
		m.writer.AssertNotCalled(t, "RecordPayment", mock.Anything, mock.Anything)
	})

	t.Run("writer failure is returned and journaled", func(t *testing.T) {
		svc, m := newConfirmationUnderTest()
		writeErr := errors.New("db down")
		m.gateway.On("ParseEvent", ctx, payload, headers).Return(&payment.Event{
			ID: "evt_3", Type: "checkout.session.completed", Session: paidSession("sess_B", startupID, 100),
		}, nil)
		m.writer.On("RecordPayment", ctx, mock.Anything).Return(nil, writeErr)
		m.journal.On("Append", ctx, mock.MatchedBy(func(e *journal.Entry) bool {
			return e.SessionID == "sess_B" && e.Error == "db down"
		})).Return(nil)

		_, err := svc.HandleWebhook(ctx, payload, headers, "")
		assert.ErrorIs(t, err, writeErr)
		m.journal.AssertExpectations(t)
	})

	t.Run("journal failure does not fail delivery", func(t *testing.T) {
		svc, m := newConfirmationUnderTest()
		m.gateway.On("ParseEvent", ctx, payload, headers).Return(&payment.Event{
			ID: "evt_4", Type: "checkout.session.completed", Session: paidSession("sess_C", startupID, 100),
		}, nil)
		m.writer.On("RecordPayment", ctx, mock.Anything).Return(&ledger.WriteResult{Outcome: shared.OutcomeDuplicate}, nil)
		m.journal.On("Append", ctx, mock.Anything).Return(errors.New("mongo down"))

		result, err := svc.HandleWebhook(ctx, payload, headers, "")
		require.NoError(t, err)
		assert.Equal(t, shared.OutcomeDuplicate, result.Outcome)
	})

	t.Run("processor amount wins over metadata", func(t *testing.T) {
		svc, m := newConfirmationUnderTest()
		session := paidSession("sess_D", startupID, 40000)
		session.Metadata.Amount = 50000
		m.gateway.On("ParseEvent", ctx, payload, headers).Return(&payment.Event{
			ID: "evt_5", Type: "checkout.session.completed", Session: session,
		}, nil)
		m.writer.On("RecordPayment", ctx, mock.MatchedBy(func(c *shared.PaymentConfirmation) bool {
			return c.Amount == 40000
		})).Return(&ledger.WriteResult{Outcome: shared.OutcomeRecorded}, nil)
		m.journal.On("Append", ctx, mock.Anything).Return(nil)

		_, err := svc.HandleWebhook(ctx, payload, headers, "")
		require.NoError(t, err)
		m.writer.AssertExpectations(t)
	})
}

func TestConfirmationService_VerifySession(t *testing.T) {
	ctx := context.Background()
	startupID := uuid.New()

	t.Run("paid session is recorded with poll source", func(t *testing.T) {
		svc, m := newConfirmationUnderTest()
		m.gateway.On("RetrieveSession", ctx, "sess_A").Return(paidSession("sess_A", startupID, 50000), nil)
		m.writer.On("RecordPayment", ctx, mock.MatchedBy(func(c *shared.PaymentConfirmation) bool {
			return c.Source == shared.ConfirmationSourcePoll && c.SessionID == "sess_A"
		})).Return(&ledger.WriteResult{Outcome: shared.OutcomeDuplicate}, nil)
		m.journal.On("Append", ctx, mock.Anything).Return(nil)

		result, err := svc.VerifySession(ctx, "sess_A", "")
		require.NoError(t, err)
		assert.Equal(t, shared.PaymentStatusCompleted, result.Status)
		assert.Equal(t, shared.OutcomeDuplicate, result.Outcome)
	})

	t.Run("pending session is skipped by writer", func(t *testing.T) {
		svc, m := newConfirmationUnderTest()
		session := paidSession("sess_P", startupID, 50000)
		session.Status = shared.PaymentStatusPending
		m.gateway.On("RetrieveSession", ctx, "sess_P").Return(session, nil)
		m.writer.On("RecordPayment", ctx, mock.Anything).Return(&ledger.WriteResult{Outcome: shared.OutcomeSkipped}, nil)
		m.journal.On("Append", ctx, mock.Anything).Return(nil)

		result, err := svc.VerifySession(ctx, "sess_P", "")
		require.NoError(t, err)
		assert.Equal(t, shared.PaymentStatusPending, result.Status)
		assert.Equal(t, shared.OutcomeSkipped, result.Outcome)
	})

	t.Run("processor unreachable writes nothing", func(t *testing.T) {
		svc, m := newConfirmationUnderTest()
		m.gateway.On("RetrieveSession", ctx, "sess_A").Return(nil, payment.ErrUpstreamUnavailable)
		m.journal.On("Append", ctx, mock.MatchedBy(func(e *journal.Entry) bool {
			return e.Source == shared.ConfirmationSourcePoll && e.Error != ""
		})).Return(nil)

		_, err := svc.VerifySession(ctx, "sess_A", "")
		assert.ErrorIs(t, err, payment.ErrUpstreamUnavailable)
		m.writer.AssertNotCalled(t, "RecordPayment", mock.Anything, mock.Anything)
	})

	t.Run("empty session id", func(t *testing.T) {
		svc, m := newConfirmationUnderTest()

		_, err := svc.VerifySession(ctx, "  ", "")
		var validationErr shared.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "session_id", validationErr.Field)
		m.gateway.AssertNotCalled(t, "RetrieveSession", mock.Anything, mock.Anything)
	})
}
