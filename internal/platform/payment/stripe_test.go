package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

const testWebhookSecret = "whsec_test_secret"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type MockSessionAPI struct {
	mock.Mock
}

func (m *MockSessionAPI) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}

func (m *MockSessionAPI) Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	args := m.Called(id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}

func newTestStripeGateway(api checkoutSessionAPI) *StripeGateway {
	return &StripeGateway{
		sessions:      api,
		webhookSecret: testWebhookSecret,
		successURL:    "http://localhost:3000/payment/success",
		cancelURL:     "http://localhost:3000/payment/cancel",
		timeout:       5 * time.Second,
		logger:        newTestLogger(),
	}
}

func signStripePayload(t *testing.T, payload []byte, secret string) http.Header {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(payload)))
	headers := http.Header{}
	headers.Set(stripeSignatureHeader, fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	return headers
}

func TestStripeGateway_CreateSession(t *testing.T) {
	api := new(MockSessionAPI)
	gw := newTestStripeGateway(api)
	startupID := uuid.New()

	req := SessionRequest{
		Amount:      50000,
		Currency:    "USD",
		StartupID:   startupID,
		StartupName: "Acme",
		InvestorID:  "inv_1",
	}

	api.On("New", mock.MatchedBy(func(p *stripe.CheckoutSessionParams) bool {
		item := p.LineItems[0]
		return *p.Mode == string(stripe.CheckoutSessionModePayment) &&
			*item.PriceData.UnitAmount == 50000 &&
			*item.PriceData.Currency == "usd" &&
			*item.Quantity == 1 &&
			*p.SuccessURL == "http://localhost:3000/payment/success?session_id={CHECKOUT_SESSION_ID}" &&
			*p.ClientReferenceID == "inv_1" &&
			p.Metadata[MetaStartupID] == startupID.String() &&
			p.Metadata[MetaAmount] == "50000" &&
			p.Context != nil
	})).Return(&stripe.CheckoutSession{
		ID:          "cs_test_1",
		URL:         "https://checkout.stripe.com/c/pay/cs_test_1",
		AmountTotal: 50000,
		Currency:    stripe.CurrencyUSD,
		Status:      stripe.CheckoutSessionStatusOpen,
		Metadata: map[string]string{
			MetaInvestorID:  "inv_1",
			MetaStartupID:   startupID.String(),
			MetaAmount:      "50000",
			MetaStartupName: "Acme",
		},
	}, nil).Once()

	sess, err := gw.CreateSession(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", sess.URL)
	assert.Equal(t, shared.PaymentStatusPending, sess.Status)
	assert.Equal(t, startupID, sess.Metadata.StartupID)
	assert.Equal(t, int64(50000), sess.Metadata.Amount)
	api.AssertExpectations(t)
}

func TestStripeGateway_RetrieveSession(t *testing.T) {
	startupID := uuid.New()

	t.Run("paid session is completed", func(t *testing.T) {
		api := new(MockSessionAPI)
		gw := newTestStripeGateway(api)

		api.On("Get", "cs_paid", mock.Anything).Return(&stripe.CheckoutSession{
			ID:            "cs_paid",
			AmountTotal:   20000,
			Currency:      stripe.CurrencyUSD,
			PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			Status:        stripe.CheckoutSessionStatusComplete,
			Metadata:      map[string]string{MetaStartupID: startupID.String(), MetaAmount: "19999"},
		}, nil).Once()

		sess, err := gw.RetrieveSession(context.Background(), "cs_paid")
		require.NoError(t, err)
		assert.Equal(t, shared.PaymentStatusCompleted, sess.Status)
		assert.Equal(t, int64(20000), sess.Amount)

		conf, mismatch := sess.Confirmation(shared.ConfirmationSourcePoll, "corr-1")
		assert.True(t, mismatch, "metadata amount differs from processor amount")
		assert.Equal(t, int64(20000), conf.Amount, "processor amount is authoritative")
		assert.Equal(t, startupID, conf.StartupID)
		assert.Equal(t, shared.ConfirmationSourcePoll, conf.Source)
		api.AssertExpectations(t)
	})

	t.Run("expired session is failed", func(t *testing.T) {
		api := new(MockSessionAPI)
		gw := newTestStripeGateway(api)

		api.On("Get", "cs_expired", mock.Anything).Return(&stripe.CheckoutSession{
			ID:            "cs_expired",
			PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
			Status:        stripe.CheckoutSessionStatusExpired,
		}, nil).Once()

		sess, err := gw.RetrieveSession(context.Background(), "cs_expired")
		require.NoError(t, err)
		assert.Equal(t, shared.PaymentStatusFailed, sess.Status)
		assert.Equal(t, uuid.Nil, sess.Metadata.StartupID)
	})

	t.Run("unknown session", func(t *testing.T) {
		api := new(MockSessionAPI)
		gw := newTestStripeGateway(api)

		api.On("Get", "cs_missing", mock.Anything).
			Return(nil, &stripe.Error{HTTPStatusCode: http.StatusNotFound, Code: stripe.ErrorCodeResourceMissing, Msg: "No such checkout.session"}).Once()

		_, err := gw.RetrieveSession(context.Background(), "cs_missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("processor outage", func(t *testing.T) {
		api := new(MockSessionAPI)
		gw := newTestStripeGateway(api)

		api.On("Get", "cs_any", mock.Anything).Return(nil, errors.New("dial tcp: i/o timeout")).Once()

		_, err := gw.RetrieveSession(context.Background(), "cs_any")
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	})
}

func TestStripeGateway_ParseEvent(t *testing.T) {
	gw := newTestStripeGateway(new(MockSessionAPI))
	startupID := uuid.New()

	completed := []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_A",
			"object": "checkout.session",
			"amount_total": 50000,
			"currency": "usd",
			"payment_status": "paid",
			"status": "complete",
			"metadata": {"investor_id": "inv_1", "startup_id": %q, "amount": "50000"}
		}}
	}`, startupID.String()))

	t.Run("valid signature", func(t *testing.T) {
		event, err := gw.ParseEvent(context.Background(), completed, signStripePayload(t, completed, testWebhookSecret))
		require.NoError(t, err)
		assert.Equal(t, "checkout.session.completed", event.Type)
		require.NotNil(t, event.Session)
		assert.Equal(t, "cs_test_A", event.Session.ID)
		assert.Equal(t, shared.PaymentStatusCompleted, event.Session.Status)
		assert.Equal(t, int64(50000), event.Session.Amount)
		assert.Equal(t, "inv_1", event.Session.Metadata.InvestorID)
		assert.Equal(t, startupID, event.Session.Metadata.StartupID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := gw.ParseEvent(context.Background(), completed, signStripePayload(t, completed, "whsec_other"))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := gw.ParseEvent(context.Background(), completed, http.Header{})
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("tampered body", func(t *testing.T) {
		headers := signStripePayload(t, completed, testWebhookSecret)
		tampered := append([]byte{}, completed...)
		tampered[len(tampered)-2] = ' '
		_, err := gw.ParseEvent(context.Background(), tampered, headers)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("unrelated event has no session", func(t *testing.T) {
		payload := []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)
		event, err := gw.ParseEvent(context.Background(), payload, signStripePayload(t, payload, testWebhookSecret))
		require.NoError(t, err)
		assert.Equal(t, "customer.created", event.Type)
		assert.Nil(t, event.Session)
	})
}

func TestClassifyStripeError(t *testing.T) {
	assert.ErrorIs(t, classifyStripeError(&stripe.Error{HTTPStatusCode: 400, Msg: "bad currency"}), ErrRequestRejected)
	assert.ErrorIs(t, classifyStripeError(&stripe.Error{HTTPStatusCode: 429}), ErrUpstreamUnavailable)
	assert.ErrorIs(t, classifyStripeError(&stripe.Error{HTTPStatusCode: 503}), ErrUpstreamUnavailable)
	assert.ErrorIs(t, classifyStripeError(&stripe.Error{HTTPStatusCode: 404}), ErrSessionNotFound)
}

func TestWithSessionPlaceholder(t *testing.T) {
	assert.Equal(t, "https://app/ok?session_id={CHECKOUT_SESSION_ID}", withSessionPlaceholder("https://app/ok"))
	assert.Equal(t, "https://app/ok?ref=1&session_id={CHECKOUT_SESSION_ID}", withSessionPlaceholder("https://app/ok?ref=1"))
}
