package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/startup-investment-ledger/internal/config"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

const stripeSignatureHeader = "Stripe-Signature"

// Stripe event types carrying a checkout session
const (
	stripeEventSessionCompleted      = "checkout.session.completed"
	stripeEventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	stripeEventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	stripeEventSessionExpired        = "checkout.session.expired"
)

// checkoutSessionAPI is the subset of the Stripe session client in use
type checkoutSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeGateway implements Gateway on Stripe Checkout
type StripeGateway struct {
	sessions      checkoutSessionAPI
	webhookSecret string
	successURL    string
	cancelURL     string
	timeout       time.Duration
	logger        *slog.Logger
}

// NewStripeGateway creates a Stripe Checkout gateway from payment config
func NewStripeGateway(logger *slog.Logger, cfg *config.PaymentConfig) *StripeGateway {
	return &StripeGateway{
		sessions: &session.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: cfg.StripeSecretKey,
		},
		webhookSecret: cfg.StripeWebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		timeout:       cfg.RequestTimeout,
		logger:        logger.With("provider", ProviderStripe),
	}
}

func (g *StripeGateway) Name() string {
	return ProviderStripe
}

// CreateSession opens a one-item payment-mode checkout session
func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = g.successURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = g.cancelURL
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(req.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName(req.StartupName)),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(withSessionPlaceholder(successURL)),
		CancelURL:  stripe.String(cancelURL),
	}
	if req.InvestorID != "" {
		params.ClientReferenceID = stripe.String(req.InvestorID)
	}
	for k, v := range req.metadata() {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	cs, err := g.sessions.New(params)
	if err != nil {
		g.logger.Error("Failed to create checkout session", "startup_id", req.StartupID.String(), "error", err)
		return nil, classifyStripeError(err)
	}

	g.logger.Info("Checkout session created", "session_id", cs.ID, "startup_id", req.StartupID.String())
	return stripeSession(cs), nil
}

// RetrieveSession re-fetches a session so its payment state can be trusted
func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := g.sessions.Get(sessionID, params)
	if err != nil {
		g.logger.Warn("Failed to retrieve checkout session", "session_id", sessionID, "error", err)
		return nil, classifyStripeError(err)
	}

	return stripeSession(cs), nil
}

// ParseEvent verifies the Stripe-Signature header over the raw payload
func (g *StripeGateway) ParseEvent(_ context.Context, payload []byte, headers http.Header) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, headers.Get(stripeSignatureHeader), g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	result := &Event{ID: event.ID, Type: string(event.Type)}

	switch result.Type {
	case stripeEventSessionCompleted, stripeEventAsyncPaymentSucceeded, stripeEventAsyncPaymentFailed, stripeEventSessionExpired:
		if event.Data == nil {
			return nil, fmt.Errorf("stripe event %s has no data", event.ID)
		}
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session from event %s: %w", event.ID, err)
		}
		result.Session = stripeSession(&cs)
	}

	return result, nil
}

func stripeSession(cs *stripe.CheckoutSession) *Session {
	raw := make(map[string]interface{}, len(cs.Metadata))
	for k, v := range cs.Metadata {
		raw[k] = v
	}

	status := shared.PaymentStatusPending
	switch {
	case cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		status = shared.PaymentStatusCompleted
	case cs.Status == stripe.CheckoutSessionStatusExpired:
		status = shared.PaymentStatusFailed
	}

	return &Session{
		ID:       cs.ID,
		URL:      cs.URL,
		Status:   status,
		Amount:   cs.AmountTotal,
		Currency: strings.ToLower(string(cs.Currency)),
		Metadata: parseMetadata(raw),
	}
}

// classifyStripeError maps SDK errors onto the gateway error set. Rate
// limiting and 5xx responses count as the processor being unavailable.
func classifyStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.HTTPStatusCode == http.StatusNotFound, stripeErr.Code == stripe.ErrorCodeResourceMissing:
			return fmt.Errorf("%w: %s", ErrSessionNotFound, stripeErr.Msg)
		case stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 && stripeErr.HTTPStatusCode != http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRequestRejected, stripeErr.Msg)
		}
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}

func withSessionPlaceholder(successURL string) string {
	sep := "?"
	if strings.Contains(successURL, "?") {
		sep = "&"
	}
	return successURL + sep + "session_id={CHECKOUT_SESSION_ID}"
}

func productName(startupName string) string {
	if startupName == "" {
		return "Startup investment"
	}
	return "Investment in " + startupName
}
