package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
	"github.com/startup-investment-ledger/internal/config"
	"github.com/startup-investment-ledger/internal/domain/shared"
)

// PayPal order and capture states
const (
	paypalIntentCapture   = "CAPTURE"
	paypalStatusApproved  = "APPROVED"
	paypalStatusCompleted = "COMPLETED"
	paypalStatusVoided    = "VOIDED"
	paypalVerifySuccess   = "SUCCESS"
)

// PayPal webhook event types that can complete an order
const (
	paypalEventOrderApproved   = "CHECKOUT.ORDER.APPROVED"
	paypalEventCaptureComplete = "PAYMENT.CAPTURE.COMPLETED"
)

// PayPalGateway implements Gateway on PayPal Orders v2. Amounts are exchanged
// as two-decimal strings.
type PayPalGateway struct {
	client     *paypal.Client
	webhookID  string
	successURL string
	cancelURL  string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewPayPalGateway creates a PayPal client against the sandbox or live API
// and fetches its first access token
func NewPayPalGateway(ctx context.Context, logger *slog.Logger, cfg *config.PaymentConfig) (*PayPalGateway, error) {
	apiBase := paypal.APIBaseLive
	if cfg.PayPalSandbox {
		apiBase = paypal.APIBaseSandBox
	}
	return newPayPalGateway(ctx, logger, cfg, apiBase)
}

func newPayPalGateway(ctx context.Context, logger *slog.Logger, cfg *config.PaymentConfig, apiBase string) (*PayPalGateway, error) {
	client, err := paypal.NewClient(cfg.PayPalClientID, cfg.PayPalClientSecret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("failed to create PayPal client: %w", err)
	}

	tokenCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	if _, err := client.GetAccessToken(tokenCtx); err != nil {
		return nil, fmt.Errorf("failed to get PayPal access token: %w", classifyPayPalError(err))
	}

	logger.Info("PayPal payment gateway initialized", "api_base", apiBase)

	return &PayPalGateway{
		client:     client,
		webhookID:  cfg.PayPalWebhookID,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		timeout:    cfg.RequestTimeout,
		logger:     logger.With("provider", ProviderPayPal),
	}, nil
}

func (g *PayPalGateway) Name() string {
	return ProviderPayPal
}

// CreateSession creates a CAPTURE-intent order and returns its approval link
func (g *PayPalGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	reference, err := json.Marshal(req.metadata())
	if err != nil {
		return nil, fmt.Errorf("failed to encode order metadata: %w", err)
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = g.successURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = g.cancelURL
	}

	purchaseUnits := []paypal.PurchaseUnitRequest{
		{
			ReferenceID: string(reference),
			Amount: &paypal.PurchaseUnitAmount{
				Currency: strings.ToUpper(req.Currency),
				Value:    formatMinorUnits(req.Amount),
			},
			Description: productName(req.StartupName),
		},
	}
	appContext := &paypal.ApplicationContext{
		ReturnURL: successURL,
		CancelURL: cancelURL,
	}

	order, err := g.client.CreateOrder(ctx, paypalIntentCapture, purchaseUnits, nil, appContext)
	if err != nil {
		g.logger.Error("Failed to create PayPal order", "startup_id", req.StartupID.String(), "error", err)
		return nil, classifyPayPalError(err)
	}

	approvalURL := approvalLink(order)
	if approvalURL == "" {
		return nil, fmt.Errorf("%w: order %s has no approval link", ErrUpstreamUnavailable, order.ID)
	}

	g.logger.Info("PayPal order created", "session_id", order.ID, "startup_id", req.StartupID.String())

	return &Session{
		ID:       order.ID,
		URL:      approvalURL,
		Status:   shared.PaymentStatusPending,
		Amount:   req.Amount,
		Currency: strings.ToLower(req.Currency),
		Metadata: Metadata{
			InvestorID:  req.InvestorID,
			StartupID:   req.StartupID,
			Amount:      req.Amount,
			StartupName: req.StartupName,
		},
	}, nil
}

// RetrieveSession fetches the order and captures it once the buyer approved.
// A capture rejected because another path already captured is resolved by
// re-reading the order.
func (g *PayPalGateway) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	order, err := g.client.GetOrder(ctx, sessionID)
	if err != nil {
		g.logger.Warn("Failed to get PayPal order", "session_id", sessionID, "error", err)
		return nil, classifyPayPalError(err)
	}

	if order.Status == paypalStatusApproved {
		capture, captureErr := g.client.CaptureOrder(ctx, sessionID, paypal.CaptureOrderRequest{})
		switch {
		case captureErr == nil:
			order.Status = capture.Status
		default:
			g.logger.Warn("PayPal capture failed, re-reading order", "session_id", sessionID, "error", captureErr)
			order, err = g.client.GetOrder(ctx, sessionID)
			if err != nil {
				return nil, classifyPayPalError(err)
			}
		}
	}

	return paypalSession(order)
}

type paypalWebhookEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string `json:"id"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

// ParseEvent verifies the delivery with PayPal's verify-webhook-signature API
// and resolves the referenced order
func (g *PayPalGateway) ParseEvent(ctx context.Context, payload []byte, headers http.Header) (*Event, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build verification request: %w", err)
	}
	httpReq.Header = headers.Clone()

	verification, err := g.client.VerifyWebhookSignature(ctx, httpReq, g.webhookID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if verification.VerificationStatus != paypalVerifySuccess {
		return nil, fmt.Errorf("%w: verification status %s", ErrInvalidSignature, verification.VerificationStatus)
	}

	var raw paypalWebhookEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode PayPal event: %w", err)
	}

	event := &Event{ID: raw.ID, Type: raw.EventType}

	var orderID string
	switch raw.EventType {
	case paypalEventOrderApproved:
		orderID = raw.Resource.ID
	case paypalEventCaptureComplete:
		orderID = raw.Resource.SupplementaryData.RelatedIDs.OrderID
	default:
		return event, nil
	}
	if orderID == "" {
		return nil, fmt.Errorf("PayPal event %s does not reference an order", raw.ID)
	}

	event.Session, err = g.RetrieveSession(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func paypalSession(order *paypal.Order) (*Session, error) {
	s := &Session{ID: order.ID, URL: approvalLink(order)}

	switch order.Status {
	case paypalStatusCompleted:
		s.Status = shared.PaymentStatusCompleted
	case paypalStatusVoided:
		s.Status = shared.PaymentStatusFailed
	default:
		s.Status = shared.PaymentStatusPending
	}

	if len(order.PurchaseUnits) == 0 {
		return s, nil
	}
	unit := order.PurchaseUnits[0]

	if unit.Amount != nil {
		amount, err := parseMinorUnits(unit.Amount.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid amount on PayPal order %s: %w", order.ID, err)
		}
		s.Amount = amount
		s.Currency = strings.ToLower(unit.Amount.Currency)
	}

	if unit.ReferenceID != "" {
		raw := map[string]interface{}{}
		if err := json.Unmarshal([]byte(unit.ReferenceID), &raw); err == nil {
			s.Metadata = parseMetadata(raw)
		}
	}

	return s, nil
}

func approvalLink(order *paypal.Order) string {
	for _, link := range order.Links {
		if link.Rel == "approve" {
			return link.Href
		}
	}
	return ""
}

func classifyPayPalError(err error) error {
	var ppErr *paypal.ErrorResponse
	if errors.As(err, &ppErr) && ppErr.Response != nil {
		code := ppErr.Response.StatusCode
		switch {
		case code == http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrSessionNotFound, ppErr.Message)
		case code >= 400 && code < 500 && code != http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRequestRejected, ppErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}

// formatMinorUnits renders 12345 as "123.45"
func formatMinorUnits(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}

// parseMinorUnits parses "123.45" into 12345, rejecting sub-cent precision
func parseMinorUnits(value string) (int64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	minor := d.Shift(2)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than two decimal places", value)
	}
	return minor.IntPart(), nil
}
