package handler

import (
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/startup-investment-ledger/internal/api_gateway/middleware"
	"github.com/startup-investment-ledger/internal/api_gateway/service"
)

// maxWebhookBodyBytes caps processor deliveries read into memory
const maxWebhookBodyBytes = 64 << 10

var maxMinorAmount = decimal.NewFromInt(math.MaxInt64)

// PaymentHandler handles checkout creation and payment confirmation
type PaymentHandler struct {
	checkoutService     service.CheckoutService
	confirmationService service.ConfirmationService
	logger              *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(
	logger *slog.Logger,
	checkoutService service.CheckoutService,
	confirmationService service.ConfirmationService,
) *PaymentHandler {
	return &PaymentHandler{
		checkoutService:     checkoutService,
		confirmationService: confirmationService,
		logger:              logger,
	}
}

// CreateCheckoutSession opens a processor checkout for an investment
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	startupID, err := uuid.Parse(req.StartupID)
	if err != nil {
		RespondBadRequest(c, "Invalid startup ID")
		return
	}

	minor := req.Amount.Shift(2)
	if !minor.IsInteger() {
		RespondBadRequest(c, "invalid amount: at most two decimal places")
		return
	}
	if minor.GreaterThan(maxMinorAmount) {
		RespondBadRequest(c, "invalid amount: too large")
		return
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		RespondBadRequest(c, "invalid currency: is required")
		return
	}

	session, err := h.checkoutService.CreateSession(c.Request.Context(), service.CheckoutRequest{
		StartupID:     startupID,
		InvestorID:    strings.TrimSpace(req.InvestorID),
		Amount:        minor.IntPart(),
		Currency:      currency,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondCreated(c, session)
}

// Webhook receives signed processor deliveries. The body is passed on
// unparsed because the signature covers the raw bytes.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.Error("Failed to read webhook body", "error", err)
		RespondBadRequest(c, "Invalid request")
		return
	}

	result, err := h.confirmationService.HandleWebhook(
		c.Request.Context(),
		payload,
		c.Request.Header,
		middleware.GetCorrelationID(c),
	)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, WebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		EventType: result.EventType,
		Outcome:   result.Outcome,
	})
}

// Verify polls the processor for a session, the fallback when a webhook is late
func (h *PaymentHandler) Verify(c *gin.Context) {
	sessionID := c.Query("session_id")
	if strings.TrimSpace(sessionID) == "" {
		RespondBadRequest(c, "session_id is required")
		return
	}

	result, err := h.confirmationService.VerifySession(c.Request.Context(), sessionID, middleware.GetCorrelationID(c))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, VerifyResponse{
		SessionID:  result.SessionID,
		Status:     result.Status,
		Outcome:    result.Outcome,
		Investment: result.Record,
	})
}
