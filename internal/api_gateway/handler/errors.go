package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/domain/startup"
	"github.com/startup-investment-ledger/internal/platform/payment"
)

// respondServiceError maps service errors onto the response envelope.
// Only validation errors carry their message to the client.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error) {
	var validationErr shared.ValidationError
	var partialErr *shared.PartialCommitError

	switch {
	case errors.As(err, &validationErr):
		RespondBadRequest(c, validationErr.Error())
	case errors.Is(err, payment.ErrInvalidSignature):
		logger.Warn("Rejected request with invalid signature", "error", err)
		RespondBadRequest(c, "Invalid request")
	case errors.Is(err, payment.ErrRequestRejected):
		logger.Warn("Processor rejected request", "error", err)
		RespondBadRequest(c, "Payment request was rejected")
	case errors.Is(err, payment.ErrUpstreamUnavailable):
		logger.Error("Payment processor unavailable", "error", err)
		RespondServiceUnavailable(c, "payment verification failed, try again")
	case errors.Is(err, payment.ErrSessionNotFound):
		RespondNotFound(c, "Payment session not found")
	case errors.Is(err, investment.ErrRecordNotFound{}):
		RespondNotFound(c, "Investment not found")
	case errors.Is(err, startup.ErrStartupNotFound{}):
		RespondNotFound(c, "Startup not found")
	case errors.As(err, &partialErr):
		logger.Error("Investment write left counter unconfirmed",
			"session_id", partialErr.SessionID,
			"startup_id", partialErr.StartupID.String(),
			"error", err,
		)
		RespondInternalError(c)
	default:
		logger.Error("Request failed", "error", err)
		RespondInternalError(c)
	}
}
