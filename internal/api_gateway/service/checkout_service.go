package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/config"
	"github.com/startup-investment-ledger/internal/domain/shared"
	"github.com/startup-investment-ledger/internal/domain/startup"
	"github.com/startup-investment-ledger/internal/platform/metrics"
	"github.com/startup-investment-ledger/internal/platform/payment"
)

// CheckoutServiceImpl implements the CheckoutService interface
type CheckoutServiceImpl struct {
	gateway     payment.Gateway
	startupRepo startup.Repository
	metrics     *metrics.Metrics
	logger      *slog.Logger
	successURL  string
	cancelURL   string
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	logger *slog.Logger,
	gateway payment.Gateway,
	startupRepo startup.Repository,
	m *metrics.Metrics,
	cfg *config.PaymentConfig,
) CheckoutService {
	return &CheckoutServiceImpl{
		gateway:     gateway,
		startupRepo: startupRepo,
		metrics:     m,
		logger:      logger,
		successURL:  cfg.SuccessURL,
		cancelURL:   cfg.CancelURL,
	}
}

// CreateSession opens a hosted checkout for the investment
func (s *CheckoutServiceImpl) CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	logger := s.logger
	if req.CorrelationID != "" {
		logger = s.logger.With("correlation_id", req.CorrelationID)
	}

	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	target, err := s.startupRepo.FindByID(ctx, req.StartupID)
	if errors.Is(err, startup.ErrStartupNotFound{}) {
		return nil, shared.ValidationError{Field: "startup_id", Reason: "startup does not exist"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load startup %s: %w", req.StartupID, err)
	}

	session, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		Amount:      req.Amount,
		Currency:    strings.ToLower(req.Currency),
		StartupID:   target.ID,
		StartupName: target.Name,
		InvestorID:  req.InvestorID,
		SuccessURL:  s.successURL,
		CancelURL:   s.cancelURL,
	})
	s.metrics.ObserveCheckoutSession(s.gateway.Name(), err)
	if err != nil {
		logger.Error("Failed to create checkout session",
			"startup_id", target.ID.String(),
			"amount", req.Amount,
			"error", err,
		)
		return nil, err
	}

	logger.Info("Checkout session created",
		"session_id", session.ID,
		"startup_id", target.ID.String(),
		"amount", req.Amount,
		"provider", s.gateway.Name(),
	)

	return &CheckoutSession{
		SessionID:   session.ID,
		URL:         session.URL,
		Provider:    s.gateway.Name(),
		StartupID:   target.ID.String(),
		StartupName: target.Name,
		InvestorID:  req.InvestorID,
		Amount:      req.Amount,
		Currency:    strings.ToLower(req.Currency),
	}, nil
}

func validateCheckout(req CheckoutRequest) error {
	switch {
	case req.StartupID == uuid.Nil:
		return shared.ValidationError{Field: "startup_id", Reason: "is required"}
	case req.Amount <= 0:
		return shared.ValidationError{Field: "amount", Reason: "must be positive"}
	case req.Currency == "":
		return shared.ValidationError{Field: "currency", Reason: "is required"}
	case !shared.IsCurrencyCode(req.Currency):
		return shared.ValidationError{Field: "currency", Reason: "must be three ASCII letters"}
	}
	return nil
}
