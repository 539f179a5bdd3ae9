package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/startup-investment-ledger/internal/api_gateway/handler"
	"github.com/startup-investment-ledger/internal/api_gateway/middleware"
	"github.com/startup-investment-ledger/internal/config"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Payment *handler.PaymentHandler
	Report  *handler.ReportHandler
	Admin   *handler.AdminHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	handlers Handlers,
	rateLimit config.RateLimitConfig,
	gatherer prometheus.Gatherer,
) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger, "/health", "/metrics"))
	r.Use(middleware.Recovery(logger))

	limited := middleware.RateLimit(logger, rateLimit.RPS, rateLimit.Burst)

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Checkout and confirmation
		payments := v1.Group("/payments")
		{
			payments.POST("/checkout-session", limited, handlers.Payment.CreateCheckoutSession)
			payments.POST("/webhook", handlers.Payment.Webhook)
			payments.GET("/verify", limited, handlers.Payment.Verify)
		}

		v1.GET("/investments/:sessionId", handlers.Report.GetInvestment)
		v1.GET("/portfolio/:investorId", handlers.Report.Portfolio)
		v1.GET("/startups/:id/funding", handlers.Report.StartupFunding)

		// Operator views
		admin := v1.Group("/admin")
		{
			admin.GET("/ledger", handlers.Admin.Ledger)
			admin.GET("/ledger/export", handlers.Admin.Export)
			admin.GET("/stats", handlers.Admin.Stats)
			admin.GET("/confirmations", handlers.Admin.Confirmations)
			admin.POST("/startups/:id/reconcile", handlers.Admin.Reconcile)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
