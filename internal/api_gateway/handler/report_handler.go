package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/api_gateway/service"
)

// ReportHandler serves investor and startup read views
type ReportHandler struct {
	reportService service.ReportService
	logger        *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(logger *slog.Logger, reportService service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// GetInvestment retrieves one investment by processor session, returns 404 if not found
func (h *ReportHandler) GetInvestment(c *gin.Context) {
	record, err := h.reportService.GetInvestment(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, record)
}

// Portfolio returns an investor's completed investments and totals
func (h *ReportHandler) Portfolio(c *gin.Context) {
	portfolio, err := h.reportService.Portfolio(c.Request.Context(), c.Param("investorId"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, portfolio)
}

// StartupFunding reports a startup's funding counter against its ledger
func (h *ReportHandler) StartupFunding(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid startup ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid startup ID")
		return
	}

	funding, err := h.reportService.StartupFunding(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, funding)
}
