package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/startup-investment-ledger/internal/api_gateway/service"
	"github.com/startup-investment-ledger/internal/domain/investment"
	"github.com/startup-investment-ledger/internal/domain/shared"
	ledger "github.com/startup-investment-ledger/internal/ledger_writer/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves the operator views over the ledger
type AdminHandler struct {
	reportService service.ReportService
	reconciler    ledger.ReconcileService
	logger        *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(logger *slog.Logger, reportService service.ReportService, reconciler ledger.ReconcileService) *AdminHandler {
	return &AdminHandler{
		reportService: reportService,
		reconciler:    reconciler,
		logger:        logger,
	}
}

// Ledger returns a filtered, paginated view of all investment records
func (h *AdminHandler) Ledger(c *gin.Context) {
	var query LedgerQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Error("Invalid ledger query", "error", err)
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	page, err := h.reportService.AdminLedger(c.Request.Context(), query.filter(), query.Page, query.PerPage)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, page, query.Page, query.PerPage, int(page.Totals.Count))
}

// Export downloads the filtered ledger as a spreadsheet
func (h *AdminHandler) Export(c *gin.Context) {
	var query LedgerQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Error("Invalid export query", "error", err)
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	var buf bytes.Buffer
	if err := h.reportService.ExportLedger(c.Request.Context(), query.filter(), &buf); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	filename := fmt.Sprintf("ledger-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Stats returns completed totals per startup
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.reportService.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, stats)
}

// Confirmations lists the confirmation journal
func (h *AdminHandler) Confirmations(c *gin.Context) {
	var query ConfirmationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Error("Invalid confirmations query", "error", err)
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	entries, total, err := h.reportService.Confirmations(c.Request.Context(), query.SessionID, query.Page, query.PerPage)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, entries, query.Page, query.PerPage, int(total))
}

// Reconcile recomputes a startup's funding counter from its ledger
func (h *AdminHandler) Reconcile(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid startup ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid startup ID")
		return
	}

	result, err := h.reconciler.ReconcileStartup(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, result)
}

func (q LedgerQuery) filter() investment.LedgerFilter {
	filter := investment.LedgerFilter{
		Status:     shared.PaymentStatus(q.Status),
		InvestorID: q.InvestorID,
	}
	if q.StartupID != "" {
		// Format checked by binding
		filter.StartupID, _ = uuid.Parse(q.StartupID)
	}
	return filter
}
