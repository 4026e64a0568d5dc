package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zotta/ledger-core/internal/apperrors"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/dto"
	"github.com/zotta/ledger-core/internal/middleware"
)

// reportingHandler handles HTTP requests for ledger reports. Report payloads
// are the domain report types themselves; they are read models already shaped
// for presentation.
type reportingHandler struct {
	reportingService portssvc.ReportingSvcFacade
}

func newReportingHandler(rs portssvc.ReportingSvcFacade) *reportingHandler {
	return &reportingHandler{reportingService: rs}
}

// registerReportingRoutes registers routes related to ledger reports.
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvcFacade) {
	h := newReportingHandler(reportingService)

	reports := rg.Group("/reports")
	{
		reports.GET("/accounts/:id/ledger", h.accountLedger)
		reports.GET("/trial-balance", h.trialBalance)
		reports.GET("/balance-sheet", h.balanceSheet)
		reports.GET("/income-statement", h.incomeStatement)
		reports.GET("/search", h.search)
	}
}

// parseDateParam reads a query date in RFC3339 or YYYY-MM-DD form,
// defaulting to now when absent.
func parseDateParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Now().UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " date: " + raw})
	return time.Time{}, false
}

// accountLedger godoc
// @Summary Get an account's ledger with running balances
// @Tags reports
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {array} domain.LedgerLine
// @Failure 404 {object} map[string]string "Account not found"
// @Router /reports/accounts/{id}/ledger [get]
func (h *reportingHandler) accountLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	lines, err := h.reportingService.AccountLedger(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			logger.Error("Failed to build account ledger", slog.String("account_id", accountID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build account ledger"})
		}
		return
	}

	c.JSON(http.StatusOK, lines)
}

// trialBalance godoc
// @Summary Get the trial balance
// @Tags reports
// @Produce  json
// @Param   asOf query string false "As-of date (RFC3339 or YYYY-MM-DD, default now)"
// @Success 200 {object} domain.TrialBalanceReport
// @Router /reports/trial-balance [get]
func (h *reportingHandler) trialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	asOf, ok := parseDateParam(c, "asOf")
	if !ok {
		return
	}

	report, err := h.reportingService.TrialBalance(c.Request.Context(), asOf)
	if err != nil {
		logger.Error("Failed to build trial balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build trial balance"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// balanceSheet godoc
// @Summary Get the balance sheet
// @Tags reports
// @Produce  json
// @Param   asOf query string false "As-of date (RFC3339 or YYYY-MM-DD, default now)"
// @Success 200 {object} domain.BalanceSheetReport
// @Router /reports/balance-sheet [get]
func (h *reportingHandler) balanceSheet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	asOf, ok := parseDateParam(c, "asOf")
	if !ok {
		return
	}

	report, err := h.reportingService.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		logger.Error("Failed to build balance sheet", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build balance sheet"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// incomeStatement godoc
// @Summary Get the income statement for a date range
// @Tags reports
// @Produce  json
// @Param   from query string true "Range start (RFC3339 or YYYY-MM-DD)"
// @Param   to query string false "Range end (default now)"
// @Success 200 {object} domain.IncomeStatementReport
// @Failure 400 {object} map[string]string "Inverted range"
// @Router /reports/income-statement [get]
func (h *reportingHandler) incomeStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	from, ok := parseDateParam(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(c, "to")
	if !ok {
		return
	}

	report, err := h.reportingService.IncomeStatement(c.Request.Context(), from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to build income statement", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build income statement"})
		}
		return
	}

	c.JSON(http.StatusOK, report)
}

// search godoc
// @Summary Search journal entries
// @Description Matches entry number, source reference or description
// @Tags reports
// @Produce  json
// @Param   q query string true "Search text"
// @Param   limit query int false "Max results (default 50)"
// @Success 200 {array} dto.EntryResponse
// @Failure 400 {object} map[string]string "Missing query"
// @Router /reports/search [get]
func (h *reportingHandler) search(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	limit, _ := paginationParams(c)

	entries, err := h.reportingService.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to search entries", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search entries"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponses(entries))
}
