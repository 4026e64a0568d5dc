package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zotta/ledger-core/internal/apperrors"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/dto"
	"github.com/zotta/ledger-core/internal/middleware"
	"github.com/zotta/ledger-core/internal/platform/tasks"
)

// loanHandler handles HTTP requests for loan lifecycle operations.
type loanHandler struct {
	loanService    portssvc.LoanSvcFacade
	anomalyService portssvc.AnomalySvcFacade
	dispatcher     *tasks.Dispatcher
}

func newLoanHandler(ls portssvc.LoanSvcFacade, as portssvc.AnomalySvcFacade, d *tasks.Dispatcher) *loanHandler {
	return &loanHandler{loanService: ls, anomalyService: as, dispatcher: d}
}

// registerLoanRoutes registers routes related to loans.
func registerLoanRoutes(rg *gin.RouterGroup, loanService portssvc.LoanSvcFacade, anomalyService portssvc.AnomalySvcFacade, dispatcher *tasks.Dispatcher) {
	h := newLoanHandler(loanService, anomalyService, dispatcher)

	loans := rg.Group("/loans")
	{
		loans.POST("", h.createLoan)
		loans.GET("", h.listLoans)
		loans.GET("/:id", h.getLoan)
		loans.GET("/:id/schedule", h.getSchedule)
		loans.POST("/:id/disburse", h.disburse)
		loans.POST("/:id/payments", h.recordPayment)
	}
}

func (h *loanHandler) scheduleAnomalyScan(entryID string) {
	h.dispatcher.Enqueue(tasks.NewTask("anomaly_scan", func(ctx context.Context) error {
		_, err := h.anomalyService.Detect(ctx, entryID)
		return err
	}))
}

// createLoan godoc
// @Summary Register an approved loan
// @Description Registers a loan approved upstream, ready for disbursement
// @Tags loans
// @Accept  json
// @Produce  json
// @Param   loan body dto.CreateLoanRequest true "Loan details"
// @Success 201 {object} dto.LoanResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Router /loans [post]
func (h *loanHandler) createLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateLoan", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	loan, err := h.loanService.CreateLoan(c.Request.Context(), req, actorID(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error creating loan", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create loan", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create loan"})
		}
		return
	}

	logger.Info("Loan created", slog.String("loan_id", loan.LoanID))
	c.JSON(http.StatusCreated, dto.ToLoanResponse(loan))
}

// getLoan godoc
// @Summary Get a loan by ID
// @Tags loans
// @Produce  json
// @Param   id path string true "Loan ID"
// @Success 200 {object} dto.LoanResponse
// @Failure 404 {object} map[string]string "Loan not found"
// @Router /loans/{id} [get]
func (h *loanHandler) getLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("id")

	loan, err := h.loanService.GetLoanByID(c.Request.Context(), loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
		} else {
			logger.Error("Failed to get loan", slog.String("loan_id", loanID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve loan"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToLoanResponse(loan))
}

// listLoans godoc
// @Summary List loans
// @Tags loans
// @Produce  json
// @Param   limit query int false "Page size (default 50)"
// @Param   offset query int false "Page offset"
// @Success 200 {array} dto.LoanResponse
// @Router /loans [get]
func (h *loanHandler) listLoans(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	limit, offset := paginationParams(c)

	loans, err := h.loanService.ListLoans(c.Request.Context(), limit, offset)
	if err != nil {
		logger.Error("Failed to list loans", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list loans"})
		return
	}

	responses := make([]dto.LoanResponse, len(loans))
	for i := range loans {
		responses[i] = dto.ToLoanResponse(&loans[i])
	}
	c.JSON(http.StatusOK, responses)
}

// getSchedule godoc
// @Summary Get a loan's amortization schedule
// @Description Overdue statuses are computed at read time from due dates
// @Tags loans
// @Produce  json
// @Param   id path string true "Loan ID"
// @Success 200 {array} dto.ScheduleRowResponse
// @Failure 404 {object} map[string]string "Loan not found or not yet disbursed"
// @Router /loans/{id}/schedule [get]
func (h *loanHandler) getSchedule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("id")

	schedule, err := h.loanService.GetSchedule(c.Request.Context(), loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
		} else {
			logger.Error("Failed to get schedule", slog.String("loan_id", loanID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve schedule"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToScheduleRowResponses(schedule))
}

// disburse godoc
// @Summary Disburse a loan
// @Description Generates the amortization schedule and posts the disbursement GL entry atomically
// @Tags loans
// @Produce  json
// @Param   id path string true "Loan ID"
// @Success 200 {object} dto.DisbursementResponse
// @Failure 404 {object} map[string]string "Loan not found"
// @Failure 409 {object} map[string]string "Loan already disbursed or not approved"
// @Failure 422 {object} map[string]string "Required GL mapping is missing"
// @Router /loans/{id}/disburse [post]
func (h *loanHandler) disburse(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("id")

	result, err := h.loanService.Disburse(c.Request.Context(), loanID, actorID(c))
	if err != nil {
		h.respondLoanError(c, logger, "disburse", loanID, err)
		return
	}

	if result.Entry != nil {
		h.scheduleAnomalyScan(result.Entry.EntryID)
	}
	logger.Info("Loan disbursed", slog.String("loan_id", loanID))

	resp := dto.DisbursementResponse{
		Loan:     dto.ToLoanResponse(result.Loan),
		Schedule: dto.ToScheduleRowResponses(result.Schedule),
	}
	if result.Entry != nil {
		entry := dto.ToEntryResponse(result.Entry)
		resp.Entry = &entry
	}
	c.JSON(http.StatusOK, resp)
}

// recordPayment godoc
// @Summary Record a loan repayment
// @Description Applies the payment oldest-installment-first and posts the repayment GL entry. Idempotent on the payment reference.
// @Tags loans
// @Accept  json
// @Produce  json
// @Param   id path string true "Loan ID"
// @Param   payment body dto.RecordPaymentRequest true "Payment details"
// @Success 200 {object} dto.PaymentRecordedResponse
// @Failure 400 {object} map[string]string "Non-positive amount or overpayment"
// @Failure 404 {object} map[string]string "Loan not found"
// @Failure 409 {object} map[string]string "Loan is not disbursed"
// @Router /loans/{id}/payments [post]
func (h *loanHandler) recordPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("id")

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.loanService.RecordPayment(c.Request.Context(), loanID, req, actorID(c))
	if err != nil {
		h.respondLoanError(c, logger, "record payment for", loanID, err)
		return
	}

	if result.Entry != nil {
		h.scheduleAnomalyScan(result.Entry.EntryID)
	}
	logger.Info("Payment recorded",
		slog.String("loan_id", loanID),
		slog.String("reference", req.Reference))

	resp := dto.PaymentRecordedResponse{
		Payment:  dto.ToPaymentResponse(result.Payment),
		Schedule: dto.ToScheduleRowResponses(result.Schedule),
	}
	if result.Entry != nil {
		entry := dto.ToEntryResponse(result.Entry)
		resp.Entry = &entry
	}
	c.JSON(http.StatusOK, resp)
}

// respondLoanError maps loan operation errors to HTTP. A missing required
// GL mapping is a configuration problem, not a client one; 422 signals the
// request was well-formed but the system cannot honor it yet.
func (h *loanHandler) respondLoanError(c *gin.Context, logger *slog.Logger, op string, loanID string, err error) {
	var noMapping *apperrors.NoMappingError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error in loan operation", slog.String("loan_id", loanID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &noMapping):
		logger.Error("Required GL mapping missing",
			slog.String("loan_id", loanID),
			slog.String("event_type", noMapping.EventType))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": noMapping.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Conflict in loan operation", slog.String("loan_id", loanID), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Failed to "+op+" loan", slog.String("loan_id", loanID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Loan operation failed"})
	}
}
