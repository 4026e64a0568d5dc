package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zotta/ledger-core/internal/apperrors"
	"github.com/zotta/ledger-core/internal/core/domain"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/dto"
	"github.com/zotta/ledger-core/internal/middleware"
)

// periodHandler handles HTTP requests for accounting period management.
type periodHandler struct {
	periodService portssvc.PeriodSvcFacade
}

func newPeriodHandler(ps portssvc.PeriodSvcFacade) *periodHandler {
	return &periodHandler{periodService: ps}
}

// registerPeriodRoutes registers routes related to accounting periods.
func registerPeriodRoutes(rg *gin.RouterGroup, periodService portssvc.PeriodSvcFacade) {
	h := newPeriodHandler(periodService)

	periods := rg.Group("/periods")
	{
		periods.POST("", h.createPeriod)
		periods.GET("", h.listPeriods)
		periods.GET("/:id/readiness", h.closeReadiness)
		periods.POST("/:id/soft-close", h.softClose)
		periods.POST("/:id/reopen", h.reopen)
		periods.POST("/:id/close", h.close)
	}
}

// createPeriod godoc
// @Summary Open an accounting period
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   period body dto.CreatePeriodRequest true "Period details"
// @Success 201 {object} dto.PeriodResponse
// @Failure 400 {object} map[string]string "Inverted date range"
// @Failure 409 {object} map[string]string "Overlaps an existing period"
// @Router /periods [post]
func (h *periodHandler) createPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreatePeriod", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	period, err := h.periodService.CreatePeriod(c.Request.Context(), req.Name, req.StartDate, req.EndDate, actorID(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error creating period", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Period conflict", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create period", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create period"})
		}
		return
	}

	logger.Info("Period created", slog.String("period_id", period.PeriodID), slog.String("name", period.Name))
	c.JSON(http.StatusCreated, dto.ToPeriodResponse(period))
}

// listPeriods godoc
// @Summary List accounting periods
// @Tags periods
// @Produce  json
// @Success 200 {array} dto.PeriodResponse
// @Router /periods [get]
func (h *periodHandler) listPeriods(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	periods, err := h.periodService.ListPeriods(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list periods", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list periods"})
		return
	}

	c.JSON(http.StatusOK, dto.ToPeriodResponses(periods))
}

// closeReadiness godoc
// @Summary Evaluate close-readiness checks for a period
// @Description Reports unposted entries, trial balance state and open anomalies without changing anything
// @Tags periods
// @Produce  json
// @Param   id path string true "Period ID"
// @Success 200 {object} domain.CloseReadiness
// @Failure 404 {object} map[string]string "Period not found"
// @Router /periods/{id}/readiness [get]
func (h *periodHandler) closeReadiness(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	periodID := c.Param("id")

	readiness, err := h.periodService.CloseReadiness(c.Request.Context(), periodID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Period not found"})
		} else {
			logger.Error("Failed to evaluate readiness", slog.String("period_id", periodID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate close readiness"})
		}
		return
	}

	c.JSON(http.StatusOK, readiness)
}

// softClose godoc
// @Summary Soft-close a period
// @Description Transitions the period to SOFT_CLOSE when every readiness check passes; returns the failing checks otherwise
// @Tags periods
// @Produce  json
// @Param   id path string true "Period ID"
// @Success 200 {object} domain.CloseReadiness
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 409 {object} map[string]string "Period is not OPEN"
// @Failure 422 {object} domain.CloseReadiness "Readiness checks failed"
// @Router /periods/{id}/soft-close [post]
func (h *periodHandler) softClose(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	periodID := c.Param("id")

	readiness, err := h.periodService.SoftClose(c.Request.Context(), periodID, actorID(c))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Period not found"})
		case errors.Is(err, apperrors.ErrValidation) && readiness != nil:
			logger.Warn("Period not ready to close",
				slog.String("period_id", periodID),
				slog.String("recommendation", readiness.Recommendation))
			c.JSON(http.StatusUnprocessableEntity, readiness)
		case errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Period state conflict", slog.String("period_id", periodID), slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to soft-close period", slog.String("period_id", periodID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to soft-close period"})
		}
		return
	}

	logger.Info("Period soft-closed", slog.String("period_id", periodID))
	c.JSON(http.StatusOK, readiness)
}

// reopen godoc
// @Summary Reopen a soft-closed period
// @Tags periods
// @Produce  json
// @Param   id path string true "Period ID"
// @Success 200 {object} dto.PeriodResponse
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 409 {object} map[string]string "Period is not SOFT_CLOSE"
// @Router /periods/{id}/reopen [post]
func (h *periodHandler) reopen(c *gin.Context) {
	h.statusChange(c, "reopen", h.periodService.Reopen)
}

// close godoc
// @Summary Fully close a soft-closed period
// @Tags periods
// @Produce  json
// @Param   id path string true "Period ID"
// @Success 200 {object} dto.PeriodResponse
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 409 {object} map[string]string "Period is not SOFT_CLOSE"
// @Router /periods/{id}/close [post]
func (h *periodHandler) close(c *gin.Context) {
	h.statusChange(c, "close", h.periodService.Close)
}

func (h *periodHandler) statusChange(c *gin.Context, op string, fn func(ctx context.Context, periodID string, userID string) (*domain.Period, error)) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	periodID := c.Param("id")

	period, err := fn(c.Request.Context(), periodID, actorID(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Period not found"})
		} else if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Period state conflict", slog.String("period_id", periodID), slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to "+op+" period", slog.String("period_id", periodID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + op + " period"})
		}
		return
	}

	logger.Info("Period status changed", slog.String("period_id", periodID), slog.String("operation", op))
	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}
