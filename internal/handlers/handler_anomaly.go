package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zotta/ledger-core/internal/apperrors"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/dto"
	"github.com/zotta/ledger-core/internal/middleware"
)

// anomalyHandler handles HTTP requests for anomaly detection and triage.
type anomalyHandler struct {
	anomalyService portssvc.AnomalySvcFacade
}

func newAnomalyHandler(as portssvc.AnomalySvcFacade) *anomalyHandler {
	return &anomalyHandler{anomalyService: as}
}

// registerAnomalyRoutes registers routes related to anomalies.
func registerAnomalyRoutes(rg *gin.RouterGroup, anomalyService portssvc.AnomalySvcFacade) {
	h := newAnomalyHandler(anomalyService)

	anomalies := rg.Group("/anomalies")
	{
		anomalies.GET("", h.listOpen)
		anomalies.POST("/:id/review", h.review)
	}
	// On-demand scan for one entry; the dispatcher runs the same scan
	// automatically after posting operations.
	rg.POST("/journal-entries/:id/scan", h.detect)
}

// detect godoc
// @Summary Run the anomaly detector over one posted entry
// @Description Advisory only: flags are annotations, the entry is never altered
// @Tags anomalies
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.DetectionResponse
// @Failure 400 {object} map[string]string "Entry is not posted"
// @Failure 404 {object} map[string]string "Entry not found"
// @Router /journal-entries/{id}/scan [post]
func (h *anomalyHandler) detect(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	anomalies, err := h.anomalyService.Detect(c.Request.Context(), entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Journal entry not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Detector rejected entry", slog.String("entry_id", entryID), slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Anomaly detection failed", slog.String("entry_id", entryID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Anomaly detection failed"})
		}
		return
	}

	logger.Info("Anomaly scan completed", slog.String("entry_id", entryID), slog.Int("anomaly_count", len(anomalies)))
	c.JSON(http.StatusOK, dto.DetectionResponse{
		EntryID:      entryID,
		AnomalyCount: len(anomalies),
		Anomalies:    dto.ToAnomalyResponses(anomalies),
	})
}

// review godoc
// @Summary Triage an anomaly
// @Description Marks an open anomaly reviewed or dismissed
// @Tags anomalies
// @Accept  json
// @Produce  json
// @Param   id path string true "Anomaly ID"
// @Param   review body dto.ReviewAnomalyRequest true "Triage action"
// @Success 200 {object} dto.AnomalyResponse
// @Failure 400 {object} map[string]string "Unknown action"
// @Failure 404 {object} map[string]string "Anomaly not found"
// @Failure 409 {object} map[string]string "Anomaly already triaged"
// @Router /anomalies/{id}/review [post]
func (h *anomalyHandler) review(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	anomalyID := c.Param("id")

	var req dto.ReviewAnomalyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ReviewAnomaly", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	anomaly, err := h.anomalyService.Review(c.Request.Context(), anomalyID, req.Action, actorID(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Anomaly not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Anomaly already triaged", slog.String("anomaly_id", anomalyID))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to review anomaly", slog.String("anomaly_id", anomalyID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to review anomaly"})
		}
		return
	}

	logger.Info("Anomaly reviewed", slog.String("anomaly_id", anomalyID), slog.String("action", req.Action))
	c.JSON(http.StatusOK, dto.ToAnomalyResponse(anomaly))
}

// listOpen godoc
// @Summary List open anomalies
// @Tags anomalies
// @Produce  json
// @Param   limit query int false "Page size (default 50)"
// @Param   offset query int false "Page offset"
// @Success 200 {array} dto.AnomalyResponse
// @Router /anomalies [get]
func (h *anomalyHandler) listOpen(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	limit, offset := paginationParams(c)

	anomalies, err := h.anomalyService.ListOpen(c.Request.Context(), limit, offset)
	if err != nil {
		logger.Error("Failed to list anomalies", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list anomalies"})
		return
	}

	c.JSON(http.StatusOK, dto.ToAnomalyResponses(anomalies))
}
