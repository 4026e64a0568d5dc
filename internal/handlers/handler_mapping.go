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

// mappingHandler handles HTTP requests for GL mapping configuration.
type mappingHandler struct {
	mappingService portssvc.MappingSvcFacade
}

func newMappingHandler(ms portssvc.MappingSvcFacade) *mappingHandler {
	return &mappingHandler{mappingService: ms}
}

// registerMappingRoutes registers routes related to GL mappings.
func registerMappingRoutes(rg *gin.RouterGroup, mappingService portssvc.MappingSvcFacade) {
	h := newMappingHandler(mappingService)

	mappings := rg.Group("/gl-mappings")
	{
		mappings.POST("", h.createMapping)
		mappings.GET("", h.listMappings)
		mappings.DELETE("/:id", h.deactivateMapping)
	}
}

// createMapping godoc
// @Summary Configure a GL mapping
// @Description Maps a loan lifecycle event type to its debit and credit accounts
// @Tags mappings
// @Accept  json
// @Produce  json
// @Param   mapping body dto.CreateMappingRequest true "Mapping details"
// @Success 201 {object} dto.MappingResponse
// @Failure 400 {object} map[string]string "Invalid accounts or same-account mapping"
// @Failure 409 {object} map[string]string "Active mapping already exists for the event type"
// @Router /gl-mappings [post]
func (h *mappingHandler) createMapping(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateMapping", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	mapping, err := h.mappingService.CreateMapping(c.Request.Context(), req, actorID(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Validation error creating mapping", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Duplicate active mapping", slog.String("event_type", req.EventType))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create mapping", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create mapping"})
		}
		return
	}

	logger.Info("GL mapping created",
		slog.String("mapping_id", mapping.MappingID),
		slog.String("event_type", mapping.EventType))
	c.JSON(http.StatusCreated, dto.ToMappingResponse(mapping))
}

// listMappings godoc
// @Summary List GL mappings
// @Tags mappings
// @Produce  json
// @Success 200 {array} dto.MappingResponse
// @Router /gl-mappings [get]
func (h *mappingHandler) listMappings(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	mappings, err := h.mappingService.ListMappings(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list mappings", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list mappings"})
		return
	}

	c.JSON(http.StatusOK, dto.ToMappingResponses(mappings))
}

// deactivateMapping godoc
// @Summary Deactivate a GL mapping
// @Description Frees the event type for a replacement mapping
// @Tags mappings
// @Param   id path string true "Mapping ID"
// @Success 204
// @Failure 404 {object} map[string]string "Mapping not found"
// @Router /gl-mappings/{id} [delete]
func (h *mappingHandler) deactivateMapping(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	mappingID := c.Param("id")

	if err := h.mappingService.DeactivateMapping(c.Request.Context(), mappingID, actorID(c)); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Mapping not found"})
		} else {
			logger.Error("Failed to deactivate mapping", slog.String("mapping_id", mappingID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate mapping"})
		}
		return
	}

	logger.Info("GL mapping deactivated", slog.String("mapping_id", mappingID))
	c.Status(http.StatusNoContent)
}
