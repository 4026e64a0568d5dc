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
	"github.com/zotta/ledger-core/internal/platform/tasks"
)

// journalHandler handles HTTP requests for journal entry lifecycle operations.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
	anomalyService portssvc.AnomalySvcFacade
	dispatcher     *tasks.Dispatcher
}

func newJournalHandler(js portssvc.JournalSvcFacade, as portssvc.AnomalySvcFacade, d *tasks.Dispatcher) *journalHandler {
	return &journalHandler{journalService: js, anomalyService: as, dispatcher: d}
}

// registerJournalRoutes registers routes related to journal entries.
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade, anomalyService portssvc.AnomalySvcFacade, dispatcher *tasks.Dispatcher) {
	h := newJournalHandler(journalService, anomalyService, dispatcher)

	entries := rg.Group("/journal-entries")
	{
		entries.POST("", h.createEntry)
		entries.GET("", h.listEntries)
		entries.GET("/:id", h.getEntry)
		entries.POST("/:id/submit", h.submitEntry)
		entries.POST("/:id/approve", h.approveEntry)
		entries.POST("/:id/post", h.postEntry)
		entries.POST("/:id/reverse", h.reverseEntry)
	}
}

// scheduleAnomalyScan queues an advisory anomaly scan for a posted entry.
// The scan runs after the response is sent; its outcome never affects the
// posting itself.
func (h *journalHandler) scheduleAnomalyScan(entryID string) {
	h.dispatcher.Enqueue(tasks.NewTask("anomaly_scan", func(ctx context.Context) error {
		_, err := h.anomalyService.Detect(ctx, entryID)
		return err
	}))
}

// createEntry godoc
// @Summary Create a manual journal entry
// @Description Creates a balanced journal entry in DRAFT state
// @Tags journal
// @Accept  json
// @Produce  json
// @Param   entry body dto.CreateEntryRequest true "Entry details"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Unbalanced lines or invalid accounts"
// @Failure 409 {object} map[string]string "Effective date falls in a non-open period"
// @Router /journal-entries [post]
func (h *journalHandler) createEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	entry, err := h.journalService.CreateEntry(c.Request.Context(), req, actorID(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error creating entry", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Period conflict creating entry", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create entry", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create journal entry"})
		}
		return
	}

	logger.Info("Journal entry created", slog.String("entry_id", entry.EntryID), slog.String("entry_number", entry.EntryNumber))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// getEntry godoc
// @Summary Get a journal entry with its lines
// @Tags journal
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Router /journal-entries/{id} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	entry, err := h.journalService.GetEntryByID(c.Request.Context(), entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Journal entry not found"})
		} else {
			logger.Error("Failed to get entry", slog.String("entry_id", entryID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve journal entry"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// listEntries godoc
// @Summary List journal entries
// @Tags journal
// @Produce  json
// @Param   limit query int false "Page size (default 50)"
// @Param   offset query int false "Page offset"
// @Success 200 {array} dto.EntryResponse
// @Router /journal-entries [get]
func (h *journalHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	limit, offset := paginationParams(c)

	entries, err := h.journalService.ListEntries(c.Request.Context(), limit, offset)
	if err != nil {
		logger.Error("Failed to list entries", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list journal entries"})
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponses(entries))
}

// submitEntry godoc
// @Summary Submit a draft entry for approval
// @Tags journal
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is not in DRAFT state"
// @Router /journal-entries/{id}/submit [post]
func (h *journalHandler) submitEntry(c *gin.Context) {
	h.transition(c, "submit", h.journalService.SubmitEntry)
}

// approveEntry godoc
// @Summary Approve a submitted entry
// @Tags journal
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is not in SUBMITTED state"
// @Router /journal-entries/{id}/approve [post]
func (h *journalHandler) approveEntry(c *gin.Context) {
	h.transition(c, "approve", h.journalService.ApproveEntry)
}

// postEntry godoc
// @Summary Post an approved entry to the ledger
// @Description Idempotent: posting an already-posted entry returns its current state
// @Tags journal
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is not in APPROVED state"
// @Router /journal-entries/{id}/post [post]
func (h *journalHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	entry, err := h.journalService.PostEntry(c.Request.Context(), entryID, actorID(c))
	if err != nil {
		h.respondTransitionError(c, logger, "post", entryID, err)
		return
	}

	h.scheduleAnomalyScan(entry.EntryID)
	logger.Info("Journal entry posted", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// reverseEntry godoc
// @Summary Reverse a posted entry
// @Description Creates and posts a mirror entry; the original is never mutated
// @Tags journal
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   reversal body dto.ReverseEntryRequest true "Reversal details"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Missing reason"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is not POSTED or already reversed"
// @Router /journal-entries/{id}/reverse [post]
func (h *journalHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ReverseEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	reversal, err := h.journalService.ReverseEntry(c.Request.Context(), entryID, req.Reason, req.EffectiveDate, actorID(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error reversing entry", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.respondTransitionError(c, logger, "reverse", entryID, err)
		return
	}

	h.scheduleAnomalyScan(reversal.EntryID)
	logger.Info("Journal entry reversed",
		slog.String("original_entry_id", entryID),
		slog.String("reversal_entry_id", reversal.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(reversal))
}

// transition runs a simple lifecycle operation shared by submit and approve.
func (h *journalHandler) transition(c *gin.Context, op string, fn func(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error)) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	entry, err := fn(c.Request.Context(), entryID, actorID(c))
	if err != nil {
		h.respondTransitionError(c, logger, op, entryID, err)
		return
	}

	logger.Info("Journal entry transitioned", slog.String("entry_id", entryID), slog.String("operation", op))
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// respondTransitionError maps lifecycle errors to HTTP. StateTransitionError
// gets its own detailed message; other conflicts (lost version races,
// already-reversed) share 409.
func (h *journalHandler) respondTransitionError(c *gin.Context, logger *slog.Logger, op string, entryID string, err error) {
	var stateErr *apperrors.StateTransitionError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Journal entry not found"})
	case errors.As(err, &stateErr):
		logger.Warn("Invalid entry state for operation",
			slog.String("entry_id", entryID),
			slog.String("operation", op),
			slog.String("current_state", stateErr.Current))
		c.JSON(http.StatusConflict, gin.H{"error": stateErr.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Conflict during entry operation", slog.String("entry_id", entryID), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Failed entry operation",
			slog.String("entry_id", entryID),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + op + " journal entry"})
	}
}
