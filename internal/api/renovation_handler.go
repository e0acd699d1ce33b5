package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"refugios-backend-go/internal/core"
	"refugios-backend-go/internal/middleware"
	"refugios-backend-go/internal/models"
)

// RenovationHandler handles the renovation HTTP endpoints.
type RenovationHandler struct {
	service core.RenovationService
	logger  *zap.Logger
}

// NewRenovationHandler creates a new RenovationHandler.
func NewRenovationHandler(service core.RenovationService, logger *zap.Logger) *RenovationHandler {
	return &RenovationHandler{service: service, logger: logger}
}

// mapRenovationError maps RenovationService errors to the wire error kinds
// and HTTP status codes.
func (h *RenovationHandler) mapRenovationError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var overlapErr *core.OverlapError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   KindInvalidInput,
			Message: "The request contains invalid fields.",
			Details: validationErr.Fields,
		})
	case errors.As(err, &overlapErr):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   KindOverlap,
			Message: core.ErrOverlap.Error(),
			Details: OverlapDetails{
				ConflictID: overlapErr.Conflict.ID,
				IniDate:    overlapErr.Conflict.IniDate,
				FinDate:    overlapErr.Conflict.FinDate,
			},
		})
	case errors.Is(err, core.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: KindInvalidInput, Message: err.Error()})
	case errors.Is(err, core.ErrRenovationNotFound), errors.Is(err, core.ErrParticipantNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: KindNotFound, Message: err.Error()})
	case errors.Is(err, core.ErrForbidden), errors.Is(err, core.ErrCreatorCannotJoin):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: KindForbidden, Message: err.Error()})
	case errors.Is(err, core.ErrAlreadyParticipant):
		c.JSON(http.StatusConflict, ErrorResponse{Error: KindAlreadyParticipant, Message: err.Error()})
	case errors.Is(err, core.ErrExpelled):
		c.JSON(http.StatusConflict, ErrorResponse{Error: KindExpelled, Message: err.Error()})
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   KindInternal,
			Message: "An unexpected internal server error occurred.",
		})
	}
}

// caller fetches the authenticated identity stored by the auth middleware,
// aborting with 401 when it is absent.
func (h *RenovationHandler) caller(c *gin.Context) (models.Caller, bool) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   KindUnauthenticated,
			Message: "No caller identity resolved for this request.",
		})
	}
	return caller, ok
}

// ListRenovations handles GET /renovations
func (h *RenovationHandler) ListRenovations(c *gin.Context) {
	if _, ok := h.caller(c); !ok {
		return
	}
	list, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		h.mapRenovationError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateRenovation handles POST /renovations
func (h *RenovationHandler) CreateRenovation(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var req models.CreateRenovationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   KindInvalidInput,
			Message: "Invalid request payload.",
			Details: err.Error(),
		})
		return
	}

	created, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		h.mapRenovationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetRenovation handles GET /renovations/:renovationId
func (h *RenovationHandler) GetRenovation(c *gin.Context) {
	if _, ok := h.caller(c); !ok {
		return
	}
	renovation, err := h.service.GetByID(c.Request.Context(), c.Param("renovationId"))
	if err != nil {
		h.mapRenovationError(c, err)
		return
	}
	c.JSON(http.StatusOK, renovation)
}

// UpdateRenovation handles PATCH /renovations/:renovationId
func (h *RenovationHandler) UpdateRenovation(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var req models.UpdateRenovationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   KindInvalidInput,
			Message: "Invalid request payload.",
			Details: err.Error(),
		})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), caller, c.Param("renovationId"), req)
	if err != nil {
		h.mapRenovationError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteRenovation handles DELETE /renovations/:renovationId
func (h *RenovationHandler) DeleteRenovation(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), caller, c.Param("renovationId")); err != nil {
		h.mapRenovationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// JoinRenovation handles POST /renovations/:renovationId/participants
func (h *RenovationHandler) JoinRenovation(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	updated, err := h.service.AddParticipant(c.Request.Context(), caller, c.Param("renovationId"))
	if err != nil {
		h.mapRenovationError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// RemoveParticipant handles DELETE /renovations/:renovationId/participants/:participantUid
// Covers both self-leave and creator expulsion; the service decides which.
func (h *RenovationHandler) RemoveParticipant(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	updated, err := h.service.RemoveParticipant(
		c.Request.Context(), caller, c.Param("renovationId"), c.Param("participantUid"))
	if err != nil {
		h.mapRenovationError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ListRefugeRenovations handles GET /refuges/:refugeId/renovations?active=true|false
// Without the query parameter the full history is returned.
func (h *RenovationHandler) ListRefugeRenovations(c *gin.Context) {
	if _, ok := h.caller(c); !ok {
		return
	}

	activeOnly := false
	if raw := c.Query("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   KindInvalidInput,
				Message: "Query parameter 'active' must be true or false.",
			})
			return
		}
		activeOnly = parsed
	}

	list, err := h.service.ListByRefuge(c.Request.Context(), c.Param("refugeId"), activeOnly)
	if err != nil {
		h.mapRenovationError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
