package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-routine-api/internal/dto"
	"github.com/noah-isme/sma-routine-api/internal/models"
	appErrors "github.com/noah-isme/sma-routine-api/pkg/errors"
	"github.com/noah-isme/sma-routine-api/pkg/response"
)

type routineService interface {
	ListTimeSlots(ctx context.Context, schoolID string, includeInactive bool) ([]models.TimeSlot, error)
	CreateTimeSlot(ctx context.Context, schoolID string, req dto.CreateTimeSlotRequest, actor *models.JWTClaims) (*models.TimeSlot, error)
	DeactivateTimeSlot(ctx context.Context, schoolID, id string, actor *models.JWTClaims) error
	ListRoutine(ctx context.Context, schoolID string, query dto.RoutineQuery) ([]models.RoutineEntry, error)
	UpsertRoutine(ctx context.Context, schoolID string, req dto.UpsertRoutineEntryRequest, actor *models.JWTClaims) (*models.RoutineEntry, error)
	DeactivateRoutine(ctx context.Context, schoolID, id string, actor *models.JWTClaims) error
}

// RoutineHandler manages time slots and the weekly routine.
type RoutineHandler struct {
	service routineService
}

// NewRoutineHandler constructs the handler.
func NewRoutineHandler(service routineService) *RoutineHandler {
	return &RoutineHandler{service: service}
}

// ListTimeSlots godoc
// @Summary List time slots ordered by display order
// @Tags Routines
// @Produce json
// @Param schoolId path string true "School ID"
// @Param includeInactive query bool false "Include deactivated slots"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/time-slots [get]
func (h *RoutineHandler) ListTimeSlots(c *gin.Context) {
	includeInactive := c.Query("includeInactive") == "true"
	slots, err := h.service.ListTimeSlots(c.Request.Context(), schoolFromContext(c), includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// CreateTimeSlot godoc
// @Summary Create a time slot
// @Tags Routines
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param payload body dto.CreateTimeSlotRequest true "Time slot payload"
// @Success 201 {object} response.Envelope
// @Router /schools/{schoolId}/time-slots [post]
func (h *RoutineHandler) CreateTimeSlot(c *gin.Context) {
	var req dto.CreateTimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid time slot payload"))
		return
	}
	slot, err := h.service.CreateTimeSlot(c.Request.Context(), schoolFromContext(c), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// DeactivateTimeSlot godoc
// @Summary Deactivate a time slot
// @Tags Routines
// @Param schoolId path string true "School ID"
// @Param slotId path string true "Time slot ID"
// @Success 204
// @Router /schools/{schoolId}/time-slots/{slotId} [delete]
func (h *RoutineHandler) DeactivateTimeSlot(c *gin.Context) {
	if err := h.service.DeactivateTimeSlot(c.Request.Context(), schoolFromContext(c), c.Param("slotId"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListRoutine godoc
// @Summary List the weekly routine of a class-section
// @Tags Routines
// @Produce json
// @Param schoolId path string true "School ID"
// @Param academicYearId query string true "Academic year ID"
// @Param classId query string true "Class ID"
// @Param sectionId query string true "Section ID"
// @Param dayOfWeek query string false "MONDAY..SATURDAY"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/routines [get]
func (h *RoutineHandler) ListRoutine(c *gin.Context) {
	var query dto.RoutineQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid routine query"))
		return
	}
	entries, err := h.service.ListRoutine(c.Request.Context(), schoolFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// UpsertRoutine godoc
// @Summary Create or replace the routine entry of a slot
// @Tags Routines
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param payload body dto.UpsertRoutineEntryRequest true "Routine entry"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/routines [put]
func (h *RoutineHandler) UpsertRoutine(c *gin.Context) {
	var req dto.UpsertRoutineEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid routine payload"))
		return
	}
	entry, err := h.service.UpsertRoutine(c.Request.Context(), schoolFromContext(c), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// DeactivateRoutine godoc
// @Summary Deactivate a routine entry, keeping it as history
// @Tags Routines
// @Param schoolId path string true "School ID"
// @Param routineId path string true "Routine entry ID"
// @Success 204
// @Router /schools/{schoolId}/routines/{routineId} [delete]
func (h *RoutineHandler) DeactivateRoutine(c *gin.Context) {
	if err := h.service.DeactivateRoutine(c.Request.Context(), schoolFromContext(c), c.Param("routineId"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
