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

type scheduleService interface {
	Resolve(ctx context.Context, schoolID string, query dto.ScheduleQuery) (*models.DailySchedule, bool, error)
	ApplyOverride(ctx context.Context, schoolID string, req dto.ApplyOverrideRequest, actor *models.JWTClaims) (*models.DailySession, error)
	TransitionStatus(ctx context.Context, schoolID, sessionID string, req dto.TransitionStatusRequest, actor *models.JWTClaims) (*models.DailySession, error)
	MarkAttendance(ctx context.Context, schoolID string, req dto.MarkAttendanceRequest, actor *models.JWTClaims) ([]models.DailySession, error)
}

// ScheduleHandler serves resolved daily schedules and session writes.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// Resolve godoc
// @Summary Resolve the effective schedule of a class-section for a date
// @Tags Schedules
// @Produce json
// @Param schoolId path string true "School ID"
// @Param academicYearId query string true "Academic year ID"
// @Param classId query string true "Class ID"
// @Param sectionId query string true "Section ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schools/{schoolId}/schedules [get]
func (h *ScheduleHandler) Resolve(c *gin.Context) {
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule query"))
		return
	}
	schedule, cacheHit, err := h.service.Resolve(c.Request.Context(), schoolFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil, respondMeta(c, cacheHit))
}

// ApplyOverride godoc
// @Summary Override subject, teacher or remarks of one session
// @Tags Schedules
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param payload body dto.ApplyOverrideRequest true "Override payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schools/{schoolId}/schedules/overrides [post]
func (h *ScheduleHandler) ApplyOverride(c *gin.Context) {
	var req dto.ApplyOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid override payload"))
		return
	}
	session, err := h.service.ApplyOverride(c.Request.Context(), schoolFromContext(c), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// MarkAttendance godoc
// @Summary Flag sessions as attendance-taken
// @Tags Schedules
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param payload body dto.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/schedules/attendance [post]
func (h *ScheduleHandler) MarkAttendance(c *gin.Context) {
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	sessions, err := h.service.MarkAttendance(c.Request.Context(), schoolFromContext(c), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// TransitionStatus godoc
// @Summary Move a session through its lifecycle
// @Tags Schedules
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param sessionId path string true "Session ID"
// @Param payload body dto.TransitionStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schools/{schoolId}/sessions/{sessionId}/status [patch]
func (h *ScheduleHandler) TransitionStatus(c *gin.Context) {
	var req dto.TransitionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	session, err := h.service.TransitionStatus(c.Request.Context(), schoolFromContext(c), c.Param("sessionId"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}
