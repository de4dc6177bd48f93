package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-routine-api/internal/dto"
	"github.com/noah-isme/sma-routine-api/internal/models"
	appErrors "github.com/noah-isme/sma-routine-api/pkg/errors"
)

const clockLayout = "15:04"

type timeSlotStore interface {
	List(ctx context.Context, schoolID string, filter models.TimeSlotFilter) ([]models.TimeSlot, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.TimeSlot, error)
	Create(ctx context.Context, slot *models.TimeSlot) error
	Deactivate(ctx context.Context, schoolID, id string) (bool, error)
}

type routineStore interface {
	List(ctx context.Context, filter models.RoutineFilter) ([]models.RoutineEntry, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.RoutineEntry, error)
	Upsert(ctx context.Context, entry *models.RoutineEntry) error
	Deactivate(ctx context.Context, schoolID, id string) (bool, error)
}

type scheduleInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// RoutineService manages time slots and the weekly routine template.
type RoutineService struct {
	slots     timeSlotStore
	routines  routineStore
	cache     scheduleInvalidator
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoutineService constructs a RoutineService.
func NewRoutineService(slots timeSlotStore, routines routineStore, cache scheduleInvalidator, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *RoutineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoutineService{slots: slots, routines: routines, cache: cache, audit: audit, validator: validate, logger: logger}
}

// ListTimeSlots returns the school's slots in display order.
func (s *RoutineService) ListTimeSlots(ctx context.Context, schoolID string, includeInactive bool) ([]models.TimeSlot, error) {
	slots, err := s.slots.List(ctx, schoolID, models.TimeSlotFilter{IncludeInactive: includeInactive})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	return slots, nil
}

// CreateTimeSlot defines a new period. Start must precede end.
func (s *RoutineService) CreateTimeSlot(ctx context.Context, schoolID string, req dto.CreateTimeSlotRequest, actor *models.JWTClaims) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}
	start, errStart := time.Parse(clockLayout, req.StartTime)
	end, errEnd := time.Parse(clockLayout, req.EndTime)
	if errStart != nil || errEnd != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "times must be formatted as HH:MM")
	}
	if !start.Before(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be before endTime")
	}

	slot := &models.TimeSlot{
		SchoolID:     schoolID,
		SlotName:     req.SlotName,
		StartTime:    start.Format(clockLayout),
		EndTime:      end.Format(clockLayout),
		DisplayOrder: req.DisplayOrder,
		SlotType:     models.SlotType(req.SlotType),
		IsActive:     true,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time slot")
	}
	s.invalidate(ctx, ScheduleSchoolPattern(schoolID))
	recordAudit(ctx, s.audit, s.logger, auditEntry{
		schoolID:   schoolID,
		actor:      actor,
		action:     models.AuditActionTimeSlotCreate,
		resource:   models.AuditResourceTimeSlot,
		resourceID: slot.ID,
		newValues:  slot,
	})
	return slot, nil
}

// DeactivateTimeSlot removes a slot from future schedules.
func (s *RoutineService) DeactivateTimeSlot(ctx context.Context, schoolID, id string, actor *models.JWTClaims) error {
	slot, err := s.slots.FindByID(ctx, schoolID, id)
	if err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}
	changed, err := s.slots.Deactivate(ctx, schoolID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate time slot")
	}
	if !changed {
		return appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
	}
	s.invalidate(ctx, ScheduleSchoolPattern(schoolID))
	recordAudit(ctx, s.audit, s.logger, auditEntry{
		schoolID:   schoolID,
		actor:      actor,
		action:     models.AuditActionTimeSlotDisable,
		resource:   models.AuditResourceTimeSlot,
		resourceID: id,
		oldValues:  slot,
	})
	return nil
}

// ListRoutine returns the active weekly routine of a class-section.
func (s *RoutineService) ListRoutine(ctx context.Context, schoolID string, query dto.RoutineQuery) ([]models.RoutineEntry, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid routine query")
	}
	entries, err := s.routines.List(ctx, models.RoutineFilter{
		SchoolID:       schoolID,
		AcademicYearID: query.AcademicYearID,
		ClassID:        query.ClassID,
		SectionID:      query.SectionID,
		DayOfWeek:      models.DayOfWeek(query.DayOfWeek),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list routine")
	}
	return entries, nil
}

// UpsertRoutine writes the weekly default of a slot. Only active TEACHING slots accept routines.
func (s *RoutineService) UpsertRoutine(ctx context.Context, schoolID string, req dto.UpsertRoutineEntryRequest, actor *models.JWTClaims) (*models.RoutineEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid routine payload")
	}
	day, ok := models.ParseDayOfWeek(req.DayOfWeek)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dayOfWeek must be a school day")
	}

	slot, err := s.slots.FindByID(ctx, schoolID, req.TimeSlotID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}
	if !slot.IsActive || slot.SlotType != models.SlotTypeTeaching {
		return nil, appErrors.Clone(appErrors.ErrValidation, "routines can only use active TEACHING slots")
	}

	entry := &models.RoutineEntry{
		SchoolID:       schoolID,
		AcademicYearID: req.AcademicYearID,
		ClassID:        req.ClassID,
		SectionID:      req.SectionID,
		DayOfWeek:      day,
		TimeSlotID:     req.TimeSlotID,
		SubjectID:      normalizeOptional(req.SubjectID),
		TeacherID:      normalizeOptional(req.TeacherID),
		Remarks:        normalizeOptional(req.Remarks),
	}
	if err := s.routines.Upsert(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save routine entry")
	}

	s.invalidate(ctx, ScheduleSectionPattern(schoolID, entry.AcademicYearID, entry.ClassID, entry.SectionID))
	recordAudit(ctx, s.audit, s.logger, auditEntry{
		schoolID:   schoolID,
		actor:      actor,
		action:     models.AuditActionRoutineUpsert,
		resource:   models.AuditResourceRoutineEntry,
		resourceID: entry.ID,
		newValues:  entry,
	})
	return entry, nil
}

// DeactivateRoutine logically deletes a routine entry. Sessions already materialized keep it.
func (s *RoutineService) DeactivateRoutine(ctx context.Context, schoolID, id string, actor *models.JWTClaims) error {
	entry, err := s.routines.FindByID(ctx, schoolID, id)
	if err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "routine entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load routine entry")
	}
	changed, err := s.routines.Deactivate(ctx, schoolID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate routine entry")
	}
	if !changed {
		return appErrors.Clone(appErrors.ErrNotFound, "routine entry not found")
	}

	s.invalidate(ctx, ScheduleSectionPattern(schoolID, entry.AcademicYearID, entry.ClassID, entry.SectionID))
	recordAudit(ctx, s.audit, s.logger, auditEntry{
		schoolID:   schoolID,
		actor:      actor,
		action:     models.AuditActionRoutineDeactivate,
		resource:   models.AuditResourceRoutineEntry,
		resourceID: id,
		oldValues:  entry,
	})
	return nil
}

func (s *RoutineService) invalidate(ctx context.Context, pattern string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, pattern)
}
