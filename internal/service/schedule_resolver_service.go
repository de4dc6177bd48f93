package service

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-routine-api/internal/dto"
	"github.com/noah-isme/sma-routine-api/internal/models"
	appErrors "github.com/noah-isme/sma-routine-api/pkg/errors"
)

const (
	sessionOpOverride   = "override"
	sessionOpStatus     = "status"
	sessionOpAttendance = "attendance"
)

type scheduleSlotReader interface {
	ListActiveTeaching(ctx context.Context, schoolID string) ([]models.TimeSlot, error)
}

type routineReader interface {
	List(ctx context.Context, filter models.RoutineFilter) ([]models.RoutineEntry, error)
	FindByIDs(ctx context.Context, schoolID string, ids []string) ([]models.RoutineEntry, error)
	FindActiveByKey(ctx context.Context, exec sqlx.ExtContext, key models.RoutineKey) (*models.RoutineEntry, error)
}

type dailySessionStore interface {
	ListByDate(ctx context.Context, schoolID, academicYearID, classID, sectionID string, date time.Time) ([]models.DailySession, error)
	Materialize(ctx context.Context, exec sqlx.ExtContext, session *models.DailySession) (bool, error)
	FindByKeyForUpdate(ctx context.Context, exec sqlx.ExtContext, key models.SessionKey) (*models.DailySession, error)
	FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, schoolID, id string) (*models.DailySession, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, session *models.DailySession) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, schoolID, id string, status models.SessionStatus) (time.Time, error)
}

type nameDirectory interface {
	SubjectNames(ctx context.Context, schoolID string, ids []string) (map[string]string, error)
	TeacherNames(ctx context.Context, schoolID string, ids []string) (map[string]string, error)
}

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ScheduleResolverConfig governs resolver behaviour.
type ScheduleResolverConfig struct {
	CacheTTL time.Duration
}

// ScheduleResolverService layers date-specific sessions over the weekly routine.
type ScheduleResolverService struct {
	slots     scheduleSlotReader
	routines  routineReader
	sessions  dailySessionStore
	directory nameDirectory
	tx        txProvider
	cache     scheduleCache
	audit     auditLogger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleResolverConfig
}

// NewScheduleResolverService wires the resolver.
func NewScheduleResolverService(
	slots scheduleSlotReader,
	routines routineReader,
	sessions dailySessionStore,
	directory nameDirectory,
	tx txProvider,
	cache scheduleCache,
	audit auditLogger,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleResolverConfig,
) *ScheduleResolverService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleResolverService{
		slots:     slots,
		routines:  routines,
		sessions:  sessions,
		directory: directory,
		tx:        tx,
		cache:     cache,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Resolve returns the effective schedule of a class-section on a date. The bool reports a cache hit.
func (s *ScheduleResolverService) Resolve(ctx context.Context, schoolID string, query dto.ScheduleQuery) (*models.DailySchedule, bool, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule query")
	}
	date, err := parseDate(query.Date, "date")
	if err != nil {
		return nil, false, err
	}

	cacheKey := ScheduleKey(schoolID, query.AcademicYearID, query.ClassID, query.SectionID, query.Date)
	if s.cache != nil {
		var cached models.DailySchedule
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, true, nil
		}
	}

	schedule := &models.DailySchedule{
		SchoolID:       schoolID,
		AcademicYearID: query.AcademicYearID,
		ClassID:        query.ClassID,
		SectionID:      query.SectionID,
		Date:           query.Date,
		Slots:          []models.EffectiveSlot{},
	}

	day, ok := models.DayOfWeekForDate(date)
	if !ok {
		return schedule, false, nil
	}
	schedule.DayOfWeek = day

	slots, err := s.slots.ListActiveTeaching(ctx, schoolID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].DisplayOrder != slots[j].DisplayOrder {
			return slots[i].DisplayOrder < slots[j].DisplayOrder
		}
		return slots[i].ID < slots[j].ID
	})
	routines, err := s.routines.List(ctx, models.RoutineFilter{
		SchoolID:       schoolID,
		AcademicYearID: query.AcademicYearID,
		ClassID:        query.ClassID,
		SectionID:      query.SectionID,
		DayOfWeek:      day,
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load routine")
	}
	sessions, err := s.sessions.ListByDate(ctx, schoolID, query.AcademicYearID, query.ClassID, query.SectionID, date)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load daily sessions")
	}

	routineBySlot := make(map[string]*models.RoutineEntry, len(routines))
	routineByID := make(map[string]*models.RoutineEntry, len(routines))
	for i := range routines {
		routineBySlot[routines[i].TimeSlotID] = &routines[i]
		routineByID[routines[i].ID] = &routines[i]
	}
	sessionBySlot := make(map[string]*models.DailySession, len(sessions))
	var orphanIDs []string
	for i := range sessions {
		sessionBySlot[sessions[i].TimeSlotID] = &sessions[i]
		if _, known := routineByID[sessions[i].RoutineEntryID]; !known && sessions[i].RoutineEntryID != "" {
			orphanIDs = append(orphanIDs, sessions[i].RoutineEntryID)
		}
	}
	if len(orphanIDs) > 0 {
		// sessions may outlive the routine entry they were materialized from
		historic, err := s.routines.FindByIDs(ctx, schoolID, orphanIDs)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load routine history")
		}
		for i := range historic {
			routineByID[historic[i].ID] = &historic[i]
		}
	}

	materialized := 0
	for _, slot := range slots {
		session := sessionBySlot[slot.ID]
		var routine *models.RoutineEntry
		if session != nil {
			routine = routineByID[session.RoutineEntryID]
		} else {
			routine = routineBySlot[slot.ID]
		}
		if session == nil && routine == nil {
			continue
		}
		if session != nil {
			materialized++
		}
		schedule.Slots = append(schedule.Slots, buildEffectiveSlot(slot, routine, session))
	}

	s.attachNames(ctx, schoolID, schedule.Slots)
	s.metrics.RecordResolvedSchedule(materialized, len(schedule.Slots)-materialized)

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, schedule, s.cfg.CacheTTL)
	}
	return schedule, false, nil
}

func buildEffectiveSlot(slot models.TimeSlot, routine *models.RoutineEntry, session *models.DailySession) models.EffectiveSlot {
	entry := models.EffectiveSlot{
		TimeSlotID:         slot.ID,
		SlotName:           slot.SlotName,
		StartTime:          slot.StartTime,
		EndTime:            slot.EndTime,
		DisplayOrder:       slot.DisplayOrder,
		SessionStatus:      models.SessionScheduled,
		EffectiveSubjectID: models.EffectiveSubject(session, routine),
		EffectiveTeacherID: models.EffectiveTeacher(session, routine),
	}
	if routine != nil {
		entry.RoutineEntryID = routine.ID
		entry.RoutineSubjectID = routine.SubjectID
		entry.RoutineTeacherID = routine.TeacherID
		entry.Remarks = routine.Remarks
	}
	if session != nil {
		id := session.ID
		entry.SessionID = &id
		entry.Materialized = true
		entry.RoutineEntryID = session.RoutineEntryID
		entry.SubjectOverride = session.SubjectOverride
		entry.TeacherOverride = session.TeacherOverride
		entry.SessionStatus = session.SessionStatus
		entry.IsAttendanceMarked = session.IsAttendanceMarked
		entry.OverrideLocked = session.IsAttendanceMarked
		if session.Remarks != nil {
			entry.Remarks = session.Remarks
		}
	}
	entry.IsSubjectOverridden = !samePtr(entry.EffectiveSubjectID, entry.RoutineSubjectID)
	entry.IsSubstituted = !samePtr(entry.EffectiveTeacherID, entry.RoutineTeacherID)
	return entry
}

// attachNames resolves display names; lookup failures degrade to placeholders.
func (s *ScheduleResolverService) attachNames(ctx context.Context, schoolID string, slots []models.EffectiveSlot) {
	if len(slots) == 0 {
		return
	}
	subjectIDs := make(map[string]struct{})
	teacherIDs := make(map[string]struct{})
	for _, slot := range slots {
		collectID(subjectIDs, slot.RoutineSubjectID)
		collectID(subjectIDs, slot.EffectiveSubjectID)
		collectID(teacherIDs, slot.RoutineTeacherID)
		collectID(teacherIDs, slot.EffectiveTeacherID)
	}

	subjects := map[string]string{}
	teachers := map[string]string{}
	if s.directory != nil {
		var err error
		if subjects, err = s.directory.SubjectNames(ctx, schoolID, sortedKeys(subjectIDs)); err != nil {
			s.logger.Warn("subject name lookup failed", zap.String("school_id", schoolID), zap.Error(err))
			subjects = map[string]string{}
		}
		if teachers, err = s.directory.TeacherNames(ctx, schoolID, sortedKeys(teacherIDs)); err != nil {
			s.logger.Warn("teacher name lookup failed", zap.String("school_id", schoolID), zap.Error(err))
			teachers = map[string]string{}
		}
	}

	for i := range slots {
		slots[i].RoutineSubjectName = lookupName(subjects, slots[i].RoutineSubjectID, models.NoSubjectLabel)
		slots[i].EffectiveSubjectName = lookupName(subjects, slots[i].EffectiveSubjectID, models.NoSubjectLabel)
		slots[i].RoutineTeacherName = lookupName(teachers, slots[i].RoutineTeacherID, models.NotAssignedLabel)
		slots[i].EffectiveTeacherName = lookupName(teachers, slots[i].EffectiveTeacherID, models.NotAssignedLabel)
	}
}

// ApplyOverride writes a date-specific subject, teacher or remark over the routine slot.
func (s *ScheduleResolverService) ApplyOverride(ctx context.Context, schoolID string, req dto.ApplyOverrideRequest, actor *models.JWTClaims) (*models.DailySession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}
	key, day, err := sessionKeyFor(schoolID, req.AcademicYearID, req.ClassID, req.SectionID, req.Date, req.TimeSlotID)
	if err != nil {
		return nil, err
	}

	var before, after models.DailySession
	changed, materialized := false, false
	err = runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		routine, err := s.activeRoutine(ctx, tx, key, day)
		if err != nil {
			return err
		}
		current, inserted, err := s.lockOrMaterialize(ctx, tx, key, routine)
		if err != nil {
			return err
		}
		materialized = inserted
		before = *current
		after = *current
		if req.SubjectOverride != nil {
			after.SubjectOverride = normalizeOptional(req.SubjectOverride)
		}
		if req.TeacherOverride != nil {
			after.TeacherOverride = normalizeOptional(req.TeacherOverride)
			after.ActualTeacherID = normalizeOptional(req.TeacherOverride)
		}
		if req.Remarks != nil {
			after.Remarks = normalizeOptional(req.Remarks)
		}
		if after.SameContent(before) {
			return nil
		}
		if err := s.sessions.Upsert(ctx, tx, &after); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save session override")
		}
		changed = true
		return nil
	})
	if err != nil {
		s.metrics.RecordSessionWrite(sessionOpOverride, "rejected")
		return nil, err
	}

	if !changed {
		s.metrics.RecordSessionWrite(sessionOpOverride, "noop")
		// the cached day still shows this slot as an unmaterialized routine view
		if materialized {
			s.invalidate(ctx, key)
		}
		return &before, nil
	}
	s.metrics.RecordSessionWrite(sessionOpOverride, "applied")
	if after.IsAttendanceMarked {
		s.logger.Warn("override applied to attendance-marked session",
			zap.String("school_id", schoolID),
			zap.String("session_id", after.ID),
			zap.String("date", req.Date),
		)
	}
	s.invalidate(ctx, key)
	recordAudit(ctx, s.audit, s.logger, auditEntry{
		schoolID:   schoolID,
		actor:      actor,
		action:     models.AuditActionSessionOverride,
		resource:   models.AuditResourceDailySession,
		resourceID: after.ID,
		oldValues:  overrideSnapshot(before),
		newValues:  overrideSnapshot(after),
	})
	return &after, nil
}

// TransitionStatus moves a session along SCHEDULED -> {CONDUCTED, CANCELLED, POSTPONED}.
// Requesting the current status is a no-op.
func (s *ScheduleResolverService) TransitionStatus(ctx context.Context, schoolID, sessionID string, req dto.TransitionStatusRequest, actor *models.JWTClaims) (*models.DailySession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	next := models.SessionStatus(req.Status)

	var session *models.DailySession
	var previous models.SessionStatus
	err := runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		current, err := s.sessions.FindByIDForUpdate(ctx, tx, schoolID, sessionID)
		if err != nil {
			if isNoRows(err) {
				return appErrors.Clone(appErrors.ErrNotFound, "session not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
		}
		session = current
		previous = current.SessionStatus
		if previous == next {
			return nil
		}
		if !previous.CanTransitionTo(next) {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move session from "+string(previous)+" to "+string(next))
		}
		updatedAt, err := s.sessions.UpdateStatus(ctx, tx, schoolID, sessionID, next)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session status")
		}
		session.SessionStatus = next
		session.UpdatedAt = updatedAt
		return nil
	})
	if err != nil {
		s.metrics.RecordSessionWrite(sessionOpStatus, "rejected")
		return nil, err
	}
	if previous == next {
		s.metrics.RecordSessionWrite(sessionOpStatus, "noop")
		return session, nil
	}

	s.metrics.RecordSessionWrite(sessionOpStatus, "applied")
	s.invalidate(ctx, session.Key())
	recordAudit(ctx, s.audit, s.logger, auditEntry{
		schoolID:   schoolID,
		actor:      actor,
		action:     models.AuditActionSessionStatus,
		resource:   models.AuditResourceDailySession,
		resourceID: session.ID,
		oldValues:  map[string]interface{}{"sessionStatus": previous},
		newValues:  map[string]interface{}{"sessionStatus": next},
	})
	return session, nil
}

// MarkAttendance flags the given slots of a class-section day as attendance-taken,
// materializing sessions from the routine where needed.
func (s *ScheduleResolverService) MarkAttendance(ctx context.Context, schoolID string, req dto.MarkAttendanceRequest, actor *models.JWTClaims) ([]models.DailySession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	slotIDs := uniqueStrings(req.TimeSlotIDs)
	marked := make([]models.DailySession, 0, len(slotIDs))
	var changedIDs []string
	var keys []models.SessionKey
	err := runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		for _, slotID := range slotIDs {
			key, day, err := sessionKeyFor(schoolID, req.AcademicYearID, req.ClassID, req.SectionID, req.Date, slotID)
			if err != nil {
				return err
			}
			current, err := s.sessions.FindByKeyForUpdate(ctx, tx, key)
			if err != nil {
				if !isNoRows(err) {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
				}
				routine, err := s.activeRoutine(ctx, tx, key, day)
				if err != nil {
					return err
				}
				if current, _, err = s.lockOrMaterialize(ctx, tx, key, routine); err != nil {
					return err
				}
			}
			if current.SessionStatus == models.SessionCancelled || current.SessionStatus == models.SessionPostponed {
				return appErrors.Clone(appErrors.ErrInvalidTransition, "cannot mark attendance for a "+string(current.SessionStatus)+" session")
			}
			if !current.IsAttendanceMarked {
				current.IsAttendanceMarked = true
				if err := s.sessions.Upsert(ctx, tx, current); err != nil {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
				}
				changedIDs = append(changedIDs, current.ID)
			}
			marked = append(marked, *current)
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordSessionWrite(sessionOpAttendance, "rejected")
		return nil, err
	}

	if len(changedIDs) == 0 {
		s.metrics.RecordSessionWrite(sessionOpAttendance, "noop")
		return marked, nil
	}
	s.metrics.RecordSessionWrite(sessionOpAttendance, "applied")
	s.invalidate(ctx, keys...)
	for _, id := range changedIDs {
		recordAudit(ctx, s.audit, s.logger, auditEntry{
			schoolID:   schoolID,
			actor:      actor,
			action:     models.AuditActionSessionAttendance,
			resource:   models.AuditResourceDailySession,
			resourceID: id,
			newValues:  map[string]interface{}{"isAttendanceMarked": true, "date": req.Date},
		})
	}
	return marked, nil
}

func (s *ScheduleResolverService) activeRoutine(ctx context.Context, tx sqlx.ExtContext, key models.SessionKey, day models.DayOfWeek) (*models.RoutineEntry, error) {
	routine, err := s.routines.FindActiveByKey(ctx, tx, key.RoutineKey(day))
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotConfigured, "no active routine entry for time slot "+key.TimeSlotID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load routine entry")
	}
	return routine, nil
}

// lockOrMaterialize ensures the session row exists and holds its row lock until commit.
// The flag is true when this call inserted the row.
func (s *ScheduleResolverService) lockOrMaterialize(ctx context.Context, tx sqlx.ExtContext, key models.SessionKey, routine *models.RoutineEntry) (*models.DailySession, bool, error) {
	seed := &models.DailySession{
		SchoolID:       key.SchoolID,
		AcademicYearID: key.AcademicYearID,
		ClassID:        key.ClassID,
		SectionID:      key.SectionID,
		SessionDate:    key.SessionDate,
		TimeSlotID:     key.TimeSlotID,
		RoutineEntryID: routine.ID,
		SessionStatus:  models.SessionScheduled,
	}
	inserted, err := s.sessions.Materialize(ctx, tx, seed)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to materialize session")
	}
	current, err := s.sessions.FindByKeyForUpdate(ctx, tx, key)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock session")
	}
	return current, inserted, nil
}

func (s *ScheduleResolverService) invalidate(ctx context.Context, keys ...models.SessionKey) {
	if s.cache == nil || len(keys) == 0 {
		return
	}
	cacheKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		cacheKeys = append(cacheKeys, ScheduleKey(key.SchoolID, key.AcademicYearID, key.ClassID, key.SectionID, key.SessionDate.Format(dateLayout)))
	}
	_ = s.cache.Delete(ctx, uniqueStrings(cacheKeys)...)
}

func sessionKeyFor(schoolID, academicYearID, classID, sectionID, rawDate, timeSlotID string) (models.SessionKey, models.DayOfWeek, error) {
	date, err := parseDate(rawDate, "date")
	if err != nil {
		return models.SessionKey{}, "", err
	}
	day, ok := models.DayOfWeekForDate(date)
	if !ok {
		return models.SessionKey{}, "", appErrors.Clone(appErrors.ErrNotConfigured, "no routine runs on Sunday")
	}
	return models.SessionKey{
		SchoolID:       schoolID,
		AcademicYearID: academicYearID,
		ClassID:        classID,
		SectionID:      sectionID,
		SessionDate:    date,
		TimeSlotID:     timeSlotID,
	}, day, nil
}

func overrideSnapshot(session models.DailySession) map[string]interface{} {
	return map[string]interface{}{
		"subjectOverride": session.SubjectOverride,
		"teacherOverride": session.TeacherOverride,
		"actualTeacherId": session.ActualTeacherID,
		"remarks":         session.Remarks,
	}
}

// normalizeOptional maps an explicit empty string to nil.
func normalizeOptional(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	v := *value
	return &v
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func collectID(set map[string]struct{}, id *string) {
	if id != nil && *id != "" {
		set[*id] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func lookupName(names map[string]string, id *string, placeholder string) string {
	if id == nil {
		return placeholder
	}
	if name, ok := names[*id]; ok && name != "" {
		return name
	}
	return placeholder
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
