package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-routine-api/internal/models"
)

const dailySessionColumns = `id, school_id, academic_year_id, class_id, section_id, session_date, time_slot_id, routine_entry_id,
subject_override, teacher_override, actual_teacher_id, session_status, is_attendance_marked, remarks, created_at, updated_at`

// DailySessionRepository persists materialized class sessions.
type DailySessionRepository struct {
	db *sqlx.DB
}

// NewDailySessionRepository constructs the repository.
func NewDailySessionRepository(db *sqlx.DB) *DailySessionRepository {
	return &DailySessionRepository{db: db}
}

func (r *DailySessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByDate returns sessions of a class-section on the given date.
func (r *DailySessionRepository) ListByDate(ctx context.Context, schoolID, academicYearID, classID, sectionID string, date time.Time) ([]models.DailySession, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_sessions
WHERE school_id = $1 AND academic_year_id = $2 AND class_id = $3 AND section_id = $4 AND session_date = $5
ORDER BY time_slot_id ASC`, dailySessionColumns)
	var sessions []models.DailySession
	if err := r.db.SelectContext(ctx, &sessions, query, schoolID, academicYearID, classID, sectionID, date); err != nil {
		return nil, fmt.Errorf("list daily sessions: %w", err)
	}
	return sessions, nil
}

// FindByKeyForUpdate locks the session row of a key. sql.ErrNoRows is returned untouched.
func (r *DailySessionRepository) FindByKeyForUpdate(ctx context.Context, exec sqlx.ExtContext, key models.SessionKey) (*models.DailySession, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_sessions
WHERE school_id = $1 AND academic_year_id = $2 AND class_id = $3 AND section_id = $4 AND session_date = $5 AND time_slot_id = $6
FOR UPDATE`, dailySessionColumns)
	var session models.DailySession
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query,
		key.SchoolID, key.AcademicYearID, key.ClassID, key.SectionID, key.SessionDate, key.TimeSlotID); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByIDForUpdate locks a session by id within a school.
func (r *DailySessionRepository) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, schoolID, id string) (*models.DailySession, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_sessions WHERE school_id = $1 AND id = $2 FOR UPDATE`, dailySessionColumns)
	var session models.DailySession
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query, schoolID, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// Materialize inserts a SCHEDULED session for the key unless one already exists.
// It reports whether a row was inserted.
func (r *DailySessionRepository) Materialize(ctx context.Context, exec sqlx.ExtContext, session *models.DailySession) (bool, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const query = `
INSERT INTO daily_sessions (id, school_id, academic_year_id, class_id, section_id, session_date, time_slot_id, routine_entry_id,
    session_status, is_attendance_marked, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10, $10)
ON CONFLICT (school_id, academic_year_id, class_id, section_id, session_date, time_slot_id) DO NOTHING`
	result, err := r.exec(exec).ExecContext(ctx, query,
		session.ID, session.SchoolID, session.AcademicYearID, session.ClassID, session.SectionID, session.SessionDate,
		session.TimeSlotID, session.RoutineEntryID, models.SessionScheduled, now)
	if err != nil {
		return false, fmt.Errorf("materialize daily session: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("materialize daily session rows: %w", err)
	}
	return inserted > 0, nil
}

// Upsert writes the session on its composite key. The row id and creation time of an
// existing row win over the ones supplied.
func (r *DailySessionRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, session *models.DailySession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.SessionStatus == "" {
		session.SessionStatus = models.SessionScheduled
	}

	const query = `
INSERT INTO daily_sessions (id, school_id, academic_year_id, class_id, section_id, session_date, time_slot_id, routine_entry_id,
    subject_override, teacher_override, actual_teacher_id, session_status, is_attendance_marked, remarks, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (school_id, academic_year_id, class_id, section_id, session_date, time_slot_id) DO UPDATE
SET routine_entry_id = EXCLUDED.routine_entry_id,
    subject_override = EXCLUDED.subject_override,
    teacher_override = EXCLUDED.teacher_override,
    actual_teacher_id = EXCLUDED.actual_teacher_id,
    session_status = EXCLUDED.session_status,
    is_attendance_marked = EXCLUDED.is_attendance_marked,
    remarks = EXCLUDED.remarks,
    updated_at = EXCLUDED.updated_at
RETURNING id, created_at`

	row := r.exec(exec).QueryRowxContext(ctx, query,
		session.ID, session.SchoolID, session.AcademicYearID, session.ClassID, session.SectionID, session.SessionDate,
		session.TimeSlotID, session.RoutineEntryID, session.SubjectOverride, session.TeacherOverride, session.ActualTeacherID,
		session.SessionStatus, session.IsAttendanceMarked, session.Remarks, session.CreatedAt, session.UpdatedAt)
	if err := row.Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("upsert daily session: %w", err)
	}
	return nil
}

// UpdateStatus changes only the lifecycle status of a session.
func (r *DailySessionRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, schoolID, id string, status models.SessionStatus) (time.Time, error) {
	now := time.Now().UTC()
	res, err := r.exec(exec).ExecContext(ctx, `UPDATE daily_sessions SET session_status = $3, updated_at = $4 WHERE school_id = $1 AND id = $2`, schoolID, id, status, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("update daily session status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return time.Time{}, fmt.Errorf("update daily session status rows: %w", err)
	}
	if affected == 0 {
		return time.Time{}, fmt.Errorf("update daily session status: no rows for %s", id)
	}
	return now, nil
}
