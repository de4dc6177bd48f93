package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-routine-api/internal/models"
)

const routineColumns = `id, school_id, academic_year_id, class_id, section_id, day_of_week, time_slot_id, subject_id, teacher_id, remarks, is_active, created_at, updated_at`

// RoutineRepository persists weekly routine entries.
type RoutineRepository struct {
	db *sqlx.DB
}

// NewRoutineRepository constructs the repository.
func NewRoutineRepository(db *sqlx.DB) *RoutineRepository {
	return &RoutineRepository{db: db}
}

func (r *RoutineRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns active entries of a class-section, optionally restricted to one day.
func (r *RoutineRepository) List(ctx context.Context, filter models.RoutineFilter) ([]models.RoutineEntry, error) {
	conditions := []string{"school_id = $1", "academic_year_id = $2", "class_id = $3", "section_id = $4", "is_active = TRUE"}
	args := []interface{}{filter.SchoolID, filter.AcademicYearID, filter.ClassID, filter.SectionID}
	if filter.DayOfWeek != "" {
		args = append(args, filter.DayOfWeek)
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM routine_entries WHERE %s ORDER BY day_of_week ASC, time_slot_id ASC", routineColumns, strings.Join(conditions, " AND "))
	var entries []models.RoutineEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list routine entries: %w", err)
	}
	return entries, nil
}

// FindByIDs loads entries by id regardless of their active flag.
func (r *RoutineRepository) FindByIDs(ctx context.Context, schoolID string, ids []string) ([]models.RoutineEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM routine_entries WHERE school_id = $1 AND id = ANY($2)", routineColumns)
	var entries []models.RoutineEntry
	if err := r.db.SelectContext(ctx, &entries, query, schoolID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find routine entries by ids: %w", err)
	}
	return entries, nil
}

// FindByID loads one entry scoped to the school.
func (r *RoutineRepository) FindByID(ctx context.Context, schoolID, id string) (*models.RoutineEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM routine_entries WHERE school_id = $1 AND id = $2", routineColumns)
	var entry models.RoutineEntry
	if err := r.db.GetContext(ctx, &entry, query, schoolID, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindActiveByKey loads the active entry for the composite key.
func (r *RoutineRepository) FindActiveByKey(ctx context.Context, exec sqlx.ExtContext, key models.RoutineKey) (*models.RoutineEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM routine_entries
WHERE school_id = $1 AND academic_year_id = $2 AND class_id = $3 AND section_id = $4 AND day_of_week = $5 AND time_slot_id = $6 AND is_active = TRUE`, routineColumns)
	var entry models.RoutineEntry
	if err := sqlx.GetContext(ctx, r.exec(exec), &entry, query,
		key.SchoolID, key.AcademicYearID, key.ClassID, key.SectionID, key.DayOfWeek, key.TimeSlotID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert writes the active entry of the composite key. Deactivated rows are kept as
// history, so a new active row is inserted when none is active.
func (r *RoutineRepository) Upsert(ctx context.Context, entry *models.RoutineEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	entry.IsActive = true

	const query = `
INSERT INTO routine_entries (id, school_id, academic_year_id, class_id, section_id, day_of_week, time_slot_id, subject_id, teacher_id, remarks, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, $11, $11)
ON CONFLICT (school_id, academic_year_id, class_id, section_id, day_of_week, time_slot_id) WHERE is_active DO UPDATE
SET subject_id = EXCLUDED.subject_id,
    teacher_id = EXCLUDED.teacher_id,
    remarks = EXCLUDED.remarks,
    updated_at = EXCLUDED.updated_at
RETURNING id, created_at`

	row := r.db.QueryRowxContext(ctx, query,
		entry.ID, entry.SchoolID, entry.AcademicYearID, entry.ClassID, entry.SectionID, entry.DayOfWeek,
		entry.TimeSlotID, entry.SubjectID, entry.TeacherID, entry.Remarks, now)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("upsert routine entry: %w", err)
	}
	return nil
}

// Deactivate logically deletes an entry. It reports whether a row was changed.
func (r *RoutineRepository) Deactivate(ctx context.Context, schoolID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE routine_entries SET is_active = FALSE, updated_at = $3 WHERE school_id = $1 AND id = $2 AND is_active = TRUE`, schoolID, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("deactivate routine entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate routine entry rows: %w", err)
	}
	return affected > 0, nil
}
