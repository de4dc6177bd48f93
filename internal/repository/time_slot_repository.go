package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-routine-api/internal/models"
)

const timeSlotColumns = `id, school_id, slot_name, start_time, end_time, display_order, slot_type, is_active, created_at, updated_at`

// TimeSlotRepository provides persistence for school time slots.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository creates a new time slot repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// List returns the school's slots ordered by display order, ties broken by id.
func (r *TimeSlotRepository) List(ctx context.Context, schoolID string, filter models.TimeSlotFilter) ([]models.TimeSlot, error) {
	conditions := []string{"school_id = $1"}
	args := []interface{}{schoolID}
	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filter.SlotType != "" {
		args = append(args, filter.SlotType)
		conditions = append(conditions, fmt.Sprintf("slot_type = $%d", len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM time_slots WHERE %s ORDER BY display_order ASC, id ASC", timeSlotColumns, strings.Join(conditions, " AND "))
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// ListActiveTeaching returns the active TEACHING slots used by routines.
func (r *TimeSlotRepository) ListActiveTeaching(ctx context.Context, schoolID string) ([]models.TimeSlot, error) {
	return r.List(ctx, schoolID, models.TimeSlotFilter{SlotType: models.SlotTypeTeaching})
}

// FindByID loads a slot scoped to the school.
func (r *TimeSlotRepository) FindByID(ctx context.Context, schoolID, id string) (*models.TimeSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM time_slots WHERE school_id = $1 AND id = $2", timeSlotColumns)
	var slot models.TimeSlot
	if err := r.db.GetContext(ctx, &slot, query, schoolID, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create stores a new time slot.
func (r *TimeSlotRepository) Create(ctx context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO time_slots (id, school_id, slot_name, start_time, end_time, display_order, slot_type, is_active, created_at, updated_at) VALUES (:id, :school_id, :slot_name, :start_time, :end_time, :display_order, :slot_type, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create time slot: %w", err)
	}
	return nil
}

// Deactivate hides a slot from scheduling. It reports whether a row was changed.
func (r *TimeSlotRepository) Deactivate(ctx context.Context, schoolID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE time_slots SET is_active = FALSE, updated_at = $3 WHERE school_id = $1 AND id = $2 AND is_active = TRUE`, schoolID, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("deactivate time slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate time slot rows: %w", err)
	}
	return affected > 0, nil
}
