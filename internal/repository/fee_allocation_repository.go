package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-routine-api/internal/models"
)

const allocationColumns = `id, school_id, student_id, fee_plan_id, installment_id, installment_no, amount_due, amount_paid, due_date, status, created_at, updated_at`

// FeeAllocationRepository persists per-student installment copies and payments.
type FeeAllocationRepository struct {
	db *sqlx.DB
}

// NewFeeAllocationRepository constructs the repository.
func NewFeeAllocationRepository(db *sqlx.DB) *FeeAllocationRepository {
	return &FeeAllocationRepository{db: db}
}

func (r *FeeAllocationRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateBatch inserts allocations, skipping installments the student already holds.
// It returns how many rows were inserted.
func (r *FeeAllocationRepository) CreateBatch(ctx context.Context, exec sqlx.ExtContext, allocations []models.StudentFeeAllocation) (int64, error) {
	const query = `INSERT INTO student_fee_allocations (id, school_id, student_id, fee_plan_id, installment_id, installment_no, amount_due, amount_paid, due_date, status, created_at, updated_at)
VALUES (:id, :school_id, :student_id, :fee_plan_id, :installment_id, :installment_no, :amount_due, :amount_paid, :due_date, :status, :created_at, :updated_at)
ON CONFLICT (student_id, installment_id) DO NOTHING`

	now := time.Now().UTC()
	var inserted int64
	for i := range allocations {
		alloc := &allocations[i]
		if alloc.ID == "" {
			alloc.ID = uuid.NewString()
		}
		alloc.CreatedAt = now
		alloc.UpdatedAt = now
		res, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, alloc)
		if err != nil {
			return inserted, fmt.Errorf("create fee allocation %d: %w", alloc.InstallmentNo, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("create fee allocation rows: %w", err)
		}
		inserted += affected
	}
	return inserted, nil
}

// CountByPlan returns how many allocations reference the plan.
func (r *FeeAllocationRepository) CountByPlan(ctx context.Context, exec sqlx.ExtContext, planID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, `SELECT COUNT(*) FROM student_fee_allocations WHERE fee_plan_id = $1`, planID); err != nil {
		return 0, fmt.Errorf("count fee allocations: %w", err)
	}
	return count, nil
}

// ListByStudent returns a student's allocations, optionally limited to one plan.
func (r *FeeAllocationRepository) ListByStudent(ctx context.Context, schoolID, studentID, planID string) ([]models.StudentFeeAllocation, error) {
	query := fmt.Sprintf("SELECT %s FROM student_fee_allocations WHERE school_id = $1 AND student_id = $2", allocationColumns)
	args := []interface{}{schoolID, studentID}
	if planID != "" {
		query += " AND fee_plan_id = $3"
		args = append(args, planID)
	}
	query += " ORDER BY fee_plan_id ASC, installment_no ASC"

	var allocations []models.StudentFeeAllocation
	if err := r.db.SelectContext(ctx, &allocations, query, args...); err != nil {
		return nil, fmt.Errorf("list fee allocations: %w", err)
	}
	return allocations, nil
}

// FindByIDForUpdate locks an allocation row.
func (r *FeeAllocationRepository) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, schoolID, id string) (*models.StudentFeeAllocation, error) {
	query := fmt.Sprintf("SELECT %s FROM student_fee_allocations WHERE school_id = $1 AND id = $2 FOR UPDATE", allocationColumns)
	var alloc models.StudentFeeAllocation
	if err := sqlx.GetContext(ctx, r.exec(exec), &alloc, query, schoolID, id); err != nil {
		return nil, err
	}
	return &alloc, nil
}

// UpdatePayment stores the paid amount and derived status.
func (r *FeeAllocationRepository) UpdatePayment(ctx context.Context, exec sqlx.ExtContext, alloc *models.StudentFeeAllocation) error {
	alloc.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_fee_allocations SET amount_paid = :amount_paid, status = :status, updated_at = :updated_at WHERE id = :id AND school_id = :school_id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, alloc); err != nil {
		return fmt.Errorf("update fee allocation: %w", err)
	}
	return nil
}

// CreatePayment records a payment row.
func (r *FeeAllocationRepository) CreatePayment(ctx context.Context, exec sqlx.ExtContext, payment *models.FeePayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	payment.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO fee_payments (id, school_id, allocation_id, amount, paid_at, method, reference, recorded_by, created_at)
VALUES (:id, :school_id, :allocation_id, :amount, :paid_at, :method, :reference, :recorded_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, payment); err != nil {
		return fmt.Errorf("create fee payment: %w", err)
	}
	return nil
}
