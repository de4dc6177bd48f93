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

const (
	feePlanColumns     = `id, school_id, academic_year_id, category_id, name, total_amount, currency, frequency, installments_count, is_active, created_at, updated_at`
	installmentColumns = `id, fee_plan_id, installment_no, name, amount_due, period_start_date, period_end_date, due_date, created_at, updated_at`
)

// FeePlanRepository persists fee plans and their installments.
type FeePlanRepository struct {
	db *sqlx.DB
}

// NewFeePlanRepository constructs the repository.
func NewFeePlanRepository(db *sqlx.DB) *FeePlanRepository {
	return &FeePlanRepository{db: db}
}

func (r *FeePlanRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts the plan row followed by its installments.
func (r *FeePlanRepository) Create(ctx context.Context, exec sqlx.ExtContext, plan *models.FeePlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	const query = `INSERT INTO fee_plans (id, school_id, academic_year_id, category_id, name, total_amount, currency, frequency, installments_count, is_active, created_at, updated_at)
VALUES (:id, :school_id, :academic_year_id, :category_id, :name, :total_amount, :currency, :frequency, :installments_count, :is_active, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, plan); err != nil {
		return fmt.Errorf("create fee plan: %w", err)
	}

	for i := range plan.Installments {
		plan.Installments[i].FeePlanID = plan.ID
		if err := r.insertInstallment(ctx, exec, &plan.Installments[i], now); err != nil {
			return err
		}
	}
	return nil
}

// Update rewrites the plan header.
func (r *FeePlanRepository) Update(ctx context.Context, exec sqlx.ExtContext, plan *models.FeePlan) error {
	plan.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fee_plans SET name = :name, total_amount = :total_amount, frequency = :frequency, installments_count = :installments_count,
is_active = :is_active, updated_at = :updated_at WHERE id = :id AND school_id = :school_id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, plan); err != nil {
		return fmt.Errorf("update fee plan: %w", err)
	}
	return nil
}

// SyncInstallments makes the stored installments match the given list. Rows numbered
// past the list are removed first so renumbering never collides.
func (r *FeePlanRepository) SyncInstallments(ctx context.Context, exec sqlx.ExtContext, planID string, installments []models.Installment) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM fee_installments WHERE fee_plan_id = $1 AND installment_no > $2`, planID, len(installments)); err != nil {
		return fmt.Errorf("trim fee installments: %w", err)
	}

	now := time.Now().UTC()
	for i := range installments {
		inst := &installments[i]
		inst.FeePlanID = planID
		if inst.ID == "" {
			if err := r.insertInstallment(ctx, exec, inst, now); err != nil {
				return err
			}
			continue
		}
		inst.UpdatedAt = now
		const query = `UPDATE fee_installments SET installment_no = :installment_no, name = :name, amount_due = :amount_due,
period_start_date = :period_start_date, period_end_date = :period_end_date, due_date = :due_date, updated_at = :updated_at
WHERE id = :id AND fee_plan_id = :fee_plan_id`
		if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, inst); err != nil {
			return fmt.Errorf("update fee installment %d: %w", inst.InstallmentNo, err)
		}
	}
	return nil
}

func (r *FeePlanRepository) insertInstallment(ctx context.Context, exec sqlx.ExtContext, inst *models.Installment, now time.Time) error {
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	inst.CreatedAt = now
	inst.UpdatedAt = now
	const query = `INSERT INTO fee_installments (id, fee_plan_id, installment_no, name, amount_due, period_start_date, period_end_date, due_date, created_at, updated_at)
VALUES (:id, :fee_plan_id, :installment_no, :name, :amount_due, :period_start_date, :period_end_date, :due_date, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, inst); err != nil {
		return fmt.Errorf("create fee installment %d: %w", inst.InstallmentNo, err)
	}
	return nil
}

// FindByID loads a plan with its installments. forUpdate locks the plan row.
func (r *FeePlanRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, schoolID, id string, forUpdate bool) (*models.FeePlan, error) {
	query := fmt.Sprintf("SELECT %s FROM fee_plans WHERE school_id = $1 AND id = $2", feePlanColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}
	var plan models.FeePlan
	if err := sqlx.GetContext(ctx, r.exec(exec), &plan, query, schoolID, id); err != nil {
		return nil, err
	}

	installments, err := r.listInstallments(ctx, exec, []string{plan.ID})
	if err != nil {
		return nil, err
	}
	plan.Installments = installments
	return &plan, nil
}

// List returns a page of plans with installments and the total match count.
func (r *FeePlanRepository) List(ctx context.Context, filter models.FeePlanFilter) ([]models.FeePlan, int, error) {
	conditions := []string{"school_id = $1"}
	args := []interface{}{filter.SchoolID}
	if filter.AcademicYearID != "" {
		args = append(args, filter.AcademicYearID)
		conditions = append(conditions, fmt.Sprintf("academic_year_id = $%d", len(args)))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM fee_plans WHERE %s ORDER BY created_at DESC, id ASC LIMIT %d OFFSET %d", feePlanColumns, where, size, offset)
	var plans []models.FeePlan
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee plans: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM fee_plans WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count fee plans: %w", err)
	}

	if len(plans) == 0 {
		return plans, total, nil
	}
	ids := make([]string, len(plans))
	for i := range plans {
		ids[i] = plans[i].ID
	}
	installments, err := r.listInstallments(ctx, nil, ids)
	if err != nil {
		return nil, 0, err
	}
	byPlan := make(map[string][]models.Installment, len(plans))
	for _, inst := range installments {
		byPlan[inst.FeePlanID] = append(byPlan[inst.FeePlanID], inst)
	}
	for i := range plans {
		plans[i].Installments = byPlan[plans[i].ID]
	}
	return plans, total, nil
}

func (r *FeePlanRepository) listInstallments(ctx context.Context, exec sqlx.ExtContext, planIDs []string) ([]models.Installment, error) {
	query := fmt.Sprintf("SELECT %s FROM fee_installments WHERE fee_plan_id = ANY($1) ORDER BY fee_plan_id ASC, installment_no ASC", installmentColumns)
	var installments []models.Installment
	if err := sqlx.SelectContext(ctx, r.exec(exec), &installments, query, pq.Array(planIDs)); err != nil {
		return nil, fmt.Errorf("list fee installments: %w", err)
	}
	return installments, nil
}
