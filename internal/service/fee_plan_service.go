package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-routine-api/internal/dto"
	"github.com/noah-isme/sma-routine-api/internal/models"
	appErrors "github.com/noah-isme/sma-routine-api/pkg/errors"
)

type feePlanStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, plan *models.FeePlan) error
	Update(ctx context.Context, exec sqlx.ExtContext, plan *models.FeePlan) error
	SyncInstallments(ctx context.Context, exec sqlx.ExtContext, planID string, installments []models.Installment) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, schoolID, id string, forUpdate bool) (*models.FeePlan, error)
	List(ctx context.Context, filter models.FeePlanFilter) ([]models.FeePlan, int, error)
}

type allocationCounter interface {
	CountByPlan(ctx context.Context, exec sqlx.ExtContext, planID string) (int, error)
}

// FeePlanConfig carries plan defaults.
type FeePlanConfig struct {
	Currency        string
	MaxInstallments int
}

// FeePlanService creates fee plans and keeps their installments balanced.
type FeePlanService struct {
	plans       feePlanStore
	allocations allocationCounter
	tx          txProvider
	audit       auditLogger
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         FeePlanConfig
}

// NewFeePlanService constructs a FeePlanService.
func NewFeePlanService(
	plans feePlanStore,
	allocations allocationCounter,
	tx txProvider,
	audit auditLogger,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg FeePlanConfig,
) *FeePlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxInstallments <= 0 || cfg.MaxInstallments > 12 {
		cfg.MaxInstallments = 12
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &FeePlanService{
		plans:       plans,
		allocations: allocations,
		tx:          tx,
		audit:       audit,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// Create stores a plan with its total distributed across installments.
func (s *FeePlanService) Create(ctx context.Context, schoolID string, req dto.CreateFeePlanRequest, actor *models.JWTClaims) (*models.FeePlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee plan payload")
	}
	frequency := models.FeeFrequency(req.Frequency)
	count, err := s.resolveCount(frequency, req.InstallmentsCount)
	if err != nil {
		return nil, err
	}
	if err := validateTotal(req.TotalAmount); err != nil {
		return nil, err
	}

	installments, err := ResizeInstallments(nil, req.TotalAmount, count)
	if err != nil {
		return nil, err
	}
	if err := applyInstallmentEdits(installments, req.Installments); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = fmt.Sprintf("%s fee plan", strings.ReplaceAll(strings.ToLower(string(frequency)), "_", "-"))
	}
	plan := &models.FeePlan{
		SchoolID:          schoolID,
		AcademicYearID:    req.AcademicYearID,
		CategoryID:        req.CategoryID,
		Name:              name,
		TotalAmount:       req.TotalAmount,
		Currency:          s.cfg.Currency,
		Frequency:         frequency,
		InstallmentsCount: count,
		IsActive:          true,
		Installments:      installments,
	}

	err = runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.plans.Create(ctx, tx, plan); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee plan")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveInstallments(count)
	recordAudit(ctx, s.audit, s.logger, auditEntry{
		schoolID:   schoolID,
		actor:      actor,
		action:     models.AuditActionFeePlanCreate,
		resource:   models.AuditResourceFeePlan,
		resourceID: plan.ID,
		newValues:  plan,
	})
	return plan, nil
}

// Update changes a plan and rebalances its installments. Surviving installments keep
// their identity; amounts are always recomputed.
func (s *FeePlanService) Update(ctx context.Context, schoolID, planID string, req dto.UpdateFeePlanRequest, actor *models.JWTClaims) (*models.FeePlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee plan payload")
	}
	frequency := models.FeeFrequency(req.Frequency)
	count, err := s.resolveCount(frequency, req.InstallmentsCount)
	if err != nil {
		return nil, err
	}
	if err := validateTotal(req.TotalAmount); err != nil {
		return nil, err
	}

	var before models.FeePlan
	var plan *models.FeePlan
	err = runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		current, err := s.plans.FindByID(ctx, tx, schoolID, planID, true)
		if err != nil {
			if isNoRows(err) {
				return appErrors.Clone(appErrors.ErrNotFound, "fee plan not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee plan")
		}
		before = *current
		before.Installments = append([]models.Installment(nil), current.Installments...)

		rebalanced := !req.TotalAmount.Equal(current.TotalAmount) || count != current.InstallmentsCount
		if rebalanced && s.allocations != nil {
			allocated, err := s.allocations.CountByPlan(ctx, tx, planID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check fee allocations")
			}
			if allocated > 0 {
				return appErrors.Clone(appErrors.ErrConflict, "fee plan amounts cannot change after allocation to students")
			}
		}

		installments, err := ResizeInstallments(current.Installments, req.TotalAmount, count)
		if err != nil {
			return err
		}
		if err := applyInstallmentEdits(installments, req.Installments); err != nil {
			return err
		}

		if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
			current.Name = strings.TrimSpace(*req.Name)
		}
		current.TotalAmount = req.TotalAmount
		current.Frequency = frequency
		current.InstallmentsCount = count
		current.Installments = installments

		if err := s.plans.Update(ctx, tx, current); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee plan")
		}
		if err := s.plans.SyncInstallments(ctx, tx, current.ID, current.Installments); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee installments")
		}
		plan = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveInstallments(count)
	recordAudit(ctx, s.audit, s.logger, auditEntry{
		schoolID:   schoolID,
		actor:      actor,
		action:     models.AuditActionFeePlanUpdate,
		resource:   models.AuditResourceFeePlan,
		resourceID: plan.ID,
		oldValues:  before,
		newValues:  plan,
	})
	return plan, nil
}

// Get returns a plan with its installments.
func (s *FeePlanService) Get(ctx context.Context, schoolID, planID string) (*models.FeePlan, error) {
	plan, err := s.plans.FindByID(ctx, nil, schoolID, planID, false)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee plan")
	}
	return plan, nil
}

// List returns plans and pagination metadata.
func (s *FeePlanService) List(ctx context.Context, schoolID string, query dto.FeePlanQuery) ([]models.FeePlan, *models.Pagination, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.Limit
	if size <= 0 || size > 100 {
		size = 20
	}
	plans, total, err := s.plans.List(ctx, models.FeePlanFilter{
		SchoolID:       schoolID,
		AcademicYearID: query.AcademicYearID,
		CategoryID:     query.CategoryID,
		Page:           page,
		PageSize:       size,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee plans")
	}
	return plans, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *FeePlanService) resolveCount(frequency models.FeeFrequency, requested int) (int, error) {
	count := requested
	if count == 0 {
		count = frequency.DefaultInstallments()
	}
	if count < 1 || count > s.cfg.MaxInstallments {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("installmentsCount must be between 1 and %d", s.cfg.MaxInstallments))
	}
	return count, nil
}

func validateTotal(total decimal.Decimal) error {
	if !total.IsPositive() {
		return appErrors.Clone(appErrors.ErrInvalidAmount, "totalAmount must be greater than zero")
	}
	if !total.Equal(total.Truncate(amountPrecision)) {
		return appErrors.Clone(appErrors.ErrInvalidAmount, "totalAmount supports at most two decimal places")
	}
	return nil
}

// applyInstallmentEdits overlays names and dates keyed by installment number.
func applyInstallmentEdits(installments []models.Installment, edits []dto.InstallmentInput) error {
	for _, edit := range edits {
		if edit.InstallmentNo < 1 || edit.InstallmentNo > len(installments) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("installment %d does not exist", edit.InstallmentNo))
		}
		inst := &installments[edit.InstallmentNo-1]
		if edit.Name != nil && strings.TrimSpace(*edit.Name) != "" {
			inst.Name = strings.TrimSpace(*edit.Name)
		}
		if edit.PeriodStartDate != nil {
			date, err := parseOptionalDate(edit.PeriodStartDate, "periodStartDate")
			if err != nil {
				return err
			}
			inst.PeriodStartDate = date
		}
		if edit.PeriodEndDate != nil {
			date, err := parseOptionalDate(edit.PeriodEndDate, "periodEndDate")
			if err != nil {
				return err
			}
			inst.PeriodEndDate = date
		}
		if edit.DueDate != nil {
			date, err := parseOptionalDate(edit.DueDate, "dueDate")
			if err != nil {
				return err
			}
			inst.DueDate = date
		}
		if inst.PeriodStartDate != nil && inst.PeriodEndDate != nil && inst.PeriodEndDate.Before(*inst.PeriodStartDate) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("installment %d period ends before it starts", edit.InstallmentNo))
		}
	}
	return nil
}
