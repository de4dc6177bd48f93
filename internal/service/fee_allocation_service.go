package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-routine-api/internal/dto"
	"github.com/noah-isme/sma-routine-api/internal/models"
	appErrors "github.com/noah-isme/sma-routine-api/pkg/errors"
)

type feePlanReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, schoolID, id string, forUpdate bool) (*models.FeePlan, error)
}

type feeAllocationStore interface {
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, allocations []models.StudentFeeAllocation) (int64, error)
	ListByStudent(ctx context.Context, schoolID, studentID, planID string) ([]models.StudentFeeAllocation, error)
	FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, schoolID, id string) (*models.StudentFeeAllocation, error)
	UpdatePayment(ctx context.Context, exec sqlx.ExtContext, alloc *models.StudentFeeAllocation) error
	CreatePayment(ctx context.Context, exec sqlx.ExtContext, payment *models.FeePayment) error
}

// FeeAllocationService copies plan installments to students and reconciles payments.
type FeeAllocationService struct {
	plans       feePlanReader
	allocations feeAllocationStore
	tx          txProvider
	audit       auditLogger
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewFeeAllocationService constructs a FeeAllocationService.
func NewFeeAllocationService(plans feePlanReader, allocations feeAllocationStore, tx txProvider, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *FeeAllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeAllocationService{
		plans:       plans,
		allocations: allocations,
		tx:          tx,
		audit:       audit,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Allocate assigns every installment of a plan to a student. Existing allocations are kept.
func (s *FeeAllocationService) Allocate(ctx context.Context, schoolID, planID string, req dto.AllocateFeePlanRequest) ([]models.StudentFeeAllocation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}

	err := runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		plan, err := s.plans.FindByID(ctx, tx, schoolID, planID, true)
		if err != nil {
			if isNoRows(err) {
				return appErrors.Clone(appErrors.ErrNotFound, "fee plan not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee plan")
		}
		if !plan.IsActive {
			return appErrors.Clone(appErrors.ErrConflict, "fee plan is inactive")
		}

		allocations := make([]models.StudentFeeAllocation, 0, len(plan.Installments))
		for _, inst := range plan.Installments {
			allocations = append(allocations, models.StudentFeeAllocation{
				SchoolID:      schoolID,
				StudentID:     req.StudentID,
				FeePlanID:     plan.ID,
				InstallmentID: inst.ID,
				InstallmentNo: inst.InstallmentNo,
				AmountDue:     inst.AmountDue,
				DueDate:       inst.DueDate,
				Status:        models.PaymentPending,
			})
		}
		inserted, err := s.allocations.CreateBatch(ctx, tx, allocations)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate fee plan")
		}
		s.logger.Info("fee plan allocated",
			zap.String("school_id", schoolID),
			zap.String("fee_plan_id", plan.ID),
			zap.String("student_id", req.StudentID),
			zap.Int64("inserted", inserted),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.list(ctx, schoolID, req.StudentID, planID)
}

// ListForStudent returns a student's allocations with OVERDUE derived from today's date.
func (s *FeeAllocationService) ListForStudent(ctx context.Context, schoolID, studentID string) ([]models.StudentFeeAllocation, error) {
	return s.list(ctx, schoolID, studentID, "")
}

func (s *FeeAllocationService) list(ctx context.Context, schoolID, studentID, planID string) ([]models.StudentFeeAllocation, error) {
	allocations, err := s.allocations.ListByStudent(ctx, schoolID, studentID, planID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee allocations")
	}
	today := s.now()
	for i := range allocations {
		if !allocations[i].Status.Closed() {
			allocations[i].Status = models.DerivePaymentStatus(allocations[i].AmountDue, allocations[i].AmountPaid, allocations[i].DueDate, today)
		}
	}
	return allocations, nil
}

// RecordPayment applies a payment to an allocation. Overpayment is rejected.
func (s *FeeAllocationService) RecordPayment(ctx context.Context, schoolID, allocationID string, req dto.RecordPaymentRequest, actor *models.JWTClaims) (*models.PaymentReceipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if !req.Amount.IsPositive() || !req.Amount.Equal(req.Amount.Truncate(amountPrecision)) {
		return nil, appErrors.Clone(appErrors.ErrInvalidAmount, "amount must be positive with at most two decimal places")
	}
	paidAt := s.now().UTC()
	if req.PaidAt != "" {
		date, err := parseDate(req.PaidAt, "paidAt")
		if err != nil {
			return nil, err
		}
		paidAt = date
	}

	receipt := &models.PaymentReceipt{}
	err := runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		alloc, err := s.allocations.FindByIDForUpdate(ctx, tx, schoolID, allocationID)
		if err != nil {
			if isNoRows(err) {
				return appErrors.Clone(appErrors.ErrNotFound, "fee allocation not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee allocation")
		}
		if alloc.Status.Closed() {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "allocation is "+string(alloc.Status)+" and accepts no payments")
		}
		if req.Amount.GreaterThan(alloc.Outstanding()) {
			return appErrors.Clone(appErrors.ErrInvalidAmount, "payment exceeds the outstanding amount of "+alloc.Outstanding().StringFixed(amountPrecision))
		}

		payment := models.FeePayment{
			SchoolID:     schoolID,
			AllocationID: alloc.ID,
			Amount:       req.Amount,
			PaidAt:       paidAt,
			Method:       req.Method,
			Reference:    normalizeOptional(req.Reference),
		}
		if actor != nil && actor.UserID != "" {
			userID := actor.UserID
			payment.RecordedBy = &userID
		}
		if err := s.allocations.CreatePayment(ctx, tx, &payment); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
		}

		alloc.AmountPaid = alloc.AmountPaid.Add(req.Amount)
		// stored status never carries OVERDUE; it is derived on read
		alloc.Status = models.DerivePaymentStatus(alloc.AmountDue, alloc.AmountPaid, nil, paidAt)
		if err := s.allocations.UpdatePayment(ctx, tx, alloc); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee allocation")
		}
		receipt.Payment = payment
		receipt.Allocation = *alloc
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, auditEntry{
		schoolID:   schoolID,
		actor:      actor,
		action:     models.AuditActionFeePayment,
		resource:   models.AuditResourceFeePayment,
		resourceID: receipt.Payment.ID,
		newValues:  receipt,
	})
	return receipt, nil
}
