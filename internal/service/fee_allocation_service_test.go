package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-routine-api/internal/dto"
	"github.com/noah-isme/sma-routine-api/internal/models"
	appErrors "github.com/noah-isme/sma-routine-api/pkg/errors"
)

type allocationStoreStub struct {
	rows     map[string]models.StudentFeeAllocation
	payments []models.FeePayment
}

func newAllocationStoreStub() *allocationStoreStub {
	return &allocationStoreStub{rows: map[string]models.StudentFeeAllocation{}}
}

func (s *allocationStoreStub) CreateBatch(ctx context.Context, exec sqlx.ExtContext, allocations []models.StudentFeeAllocation) (int64, error) {
	var inserted int64
	for _, alloc := range allocations {
		duplicate := false
		for _, row := range s.rows {
			if row.StudentID == alloc.StudentID && row.InstallmentID == alloc.InstallmentID {
				duplicate = true
			}
		}
		if duplicate {
			continue
		}
		alloc.ID = fmt.Sprintf("alloc-%s-%s", alloc.StudentID, alloc.InstallmentID)
		s.rows[alloc.ID] = alloc
		inserted++
	}
	return inserted, nil
}

func (s *allocationStoreStub) ListByStudent(ctx context.Context, schoolID, studentID, planID string) ([]models.StudentFeeAllocation, error) {
	var out []models.StudentFeeAllocation
	for _, row := range s.rows {
		if row.SchoolID == schoolID && row.StudentID == studentID && (planID == "" || row.FeePlanID == planID) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstallmentNo < out[j].InstallmentNo })
	return out, nil
}

func (s *allocationStoreStub) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, schoolID, id string) (*models.StudentFeeAllocation, error) {
	row, ok := s.rows[id]
	if !ok || row.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (s *allocationStoreStub) UpdatePayment(ctx context.Context, exec sqlx.ExtContext, alloc *models.StudentFeeAllocation) error {
	s.rows[alloc.ID] = *alloc
	return nil
}

func (s *allocationStoreStub) CreatePayment(ctx context.Context, exec sqlx.ExtContext, payment *models.FeePayment) error {
	payment.ID = fmt.Sprintf("pay-%d", len(s.payments)+1)
	s.payments = append(s.payments, *payment)
	return nil
}

func datePtr(raw string) *time.Time {
	d, _ := time.Parse(dateLayout, raw)
	return &d
}

func newAllocationFixture(t *testing.T) (*FeeAllocationService, *feePlanStoreStub, *allocationStoreStub, *auditLoggerStub, func(commit bool)) {
	t.Helper()
	tx, mock := newTxProviderMock(t)
	plans := newFeePlanStoreStub()
	plans.store(models.FeePlan{
		ID: "plan-1", SchoolID: testSchool, IsActive: true, InstallmentsCount: 2,
		TotalAmount: decimal.RequireFromString("100"),
		Installments: []models.Installment{
			{ID: "i1", InstallmentNo: 1, AmountDue: decimal.RequireFromString("50"), DueDate: datePtr("2024-04-10")},
			{ID: "i2", InstallmentNo: 2, AmountDue: decimal.RequireFromString("50"), DueDate: datePtr("2024-10-10")},
		},
	})
	plans.store(models.FeePlan{ID: "plan-off", SchoolID: testSchool, IsActive: false})
	allocations := newAllocationStoreStub()
	audit := &auditLoggerStub{}
	svc := NewFeeAllocationService(plans, allocations, tx, audit, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	expect := func(commit bool) {
		mock.ExpectBegin()
		if commit {
			mock.ExpectCommit()
		} else {
			mock.ExpectRollback()
		}
	}
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return svc, plans, allocations, audit, expect
}

func TestFeeAllocationServiceAllocateCopiesInstallments(t *testing.T) {
	svc, _, store, _, expect := newAllocationFixture(t)
	expect(true)

	rows, err := svc.Allocate(context.Background(), testSchool, "plan-1", dto.AllocateFeePlanRequest{StudentID: "stu-1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "i1", rows[0].InstallmentID)
	assert.Equal(t, "50", rows[0].AmountDue.String())
	// first installment fell due in April
	assert.Equal(t, models.PaymentOverdue, rows[0].Status)
	assert.Equal(t, models.PaymentPending, rows[1].Status)
	assert.Equal(t, models.PaymentPending, store.rows[rows[0].ID].Status)

	expect(true)
	again, err := svc.Allocate(context.Background(), testSchool, "plan-1", dto.AllocateFeePlanRequest{StudentID: "stu-1"})
	require.NoError(t, err)
	assert.Len(t, again, 2)
	assert.Len(t, store.rows, 2)
}

func TestFeeAllocationServiceAllocateRejectsMissingOrInactivePlan(t *testing.T) {
	svc, _, _, _, expect := newAllocationFixture(t)

	expect(false)
	_, err := svc.Allocate(context.Background(), testSchool, "nope", dto.AllocateFeePlanRequest{StudentID: "stu-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	expect(false)
	_, err = svc.Allocate(context.Background(), testSchool, "plan-off", dto.AllocateFeePlanRequest{StudentID: "stu-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Allocate(context.Background(), testSchool, "plan-1", dto.AllocateFeePlanRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeeAllocationServiceRecordPayment(t *testing.T) {
	svc, _, store, audit, expect := newAllocationFixture(t)
	expect(true)
	rows, err := svc.Allocate(context.Background(), testSchool, "plan-1", dto.AllocateFeePlanRequest{StudentID: "stu-1"})
	require.NoError(t, err)
	allocationID := rows[1].ID

	expect(true)
	receipt, err := svc.RecordPayment(context.Background(), testSchool, allocationID, dto.RecordPaymentRequest{
		Amount: decimal.RequireFromString("20.50"),
		Method: "UPI",
	}, &models.JWTClaims{UserID: "cashier"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPartiallyPaid, receipt.Allocation.Status)
	assert.Equal(t, "29.50", receipt.Allocation.Outstanding().StringFixed(2))
	assert.Equal(t, "pay-1", receipt.Payment.ID)
	require.NotNil(t, receipt.Payment.RecordedBy)
	assert.Equal(t, "cashier", *receipt.Payment.RecordedBy)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionFeePayment, audit.logs[0].Action)

	expect(false)
	_, err = svc.RecordPayment(context.Background(), testSchool, allocationID, dto.RecordPaymentRequest{
		Amount: decimal.RequireFromString("30"),
		Method: "CASH",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidAmount.Code, appErrors.FromError(err).Code)

	expect(true)
	receipt, err = svc.RecordPayment(context.Background(), testSchool, allocationID, dto.RecordPaymentRequest{
		Amount: decimal.RequireFromString("29.50"),
		Method: "CASH",
		PaidAt: "2024-05-30",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, receipt.Allocation.Status)
	assert.Equal(t, "2024-05-30", receipt.Payment.PaidAt.Format(dateLayout))
	assert.Equal(t, models.PaymentPaid, store.rows[allocationID].Status)
	assert.Len(t, store.payments, 2)
}

func TestFeeAllocationServiceRecordPaymentGuards(t *testing.T) {
	svc, _, store, _, expect := newAllocationFixture(t)
	store.rows["waived"] = models.StudentFeeAllocation{
		ID: "waived", SchoolID: testSchool, AmountDue: decimal.RequireFromString("10"), Status: models.PaymentWaived,
	}

	cases := []struct {
		name string
		amt  string
		code string
	}{
		{name: "zero", amt: "0", code: appErrors.ErrInvalidAmount.Code},
		{name: "negative", amt: "-1", code: appErrors.ErrInvalidAmount.Code},
		{name: "fractional cents", amt: "1.001", code: appErrors.ErrInvalidAmount.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordPayment(context.Background(), testSchool, "waived", dto.RecordPaymentRequest{
				Amount: decimal.RequireFromString(tc.amt),
				Method: "CASH",
			}, nil)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}

	expect(false)
	_, err := svc.RecordPayment(context.Background(), testSchool, "waived", dto.RecordPaymentRequest{
		Amount: decimal.RequireFromString("5"),
		Method: "CASH",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	expect(false)
	_, err = svc.RecordPayment(context.Background(), testSchool, "missing", dto.RecordPaymentRequest{
		Amount: decimal.RequireFromString("5"),
		Method: "CASH",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.RecordPayment(context.Background(), testSchool, "waived", dto.RecordPaymentRequest{
		Amount: decimal.RequireFromString("5"),
		Method: "BARTER",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeeAllocationServiceListKeepsClosedStatuses(t *testing.T) {
	svc, _, store, _, _ := newAllocationFixture(t)
	store.rows["a"] = models.StudentFeeAllocation{
		ID: "a", SchoolID: testSchool, StudentID: "stu-9", InstallmentNo: 1,
		AmountDue: decimal.RequireFromString("10"), DueDate: datePtr("2024-01-01"), Status: models.PaymentWaived,
	}
	store.rows["b"] = models.StudentFeeAllocation{
		ID: "b", SchoolID: testSchool, StudentID: "stu-9", InstallmentNo: 2,
		AmountDue: decimal.RequireFromString("10"), AmountPaid: decimal.RequireFromString("4"), DueDate: datePtr("2024-06-01"), Status: models.PaymentPartiallyPaid,
	}

	rows, err := svc.ListForStudent(context.Background(), testSchool, "stu-9")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.PaymentWaived, rows[0].Status)
	// due today is not overdue
	assert.Equal(t, models.PaymentPartiallyPaid, rows[1].Status)
}
