package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-routine-api/internal/dto"
	"github.com/noah-isme/sma-routine-api/internal/models"
	appErrors "github.com/noah-isme/sma-routine-api/pkg/errors"
)

type fakeFeePlanService struct {
	created   dto.CreateFeePlanRequest
	query     dto.FeePlanQuery
	updatedID string
	err       error
}

func (f *fakeFeePlanService) Create(ctx context.Context, schoolID string, req dto.CreateFeePlanRequest, actor *models.JWTClaims) (*models.FeePlan, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.FeePlan{ID: "plan-1", SchoolID: schoolID, TotalAmount: req.TotalAmount}, nil
}

func (f *fakeFeePlanService) Update(ctx context.Context, schoolID, planID string, req dto.UpdateFeePlanRequest, actor *models.JWTClaims) (*models.FeePlan, error) {
	f.updatedID = planID
	if f.err != nil {
		return nil, f.err
	}
	return &models.FeePlan{ID: planID}, nil
}

func (f *fakeFeePlanService) Get(ctx context.Context, schoolID, planID string) (*models.FeePlan, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.FeePlan{ID: planID}, nil
}

func (f *fakeFeePlanService) List(ctx context.Context, schoolID string, query dto.FeePlanQuery) ([]models.FeePlan, *models.Pagination, error) {
	f.query = query
	return []models.FeePlan{{ID: "plan-1"}}, &models.Pagination{Page: 2, PageSize: 5, TotalCount: 6}, f.err
}

type fakeAllocationService struct {
	planID    string
	studentID string
	payment   dto.RecordPaymentRequest
	err       error
}

func (f *fakeAllocationService) Allocate(ctx context.Context, schoolID, planID string, req dto.AllocateFeePlanRequest) ([]models.StudentFeeAllocation, error) {
	f.planID = planID
	f.studentID = req.StudentID
	return []models.StudentFeeAllocation{{ID: "alloc-1", FeePlanID: planID}}, f.err
}

func (f *fakeAllocationService) ListForStudent(ctx context.Context, schoolID, studentID string) ([]models.StudentFeeAllocation, error) {
	f.studentID = studentID
	return []models.StudentFeeAllocation{{ID: "alloc-1", Status: models.PaymentOverdue}}, f.err
}

func (f *fakeAllocationService) RecordPayment(ctx context.Context, schoolID, allocationID string, req dto.RecordPaymentRequest, actor *models.JWTClaims) (*models.PaymentReceipt, error) {
	f.payment = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.PaymentReceipt{Payment: models.FeePayment{ID: "pay-1", AllocationID: allocationID, Amount: req.Amount}}, nil
}

func TestFeeHandlerCreatePlanParsesDecimalAmounts(t *testing.T) {
	plans := &fakeFeePlanService{}
	handler := NewFeeHandler(plans, &fakeAllocationService{})

	c, rec := newTestContext(http.MethodPost, "/schools/school-1/fee-plans",
		`{"academicYearId":"ay","categoryId":"tuition","totalAmount":"100.00","frequency":"QUARTERLY","installmentsCount":3}`)
	handler.CreatePlan(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, plans.created.TotalAmount.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, 3, plans.created.InstallmentsCount)
}

func TestFeeHandlerCreatePlanMapsInvalidAmount(t *testing.T) {
	handler := NewFeeHandler(&fakeFeePlanService{err: appErrors.Clone(appErrors.ErrInvalidAmount, "totalAmount must be greater than zero")}, &fakeAllocationService{})

	c, rec := newTestContext(http.MethodPost, "/schools/school-1/fee-plans",
		`{"academicYearId":"ay","categoryId":"tuition","totalAmount":0,"frequency":"ANNUAL"}`)
	handler.CreatePlan(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_AMOUNT", decodeEnvelope(t, rec).Error.Code)
}

func TestFeeHandlerUpdateAndGetPlan(t *testing.T) {
	plans := &fakeFeePlanService{}
	handler := NewFeeHandler(plans, &fakeAllocationService{})

	c, rec := newTestContext(http.MethodPut, "/schools/school-1/fee-plans/plan-7", `{"totalAmount":50,"frequency":"ANNUAL"}`)
	c.Params = append(c.Params, gin.Param{Key: "planId", Value: "plan-7"})
	handler.UpdatePlan(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "plan-7", plans.updatedID)

	plans.err = appErrors.Clone(appErrors.ErrNotFound, "fee plan not found")
	c, rec = newTestContext(http.MethodGet, "/schools/school-1/fee-plans/plan-8", nil)
	c.Params = append(c.Params, gin.Param{Key: "planId", Value: "plan-8"})
	handler.GetPlan(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeeHandlerListPlansReturnsPagination(t *testing.T) {
	plans := &fakeFeePlanService{}
	handler := NewFeeHandler(plans, &fakeAllocationService{})

	c, rec := newTestContext(http.MethodGet, "/schools/school-1/fee-plans?academicYearId=ay&page=2&limit=5", nil)
	handler.ListPlans(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ay", plans.query.AcademicYearID)
	assert.Equal(t, 2, plans.query.Page)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 6, env.Pagination.TotalCount)
}

func TestFeeHandlerAllocationRoutes(t *testing.T) {
	allocations := &fakeAllocationService{}
	handler := NewFeeHandler(&fakeFeePlanService{}, allocations)

	c, rec := newTestContext(http.MethodPost, "/schools/school-1/fee-plans/plan-1/allocations", map[string]string{"studentId": "stu-1"})
	c.Params = append(c.Params, gin.Param{Key: "planId", Value: "plan-1"})
	handler.Allocate(c)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "plan-1", allocations.planID)
	assert.Equal(t, "stu-1", allocations.studentID)

	c, rec = newTestContext(http.MethodGet, "/schools/school-1/students/stu-2/fee-allocations", nil)
	c.Params = append(c.Params, gin.Param{Key: "studentId", Value: "stu-2"})
	handler.ListStudentAllocations(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), "OVERDUE")

	c, rec = newTestContext(http.MethodPost, "/schools/school-1/fee-allocations/alloc-1/payments", `{"amount":"12.50","method":"CASH"}`)
	c.Params = append(c.Params, gin.Param{Key: "allocationId", Value: "alloc-1"})
	handler.RecordPayment(c)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "12.5", allocations.payment.Amount.String())
}

func TestFeeHandlerRecordPaymentHidesInternalErrors(t *testing.T) {
	handler := NewFeeHandler(&fakeFeePlanService{}, &fakeAllocationService{err: errors.New("connection reset")})

	c, rec := newTestContext(http.MethodPost, "/schools/school-1/fee-allocations/alloc-1/payments", `{"amount":1,"method":"CASH"}`)
	c.Params = append(c.Params, gin.Param{Key: "allocationId", Value: "alloc-1"})
	handler.RecordPayment(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}
