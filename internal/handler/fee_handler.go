package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-routine-api/internal/dto"
	"github.com/noah-isme/sma-routine-api/internal/models"
	appErrors "github.com/noah-isme/sma-routine-api/pkg/errors"
	"github.com/noah-isme/sma-routine-api/pkg/response"
)

type feePlanService interface {
	Create(ctx context.Context, schoolID string, req dto.CreateFeePlanRequest, actor *models.JWTClaims) (*models.FeePlan, error)
	Update(ctx context.Context, schoolID, planID string, req dto.UpdateFeePlanRequest, actor *models.JWTClaims) (*models.FeePlan, error)
	Get(ctx context.Context, schoolID, planID string) (*models.FeePlan, error)
	List(ctx context.Context, schoolID string, query dto.FeePlanQuery) ([]models.FeePlan, *models.Pagination, error)
}

type feeAllocationService interface {
	Allocate(ctx context.Context, schoolID, planID string, req dto.AllocateFeePlanRequest) ([]models.StudentFeeAllocation, error)
	ListForStudent(ctx context.Context, schoolID, studentID string) ([]models.StudentFeeAllocation, error)
	RecordPayment(ctx context.Context, schoolID, allocationID string, req dto.RecordPaymentRequest, actor *models.JWTClaims) (*models.PaymentReceipt, error)
}

// FeeHandler exposes fee plans, student allocations and payments.
type FeeHandler struct {
	plans       feePlanService
	allocations feeAllocationService
}

// NewFeeHandler constructs the handler.
func NewFeeHandler(plans feePlanService, allocations feeAllocationService) *FeeHandler {
	return &FeeHandler{plans: plans, allocations: allocations}
}

// CreatePlan godoc
// @Summary Create a fee plan and distribute its total across installments
// @Tags Fees
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param payload body dto.CreateFeePlanRequest true "Fee plan payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schools/{schoolId}/fee-plans [post]
func (h *FeeHandler) CreatePlan(c *gin.Context) {
	var req dto.CreateFeePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fee plan payload"))
		return
	}
	plan, err := h.plans.Create(c.Request.Context(), schoolFromContext(c), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// UpdatePlan godoc
// @Summary Update a fee plan and rebalance its installments
// @Tags Fees
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param planId path string true "Fee plan ID"
// @Param payload body dto.UpdateFeePlanRequest true "Fee plan payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schools/{schoolId}/fee-plans/{planId} [put]
func (h *FeeHandler) UpdatePlan(c *gin.Context) {
	var req dto.UpdateFeePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fee plan payload"))
		return
	}
	plan, err := h.plans.Update(c.Request.Context(), schoolFromContext(c), c.Param("planId"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// GetPlan godoc
// @Summary Get a fee plan with its installments
// @Tags Fees
// @Produce json
// @Param schoolId path string true "School ID"
// @Param planId path string true "Fee plan ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/fee-plans/{planId} [get]
func (h *FeeHandler) GetPlan(c *gin.Context) {
	plan, err := h.plans.Get(c.Request.Context(), schoolFromContext(c), c.Param("planId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// ListPlans godoc
// @Summary List fee plans
// @Tags Fees
// @Produce json
// @Param schoolId path string true "School ID"
// @Param academicYearId query string false "Academic year filter"
// @Param categoryId query string false "Fee category filter"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/fee-plans [get]
func (h *FeeHandler) ListPlans(c *gin.Context) {
	var query dto.FeePlanQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fee plan query"))
		return
	}
	plans, pagination, err := h.plans.List(c.Request.Context(), schoolFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, pagination)
}

// Allocate godoc
// @Summary Allocate a fee plan's installments to a student
// @Tags Fees
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param planId path string true "Fee plan ID"
// @Param payload body dto.AllocateFeePlanRequest true "Student to allocate"
// @Success 201 {object} response.Envelope
// @Router /schools/{schoolId}/fee-plans/{planId}/allocations [post]
func (h *FeeHandler) Allocate(c *gin.Context) {
	var req dto.AllocateFeePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid allocation payload"))
		return
	}
	allocations, err := h.allocations.Allocate(c.Request.Context(), schoolFromContext(c), c.Param("planId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, allocations)
}

// ListStudentAllocations godoc
// @Summary List a student's fee allocations
// @Tags Fees
// @Produce json
// @Param schoolId path string true "School ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/students/{studentId}/fee-allocations [get]
func (h *FeeHandler) ListStudentAllocations(c *gin.Context) {
	allocations, err := h.allocations.ListForStudent(c.Request.Context(), schoolFromContext(c), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, allocations, nil)
}

// RecordPayment godoc
// @Summary Record a payment against an allocation
// @Tags Fees
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param allocationId path string true "Allocation ID"
// @Param payload body dto.RecordPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schools/{schoolId}/fee-allocations/{allocationId}/payments [post]
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}
	receipt, err := h.allocations.RecordPayment(c.Request.Context(), schoolFromContext(c), c.Param("allocationId"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, receipt)
}
