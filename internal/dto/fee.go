package dto

import "github.com/shopspring/decimal"

// InstallmentInput edits the non-amount fields of one installment.
type InstallmentInput struct {
	InstallmentNo   int     `json:"installmentNo" validate:"required,min=1,max=12"`
	Name            *string `json:"name" validate:"omitempty,max=100"`
	PeriodStartDate *string `json:"periodStartDate" validate:"omitempty,datetime=2006-01-02"`
	PeriodEndDate   *string `json:"periodEndDate" validate:"omitempty,datetime=2006-01-02"`
	DueDate         *string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

// CreateFeePlanRequest creates a plan and distributes its total across installments.
// A zero InstallmentsCount falls back to the frequency's natural count.
type CreateFeePlanRequest struct {
	AcademicYearID    string             `json:"academicYearId" validate:"required"`
	CategoryID        string             `json:"categoryId" validate:"required"`
	Name              string             `json:"name" validate:"omitempty,max=150"`
	TotalAmount       decimal.Decimal    `json:"totalAmount"`
	Frequency         string             `json:"frequency" validate:"required,oneof=MONTHLY QUARTERLY HALF_YEARLY ANNUAL"`
	InstallmentsCount int                `json:"installmentsCount" validate:"min=0,max=12"`
	Installments      []InstallmentInput `json:"installments" validate:"omitempty,max=12,dive"`
}

// UpdateFeePlanRequest changes the total, cadence or count and rebalances amounts.
type UpdateFeePlanRequest struct {
	Name              *string            `json:"name" validate:"omitempty,max=150"`
	TotalAmount       decimal.Decimal    `json:"totalAmount"`
	Frequency         string             `json:"frequency" validate:"required,oneof=MONTHLY QUARTERLY HALF_YEARLY ANNUAL"`
	InstallmentsCount int                `json:"installmentsCount" validate:"min=0,max=12"`
	Installments      []InstallmentInput `json:"installments" validate:"omitempty,max=12,dive"`
}

// AllocateFeePlanRequest assigns a plan's installments to a student.
type AllocateFeePlanRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

// RecordPaymentRequest registers money received against an allocation.
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    string          `json:"paidAt" validate:"omitempty,datetime=2006-01-02"`
	Method    string          `json:"method" validate:"required,oneof=CASH CARD BANK_TRANSFER UPI CHEQUE ONLINE"`
	Reference *string         `json:"reference" validate:"omitempty,max=100"`
}

// FeePlanQuery filters fee plan listings.
type FeePlanQuery struct {
	AcademicYearID string `form:"academicYearId"`
	CategoryID     string `form:"categoryId"`
	Page           int    `form:"page"`
	Limit          int    `form:"limit"`
}
