package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks how much of an allocated installment has been settled.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "PENDING"
	PaymentPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid          PaymentStatus = "PAID"
	PaymentOverdue       PaymentStatus = "OVERDUE"
	PaymentWaived        PaymentStatus = "WAIVED"
	PaymentCancelled     PaymentStatus = "CANCELLED"
)

// Closed reports whether the allocation no longer accepts payments.
func (s PaymentStatus) Closed() bool {
	return s == PaymentWaived || s == PaymentCancelled
}

// DerivePaymentStatus reconciles the paid amount against the installment amount.
// Due dates are compared by calendar day; an installment due today is not overdue.
func DerivePaymentStatus(amountDue, amountPaid decimal.Decimal, dueDate *time.Time, today time.Time) PaymentStatus {
	switch {
	case amountPaid.GreaterThanOrEqual(amountDue):
		return PaymentPaid
	case dueDate != nil && truncateDay(*dueDate).Before(truncateDay(today)):
		return PaymentOverdue
	case amountPaid.IsPositive():
		return PaymentPartiallyPaid
	default:
		return PaymentPending
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StudentFeeAllocation is a student's copy of one fee plan installment.
type StudentFeeAllocation struct {
	ID            string          `db:"id" json:"id"`
	SchoolID      string          `db:"school_id" json:"school_id"`
	StudentID     string          `db:"student_id" json:"student_id"`
	FeePlanID     string          `db:"fee_plan_id" json:"fee_plan_id"`
	InstallmentID string          `db:"installment_id" json:"installment_id"`
	InstallmentNo int             `db:"installment_no" json:"installment_no"`
	AmountDue     decimal.Decimal `db:"amount_due" json:"amount_due"`
	AmountPaid    decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	DueDate       *time.Time      `db:"due_date" json:"due_date,omitempty"`
	Status        PaymentStatus   `db:"status" json:"status"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Outstanding returns the unpaid remainder, never negative.
func (a StudentFeeAllocation) Outstanding() decimal.Decimal {
	rest := a.AmountDue.Sub(a.AmountPaid)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// FeePayment records money received against an allocation.
type FeePayment struct {
	ID           string          `db:"id" json:"id"`
	SchoolID     string          `db:"school_id" json:"school_id"`
	AllocationID string          `db:"allocation_id" json:"allocation_id"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	PaidAt       time.Time       `db:"paid_at" json:"paid_at"`
	Method       string          `db:"method" json:"method"`
	Reference    *string         `db:"reference" json:"reference,omitempty"`
	RecordedBy   *string         `db:"recorded_by" json:"recorded_by,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// PaymentReceipt pairs a recorded payment with the allocation it settled.
type PaymentReceipt struct {
	Payment    FeePayment           `json:"payment"`
	Allocation StudentFeeAllocation `json:"allocation"`
}
