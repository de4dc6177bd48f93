package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeFrequency is the billing cadence of a fee plan.
type FeeFrequency string

const (
	FrequencyMonthly    FeeFrequency = "MONTHLY"
	FrequencyQuarterly  FeeFrequency = "QUARTERLY"
	FrequencyHalfYearly FeeFrequency = "HALF_YEARLY"
	FrequencyAnnual     FeeFrequency = "ANNUAL"
)

// DefaultInstallments returns the natural installment count of the cadence.
func (f FeeFrequency) DefaultInstallments() int {
	switch f {
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	case FrequencyHalfYearly:
		return 2
	case FrequencyAnnual:
		return 1
	}
	return 0
}

// Valid reports whether the frequency is known.
func (f FeeFrequency) Valid() bool {
	return f.DefaultInstallments() > 0
}

// FeePlan splits a category's total fee for an academic year into installments.
type FeePlan struct {
	ID                string          `db:"id" json:"id"`
	SchoolID          string          `db:"school_id" json:"school_id"`
	AcademicYearID    string          `db:"academic_year_id" json:"academic_year_id"`
	CategoryID        string          `db:"category_id" json:"category_id"`
	Name              string          `db:"name" json:"name"`
	TotalAmount       decimal.Decimal `db:"total_amount" json:"total_amount"`
	Currency          string          `db:"currency" json:"currency"`
	Frequency         FeeFrequency    `db:"frequency" json:"frequency"`
	InstallmentsCount int             `db:"installments_count" json:"installments_count"`
	IsActive          bool            `db:"is_active" json:"is_active"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
	Installments      []Installment   `db:"-" json:"installments"`
}

// Installment is one scheduled partial payment of a fee plan.
type Installment struct {
	ID              string          `db:"id" json:"id"`
	FeePlanID       string          `db:"fee_plan_id" json:"fee_plan_id"`
	InstallmentNo   int             `db:"installment_no" json:"installment_no"`
	Name            string          `db:"name" json:"name"`
	AmountDue       decimal.Decimal `db:"amount_due" json:"amount_due"`
	PeriodStartDate *time.Time      `db:"period_start_date" json:"period_start_date,omitempty"`
	PeriodEndDate   *time.Time      `db:"period_end_date" json:"period_end_date,omitempty"`
	DueDate         *time.Time      `db:"due_date" json:"due_date,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// FeePlanFilter narrows fee plan listings.
type FeePlanFilter struct {
	SchoolID       string
	AcademicYearID string
	CategoryID     string
	Page           int
	PageSize       int
}
