package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDerivePaymentStatus(t *testing.T) {
	today := time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)
	due := func(raw string) *time.Time {
		d, _ := time.Parse("2006-01-02", raw)
		return &d
	}
	d := decimal.RequireFromString

	cases := []struct {
		name string
		paid string
		due  *time.Time
		want PaymentStatus
	}{
		{name: "nothing paid, no due date", paid: "0", want: PaymentPending},
		{name: "partially paid", paid: "10", due: due("2024-07-01"), want: PaymentPartiallyPaid},
		{name: "fully paid after due date", paid: "50", due: due("2024-01-01"), want: PaymentPaid},
		{name: "past due", paid: "10", due: due("2024-06-09"), want: PaymentOverdue},
		{name: "due today", paid: "0", due: due("2024-06-10"), want: PaymentPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DerivePaymentStatus(d("50"), d(tc.paid), tc.due, today))
		})
	}
}

func TestFeeHelpers(t *testing.T) {
	assert.Equal(t, 12, FrequencyMonthly.DefaultInstallments())
	assert.Equal(t, 1, FrequencyAnnual.DefaultInstallments())
	assert.False(t, FeeFrequency("WEEKLY").Valid())

	assert.True(t, PaymentWaived.Closed())
	assert.False(t, PaymentOverdue.Closed())

	alloc := StudentFeeAllocation{AmountDue: decimal.RequireFromString("25"), AmountPaid: decimal.RequireFromString("30")}
	assert.True(t, alloc.Outstanding().IsZero())
}
