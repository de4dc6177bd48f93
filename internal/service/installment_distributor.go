package service

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-routine-api/internal/models"
	appErrors "github.com/noah-isme/sma-routine-api/pkg/errors"
)

const amountPrecision = 2

// DistributeInstallments splits total into count amounts. Every amount but the last is
// total/count truncated to cents; the last absorbs the remainder so the sum is exact.
func DistributeInstallments(total decimal.Decimal, count int) ([]decimal.Decimal, error) {
	if total.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrInvalidAmount, "total amount must not be negative")
	}
	if count < 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidAmount, "installments count must not be negative")
	}
	if count == 0 {
		return []decimal.Decimal{}, nil
	}

	base, _ := total.QuoRem(decimal.NewFromInt(int64(count)), amountPrecision)
	remainder := total.Sub(base.Mul(decimal.NewFromInt(int64(count))))

	amounts := make([]decimal.Decimal, count)
	for i := range amounts {
		amounts[i] = base
	}
	amounts[count-1] = base.Add(remainder)
	return amounts, nil
}

// ResizeInstallments keeps the first count installments with their ids, names and
// dates, appends new ones named "Installment {n}" and redistributes every amount.
func ResizeInstallments(existing []models.Installment, total decimal.Decimal, count int) ([]models.Installment, error) {
	amounts, err := DistributeInstallments(total, count)
	if err != nil {
		return nil, err
	}

	ordered := make([]models.Installment, len(existing))
	copy(ordered, existing)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].InstallmentNo < ordered[j].InstallmentNo })

	result := make([]models.Installment, count)
	for i := 0; i < count; i++ {
		if i < len(ordered) {
			result[i] = ordered[i]
		} else {
			result[i] = models.Installment{Name: defaultInstallmentName(i + 1)}
		}
		result[i].InstallmentNo = i + 1
		result[i].AmountDue = amounts[i]
	}
	return result, nil
}

func defaultInstallmentName(n int) string {
	return fmt.Sprintf("Installment %d", n)
}
