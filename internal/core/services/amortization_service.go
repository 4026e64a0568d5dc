package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zotta/ledger-core/internal/apperrors"
	"github.com/zotta/ledger-core/internal/core/domain"
	"github.com/zotta/ledger-core/internal/utils/accounting"
)

var twelve = decimal.NewFromInt(12)

// GenerateSchedule computes a reducing-balance amortization schedule: a
// constant installment where each period's interest is charged on the
// outstanding balance, so interest declines and the principal share grows
// over the term. Fees are applied per the injected rule, on top of the
// installment.
//
// The rounding remainder is absorbed into the FINAL installment's principal
// so that the principal column always sums exactly to the loan amount; it is
// never silently distributed across earlier rows.
//
// Pure function: no I/O, no IDs. Callers persist the rows as the loan's
// amortization schedule.
func GenerateSchedule(principal decimal.Decimal, annualRate decimal.Decimal, termMonths int, feeRule domain.FeeRule, firstDueDate time.Time) ([]domain.ScheduleRow, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", apperrors.ErrValidation, principal)
	}
	if termMonths <= 0 {
		return nil, fmt.Errorf("%w: term must be positive, got %d", apperrors.ErrValidation, termMonths)
	}
	if annualRate.IsNegative() {
		return nil, fmt.Errorf("%w: annual rate must not be negative, got %s", apperrors.ErrValidation, annualRate)
	}
	if feeRule.Amount.IsNegative() || feeRule.Percent.IsNegative() {
		return nil, fmt.Errorf("%w: fee rule values must not be negative", apperrors.ErrValidation)
	}

	n := int64(termMonths)
	monthlyRate := annualRate.Div(twelve)

	var installment decimal.Decimal
	if monthlyRate.IsZero() {
		// Zero-rate loans are a straight-line division of principal; the
		// annuity formula would divide by zero.
		installment = accounting.Round(principal.Div(decimal.NewFromInt(n)))
	} else {
		// installment = P * r * (1+r)^n / ((1+r)^n - 1)
		factor := decimal.NewFromInt(1).Add(monthlyRate).Pow(decimal.NewFromInt(n))
		installment = accounting.Round(principal.Mul(monthlyRate).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1))))
	}

	rows := make([]domain.ScheduleRow, 0, termMonths)
	outstanding := principal

	for i := 1; i <= termMonths; i++ {
		interest := accounting.Round(outstanding.Mul(monthlyRate))

		var principalPart decimal.Decimal
		if i == termMonths {
			// Final row absorbs the rounding remainder.
			principalPart = outstanding
		} else {
			principalPart = installment.Sub(interest)
		}

		fee := installmentFee(feeRule, principal, i)
		amountDue := principalPart.Add(interest).Add(fee)
		if amountDue.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: installment %d has non-positive amount due %s", apperrors.ErrValidation, i, amountDue)
		}

		rows = append(rows, domain.ScheduleRow{
			InstallmentNumber: i,
			DueDate:           firstDueDate.AddDate(0, i-1, 0),
			Principal:         principalPart,
			Interest:          interest,
			Fee:               fee,
			AmountDue:         amountDue,
			AmountPaid:        decimal.Zero,
			Status:            domain.InstallmentUpcoming,
		})

		outstanding = outstanding.Sub(principalPart)
	}

	return rows, nil
}

// installmentFee resolves the fee for one installment per the rule.
func installmentFee(rule domain.FeeRule, principal decimal.Decimal, installmentNumber int) decimal.Decimal {
	switch rule.Kind {
	case domain.FeeFlatOnce:
		if installmentNumber == 1 {
			return accounting.Round(rule.Amount)
		}
	case domain.FeeFlatPerInstallment:
		return accounting.Round(rule.Amount)
	case domain.FeePercentOnce:
		if installmentNumber == 1 {
			return accounting.Round(principal.Mul(rule.Percent))
		}
	}
	return decimal.Zero
}
