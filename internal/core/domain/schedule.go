package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeKind selects how loan fees are applied to the schedule. Fee rules are
// configuration carried on the loan, not logic compiled into the engine.
type FeeKind string

const (
	FeeNone               FeeKind = "NONE"
	FeeFlatOnce           FeeKind = "FLAT_ONCE"            // Flat amount added to the first installment
	FeeFlatPerInstallment FeeKind = "FLAT_PER_INSTALLMENT" // Flat amount added to every installment
	FeePercentOnce        FeeKind = "PERCENT_ONCE"         // Percentage of principal added to the first installment
)

// FeeRule describes the fee policy applied when generating a schedule.
type FeeRule struct {
	Kind    FeeKind         `json:"kind"`
	Amount  decimal.Decimal `json:"amount"`  // Used by FLAT_* kinds
	Percent decimal.Decimal `json:"percent"` // Used by PERCENT_ONCE, e.g. 0.01 for 1%
}

// InstallmentStatus indicates the repayment state of a schedule row.
type InstallmentStatus string

const (
	InstallmentUpcoming      InstallmentStatus = "UPCOMING"
	InstallmentPaid          InstallmentStatus = "PAID"
	InstallmentPartiallyPaid InstallmentStatus = "PARTIALLY_PAID"
	InstallmentOverdue       InstallmentStatus = "OVERDUE"
)

// ScheduleRow is one installment of a loan's amortization schedule. Rows are
// created atomically at disbursement and thereafter mutated only by payment
// recording; the schedule is never regenerated once a payment exists.
type ScheduleRow struct {
	RowID             string            `json:"rowID"` // Primary key (UUID)
	LoanID            string            `json:"loanID"`
	InstallmentNumber int               `json:"installmentNumber"` // 1..N, unique per loan
	DueDate           time.Time         `json:"dueDate"`
	Principal         decimal.Decimal   `json:"principal"`
	Interest          decimal.Decimal   `json:"interest"`
	Fee               decimal.Decimal   `json:"fee"`
	AmountDue         decimal.Decimal   `json:"amountDue"` // principal + interest + fee
	AmountPaid        decimal.Decimal   `json:"amountPaid"`
	Status            InstallmentStatus `json:"status"`
	AuditFields
}

// Outstanding returns the unpaid portion of the installment.
func (r ScheduleRow) Outstanding() decimal.Decimal {
	return r.AmountDue.Sub(r.AmountPaid)
}
