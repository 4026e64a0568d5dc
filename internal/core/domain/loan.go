package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus indicates where a loan sits in its lifecycle. Origination and
// underwriting happen upstream; the ledger core only cares about the
// approved -> disbursed -> closed tail.
type LoanStatus string

const (
	LoanApproved  LoanStatus = "APPROVED"
	LoanDisbursed LoanStatus = "DISBURSED"
	LoanClosed    LoanStatus = "CLOSED"
)

// Loan is the slice of the loan aggregate the ledger core needs: enough to
// generate an amortization schedule and to guard disbursement.
type Loan struct {
	LoanID       string          `json:"loanID"` // Primary key (UUID)
	BorrowerName string          `json:"borrowerName"`
	Principal    decimal.Decimal `json:"principal"`
	AnnualRate   decimal.Decimal `json:"annualRate"` // e.g. 0.12 for 12% p.a.
	TermMonths   int             `json:"termMonths"`
	CurrencyCode string          `json:"currencyCode"`
	FeeRule      FeeRule         `json:"feeRule"`
	Status       LoanStatus      `json:"status"`
	DisbursedAt  *time.Time      `json:"disbursedAt,omitempty"`
	AuditFields
}

// Payment records a repayment applied to a loan. The external reference is
// the idempotency key: recording the same reference twice is a no-op.
type Payment struct {
	PaymentID  string          `json:"paymentID"` // Primary key (UUID)
	LoanID     string          `json:"loanID"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference"` // External payment reference, unique per loan
	ReceivedAt time.Time       `json:"receivedAt"`
	AuditFields
}
