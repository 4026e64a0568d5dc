package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zotta/ledger-core/internal/core/domain"
)

// FeeRuleRequest mirrors domain.FeeRule for loan creation payloads.
type FeeRuleRequest struct {
	Kind    domain.FeeKind  `json:"kind" binding:"omitempty,oneof=NONE FLAT_ONCE FLAT_PER_INSTALLMENT PERCENT_ONCE"`
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}

// CreateLoanRequest defines the payload for registering an approved loan.
type CreateLoanRequest struct {
	BorrowerName string          `json:"borrowerName" binding:"required"`
	Principal    decimal.Decimal `json:"principal" binding:"required"`
	AnnualRate   decimal.Decimal `json:"annualRate"`
	TermMonths   int             `json:"termMonths" binding:"required,gt=0"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3"`
	FeeRule      FeeRuleRequest  `json:"feeRule"`
}

// RecordPaymentRequest defines the payload for recording a repayment.
type RecordPaymentRequest struct {
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Reference  string          `json:"reference" binding:"required"`
	ReceivedAt *time.Time      `json:"receivedAt"`
}

// LoanResponse defines the data returned for a loan.
type LoanResponse struct {
	LoanID       string            `json:"loanID"`
	BorrowerName string            `json:"borrowerName"`
	Principal    decimal.Decimal   `json:"principal"`
	AnnualRate   decimal.Decimal   `json:"annualRate"`
	TermMonths   int               `json:"termMonths"`
	CurrencyCode string            `json:"currencyCode"`
	Status       domain.LoanStatus `json:"status"`
	DisbursedAt  *time.Time        `json:"disbursedAt,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// ScheduleRowResponse defines the data returned for one installment.
type ScheduleRowResponse struct {
	InstallmentNumber int                      `json:"installmentNumber"`
	DueDate           time.Time                `json:"dueDate"`
	Principal         decimal.Decimal          `json:"principal"`
	Interest          decimal.Decimal          `json:"interest"`
	Fee               decimal.Decimal          `json:"fee"`
	AmountDue         decimal.Decimal          `json:"amountDue"`
	AmountPaid        decimal.Decimal          `json:"amountPaid"`
	Status            domain.InstallmentStatus `json:"status"`
}

// DisbursementResponse is returned by the disbursement operation.
type DisbursementResponse struct {
	Loan     LoanResponse          `json:"loan"`
	Schedule []ScheduleRowResponse `json:"schedule"`
	Entry    *EntryResponse        `json:"glEntry,omitempty"`
}

// PaymentRecordedResponse is returned by the payment recording operation.
type PaymentRecordedResponse struct {
	Payment  PaymentResponse       `json:"payment"`
	Schedule []ScheduleRowResponse `json:"schedule"`
	Entry    *EntryResponse        `json:"glEntry,omitempty"`
}

// PaymentResponse defines the data returned for a recorded payment.
type PaymentResponse struct {
	PaymentID  string          `json:"paymentID"`
	LoanID     string          `json:"loanID"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

// ToLoanResponse converts a domain.Loan to LoanResponse.
func ToLoanResponse(l *domain.Loan) LoanResponse {
	return LoanResponse{
		LoanID:       l.LoanID,
		BorrowerName: l.BorrowerName,
		Principal:    l.Principal,
		AnnualRate:   l.AnnualRate,
		TermMonths:   l.TermMonths,
		CurrencyCode: l.CurrencyCode,
		Status:       l.Status,
		DisbursedAt:  l.DisbursedAt,
		CreatedAt:    l.CreatedAt,
	}
}

// ToScheduleRowResponses converts schedule rows to response DTOs.
func ToScheduleRowResponses(rows []domain.ScheduleRow) []ScheduleRowResponse {
	responses := make([]ScheduleRowResponse, len(rows))
	for i, r := range rows {
		responses[i] = ScheduleRowResponse{
			InstallmentNumber: r.InstallmentNumber,
			DueDate:           r.DueDate,
			Principal:         r.Principal,
			Interest:          r.Interest,
			Fee:               r.Fee,
			AmountDue:         r.AmountDue,
			AmountPaid:        r.AmountPaid,
			Status:            r.Status,
		}
	}
	return responses
}

// ToPaymentResponse converts a domain.Payment to PaymentResponse.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:  p.PaymentID,
		LoanID:     p.LoanID,
		Amount:     p.Amount,
		Reference:  p.Reference,
		ReceivedAt: p.ReceivedAt,
	}
}

// ToFeeRule converts a request fee rule to its domain form, defaulting to NONE.
func (r FeeRuleRequest) ToFeeRule() domain.FeeRule {
	kind := r.Kind
	if kind == "" {
		kind = domain.FeeNone
	}
	return domain.FeeRule{Kind: kind, Amount: r.Amount, Percent: r.Percent}
}
