package services

import (
	"context"

	"github.com/zotta/ledger-core/internal/core/domain"
	"github.com/zotta/ledger-core/internal/dto"
)

// DisbursementResult is what a successful disbursement produces: the updated
// loan, its freshly materialized schedule, and the GL entry posted for it.
type DisbursementResult struct {
	Loan     *domain.Loan
	Schedule []domain.ScheduleRow
	Entry    *domain.JournalEntry
}

// PaymentResult is what recording a repayment produces. Entry is nil when no
// repayment mapping is configured and policy tolerates that.
type PaymentResult struct {
	Payment  *domain.Payment
	Schedule []domain.ScheduleRow
	Entry    *domain.JournalEntry
}

// LoanSvcFacade drives the loan lifecycle operations that touch the ledger:
// disbursement (schedule generation + GL posting, double-execution guarded)
// and repayment recording.
type LoanSvcFacade interface {
	CreateLoan(ctx context.Context, req dto.CreateLoanRequest, creatorUserID string) (*domain.Loan, error)
	GetLoanByID(ctx context.Context, loanID string) (*domain.Loan, error)
	ListLoans(ctx context.Context, limit int, offset int) ([]domain.Loan, error)
	Disburse(ctx context.Context, loanID string, userID string) (*DisbursementResult, error)
	RecordPayment(ctx context.Context, loanID string, req dto.RecordPaymentRequest, userID string) (*PaymentResult, error)
	GetSchedule(ctx context.Context, loanID string) ([]domain.ScheduleRow, error)
}
