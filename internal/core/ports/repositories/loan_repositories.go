package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zotta/ledger-core/internal/core/domain"
)

// LoanRepositoryFacade defines persistence operations for loans and payments.
type LoanRepositoryFacade interface {
	SaveLoan(ctx context.Context, loan domain.Loan) error
	FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error)

	// FindLoanByIDForUpdate locks the loan row for the duration of the
	// surrounding transaction. The disbursement guard depends on this lock:
	// the already-disbursed check and the disbursed mark happen inside the
	// same atomic unit, not as a separate racy pre-check.
	FindLoanByIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error)

	MarkDisbursed(ctx context.Context, loanID string, disbursedAt time.Time, userID string) error
	UpdateLoanStatus(ctx context.Context, loanID string, status domain.LoanStatus, userID string, updatedAt time.Time) error
	ListLoans(ctx context.Context, limit int, offset int) ([]domain.Loan, error)

	SavePayment(ctx context.Context, payment domain.Payment) error
	FindPaymentByReference(ctx context.Context, loanID string, reference string) (*domain.Payment, error)
}

// ScheduleRepositoryFacade defines persistence operations for amortization
// schedules. All rows of a schedule are created atomically at disbursement.
type ScheduleRepositoryFacade interface {
	SaveScheduleRows(ctx context.Context, rows []domain.ScheduleRow) error
	FindScheduleByLoanID(ctx context.Context, loanID string) ([]domain.ScheduleRow, error)
	UpdateRowPayment(ctx context.Context, rowID string, amountPaid decimal.Decimal, status domain.InstallmentStatus, userID string, updatedAt time.Time) error
}
