package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zotta/ledger-core/internal/apperrors"
	"github.com/zotta/ledger-core/internal/core/domain"
	portsrepo "github.com/zotta/ledger-core/internal/core/ports/repositories"
	"github.com/zotta/ledger-core/internal/models"
)

type PgxLoanRepository struct {
	BaseRepository
}

// newPgxLoanRepository creates a new repository for loans and payments.
func newPgxLoanRepository(pool *pgxpool.Pool) portsrepo.LoanRepositoryFacade {
	return &PgxLoanRepository{BaseRepository{pool: pool}}
}

var _ portsrepo.LoanRepositoryFacade = (*PgxLoanRepository)(nil)

func toModelLoan(d domain.Loan) models.Loan {
	return models.Loan{
		LoanID:       d.LoanID,
		BorrowerName: d.BorrowerName,
		Principal:    d.Principal,
		AnnualRate:   d.AnnualRate,
		TermMonths:   d.TermMonths,
		CurrencyCode: d.CurrencyCode,
		FeeKind:      string(d.FeeRule.Kind),
		FeeAmount:    d.FeeRule.Amount,
		FeePercent:   d.FeeRule.Percent,
		Status:       string(d.Status),
		DisbursedAt:  d.DisbursedAt,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainLoan(m models.Loan) domain.Loan {
	return domain.Loan{
		LoanID:       m.LoanID,
		BorrowerName: m.BorrowerName,
		Principal:    m.Principal,
		AnnualRate:   m.AnnualRate,
		TermMonths:   m.TermMonths,
		CurrencyCode: m.CurrencyCode,
		FeeRule: domain.FeeRule{
			Kind:    domain.FeeKind(m.FeeKind),
			Amount:  m.FeeAmount,
			Percent: m.FeePercent,
		},
		Status:      domain.LoanStatus(m.Status),
		DisbursedAt: m.DisbursedAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const loanColumns = `loan_id, borrower_name, principal, annual_rate, term_months, currency_code,
	fee_kind, fee_amount, fee_percent, status, disbursed_at,
	created_at, created_by, last_updated_at, last_updated_by`

func scanLoan(row pgx.Row) (models.Loan, error) {
	var m models.Loan
	err := row.Scan(
		&m.LoanID, &m.BorrowerName, &m.Principal, &m.AnnualRate, &m.TermMonths, &m.CurrencyCode,
		&m.FeeKind, &m.FeeAmount, &m.FeePercent, &m.Status, &m.DisbursedAt,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// SaveLoan inserts a new loan.
func (r *PgxLoanRepository) SaveLoan(ctx context.Context, loan domain.Loan) error {
	m := toModelLoan(loan)

	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.q(ctx).Exec(ctx, query,
		m.LoanID, m.BorrowerName, m.Principal, m.AnnualRate, m.TermMonths, m.CurrencyCode,
		m.FeeKind, m.FeeAmount, m.FeePercent, m.Status, m.DisbursedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: loan %s already exists", apperrors.ErrDuplicate, m.LoanID)
		}
		return fmt.Errorf("failed to save loan %s: %w", m.LoanID, err)
	}
	return nil
}

// FindLoanByID fetches one loan.
func (r *PgxLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	return r.findLoan(ctx, loanID, `SELECT `+loanColumns+` FROM loans WHERE loan_id = $1;`)
}

// FindLoanByIDForUpdate fetches a loan with a row lock held for the rest of
// the surrounding transaction.
func (r *PgxLoanRepository) FindLoanByIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	return r.findLoan(ctx, loanID, `SELECT `+loanColumns+` FROM loans WHERE loan_id = $1 FOR UPDATE;`)
}

func (r *PgxLoanRepository) findLoan(ctx context.Context, loanID string, query string) (*domain.Loan, error) {
	m, err := scanLoan(r.q(ctx).QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("loan %s: %w", loanID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query loan %s: %w", loanID, err)
	}

	loan := toDomainLoan(m)
	return &loan, nil
}

// MarkDisbursed records disbursement and moves the loan to DISBURSED.
func (r *PgxLoanRepository) MarkDisbursed(ctx context.Context, loanID string, disbursedAt time.Time, userID string) error {
	query := `
		UPDATE loans
		SET status = $2, disbursed_at = $3, last_updated_at = $3, last_updated_by = $4
		WHERE loan_id = $1;
	`
	tag, err := r.q(ctx).Exec(ctx, query, loanID, string(domain.LoanDisbursed), disbursedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to mark loan %s disbursed: %w", loanID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("loan %s: %w", loanID, apperrors.ErrNotFound)
	}
	return nil
}

// UpdateLoanStatus sets the loan status.
func (r *PgxLoanRepository) UpdateLoanStatus(ctx context.Context, loanID string, status domain.LoanStatus, userID string, updatedAt time.Time) error {
	query := `
		UPDATE loans
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE loan_id = $1;
	`
	tag, err := r.q(ctx).Exec(ctx, query, loanID, string(status), updatedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of loan %s: %w", loanID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("loan %s: %w", loanID, apperrors.ErrNotFound)
	}
	return nil
}

// ListLoans fetches a page of loans, newest first.
func (r *PgxLoanRepository) ListLoans(ctx context.Context, limit int, offset int) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY created_at DESC, loan_id LIMIT $1 OFFSET $2;`

	rows, err := r.q(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		m, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, toDomainLoan(m))
	}
	return loans, rows.Err()
}

// SavePayment inserts a payment. The (loan_id, reference) pair is unique so
// concurrent duplicate submissions collapse to one row.
func (r *PgxLoanRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	query := `
		INSERT INTO loan_payments (payment_id, loan_id, amount, reference, received_at,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.q(ctx).Exec(ctx, query,
		payment.PaymentID, payment.LoanID, payment.Amount, payment.Reference, payment.ReceivedAt,
		payment.CreatedAt, payment.CreatedBy, payment.LastUpdatedAt, payment.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: payment %s already recorded for loan %s",
				apperrors.ErrDuplicate, payment.Reference, payment.LoanID)
		}
		return fmt.Errorf("failed to save payment %s: %w", payment.PaymentID, err)
	}
	return nil
}

// FindPaymentByReference fetches a payment by its idempotency key.
func (r *PgxLoanRepository) FindPaymentByReference(ctx context.Context, loanID string, reference string) (*domain.Payment, error) {
	query := `
		SELECT payment_id, loan_id, amount, reference, received_at,
			created_at, created_by, last_updated_at, last_updated_by
		FROM loan_payments WHERE loan_id = $1 AND reference = $2;
	`
	var m models.Payment
	err := r.q(ctx).QueryRow(ctx, query, loanID, reference).Scan(
		&m.PaymentID, &m.LoanID, &m.Amount, &m.Reference, &m.ReceivedAt,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment %s for loan %s: %w", reference, loanID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query payment %s for loan %s: %w", reference, loanID, err)
	}

	payment := domain.Payment{
		PaymentID:  m.PaymentID,
		LoanID:     m.LoanID,
		Amount:     m.Amount,
		Reference:  m.Reference,
		ReceivedAt: m.ReceivedAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
	return &payment, nil
}
