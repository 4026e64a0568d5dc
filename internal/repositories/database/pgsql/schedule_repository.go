package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/zotta/ledger-core/internal/apperrors"
	"github.com/zotta/ledger-core/internal/core/domain"
	portsrepo "github.com/zotta/ledger-core/internal/core/ports/repositories"
	"github.com/zotta/ledger-core/internal/models"
)

type PgxScheduleRepository struct {
	BaseRepository
}

// newPgxScheduleRepository creates a new repository for amortization schedules.
func newPgxScheduleRepository(pool *pgxpool.Pool) portsrepo.ScheduleRepositoryFacade {
	return &PgxScheduleRepository{BaseRepository{pool: pool}}
}

var _ portsrepo.ScheduleRepositoryFacade = (*PgxScheduleRepository)(nil)

func toDomainScheduleRow(m models.ScheduleRow) domain.ScheduleRow {
	return domain.ScheduleRow{
		RowID:             m.RowID,
		LoanID:            m.LoanID,
		InstallmentNumber: m.InstallmentNumber,
		DueDate:           m.DueDate,
		Principal:         m.Principal,
		Interest:          m.Interest,
		Fee:               m.Fee,
		AmountDue:         m.AmountDue,
		AmountPaid:        m.AmountPaid,
		Status:            domain.InstallmentStatus(m.Status),
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const scheduleColumns = `row_id, loan_id, installment_number, due_date, principal, interest, fee,
	amount_due, amount_paid, status, created_at, created_by, last_updated_at, last_updated_by`

// SaveScheduleRows inserts every row of a schedule. The service calls this
// inside the disbursement transaction, so the schedule appears all-or-nothing.
func (r *PgxScheduleRepository) SaveScheduleRows(ctx context.Context, rows []domain.ScheduleRow) error {
	query := `
		INSERT INTO amortization_schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	for _, row := range rows {
		_, err := r.q(ctx).Exec(ctx, query,
			row.RowID, row.LoanID, row.InstallmentNumber, row.DueDate, row.Principal, row.Interest, row.Fee,
			row.AmountDue, row.AmountPaid, string(row.Status),
			row.CreatedAt, row.CreatedBy, row.LastUpdatedAt, row.LastUpdatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to save schedule row %d for loan %s: %w", row.InstallmentNumber, row.LoanID, err)
		}
	}
	return nil
}

// FindScheduleByLoanID fetches the full schedule in installment order.
func (r *PgxScheduleRepository) FindScheduleByLoanID(ctx context.Context, loanID string) ([]domain.ScheduleRow, error) {
	query := `SELECT ` + scheduleColumns + ` FROM amortization_schedules WHERE loan_id = $1 ORDER BY installment_number;`

	rows, err := r.q(ctx).Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var schedule []domain.ScheduleRow
	for rows.Next() {
		var m models.ScheduleRow
		err := rows.Scan(
			&m.RowID, &m.LoanID, &m.InstallmentNumber, &m.DueDate, &m.Principal, &m.Interest, &m.Fee,
			&m.AmountDue, &m.AmountPaid, &m.Status,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		schedule = append(schedule, toDomainScheduleRow(m))
	}
	return schedule, rows.Err()
}

// UpdateRowPayment records the paid amount and resulting status on one row.
func (r *PgxScheduleRepository) UpdateRowPayment(ctx context.Context, rowID string, amountPaid decimal.Decimal, status domain.InstallmentStatus, userID string, updatedAt time.Time) error {
	query := `
		UPDATE amortization_schedules
		SET amount_paid = $2, status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE row_id = $1;
	`
	tag, err := r.q(ctx).Exec(ctx, query, rowID, amountPaid, string(status), updatedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to update schedule row %s: %w", rowID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schedule row %s: %w", rowID, apperrors.ErrNotFound)
	}
	return nil
}
