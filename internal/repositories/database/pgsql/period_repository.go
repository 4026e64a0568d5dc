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

type PgxPeriodRepository struct {
	BaseRepository
}

// newPgxPeriodRepository creates a new repository for accounting periods.
func newPgxPeriodRepository(pool *pgxpool.Pool) portsrepo.PeriodRepositoryFacade {
	return &PgxPeriodRepository{BaseRepository{pool: pool}}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

func toDomainPeriod(m models.Period) domain.Period {
	return domain.Period{
		PeriodID:  m.PeriodID,
		Name:      m.Name,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		Status:    domain.PeriodStatus(m.Status),
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const periodColumns = `period_id, name, start_date, end_date, status, created_at, created_by, last_updated_at, last_updated_by`

func scanPeriod(row pgx.Row) (models.Period, error) {
	var m models.Period
	err := row.Scan(
		&m.PeriodID, &m.Name, &m.StartDate, &m.EndDate, &m.Status,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// SavePeriod inserts a new period. The name is unique.
func (r *PgxPeriodRepository) SavePeriod(ctx context.Context, period domain.Period) error {
	query := `
		INSERT INTO periods (` + periodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.q(ctx).Exec(ctx, query,
		period.PeriodID, period.Name, period.StartDate, period.EndDate, string(period.Status),
		period.CreatedAt, period.CreatedBy, period.LastUpdatedAt, period.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: period %s already exists", apperrors.ErrDuplicate, period.Name)
		}
		return fmt.Errorf("failed to save period %s: %w", period.PeriodID, err)
	}
	return nil
}

// FindPeriodByID fetches one period.
func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM periods WHERE period_id = $1;`

	m, err := scanPeriod(r.q(ctx).QueryRow(ctx, query, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("period %s: %w", periodID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query period %s: %w", periodID, err)
	}

	period := toDomainPeriod(m)
	return &period, nil
}

// FindPeriodByDate returns the period whose range contains the date.
func (r *PgxPeriodRepository) FindPeriodByDate(ctx context.Context, date time.Time) (*domain.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM periods WHERE start_date <= $1 AND end_date >= $1;`

	m, err := scanPeriod(r.q(ctx).QueryRow(ctx, query, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no period covers %s: %w", date.Format(time.DateOnly), apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query period for %s: %w", date.Format(time.DateOnly), err)
	}

	period := toDomainPeriod(m)
	return &period, nil
}

// FindOverlappingPeriod returns any existing period intersecting [start, end].
func (r *PgxPeriodRepository) FindOverlappingPeriod(ctx context.Context, start, end time.Time) (*domain.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM periods WHERE start_date <= $2 AND end_date >= $1 LIMIT 1;`

	m, err := scanPeriod(r.q(ctx).QueryRow(ctx, query, start, end))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no overlapping period: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query overlapping period: %w", err)
	}

	period := toDomainPeriod(m)
	return &period, nil
}

// UpdatePeriodStatus sets the period status.
func (r *PgxPeriodRepository) UpdatePeriodStatus(ctx context.Context, periodID string, status domain.PeriodStatus, userID string, updatedAt time.Time) error {
	query := `
		UPDATE periods
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE period_id = $1;
	`
	tag, err := r.q(ctx).Exec(ctx, query, periodID, string(status), updatedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of period %s: %w", periodID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("period %s: %w", periodID, apperrors.ErrNotFound)
	}
	return nil
}

// ListPeriods fetches all periods in calendar order.
func (r *PgxPeriodRepository) ListPeriods(ctx context.Context) ([]domain.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM periods ORDER BY start_date;`

	rows, err := r.q(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()

	var periods []domain.Period
	for rows.Next() {
		m, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, toDomainPeriod(m))
	}
	return periods, rows.Err()
}
