package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/zotta/ledger-core/internal/apperrors"
	"github.com/zotta/ledger-core/internal/core/domain"
	portsrepo "github.com/zotta/ledger-core/internal/core/ports/repositories"
	"github.com/zotta/ledger-core/internal/models"
)

type PgxAnomalyRepository struct {
	BaseRepository
}

// newPgxAnomalyRepository creates a new repository for anomalies and the
// aggregates the detector's heuristics read.
func newPgxAnomalyRepository(pool *pgxpool.Pool) portsrepo.AnomalyRepositoryFacade {
	return &PgxAnomalyRepository{BaseRepository{pool: pool}}
}

var _ portsrepo.AnomalyRepositoryFacade = (*PgxAnomalyRepository)(nil)

func toDomainAnomaly(m models.Anomaly) domain.Anomaly {
	return domain.Anomaly{
		AnomalyID: m.AnomalyID,
		EntryID:   m.EntryID,
		Reason:    m.Reason,
		Severity:  domain.AnomalySeverity(m.Severity),
		Status:    domain.AnomalyStatus(m.Status),
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const anomalyColumns = `anomaly_id, entry_id, reason, severity, status, created_at, created_by, last_updated_at, last_updated_by`

func scanAnomaly(row pgx.Row) (models.Anomaly, error) {
	var m models.Anomaly
	err := row.Scan(
		&m.AnomalyID, &m.EntryID, &m.Reason, &m.Severity, &m.Status,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// SaveAnomalies inserts a batch of detected anomalies.
func (r *PgxAnomalyRepository) SaveAnomalies(ctx context.Context, anomalies []domain.Anomaly) error {
	query := `
		INSERT INTO anomalies (` + anomalyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	for _, a := range anomalies {
		_, err := r.q(ctx).Exec(ctx, query,
			a.AnomalyID, a.EntryID, a.Reason, string(a.Severity), string(a.Status),
			a.CreatedAt, a.CreatedBy, a.LastUpdatedAt, a.LastUpdatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to save anomaly %s: %w", a.AnomalyID, err)
		}
	}
	return nil
}

// FindAnomalyByID fetches one anomaly.
func (r *PgxAnomalyRepository) FindAnomalyByID(ctx context.Context, anomalyID string) (*domain.Anomaly, error) {
	query := `SELECT ` + anomalyColumns + ` FROM anomalies WHERE anomaly_id = $1;`

	m, err := scanAnomaly(r.q(ctx).QueryRow(ctx, query, anomalyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("anomaly %s: %w", anomalyID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query anomaly %s: %w", anomalyID, err)
	}

	anomaly := toDomainAnomaly(m)
	return &anomaly, nil
}

// UpdateAnomalyStatus records the triage outcome.
func (r *PgxAnomalyRepository) UpdateAnomalyStatus(ctx context.Context, anomalyID string, status domain.AnomalyStatus, userID string, updatedAt time.Time) error {
	query := `
		UPDATE anomalies
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE anomaly_id = $1;
	`
	tag, err := r.q(ctx).Exec(ctx, query, anomalyID, string(status), updatedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of anomaly %s: %w", anomalyID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("anomaly %s: %w", anomalyID, apperrors.ErrNotFound)
	}
	return nil
}

// ListAnomaliesByStatus fetches a page of anomalies in one triage state,
// newest first.
func (r *PgxAnomalyRepository) ListAnomaliesByStatus(ctx context.Context, status domain.AnomalyStatus, limit int, offset int) ([]domain.Anomaly, error) {
	query := `SELECT ` + anomalyColumns + ` FROM anomalies WHERE status = $1 ORDER BY created_at DESC, anomaly_id LIMIT $2 OFFSET $3;`

	rows, err := r.q(ctx).Query(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalies: %w", err)
	}
	defer rows.Close()

	var anomalies []domain.Anomaly
	for rows.Next() {
		m, err := scanAnomaly(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		anomalies = append(anomalies, toDomainAnomaly(m))
	}
	return anomalies, rows.Err()
}

// CountOpenAnomaliesInRange counts OPEN anomalies whose entry's effective
// date falls in [start, end].
func (r *PgxAnomalyRepository) CountOpenAnomaliesInRange(ctx context.Context, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM anomalies a
		JOIN journal_entries e ON e.entry_id = a.entry_id
		WHERE a.status = $1 AND e.effective_date >= $2 AND e.effective_date <= $3;
	`
	var count int
	err := r.q(ctx).QueryRow(ctx, query, string(domain.AnomalyOpen), start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open anomalies in range: %w", err)
	}
	return count, nil
}

// EntryAmountStats returns the mean total_debits and sample count over
// posted and reversed entries of the source type, excluding one entry.
func (r *PgxAnomalyRepository) EntryAmountStats(ctx context.Context, sourceType string, excludeEntryID string) (decimal.Decimal, int, error) {
	query := `
		SELECT COALESCE(AVG(total_debits), 0), COUNT(*)
		FROM journal_entries
		WHERE source_type = $1 AND entry_id <> $2 AND status IN ($3, $4);
	`
	var mean decimal.Decimal
	var samples int
	err := r.q(ctx).QueryRow(ctx, query,
		sourceType, excludeEntryID, string(domain.EntryPosted), string(domain.EntryReversed),
	).Scan(&mean, &samples)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to compute amount stats for %s: %w", sourceType, err)
	}
	return mean, samples, nil
}

// AccountPairSeen reports whether another posted entry of the source type
// already pairs the same debit and credit accounts.
func (r *PgxAnomalyRepository) AccountPairSeen(ctx context.Context, sourceType string, debitAccountID string, creditAccountID string, excludeEntryID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM journal_entries e
			JOIN journal_lines d ON d.entry_id = e.entry_id AND d.account_id = $2 AND d.debit_amount > 0
			JOIN journal_lines c ON c.entry_id = e.entry_id AND c.account_id = $3 AND c.credit_amount > 0
			WHERE e.source_type = $1 AND e.entry_id <> $4 AND e.status IN ($5, $6)
		);
	`
	var seen bool
	err := r.q(ctx).QueryRow(ctx, query,
		sourceType, debitAccountID, creditAccountID, excludeEntryID,
		string(domain.EntryPosted), string(domain.EntryReversed),
	).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("failed to check account pairing for %s: %w", sourceType, err)
	}
	return seen, nil
}
