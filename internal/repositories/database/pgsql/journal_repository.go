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

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and lines.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{BaseRepository{pool: pool}}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

func toModelEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:          d.EntryID,
		EntryNumber:      d.EntryNumber,
		Status:           string(d.Status),
		SourceType:       d.SourceType,
		SourceReference:  d.SourceReference,
		Description:      d.Description,
		TransactionDate:  d.TransactionDate,
		EffectiveDate:    d.EffectiveDate,
		CurrencyCode:     d.CurrencyCode,
		ExchangeRate:     d.ExchangeRate,
		TotalDebits:      d.TotalDebits,
		TotalCredits:     d.TotalCredits,
		OriginalEntryID:  d.OriginalEntryID,
		ReversingEntryID: d.ReversingEntryID,
		Version:          d.Version,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:          m.EntryID,
		EntryNumber:      m.EntryNumber,
		Status:           domain.EntryStatus(m.Status),
		SourceType:       m.SourceType,
		SourceReference:  m.SourceReference,
		Description:      m.Description,
		TransactionDate:  m.TransactionDate,
		EffectiveDate:    m.EffectiveDate,
		CurrencyCode:     m.CurrencyCode,
		ExchangeRate:     m.ExchangeRate,
		TotalDebits:      m.TotalDebits,
		TotalCredits:     m.TotalCredits,
		OriginalEntryID:  m.OriginalEntryID,
		ReversingEntryID: m.ReversingEntryID,
		Version:          m.Version,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

func toDomainLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:       m.LineID,
		EntryID:      m.EntryID,
		AccountID:    m.AccountID,
		DebitAmount:  m.DebitAmount,
		CreditAmount: m.CreditAmount,
		Description:  m.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const entryColumns = `entry_id, entry_number, status, source_type, source_reference, description,
	transaction_date, effective_date, currency_code, exchange_rate, total_debits, total_credits,
	original_entry_id, reversing_entry_id, version, created_at, created_by, last_updated_at, last_updated_by`

func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID, &m.EntryNumber, &m.Status, &m.SourceType, &m.SourceReference, &m.Description,
		&m.TransactionDate, &m.EffectiveDate, &m.CurrencyCode, &m.ExchangeRate, &m.TotalDebits, &m.TotalCredits,
		&m.OriginalEntryID, &m.ReversingEntryID, &m.Version,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// NextEntryNumber reserves the next value from the ledger-wide entry number
// sequence. Numbers reserved in rolled-back transactions leave gaps, which is
// acceptable: entry numbers are unique and monotonic, not gapless.
func (r *PgxJournalRepository) NextEntryNumber(ctx context.Context) (string, error) {
	var n int64
	err := r.q(ctx).QueryRow(ctx, `SELECT nextval('journal_entry_number_seq');`).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("failed to reserve entry number: %w", err)
	}
	return fmt.Sprintf("JE-%06d", n), nil
}

// SaveEntry persists the entry header and all of its lines. Callers running
// outside a transaction still get atomicity only for the header; the service
// layer always wraps SaveEntry in TxManager.WithinTx.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	m := toModelEntry(entry)

	entryQuery := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err := r.q(ctx).Exec(ctx, entryQuery,
		m.EntryID, m.EntryNumber, m.Status, m.SourceType, m.SourceReference, m.Description,
		m.TransactionDate, m.EffectiveDate, m.CurrencyCode, m.ExchangeRate, m.TotalDebits, m.TotalCredits,
		m.OriginalEntryID, m.ReversingEntryID, m.Version,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: journal entry for %s/%s already exists",
				apperrors.ErrDuplicate, m.SourceType, m.SourceReference)
		}
		return fmt.Errorf("failed to save journal entry %s: %w", m.EntryID, err)
	}

	lineQuery := `
		INSERT INTO journal_lines (line_id, entry_id, account_id, debit_amount, credit_amount, description,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	for _, line := range lines {
		_, err := r.q(ctx).Exec(ctx, lineQuery,
			line.LineID, line.EntryID, line.AccountID, line.DebitAmount, line.CreditAmount, line.Description,
			line.CreatedAt, line.CreatedBy, line.LastUpdatedAt, line.LastUpdatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to save journal line %s: %w", line.LineID, err)
		}
	}
	return nil
}

// FindEntryByID fetches one journal entry header.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1;`

	m, err := scanEntry(r.q(ctx).QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("journal entry %s: %w", entryID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query journal entry %s: %w", entryID, err)
	}

	entry := toDomainEntry(m)
	return &entry, nil
}

// FindLinesByEntryID fetches all lines of an entry in insertion order.
func (r *PgxJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	query := `
		SELECT line_id, entry_id, account_id, debit_amount, credit_amount, description,
			created_at, created_by, last_updated_at, last_updated_by
		FROM journal_lines WHERE entry_id = $1 ORDER BY created_at, line_id;
	`
	rows, err := r.q(ctx).Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for entry %s: %w", entryID, err)
	}
	defer rows.Close()

	var lines []domain.JournalLine
	for rows.Next() {
		var m models.JournalLine
		err := rows.Scan(
			&m.LineID, &m.EntryID, &m.AccountID, &m.DebitAmount, &m.CreditAmount, &m.Description,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal line: %w", err)
		}
		lines = append(lines, toDomainLine(m))
	}
	return lines, rows.Err()
}

// FindEntryBySource looks up an entry by its idempotency key.
func (r *PgxJournalRepository) FindEntryBySource(ctx context.Context, sourceType string, sourceReference string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE source_type = $1 AND source_reference = $2;`

	m, err := scanEntry(r.q(ctx).QueryRow(ctx, query, sourceType, sourceReference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("journal entry for %s/%s: %w", sourceType, sourceReference, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query journal entry by source %s/%s: %w", sourceType, sourceReference, err)
	}

	entry := toDomainEntry(m)
	return &entry, nil
}

// UpdateEntryStatus advances the entry status with an optimistic version
// check. Zero rows affected means either the entry is gone or another writer
// bumped the version first; both surface as ErrConflict after the entry's
// existence is confirmed.
func (r *PgxJournalRepository) UpdateEntryStatus(ctx context.Context, entryID string, fromVersion int64, status domain.EntryStatus, userID string, updatedAt time.Time) error {
	query := `
		UPDATE journal_entries
		SET status = $3, version = version + 1, last_updated_at = $4, last_updated_by = $5
		WHERE entry_id = $1 AND version = $2;
	`
	tag, err := r.q(ctx).Exec(ctx, query, entryID, fromVersion, string(status), updatedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.versionConflict(ctx, entryID)
	}
	return nil
}

// UpdateEntryStatusAndLinks marks the entry with the reversal link, guarded
// by the same version check as plain status updates.
func (r *PgxJournalRepository) UpdateEntryStatusAndLinks(ctx context.Context, entryID string, fromVersion int64, status domain.EntryStatus, reversingEntryID *string, userID string, updatedAt time.Time) error {
	query := `
		UPDATE journal_entries
		SET status = $3, reversing_entry_id = $4, version = version + 1, last_updated_at = $5, last_updated_by = $6
		WHERE entry_id = $1 AND version = $2;
	`
	tag, err := r.q(ctx).Exec(ctx, query, entryID, fromVersion, string(status), reversingEntryID, updatedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to update reversal links of entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.versionConflict(ctx, entryID)
	}
	return nil
}

func (r *PgxJournalRepository) versionConflict(ctx context.Context, entryID string) error {
	var exists bool
	err := r.q(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_entries WHERE entry_id = $1);`, entryID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check entry %s: %w", entryID, err)
	}
	if !exists {
		return fmt.Errorf("journal entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	return fmt.Errorf("%w: journal entry %s was modified concurrently", apperrors.ErrConflict, entryID)
}

// CountEntriesByStatusInRange counts entries by effective date and status set.
func (r *PgxJournalRepository) CountEntriesByStatusInRange(ctx context.Context, start, end time.Time, statuses []domain.EntryStatus) (int, error) {
	statusStrings := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrings[i] = string(s)
	}

	query := `
		SELECT COUNT(*) FROM journal_entries
		WHERE effective_date >= $1 AND effective_date <= $2 AND status = ANY($3);
	`
	var count int
	if err := r.q(ctx).QueryRow(ctx, query, start, end, statusStrings).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries in range: %w", err)
	}
	return count, nil
}

// ListEntries fetches a page of entries, newest first.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, limit int, offset int) ([]domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries ORDER BY created_at DESC, entry_number DESC LIMIT $1 OFFSET $2;`

	rows, err := r.q(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, toDomainEntry(m))
	}
	return entries, rows.Err()
}
