package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zotta/ledger-core/internal/core/domain"
	portsrepo "github.com/zotta/ledger-core/internal/core/ports/repositories"
)

type PgxReportingRepository struct {
	BaseRepository
}

// newPgxReportingRepository creates a new repository for ledger reports.
// Every query aggregates posted lines directly; balances are never cached.
func newPgxReportingRepository(pool *pgxpool.Pool) portsrepo.ReportingRepositoryFacade {
	return &PgxReportingRepository{BaseRepository{pool: pool}}
}

var _ portsrepo.ReportingRepositoryFacade = (*PgxReportingRepository)(nil)

// postedStatuses is the status set visible to reports. REVERSED entries stay
// in: their effect is undone by the reversal entry's mirrored lines, not by
// hiding the original.
const postedStatuses = `('POSTED', 'REVERSED')`

// GetAccountLedgerData returns the account's posted lines in posting order.
func (r *PgxReportingRepository) GetAccountLedgerData(ctx context.Context, accountID string) ([]domain.LedgerLine, error) {
	query := `
		SELECT e.entry_id, e.entry_number, e.effective_date, l.description, l.debit_amount, l.credit_amount
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE l.account_id = $1 AND e.status IN ` + postedStatuses + `
		ORDER BY e.effective_date, e.entry_number, l.line_id;
	`
	rows, err := r.q(ctx).Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var lines []domain.LedgerLine
	for rows.Next() {
		var line domain.LedgerLine
		err := rows.Scan(&line.EntryID, &line.EntryNumber, &line.EffectiveDate,
			&line.Description, &line.DebitAmount, &line.CreditAmount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// GetTrialBalanceData sums posted debits and credits per account up to asOf.
func (r *PgxReportingRepository) GetTrialBalanceData(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	query := `
		SELECT a.account_id, a.code, a.name, a.account_type,
			COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
		FROM accounts a
		JOIN journal_lines l ON l.account_id = a.account_id
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE e.status IN ` + postedStatuses + ` AND e.effective_date <= $1
		GROUP BY a.account_id, a.code, a.name, a.account_type
		ORDER BY a.code;
	`
	rows, err := r.q(ctx).Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query trial balance: %w", err)
	}
	defer rows.Close()

	var result []domain.TrialBalanceRow
	for rows.Next() {
		var row domain.TrialBalanceRow
		var accountType string
		err := rows.Scan(&row.AccountID, &row.AccountCode, &row.AccountName, &accountType, &row.Debit, &row.Credit)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trial balance row: %w", err)
		}
		row.AccountType = domain.AccountType(accountType)
		result = append(result, row)
	}
	return result, rows.Err()
}

// netBalances aggregates net amounts for accounts of the given types over a
// date range. Debit-normal types net debit minus credit; credit-normal types
// net credit minus debit, so both report positive balances in the usual case.
func (r *PgxReportingRepository) netBalances(ctx context.Context, accountType domain.AccountType, from, to time.Time) ([]domain.AccountAmount, error) {
	sign := `SUM(l.credit_amount) - SUM(l.debit_amount)`
	if accountType == domain.Asset || accountType == domain.Expense {
		sign = `SUM(l.debit_amount) - SUM(l.credit_amount)`
	}

	query := `
		SELECT a.account_id, a.code, a.name, COALESCE(` + sign + `, 0)
		FROM accounts a
		JOIN journal_lines l ON l.account_id = a.account_id
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE a.account_type = $1 AND e.status IN ` + postedStatuses + `
			AND e.effective_date >= $2 AND e.effective_date <= $3
		GROUP BY a.account_id, a.code, a.name
		ORDER BY a.code;
	`
	rows, err := r.q(ctx).Query(ctx, query, string(accountType), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s balances: %w", accountType, err)
	}
	defer rows.Close()

	var result []domain.AccountAmount
	for rows.Next() {
		var amount domain.AccountAmount
		if err := rows.Scan(&amount.AccountID, &amount.Code, &amount.Name, &amount.NetAmount); err != nil {
			return nil, fmt.Errorf("failed to scan account balance: %w", err)
		}
		result = append(result, amount)
	}
	return result, rows.Err()
}

// GetBalanceSheetData returns net balances for the three balance sheet
// account types as of a date.
func (r *PgxReportingRepository) GetBalanceSheetData(ctx context.Context, asOf time.Time) ([]domain.AccountAmount, []domain.AccountAmount, []domain.AccountAmount, error) {
	var start time.Time // balance sheet accounts accumulate from inception

	assets, err := r.netBalances(ctx, domain.Asset, start, asOf)
	if err != nil {
		return nil, nil, nil, err
	}
	liabilities, err := r.netBalances(ctx, domain.Liability, start, asOf)
	if err != nil {
		return nil, nil, nil, err
	}
	equity, err := r.netBalances(ctx, domain.Equity, start, asOf)
	if err != nil {
		return nil, nil, nil, err
	}
	return assets, liabilities, equity, nil
}

// GetIncomeStatementData returns net revenue and expense amounts in [from, to].
func (r *PgxReportingRepository) GetIncomeStatementData(ctx context.Context, from, to time.Time) ([]domain.AccountAmount, []domain.AccountAmount, error) {
	revenue, err := r.netBalances(ctx, domain.Revenue, from, to)
	if err != nil {
		return nil, nil, err
	}
	expenses, err := r.netBalances(ctx, domain.Expense, from, to)
	if err != nil {
		return nil, nil, err
	}
	return revenue, expenses, nil
}

// SearchEntries matches entry number, source reference or description.
func (r *PgxReportingRepository) SearchEntries(ctx context.Context, query string, limit int) ([]domain.JournalEntry, error) {
	sql := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE entry_number ILIKE $1 OR source_reference ILIKE $1 OR description ILIKE $1
		ORDER BY created_at DESC, entry_number DESC
		LIMIT $2;
	`
	rows, err := r.q(ctx).Query(ctx, sql, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search entries: %w", err)
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
