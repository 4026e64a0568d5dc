package repositories

import (
	"context"
	"time"

	"github.com/zotta/ledger-core/internal/core/domain"
)

// ReportingRepositoryFacade provides the read-mostly aggregations behind the
// ledger query layer. Every query recomputes from posted lines; there are no
// separately-mutated balance caches to drift.
type ReportingRepositoryFacade interface {
	// GetAccountLedgerData returns all posted lines touching the account in
	// posting order, without running balances (the service computes those).
	GetAccountLedgerData(ctx context.Context, accountID string) ([]domain.LedgerLine, error)

	// GetTrialBalanceData returns per-account debit/credit sums over posted
	// entries effective up to asOf.
	GetTrialBalanceData(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error)

	// GetBalanceSheetData returns net balances for asset, liability and
	// equity accounts as of a date.
	GetBalanceSheetData(ctx context.Context, asOf time.Time) (assets, liabilities, equity []domain.AccountAmount, err error)

	// GetIncomeStatementData returns net amounts for revenue and expense
	// accounts within a date range.
	GetIncomeStatementData(ctx context.Context, from, to time.Time) (revenue, expenses []domain.AccountAmount, err error)

	// SearchEntries performs a cross-field lookup over entry number, source
	// reference and description.
	SearchEntries(ctx context.Context, query string, limit int) ([]domain.JournalEntry, error)
}
