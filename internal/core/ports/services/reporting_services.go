package services

import (
	"context"
	"time"

	"github.com/zotta/ledger-core/internal/core/domain"
)

// ReportingSvcFacade is the ledger query layer. All views recompute from
// posted lines rather than maintaining separately-mutated caches.
type ReportingSvcFacade interface {
	AccountLedger(ctx context.Context, accountID string) ([]domain.LedgerLine, error)
	TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalanceReport, error)
	BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheetReport, error)
	IncomeStatement(ctx context.Context, from, to time.Time) (*domain.IncomeStatementReport, error)
	Search(ctx context.Context, query string, limit int) ([]domain.JournalEntry, error)
}

// PeriodSvcFacade manages the accounting period lifecycle with readiness
// checks gating closure.
type PeriodSvcFacade interface {
	CreatePeriod(ctx context.Context, name string, start, end time.Time, creatorUserID string) (*domain.Period, error)
	ListPeriods(ctx context.Context) ([]domain.Period, error)
	CloseReadiness(ctx context.Context, periodID string) (*domain.CloseReadiness, error)
	// SoftClose transitions the period only when every readiness check
	// passes; otherwise it returns the readiness report alongside a
	// validation error so callers can surface the specific failing checks.
	SoftClose(ctx context.Context, periodID string, userID string) (*domain.CloseReadiness, error)
	Reopen(ctx context.Context, periodID string, userID string) (*domain.Period, error)
	Close(ctx context.Context, periodID string, userID string) (*domain.Period, error)
}

// AnomalySvcFacade is the post-posting anomaly detector. Detection is
// advisory and never blocks posting; review is annotation only.
type AnomalySvcFacade interface {
	Detect(ctx context.Context, entryID string) ([]domain.Anomaly, error)
	Review(ctx context.Context, anomalyID string, action string, userID string) (*domain.Anomaly, error)
	ListOpen(ctx context.Context, limit int, offset int) ([]domain.Anomaly, error)
}
