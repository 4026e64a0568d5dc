package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zotta/ledger-core/internal/core/domain"
)

// AnomalyRepositoryFacade defines persistence operations for anomalies and
// the historical aggregates the detector's heuristics consume.
type AnomalyRepositoryFacade interface {
	SaveAnomalies(ctx context.Context, anomalies []domain.Anomaly) error
	FindAnomalyByID(ctx context.Context, anomalyID string) (*domain.Anomaly, error)
	UpdateAnomalyStatus(ctx context.Context, anomalyID string, status domain.AnomalyStatus, userID string, updatedAt time.Time) error
	ListAnomaliesByStatus(ctx context.Context, status domain.AnomalyStatus, limit int, offset int) ([]domain.Anomaly, error)

	// CountOpenAnomaliesInRange counts unresolved anomalies whose entry's
	// effective date falls in [start, end]; a period cannot soft-close while
	// any remain.
	CountOpenAnomaliesInRange(ctx context.Context, start, end time.Time) (int, error)

	// EntryAmountStats returns the mean posted amount and the sample count
	// for a source type, excluding the given entry.
	EntryAmountStats(ctx context.Context, sourceType string, excludeEntryID string) (mean decimal.Decimal, samples int, err error)

	// AccountPairSeen reports whether any other posted entry of this source
	// type has already used the same debit/credit account pairing.
	AccountPairSeen(ctx context.Context, sourceType string, debitAccountID string, creditAccountID string, excludeEntryID string) (bool, error)
}
