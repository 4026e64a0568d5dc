package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zotta/ledger-core/internal/apperrors"
	"github.com/zotta/ledger-core/internal/core/domain"
	portsrepo "github.com/zotta/ledger-core/internal/core/ports/repositories"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/middleware"
	"github.com/zotta/ledger-core/internal/platform/config"
	"github.com/zotta/ledger-core/internal/platform/metrics"
)

// anomalyService runs heuristic checks over posted entries and flags the
// suspicious ones for human review. Detection is advisory: it runs after
// posting, never blocks it, and a false positive costs one dismissal click.
type anomalyService struct {
	anomalyRepo portsrepo.AnomalyRepositoryFacade
	journalRepo portsrepo.JournalRepositoryFacade
	cfg         *config.Config
}

// NewAnomalyService creates a new AnomalyService.
func NewAnomalyService(anomalyRepo portsrepo.AnomalyRepositoryFacade, journalRepo portsrepo.JournalRepositoryFacade, cfg *config.Config) portssvc.AnomalySvcFacade {
	return &anomalyService{anomalyRepo: anomalyRepo, journalRepo: journalRepo, cfg: cfg}
}

var _ portssvc.AnomalySvcFacade = (*anomalyService)(nil)

// Detect scans one posted entry with every heuristic and persists whatever
// they flag. Returns the anomalies created by this run.
func (s *anomalyService) Detect(ctx context.Context, entryID string) ([]domain.Anomaly, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	if entry.Status != domain.EntryPosted && entry.Status != domain.EntryReversed {
		return nil, fmt.Errorf("%w: entry %s is %s, only posted entries are scanned", apperrors.ErrValidation, entryID, entry.Status)
	}

	now := time.Now().UTC()
	var anomalies []domain.Anomaly
	flag := func(reason string, severity domain.AnomalySeverity) {
		anomalies = append(anomalies, domain.Anomaly{
			AnomalyID: uuid.NewString(),
			EntryID:   entryID,
			Reason:    reason,
			Severity:  severity,
			Status:    domain.AnomalyOpen,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     "system",
				LastUpdatedAt: now,
				LastUpdatedBy: "system",
			},
		})
	}

	if err := s.checkAmountOutlier(ctx, entry, flag); err != nil {
		return nil, err
	}
	s.checkRoundAmount(entry, flag)
	if err := s.checkUnusualPairing(ctx, entry, flag); err != nil {
		return nil, err
	}

	if len(anomalies) == 0 {
		return nil, nil
	}
	if err := s.anomalyRepo.SaveAnomalies(ctx, anomalies); err != nil {
		return nil, fmt.Errorf("failed to save anomalies: %w", err)
	}

	for _, a := range anomalies {
		metrics.AnomaliesDetected.WithLabelValues(string(a.Severity)).Inc()
	}
	logger.Info("Anomalies flagged",
		slog.String("entry_id", entryID),
		slog.Int("count", len(anomalies)))
	return anomalies, nil
}

// Review annotates an anomaly as reviewed or dismissed. The underlying entry
// is never touched; a genuinely wrong entry is corrected by reversal.
func (s *anomalyService) Review(ctx context.Context, anomalyID string, action string, userID string) (*domain.Anomaly, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var target domain.AnomalyStatus
	switch action {
	case "reviewed":
		target = domain.AnomalyReviewed
	case "dismissed":
		target = domain.AnomalyDismissed
	default:
		return nil, fmt.Errorf("%w: unknown review action %q", apperrors.ErrValidation, action)
	}

	anomaly, err := s.anomalyRepo.FindAnomalyByID(ctx, anomalyID)
	if err != nil {
		return nil, fmt.Errorf("failed to find anomaly %s: %w", anomalyID, err)
	}
	if anomaly.Status != domain.AnomalyOpen {
		return nil, fmt.Errorf("%w: anomaly %s is already %s", apperrors.ErrConflict, anomalyID, anomaly.Status)
	}

	now := time.Now().UTC()
	if err := s.anomalyRepo.UpdateAnomalyStatus(ctx, anomalyID, target, userID, now); err != nil {
		return nil, fmt.Errorf("failed to update anomaly %s: %w", anomalyID, err)
	}

	anomaly.Status = target
	anomaly.LastUpdatedAt = now
	anomaly.LastUpdatedBy = userID
	logger.Info("Anomaly triaged",
		slog.String("anomaly_id", anomalyID),
		slog.String("status", string(target)))
	return anomaly, nil
}

// ListOpen returns unresolved anomalies, newest first.
func (s *anomalyService) ListOpen(ctx context.Context, limit int, offset int) ([]domain.Anomaly, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.anomalyRepo.ListAnomaliesByStatus(ctx, domain.AnomalyOpen, limit, offset)
}

// checkAmountOutlier flags entries far above the historical mean for their
// source type. Silent until enough history accumulates; early in a ledger's
// life every entry would otherwise look like an outlier.
func (s *anomalyService) checkAmountOutlier(ctx context.Context, entry *domain.JournalEntry, flag func(string, domain.AnomalySeverity)) error {
	mean, samples, err := s.anomalyRepo.EntryAmountStats(ctx, entry.SourceType, entry.EntryID)
	if err != nil {
		return fmt.Errorf("failed to load amount stats: %w", err)
	}
	if samples < s.cfg.AnomalyMinSamples || mean.IsZero() {
		return nil
	}

	threshold := mean.Mul(decimal.NewFromFloat(s.cfg.AnomalyMeanMultiplier))
	if entry.TotalDebits.GreaterThan(threshold) {
		flag(fmt.Sprintf("amount %s is more than %.1fx the historical mean %s for %s entries",
			entry.TotalDebits, s.cfg.AnomalyMeanMultiplier, mean, entry.SourceType), domain.SeverityHigh)
	}
	return nil
}

// checkRoundAmount flags large, suspiciously round amounts. Fabricated
// figures cluster on round numbers; organic ones rarely do.
func (s *anomalyService) checkRoundAmount(entry *domain.JournalEntry, flag func(string, domain.AnomalySeverity)) {
	floor := decimal.NewFromFloat(s.cfg.AnomalyRoundFloor)
	if entry.TotalDebits.LessThan(floor) {
		return
	}
	if entry.TotalDebits.Mod(decimal.NewFromInt(1000)).IsZero() {
		flag(fmt.Sprintf("amount %s is a round number at or above %s", entry.TotalDebits, floor), domain.SeverityLow)
	}
}

// checkUnusualPairing flags auto-posted entries whose debit/credit account
// pairing has never been seen for their source type. Manual entries are
// exempt: their account mix is expected to vary.
func (s *anomalyService) checkUnusualPairing(ctx context.Context, entry *domain.JournalEntry, flag func(string, domain.AnomalySeverity)) error {
	if entry.SourceType == domain.SourceManual {
		return nil
	}

	lines, err := s.journalRepo.FindLinesByEntryID(ctx, entry.EntryID)
	if err != nil {
		return fmt.Errorf("failed to load lines for entry %s: %w", entry.EntryID, err)
	}

	var debitAccountID, creditAccountID string
	for _, l := range lines {
		if l.DebitAmount.GreaterThan(decimal.Zero) {
			debitAccountID = l.AccountID
		}
		if l.CreditAmount.GreaterThan(decimal.Zero) {
			creditAccountID = l.AccountID
		}
	}
	if debitAccountID == "" || creditAccountID == "" {
		return nil
	}

	seen, err := s.anomalyRepo.AccountPairSeen(ctx, entry.SourceType, debitAccountID, creditAccountID, entry.EntryID)
	if err != nil {
		return fmt.Errorf("failed to check account pairing history: %w", err)
	}
	if !seen {
		// Only meaningful once the source type has history at all.
		_, samples, err := s.anomalyRepo.EntryAmountStats(ctx, entry.SourceType, entry.EntryID)
		if err != nil {
			return fmt.Errorf("failed to load amount stats: %w", err)
		}
		if samples > 0 {
			flag(fmt.Sprintf("account pairing %s -> %s has not been used before for %s entries",
				debitAccountID, creditAccountID, entry.SourceType), domain.SeverityMedium)
		}
	}
	return nil
}
