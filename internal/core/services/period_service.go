package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zotta/ledger-core/internal/apperrors"
	"github.com/zotta/ledger-core/internal/core/domain"
	portsrepo "github.com/zotta/ledger-core/internal/core/ports/repositories"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/middleware"
	"github.com/zotta/ledger-core/internal/utils/accounting"
)

// Names of the readiness checks gating a soft close.
const (
	CheckNoUnpostedEntries = "no_unposted_entries"
	CheckTrialBalanced     = "trial_balance_balanced"
	CheckNoOpenAnomalies   = "no_open_anomalies"
)

// periodService manages the accounting period lifecycle. Soft close is a
// reversible staging state gated by readiness checks; full close is terminal.
type periodService struct {
	periodRepo    portsrepo.PeriodRepositoryFacade
	journalRepo   portsrepo.JournalRepositoryFacade
	anomalyRepo   portsrepo.AnomalyRepositoryFacade
	reportingRepo portsrepo.ReportingRepositoryFacade
}

// NewPeriodService creates a new PeriodService.
func NewPeriodService(
	periodRepo portsrepo.PeriodRepositoryFacade,
	journalRepo portsrepo.JournalRepositoryFacade,
	anomalyRepo portsrepo.AnomalyRepositoryFacade,
	reportingRepo portsrepo.ReportingRepositoryFacade,
) portssvc.PeriodSvcFacade {
	return &periodService{
		periodRepo:    periodRepo,
		journalRepo:   journalRepo,
		anomalyRepo:   anomalyRepo,
		reportingRepo: reportingRepo,
	}
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

// CreatePeriod opens a new accounting period. Periods must not overlap.
func (s *periodService) CreatePeriod(ctx context.Context, name string, start, end time.Time, creatorUserID string) (*domain.Period, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !start.Before(end) {
		return nil, fmt.Errorf("%w: period start %s must precede end %s",
			apperrors.ErrValidation, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	overlapping, err := s.periodRepo.FindOverlappingPeriod(ctx, start, end)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for overlapping periods: %w", err)
	}
	if overlapping != nil {
		return nil, fmt.Errorf("%w: period overlaps existing period %s", apperrors.ErrConflict, overlapping.Name)
	}

	now := time.Now().UTC()
	period := domain.Period{
		PeriodID:  uuid.NewString(),
		Name:      name,
		StartDate: start,
		EndDate:   end,
		Status:    domain.PeriodOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.periodRepo.SavePeriod(ctx, period); err != nil {
		logger.Error("Failed to save period", slog.String("error", err.Error()), slog.String("name", name))
		return nil, fmt.Errorf("failed to save period: %w", err)
	}

	logger.Info("Period created", slog.String("period_id", period.PeriodID), slog.String("name", name))
	return &period, nil
}

// ListPeriods returns all configured periods.
func (s *periodService) ListPeriods(ctx context.Context) ([]domain.Period, error) {
	return s.periodRepo.ListPeriods(ctx)
}

// CloseReadiness evaluates whether a period can be soft-closed without
// changing any state. Used standalone for pre-close review and internally by
// SoftClose as the gate.
func (s *periodService) CloseReadiness(ctx context.Context, periodID string) (*domain.CloseReadiness, error) {
	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	return s.evaluateReadiness(ctx, period)
}

// SoftClose stages the period for closure. Every readiness check must pass;
// on failure the readiness report is returned alongside the error so callers
// can show which checks blocked the close.
func (s *periodService) SoftClose(ctx context.Context, periodID string, userID string) (*domain.CloseReadiness, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	if period.Status != domain.PeriodOpen {
		return nil, fmt.Errorf("%w: period %s is %s, only open periods can be soft-closed",
			apperrors.ErrConflict, period.Name, period.Status)
	}

	readiness, err := s.evaluateReadiness(ctx, period)
	if err != nil {
		return nil, err
	}
	if !readiness.IsReady {
		return readiness, fmt.Errorf("%w: period %s is not ready to close", apperrors.ErrValidation, period.Name)
	}

	if err := s.periodRepo.UpdatePeriodStatus(ctx, periodID, domain.PeriodSoftClose, userID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to soft-close period %s: %w", periodID, err)
	}

	logger.Info("Period soft-closed", slog.String("period_id", periodID), slog.String("name", period.Name))
	return readiness, nil
}

// Reopen reverts a soft-closed period to open. Fully closed periods stay closed.
func (s *periodService) Reopen(ctx context.Context, periodID string, userID string) (*domain.Period, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	if period.Status != domain.PeriodSoftClose {
		return nil, fmt.Errorf("%w: period %s is %s, only soft-closed periods can be reopened",
			apperrors.ErrConflict, period.Name, period.Status)
	}

	now := time.Now().UTC()
	if err := s.periodRepo.UpdatePeriodStatus(ctx, periodID, domain.PeriodOpen, userID, now); err != nil {
		return nil, fmt.Errorf("failed to reopen period %s: %w", periodID, err)
	}

	period.Status = domain.PeriodOpen
	period.LastUpdatedAt = now
	period.LastUpdatedBy = userID
	logger.Info("Period reopened", slog.String("period_id", periodID), slog.String("name", period.Name))
	return period, nil
}

// Close finalizes a soft-closed period. Terminal: closed periods never reopen.
func (s *periodService) Close(ctx context.Context, periodID string, userID string) (*domain.Period, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	if period.Status != domain.PeriodSoftClose {
		return nil, fmt.Errorf("%w: period %s is %s, periods must be soft-closed before final close",
			apperrors.ErrConflict, period.Name, period.Status)
	}

	now := time.Now().UTC()
	if err := s.periodRepo.UpdatePeriodStatus(ctx, periodID, domain.PeriodClosed, userID, now); err != nil {
		return nil, fmt.Errorf("failed to close period %s: %w", periodID, err)
	}

	period.Status = domain.PeriodClosed
	period.LastUpdatedAt = now
	period.LastUpdatedBy = userID
	logger.Info("Period closed", slog.String("period_id", periodID), slog.String("name", period.Name))
	return period, nil
}

func (s *periodService) evaluateReadiness(ctx context.Context, period *domain.Period) (*domain.CloseReadiness, error) {
	checks := make([]domain.ReadinessCheck, 0, 3)

	unposted, err := s.journalRepo.CountEntriesByStatusInRange(ctx, period.StartDate, period.EndDate,
		[]domain.EntryStatus{domain.EntryDraft, domain.EntrySubmitted, domain.EntryApproved})
	if err != nil {
		return nil, fmt.Errorf("failed to count unposted entries: %w", err)
	}
	checks = append(checks, domain.ReadinessCheck{
		Name:   CheckNoUnpostedEntries,
		Passed: unposted == 0,
		Detail: fmt.Sprintf("%d entries in the period are not yet posted", unposted),
	})

	rows, err := s.reportingRepo.GetTrialBalanceData(ctx, period.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to compute trial balance: %w", err)
	}
	debits, credits := decimalTotals(rows)
	checks = append(checks, domain.ReadinessCheck{
		Name:   CheckTrialBalanced,
		Passed: accounting.WithinEpsilon(debits, credits),
		Detail: fmt.Sprintf("total debits %s vs total credits %s", debits, credits),
	})

	openAnomalies, err := s.anomalyRepo.CountOpenAnomaliesInRange(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to count open anomalies: %w", err)
	}
	checks = append(checks, domain.ReadinessCheck{
		Name:   CheckNoOpenAnomalies,
		Passed: openAnomalies == 0,
		Detail: fmt.Sprintf("%d anomalies in the period remain open", openAnomalies),
	})

	ready := true
	failing := make([]string, 0)
	for _, c := range checks {
		if !c.Passed {
			ready = false
			failing = append(failing, c.Name)
		}
	}

	recommendation := "Period is ready to close."
	if !ready {
		recommendation = fmt.Sprintf("Resolve failing checks before closing: %v", failing)
	}

	return &domain.CloseReadiness{
		PeriodID:       period.PeriodID,
		IsReady:        ready,
		Checks:         checks,
		Recommendation: recommendation,
	}, nil
}
