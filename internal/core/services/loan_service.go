package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zotta/ledger-core/internal/apperrors"
	"github.com/zotta/ledger-core/internal/core/domain"
	portsrepo "github.com/zotta/ledger-core/internal/core/ports/repositories"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/dto"
	"github.com/zotta/ledger-core/internal/middleware"
	"github.com/zotta/ledger-core/internal/platform/config"
	"github.com/zotta/ledger-core/internal/platform/metrics"
	"github.com/zotta/ledger-core/internal/utils/accounting"
)

// loanService drives the loan lifecycle operations that touch the ledger:
// disbursement materializes the amortization schedule and posts the funding
// entry as one atomic unit; repayment recording applies cash to installments
// oldest-first and posts the corresponding GL entry.
type loanService struct {
	loanRepo     portsrepo.LoanRepositoryFacade
	scheduleRepo portsrepo.ScheduleRepositoryFacade
	postingSvc   portssvc.PostingSvcFacade
	txManager    portsrepo.TxManager
	cfg          *config.Config
}

// NewLoanService creates a new LoanService.
func NewLoanService(
	loanRepo portsrepo.LoanRepositoryFacade,
	scheduleRepo portsrepo.ScheduleRepositoryFacade,
	postingSvc portssvc.PostingSvcFacade,
	txManager portsrepo.TxManager,
	cfg *config.Config,
) portssvc.LoanSvcFacade {
	return &loanService{
		loanRepo:     loanRepo,
		scheduleRepo: scheduleRepo,
		postingSvc:   postingSvc,
		txManager:    txManager,
		cfg:          cfg,
	}
}

var _ portssvc.LoanSvcFacade = (*loanService)(nil)

// CreateLoan registers an approved loan. Underwriting happens upstream; the
// ledger core receives loans already approved for disbursement.
func (s *loanService) CreateLoan(ctx context.Context, req dto.CreateLoanRequest, creatorUserID string) (*domain.Loan, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Principal.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", apperrors.ErrValidation, req.Principal)
	}
	if req.AnnualRate.IsNegative() {
		return nil, fmt.Errorf("%w: annual rate must not be negative, got %s", apperrors.ErrValidation, req.AnnualRate)
	}

	now := time.Now().UTC()
	loan := domain.Loan{
		LoanID:       uuid.NewString(),
		BorrowerName: req.BorrowerName,
		Principal:    accounting.Round(req.Principal),
		AnnualRate:   req.AnnualRate,
		TermMonths:   req.TermMonths,
		CurrencyCode: req.CurrencyCode,
		FeeRule:      req.FeeRule.ToFeeRule(),
		Status:       domain.LoanApproved,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.loanRepo.SaveLoan(ctx, loan); err != nil {
		logger.Error("Failed to save loan", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}

	logger.Info("Loan created",
		slog.String("loan_id", loan.LoanID),
		slog.String("principal", loan.Principal.String()),
		slog.Int("term_months", loan.TermMonths))
	return &loan, nil
}

// GetLoanByID retrieves a single loan.
func (s *loanService) GetLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to find loan %s: %w", loanID, err)
	}
	return loan, nil
}

// ListLoans retrieves a page of loans.
func (s *loanService) ListLoans(ctx context.Context, limit int, offset int) ([]domain.Loan, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.loanRepo.ListLoans(ctx, limit, offset)
}

// Disburse funds an approved loan: it generates and persists the amortization
// schedule, posts the disbursement GL entry, and marks the loan disbursed,
// all within one transaction. The loan row is locked for the duration, so a
// concurrent second disbursement observes DISBURSED and fails with a
// conflict instead of funding twice.
func (s *loanService) Disburse(ctx context.Context, loanID string, userID string) (*portssvc.DisbursementResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var result portssvc.DisbursementResult
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		loan, err := s.loanRepo.FindLoanByIDForUpdate(ctx, loanID)
		if err != nil {
			return fmt.Errorf("failed to find loan %s: %w", loanID, err)
		}
		if loan.Status == domain.LoanDisbursed {
			return fmt.Errorf("%w: loan %s is already disbursed", apperrors.ErrConflict, loanID)
		}
		if loan.Status != domain.LoanApproved {
			return fmt.Errorf("%w: loan %s is %s, only approved loans can be disbursed", apperrors.ErrConflict, loanID, loan.Status)
		}

		now := time.Now().UTC()
		firstDue := monthAnchor(now).AddDate(0, 1, 0)

		rows, err := GenerateSchedule(loan.Principal, loan.AnnualRate, loan.TermMonths, loan.FeeRule, firstDue)
		if err != nil {
			return err
		}
		for i := range rows {
			rows[i].RowID = uuid.NewString()
			rows[i].LoanID = loanID
			rows[i].AuditFields = domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			}
		}
		if err := s.scheduleRepo.SaveScheduleRows(ctx, rows); err != nil {
			return fmt.Errorf("failed to save amortization schedule: %w", err)
		}

		entry, err := s.postingSvc.PostEvent(ctx, dto.PostEventRequest{
			EventType:       domain.SourceDisbursement,
			SourceReference: loanID,
			Amount:          loan.Principal,
			EffectiveDate:   now,
			CurrencyCode:    loan.CurrencyCode,
			Description:     fmt.Sprintf("Disbursement of loan %s to %s", loanID, loan.BorrowerName),
		}, userID)
		if err != nil {
			var noMapping *apperrors.NoMappingError
			if errors.As(err, &noMapping) && !s.cfg.MappingRequired(domain.SourceDisbursement) {
				logger.Warn("No disbursement mapping configured, funding without GL entry",
					slog.String("loan_id", loanID))
			} else {
				return err
			}
		}

		if err := s.loanRepo.MarkDisbursed(ctx, loanID, now, userID); err != nil {
			return fmt.Errorf("failed to mark loan %s disbursed: %w", loanID, err)
		}

		loan.Status = domain.LoanDisbursed
		loan.DisbursedAt = &now
		result = portssvc.DisbursementResult{Loan: loan, Schedule: rows, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Disbursements.Inc()
	logger.Info("Loan disbursed",
		slog.String("loan_id", loanID),
		slog.Int("installments", len(result.Schedule)))
	return &result, nil
}

// RecordPayment records a repayment, applies it to the schedule oldest-first,
// and posts the repayment GL entry. The external payment reference is the
// idempotency key: replaying a reference returns the already-recorded payment
// without moving the schedule or the ledger again.
func (s *loanService) RecordPayment(ctx context.Context, loanID string, req dto.RecordPaymentRequest, userID string) (*portssvc.PaymentResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	amount := accounting.Round(req.Amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: payment amount must be positive, got %s", apperrors.ErrValidation, req.Amount)
	}

	var result portssvc.PaymentResult
	var replayed bool
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		loan, err := s.loanRepo.FindLoanByIDForUpdate(ctx, loanID)
		if err != nil {
			return fmt.Errorf("failed to find loan %s: %w", loanID, err)
		}
		if loan.Status != domain.LoanDisbursed {
			return fmt.Errorf("%w: loan %s is %s, payments apply to disbursed loans only", apperrors.ErrConflict, loanID, loan.Status)
		}

		existing, err := s.loanRepo.FindPaymentByReference(ctx, loanID, req.Reference)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("failed to check payment reference: %w", err)
		}
		if existing != nil {
			schedule, err := s.scheduleRepo.FindScheduleByLoanID(ctx, loanID)
			if err != nil {
				return fmt.Errorf("failed to load schedule for loan %s: %w", loanID, err)
			}
			result = portssvc.PaymentResult{Payment: existing, Schedule: schedule}
			replayed = true
			return nil
		}

		now := time.Now().UTC()
		receivedAt := now
		if req.ReceivedAt != nil {
			receivedAt = req.ReceivedAt.UTC()
		}

		payment := domain.Payment{
			PaymentID:  uuid.NewString(),
			LoanID:     loanID,
			Amount:     amount,
			Reference:  req.Reference,
			ReceivedAt: receivedAt,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.loanRepo.SavePayment(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		schedule, err := s.scheduleRepo.FindScheduleByLoanID(ctx, loanID)
		if err != nil {
			return fmt.Errorf("failed to load schedule for loan %s: %w", loanID, err)
		}
		schedule, err = s.applyToSchedule(ctx, schedule, amount, userID, now)
		if err != nil {
			return err
		}

		entry, err := s.postingSvc.PostEvent(ctx, dto.PostEventRequest{
			EventType:       domain.SourceRepayment,
			SourceReference: fmt.Sprintf("%s:%s", loanID, req.Reference),
			Amount:          amount,
			EffectiveDate:   receivedAt,
			CurrencyCode:    loan.CurrencyCode,
			Description:     fmt.Sprintf("Repayment %s on loan %s", req.Reference, loanID),
		}, userID)
		if err != nil {
			var noMapping *apperrors.NoMappingError
			if errors.As(err, &noMapping) && !s.cfg.MappingRequired(domain.SourceRepayment) {
				logger.Warn("No repayment mapping configured, payment recorded without GL entry",
					slog.String("loan_id", loanID),
					slog.String("reference", req.Reference))
			} else {
				return err
			}
		}

		if fullyPaid(schedule) {
			if err := s.loanRepo.UpdateLoanStatus(ctx, loanID, domain.LoanClosed, userID, now); err != nil {
				return fmt.Errorf("failed to close loan %s: %w", loanID, err)
			}
			logger.Info("Loan fully repaid and closed", slog.String("loan_id", loanID))
		}

		result = portssvc.PaymentResult{Payment: &payment, Schedule: schedule, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		logger.Info("Payment reference already recorded, returning existing payment",
			slog.String("loan_id", loanID),
			slog.String("reference", req.Reference))
		return &result, nil
	}

	metrics.Repayments.Inc()
	logger.Info("Payment recorded",
		slog.String("loan_id", loanID),
		slog.String("reference", req.Reference),
		slog.String("amount", amount.String()))
	return &result, nil
}

// GetSchedule returns the loan's schedule with overdue state resolved at read
// time: an unpaid installment past its due date presents as OVERDUE without a
// background job mutating rows.
func (s *loanService) GetSchedule(ctx context.Context, loanID string) ([]domain.ScheduleRow, error) {
	if _, err := s.loanRepo.FindLoanByID(ctx, loanID); err != nil {
		return nil, fmt.Errorf("failed to find loan %s: %w", loanID, err)
	}
	rows, err := s.scheduleRepo.FindScheduleByLoanID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule for loan %s: %w", loanID, err)
	}

	today := time.Now().UTC()
	for i, r := range rows {
		if r.Status != domain.InstallmentPaid && r.DueDate.Before(today) {
			rows[i].Status = domain.InstallmentOverdue
		}
	}
	return rows, nil
}

// applyToSchedule allocates a payment across unpaid installments oldest-first.
// An amount exceeding the total outstanding is rejected rather than left
// dangling as unapplied cash.
func (s *loanService) applyToSchedule(ctx context.Context, schedule []domain.ScheduleRow, amount decimal.Decimal, userID string, now time.Time) ([]domain.ScheduleRow, error) {
	remaining := amount
	for i := range schedule {
		if remaining.IsZero() {
			break
		}
		row := &schedule[i]
		outstanding := row.Outstanding()
		if outstanding.LessThanOrEqual(decimal.Zero) {
			continue
		}

		applied := decimal.Min(remaining, outstanding)
		row.AmountPaid = row.AmountPaid.Add(applied)
		remaining = remaining.Sub(applied)

		if row.Outstanding().IsZero() {
			row.Status = domain.InstallmentPaid
		} else {
			row.Status = domain.InstallmentPartiallyPaid
		}
		if err := s.scheduleRepo.UpdateRowPayment(ctx, row.RowID, row.AmountPaid, row.Status, userID, now); err != nil {
			return nil, fmt.Errorf("failed to update installment %d: %w", row.InstallmentNumber, err)
		}
	}

	if remaining.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: payment exceeds total outstanding by %s", apperrors.ErrValidation, remaining)
	}
	return schedule, nil
}

// fullyPaid reports whether every installment is settled.
func fullyPaid(schedule []domain.ScheduleRow) bool {
	for _, r := range schedule {
		if r.Status != domain.InstallmentPaid {
			return false
		}
	}
	return len(schedule) > 0
}

// monthAnchor truncates a timestamp to the first day of its month.
func monthAnchor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
