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
	"github.com/zotta/ledger-core/internal/platform/metrics"
	"github.com/zotta/ledger-core/internal/utils/accounting"
)

// journalService is the journal entry engine. Entries move strictly forward
// through draft -> submitted -> approved -> posted; posted entries are
// immutable and can only be corrected by a reversal entry.
type journalService struct {
	journalRepo portsrepo.JournalRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	periodRepo  portsrepo.PeriodRepositoryFacade
	txManager   portsrepo.TxManager
}

// NewJournalService creates a new JournalService.
func NewJournalService(
	journalRepo portsrepo.JournalRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	periodRepo portsrepo.PeriodRepositoryFacade,
	txManager portsrepo.TxManager,
) portssvc.JournalSvcFacade {
	return &journalService{
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		periodRepo:  periodRepo,
		txManager:   txManager,
	}
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// CreateEntry validates and persists a new manual entry in DRAFT state.
func (s *journalService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	entryID := uuid.NewString()
	lines := make([]domain.JournalLine, len(req.Lines))
	for i, lr := range req.Lines {
		lines[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      entryID,
			AccountID:    lr.AccountID,
			DebitAmount:  accounting.Round(lr.DebitAmount),
			CreditAmount: accounting.Round(lr.CreditAmount),
			Description:  lr.Description,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     creatorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: creatorUserID,
			},
		}
	}

	if err := accounting.ValidateEntryBalance(lines); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	if err := s.checkAccountsActive(ctx, lines); err != nil {
		return nil, err
	}
	if err := s.checkPeriodOpen(ctx, req.EffectiveDate); err != nil {
		return nil, err
	}

	entryNumber, err := s.journalRepo.NextEntryNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve entry number: %w", err)
	}

	debits, credits := accounting.SumLines(lines)
	exchangeRate := req.ExchangeRate
	if exchangeRate.IsZero() {
		exchangeRate = decimal.NewFromInt(1)
	}

	entry := domain.JournalEntry{
		EntryID:         entryID,
		EntryNumber:     entryNumber,
		Status:          domain.EntryDraft,
		SourceType:      domain.SourceManual,
		Description:     req.Description,
		TransactionDate: req.TransactionDate,
		EffectiveDate:   req.EffectiveDate,
		CurrencyCode:    req.CurrencyCode,
		ExchangeRate:    exchangeRate,
		TotalDebits:     debits,
		TotalCredits:    credits,
		Version:         1,
		Lines:           lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.journalRepo.SaveEntry(ctx, entry, lines); err != nil {
		logger.Error("Failed to save journal entry", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	logger.Info("Journal entry created",
		slog.String("entry_id", entry.EntryID),
		slog.String("entry_number", entry.EntryNumber),
		slog.String("total_debits", debits.String()))
	return &entry, nil
}

// SubmitEntry moves a DRAFT entry to SUBMITTED.
func (s *journalService) SubmitEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	return s.transition(ctx, entryID, domain.EntrySubmitted, userID)
}

// ApproveEntry moves a SUBMITTED entry to APPROVED.
func (s *journalService) ApproveEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	return s.transition(ctx, entryID, domain.EntryApproved, userID)
}

// PostEntry moves an APPROVED entry to POSTED, making it part of the immutable
// ledger. Posting an already-posted entry is a no-op returning current state.
func (s *journalService) PostEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}

	if entry.Status == domain.EntryPosted {
		logger.Info("Entry already posted, returning current state", slog.String("entry_id", entryID))
		return entry, nil
	}
	if !entry.Status.CanTransitionTo(domain.EntryPosted) {
		return nil, &apperrors.StateTransitionError{
			EntryID:   entryID,
			Current:   string(entry.Status),
			Requested: string(domain.EntryPosted),
		}
	}

	// The period may have closed since the entry was drafted.
	if err := s.checkPeriodOpen(ctx, entry.EffectiveDate); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.journalRepo.UpdateEntryStatus(ctx, entryID, entry.Version, domain.EntryPosted, userID, now); err != nil {
		return nil, fmt.Errorf("failed to post entry %s: %w", entryID, err)
	}

	entry.Status = domain.EntryPosted
	entry.Version++
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID

	metrics.EntriesPosted.WithLabelValues(entry.SourceType).Inc()
	logger.Info("Journal entry posted",
		slog.String("entry_id", entryID),
		slog.String("entry_number", entry.EntryNumber))
	return entry, nil
}

// ReverseEntry corrects a POSTED entry by creating a mirror entry with debits
// and credits swapped, posted immediately, and linking the pair. The original
// entry's lines are never touched; together the two entries net to zero.
func (s *journalService) ReverseEntry(ctx context.Context, entryID string, reason string, effectiveDate time.Time, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if reason == "" {
		return nil, fmt.Errorf("%w: reversal reason is required", apperrors.ErrValidation)
	}

	var reversal *domain.JournalEntry
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		original, err := s.journalRepo.FindEntryByID(ctx, entryID)
		if err != nil {
			return fmt.Errorf("failed to find entry %s: %w", entryID, err)
		}
		if !original.Status.CanTransitionTo(domain.EntryReversed) {
			return &apperrors.StateTransitionError{
				EntryID:   entryID,
				Current:   string(original.Status),
				Requested: string(domain.EntryReversed),
			}
		}
		if original.ReversingEntryID != nil {
			return fmt.Errorf("%w: entry %s is already reversed by %s", apperrors.ErrConflict, entryID, *original.ReversingEntryID)
		}
		if err := s.checkPeriodOpen(ctx, effectiveDate); err != nil {
			return err
		}

		originalLines, err := s.journalRepo.FindLinesByEntryID(ctx, entryID)
		if err != nil {
			return fmt.Errorf("failed to load lines for entry %s: %w", entryID, err)
		}

		now := time.Now().UTC()
		reversalID := uuid.NewString()
		mirrorLines := make([]domain.JournalLine, len(originalLines))
		for i, l := range originalLines {
			mirrorLines[i] = domain.JournalLine{
				LineID:       uuid.NewString(),
				EntryID:      reversalID,
				AccountID:    l.AccountID,
				DebitAmount:  l.CreditAmount,
				CreditAmount: l.DebitAmount,
				Description:  l.Description,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     userID,
					LastUpdatedAt: now,
					LastUpdatedBy: userID,
				},
			}
		}

		entryNumber, err := s.journalRepo.NextEntryNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to reserve entry number: %w", err)
		}

		originalID := original.EntryID
		reversal = &domain.JournalEntry{
			EntryID:         reversalID,
			EntryNumber:     entryNumber,
			Status:          domain.EntryPosted,
			SourceType:      domain.SourceReversal,
			SourceReference: originalID,
			Description:     fmt.Sprintf("Reversal of %s: %s", original.EntryNumber, reason),
			TransactionDate: now,
			EffectiveDate:   effectiveDate,
			CurrencyCode:    original.CurrencyCode,
			ExchangeRate:    original.ExchangeRate,
			TotalDebits:     original.TotalCredits,
			TotalCredits:    original.TotalDebits,
			OriginalEntryID: &originalID,
			Version:         1,
			Lines:           mirrorLines,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}

		if err := s.journalRepo.SaveEntry(ctx, *reversal, mirrorLines); err != nil {
			return fmt.Errorf("failed to save reversal entry: %w", err)
		}
		if err := s.journalRepo.UpdateEntryStatusAndLinks(ctx, originalID, original.Version, domain.EntryReversed, &reversalID, userID, now); err != nil {
			return fmt.Errorf("failed to mark entry %s reversed: %w", originalID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.EntriesReversed.Inc()
	metrics.EntriesPosted.WithLabelValues(domain.SourceReversal).Inc()
	logger.Info("Journal entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_entry_id", reversal.EntryID))
	return reversal, nil
}

// GetEntryByID retrieves an entry with its lines.
func (s *journalService) GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	lines, err := s.journalRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for entry %s: %w", entryID, err)
	}
	entry.Lines = lines
	return entry, nil
}

// ListEntries retrieves a page of entries without their lines.
func (s *journalService) ListEntries(ctx context.Context, limit int, offset int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.journalRepo.ListEntries(ctx, limit, offset)
}

// transition advances an entry one step through the lifecycle, guarded by the
// state machine and the optimistic version check.
func (s *journalService) transition(ctx context.Context, entryID string, target domain.EntryStatus, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	if !entry.Status.CanTransitionTo(target) {
		return nil, &apperrors.StateTransitionError{
			EntryID:   entryID,
			Current:   string(entry.Status),
			Requested: string(target),
		}
	}

	now := time.Now().UTC()
	if err := s.journalRepo.UpdateEntryStatus(ctx, entryID, entry.Version, target, userID, now); err != nil {
		return nil, fmt.Errorf("failed to transition entry %s to %s: %w", entryID, target, err)
	}

	entry.Status = target
	entry.Version++
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID

	logger.Info("Journal entry transitioned",
		slog.String("entry_id", entryID),
		slog.String("status", string(target)))
	return entry, nil
}

// checkAccountsActive verifies every referenced account exists and is active.
func (s *journalService) checkAccountsActive(ctx context.Context, lines []domain.JournalLine) error {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, id := range ids {
		account, ok := accounts[id]
		if !ok {
			return fmt.Errorf("%w: account %s does not exist", apperrors.ErrValidation, id)
		}
		if !account.IsActive {
			return fmt.Errorf("%w: account %s (%s) is inactive", apperrors.ErrValidation, account.Code, id)
		}
	}
	return nil
}

// checkPeriodOpen rejects activity whose effective date falls into a period
// that is no longer open. Dates outside any configured period are allowed;
// calendars are adopted incrementally.
func (s *journalService) checkPeriodOpen(ctx context.Context, effectiveDate time.Time) error {
	period, err := s.periodRepo.FindPeriodByDate(ctx, effectiveDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to resolve period for %s: %w", effectiveDate.Format("2006-01-02"), err)
	}
	if period.Status != domain.PeriodOpen {
		return fmt.Errorf("%w: period %s is %s, no postings accepted for %s",
			apperrors.ErrConflict, period.Name, period.Status, effectiveDate.Format("2006-01-02"))
	}
	return nil
}
