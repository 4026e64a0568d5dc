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

// postingService is the GL auto-posting adapter. It translates loan lifecycle
// events into balanced journal entries using the configured event mappings,
// posts them immediately, and is idempotent on (event type, source reference).
type postingService struct {
	journalRepo portsrepo.JournalRepositoryFacade
	mappingRepo portsrepo.GLMappingRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	periodRepo  portsrepo.PeriodRepositoryFacade
	txManager   portsrepo.TxManager
}

// NewPostingService creates a new PostingService.
func NewPostingService(
	journalRepo portsrepo.JournalRepositoryFacade,
	mappingRepo portsrepo.GLMappingRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	periodRepo portsrepo.PeriodRepositoryFacade,
	txManager portsrepo.TxManager,
) portssvc.PostingSvcFacade {
	return &postingService{
		journalRepo: journalRepo,
		mappingRepo: mappingRepo,
		accountRepo: accountRepo,
		periodRepo:  periodRepo,
		txManager:   txManager,
	}
}

var _ portssvc.PostingSvcFacade = (*postingService)(nil)

// PostEvent builds and posts the journal entry for one business event.
//
// Replaying the same (eventType, sourceReference) pair returns the entry
// posted the first time; no duplicate GL impact is ever created. A missing
// mapping surfaces as NoMappingError, which the caller treats as fatal or
// tolerable per event-type policy.
func (s *postingService) PostEvent(ctx context.Context, req dto.PostEventRequest, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()
	defer func() {
		metrics.PostingDuration.Observe(time.Since(start).Seconds())
	}()

	amount := accounting.Round(req.Amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: event amount must be positive, got %s", apperrors.ErrValidation, req.Amount)
	}

	// Fast idempotency path before we touch the mapping table.
	existing, err := s.journalRepo.FindEntryBySource(ctx, req.EventType, req.SourceReference)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing entry: %w", err)
	}
	if existing != nil {
		logger.Info("Event already posted, returning existing entry",
			slog.String("event_type", req.EventType),
			slog.String("source_reference", req.SourceReference),
			slog.String("entry_id", existing.EntryID))
		return existing, nil
	}

	// Mappings are read fresh on every event so configuration changes take
	// effect without a restart.
	mapping, err := s.mappingRepo.FindActiveMappingByEventType(ctx, req.EventType)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, &apperrors.NoMappingError{EventType: req.EventType}
		}
		return nil, fmt.Errorf("failed to load GL mapping for %s: %w", req.EventType, err)
	}

	var entry *domain.JournalEntry
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		entry, err = s.buildAndPost(ctx, req, mapping, amount, userID)
		return err
	})
	if err != nil {
		// A concurrent poster of the same event wins the unique index on
		// (source_type, source_reference); adopt its entry.
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.journalRepo.FindEntryBySource(ctx, req.EventType, req.SourceReference)
		}
		return nil, err
	}

	metrics.EntriesPosted.WithLabelValues(req.EventType).Inc()
	logger.Info("Event auto-posted",
		slog.String("event_type", req.EventType),
		slog.String("source_reference", req.SourceReference),
		slog.String("entry_id", entry.EntryID),
		slog.String("amount", amount.String()))
	return entry, nil
}

func (s *postingService) buildAndPost(ctx context.Context, req dto.PostEventRequest, mapping *domain.GLMapping, amount decimal.Decimal, userID string) (*domain.JournalEntry, error) {
	now := time.Now().UTC()
	entryID := uuid.NewString()

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Auto-posted %s for %s", req.EventType, req.SourceReference)
	}

	lines := []domain.JournalLine{
		{
			LineID:      uuid.NewString(),
			EntryID:     entryID,
			AccountID:   mapping.DebitAccountID,
			DebitAmount: amount,
			Description: description,
			AuditFields: domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID},
		},
		{
			LineID:       uuid.NewString(),
			EntryID:      entryID,
			AccountID:    mapping.CreditAccountID,
			CreditAmount: amount,
			Description:  description,
			AuditFields:  domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID},
		},
	}

	// Auto-posted entries go through the same gates as manual ones.
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

	entry := domain.JournalEntry{
		EntryID:         entryID,
		EntryNumber:     entryNumber,
		Status:          domain.EntryPosted,
		SourceType:      req.EventType,
		SourceReference: req.SourceReference,
		Description:     description,
		TransactionDate: now,
		EffectiveDate:   req.EffectiveDate,
		CurrencyCode:    req.CurrencyCode,
		ExchangeRate:    decimal.NewFromInt(1),
		TotalDebits:     amount,
		TotalCredits:    amount,
		Version:         1,
		Lines:           lines,
		AuditFields:     domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID},
	}

	if err := s.journalRepo.SaveEntry(ctx, entry, lines); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *postingService) checkAccountsActive(ctx context.Context, lines []domain.JournalLine) error {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.AccountID)
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, id := range ids {
		account, ok := accounts[id]
		if !ok {
			return fmt.Errorf("%w: mapped account %s does not exist", apperrors.ErrValidation, id)
		}
		if !account.IsActive {
			return fmt.Errorf("%w: mapped account %s (%s) is inactive", apperrors.ErrValidation, account.Code, id)
		}
	}
	return nil
}

func (s *postingService) checkPeriodOpen(ctx context.Context, effectiveDate time.Time) error {
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

// mappingService manages event-to-account mapping configuration.
type mappingService struct {
	mappingRepo portsrepo.GLMappingRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewMappingService creates a new MappingService.
func NewMappingService(mappingRepo portsrepo.GLMappingRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade) portssvc.MappingSvcFacade {
	return &mappingService{mappingRepo: mappingRepo, accountRepo: accountRepo}
}

var _ portssvc.MappingSvcFacade = (*mappingService)(nil)

// CreateMapping configures the debit/credit accounts for an event type. Both
// accounts must exist and be active.
func (s *mappingService) CreateMapping(ctx context.Context, req dto.CreateMappingRequest, creatorUserID string) (*domain.GLMapping, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.DebitAccountID == req.CreditAccountID {
		return nil, fmt.Errorf("%w: debit and credit accounts must differ", apperrors.ErrValidation)
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, []string{req.DebitAccountID, req.CreditAccountID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch mapped accounts: %w", err)
	}
	for _, id := range []string{req.DebitAccountID, req.CreditAccountID} {
		account, ok := accounts[id]
		if !ok {
			return nil, fmt.Errorf("%w: account %s does not exist", apperrors.ErrValidation, id)
		}
		if !account.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, account.Code)
		}
	}

	now := time.Now().UTC()
	mapping := domain.GLMapping{
		MappingID:       uuid.NewString(),
		EventType:       req.EventType,
		DebitAccountID:  req.DebitAccountID,
		CreditAccountID: req.CreditAccountID,
		IsActive:        true,
		RequireMapping:  req.RequireMapping,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.mappingRepo.SaveMapping(ctx, mapping); err != nil {
		logger.Error("Failed to save GL mapping", slog.String("error", err.Error()), slog.String("event_type", req.EventType))
		return nil, fmt.Errorf("failed to save GL mapping: %w", err)
	}

	logger.Info("GL mapping created",
		slog.String("mapping_id", mapping.MappingID),
		slog.String("event_type", mapping.EventType))
	return &mapping, nil
}

// ListMappings returns all configured mappings, active and inactive.
func (s *mappingService) ListMappings(ctx context.Context) ([]domain.GLMapping, error) {
	return s.mappingRepo.ListMappings(ctx)
}

// DeactivateMapping disables a mapping. Subsequent events of its type surface
// a configuration gap instead of posting.
func (s *mappingService) DeactivateMapping(ctx context.Context, mappingID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	if err := s.mappingRepo.DeactivateMapping(ctx, mappingID, userID); err != nil {
		return fmt.Errorf("failed to deactivate mapping %s: %w", mappingID, err)
	}
	logger.Info("GL mapping deactivated", slog.String("mapping_id", mappingID))
	return nil
}
