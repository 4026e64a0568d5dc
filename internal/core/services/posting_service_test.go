package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zotta/ledger-core/internal/apperrors"
	"github.com/zotta/ledger-core/internal/core/domain"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/core/services"
	"github.com/zotta/ledger-core/internal/dto"
)

type postingFixture struct {
	journalRepo *MockJournalRepository
	mappingRepo *MockMappingRepository
	accountRepo *MockAccountRepository
	periodRepo  *MockPeriodRepository
	svc         portssvc.PostingSvcFacade

	mapping       domain.GLMapping
	debitAccount  domain.Account
	creditAccount domain.Account
}

func newPostingFixture() *postingFixture {
	f := &postingFixture{
		journalRepo: new(MockJournalRepository),
		mappingRepo: new(MockMappingRepository),
		accountRepo: new(MockAccountRepository),
		periodRepo:  new(MockPeriodRepository),
	}
	f.svc = services.NewPostingService(f.journalRepo, f.mappingRepo, f.accountRepo, f.periodRepo, fakeTxManager{})

	f.debitAccount = domain.Account{AccountID: uuid.NewString(), Code: "1100", Name: "Loans Receivable", AccountType: domain.Asset, IsActive: true}
	f.creditAccount = domain.Account{AccountID: uuid.NewString(), Code: "1000", Name: "Cash", AccountType: domain.Asset, IsActive: true}
	f.mapping = domain.GLMapping{
		MappingID:       uuid.NewString(),
		EventType:       domain.SourceDisbursement,
		DebitAccountID:  f.debitAccount.AccountID,
		CreditAccountID: f.creditAccount.AccountID,
		IsActive:        true,
		RequireMapping:  true,
	}
	return f
}

func (f *postingFixture) eventRequest() dto.PostEventRequest {
	return dto.PostEventRequest{
		EventType:       domain.SourceDisbursement,
		SourceReference: uuid.NewString(),
		Amount:          dec("100000"),
		EffectiveDate:   time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC),
		CurrencyCode:    "EUR",
	}
}

func TestPostEventPostsBalancedEntry(t *testing.T) {
	f := newPostingFixture()
	ctx := context.Background()
	req := f.eventRequest()

	f.journalRepo.On("FindEntryBySource", mock.Anything, req.EventType, req.SourceReference).Return(nil, apperrors.ErrNotFound).Once()
	f.mappingRepo.On("FindActiveMappingByEventType", mock.Anything, req.EventType).Return(&f.mapping, nil).Once()
	f.accountRepo.On("FindAccountsByIDs", mock.Anything, mock.AnythingOfType("[]string")).Return(map[string]domain.Account{
		f.debitAccount.AccountID:  f.debitAccount,
		f.creditAccount.AccountID: f.creditAccount,
	}, nil).Once()
	f.periodRepo.On("FindPeriodByDate", mock.Anything, mock.AnythingOfType("time.Time")).Return(nil, apperrors.ErrNotFound).Once()
	f.journalRepo.On("NextEntryNumber", mock.Anything).Return("JE-000042", nil).Once()

	var savedEntry domain.JournalEntry
	var savedLines []domain.JournalLine
	f.journalRepo.On("SaveEntry", mock.Anything, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.JournalLine")).
		Run(func(args mock.Arguments) {
			savedEntry = args.Get(1).(domain.JournalEntry)
			savedLines = args.Get(2).([]domain.JournalLine)
		}).Return(nil).Once()

	entry, err := f.svc.PostEvent(ctx, req, "system")

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, domain.EntryPosted, savedEntry.Status)
	assert.Equal(t, req.EventType, savedEntry.SourceType)
	assert.Equal(t, req.SourceReference, savedEntry.SourceReference)
	assert.True(t, savedEntry.TotalDebits.Equal(savedEntry.TotalCredits))

	require.Len(t, savedLines, 2)
	assert.Equal(t, f.mapping.DebitAccountID, savedLines[0].AccountID)
	assert.True(t, savedLines[0].DebitAmount.Equal(dec("100000")))
	assert.Equal(t, f.mapping.CreditAccountID, savedLines[1].AccountID)
	assert.True(t, savedLines[1].CreditAmount.Equal(dec("100000")))
	f.journalRepo.AssertExpectations(t)
}

func TestPostEventIsIdempotentOnSourceReference(t *testing.T) {
	f := newPostingFixture()
	ctx := context.Background()
	req := f.eventRequest()

	existing := &domain.JournalEntry{
		EntryID:         uuid.NewString(),
		Status:          domain.EntryPosted,
		SourceType:      req.EventType,
		SourceReference: req.SourceReference,
	}
	f.journalRepo.On("FindEntryBySource", mock.Anything, req.EventType, req.SourceReference).Return(existing, nil).Once()

	entry, err := f.svc.PostEvent(ctx, req, "system")

	require.NoError(t, err)
	assert.Equal(t, existing.EntryID, entry.EntryID)
	f.journalRepo.AssertNotCalled(t, "SaveEntry", mock.Anything, mock.Anything, mock.Anything)
	f.mappingRepo.AssertNotCalled(t, "FindActiveMappingByEventType", mock.Anything, mock.Anything)
}

func TestPostEventSurfacesMissingMapping(t *testing.T) {
	f := newPostingFixture()
	ctx := context.Background()
	req := f.eventRequest()

	f.journalRepo.On("FindEntryBySource", mock.Anything, req.EventType, req.SourceReference).Return(nil, apperrors.ErrNotFound).Once()
	f.mappingRepo.On("FindActiveMappingByEventType", mock.Anything, req.EventType).Return(nil, apperrors.ErrNotFound).Once()

	_, err := f.svc.PostEvent(ctx, req, "system")

	require.Error(t, err)
	var noMapping *apperrors.NoMappingError
	require.ErrorAs(t, err, &noMapping)
	assert.Equal(t, req.EventType, noMapping.EventType)
	f.journalRepo.AssertNotCalled(t, "SaveEntry", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostEventAdoptsConcurrentWinner(t *testing.T) {
	// Two posters race the same event; the loser hits the unique index and
	// adopts the winner's entry instead of failing.
	f := newPostingFixture()
	ctx := context.Background()
	req := f.eventRequest()

	winner := &domain.JournalEntry{EntryID: uuid.NewString(), Status: domain.EntryPosted}
	f.journalRepo.On("FindEntryBySource", mock.Anything, req.EventType, req.SourceReference).Return(nil, apperrors.ErrNotFound).Once()
	f.mappingRepo.On("FindActiveMappingByEventType", mock.Anything, req.EventType).Return(&f.mapping, nil).Once()
	f.accountRepo.On("FindAccountsByIDs", mock.Anything, mock.AnythingOfType("[]string")).Return(map[string]domain.Account{
		f.debitAccount.AccountID:  f.debitAccount,
		f.creditAccount.AccountID: f.creditAccount,
	}, nil).Once()
	f.periodRepo.On("FindPeriodByDate", mock.Anything, mock.AnythingOfType("time.Time")).Return(nil, apperrors.ErrNotFound).Once()
	f.journalRepo.On("NextEntryNumber", mock.Anything).Return("JE-000043", nil).Once()
	f.journalRepo.On("SaveEntry", mock.Anything, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.JournalLine")).Return(apperrors.ErrDuplicate).Once()
	f.journalRepo.On("FindEntryBySource", mock.Anything, req.EventType, req.SourceReference).Return(winner, nil).Once()

	entry, err := f.svc.PostEvent(ctx, req, "system")

	require.NoError(t, err)
	assert.Equal(t, winner.EntryID, entry.EntryID)
}

func TestPostEventRejectsNonPositiveAmount(t *testing.T) {
	f := newPostingFixture()
	req := f.eventRequest()
	req.Amount = dec("0")

	_, err := f.svc.PostEvent(context.Background(), req, "system")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPostEventRejectsInactiveMappedAccount(t *testing.T) {
	f := newPostingFixture()
	ctx := context.Background()
	req := f.eventRequest()
	f.creditAccount.IsActive = false

	f.journalRepo.On("FindEntryBySource", mock.Anything, req.EventType, req.SourceReference).Return(nil, apperrors.ErrNotFound).Once()
	f.mappingRepo.On("FindActiveMappingByEventType", mock.Anything, req.EventType).Return(&f.mapping, nil).Once()
	f.accountRepo.On("FindAccountsByIDs", mock.Anything, mock.AnythingOfType("[]string")).Return(map[string]domain.Account{
		f.debitAccount.AccountID:  f.debitAccount,
		f.creditAccount.AccountID: f.creditAccount,
	}, nil).Once()

	_, err := f.svc.PostEvent(ctx, req, "system")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	f.journalRepo.AssertNotCalled(t, "SaveEntry", mock.Anything, mock.Anything, mock.Anything)
}
