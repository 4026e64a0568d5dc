package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zotta/ledger-core/internal/apperrors"
	"github.com/zotta/ledger-core/internal/core/domain"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/core/services"
	"github.com/zotta/ledger-core/internal/platform/config"
)

type anomalyFixture struct {
	anomalyRepo *MockAnomalyRepository
	journalRepo *MockJournalRepository
	svc         portssvc.AnomalySvcFacade

	entry domain.JournalEntry
}

func newAnomalyFixture() *anomalyFixture {
	f := &anomalyFixture{
		anomalyRepo: new(MockAnomalyRepository),
		journalRepo: new(MockJournalRepository),
	}
	cfg := &config.Config{
		AnomalyMeanMultiplier: 5.0,
		AnomalyMinSamples:     10,
		AnomalyRoundFloor:     10000.0,
	}
	f.svc = services.NewAnomalyService(f.anomalyRepo, f.journalRepo, cfg)
	f.entry = domain.JournalEntry{
		EntryID:      uuid.NewString(),
		Status:       domain.EntryPosted,
		SourceType:   domain.SourceManual,
		TotalDebits:  dec("1234.56"),
		TotalCredits: dec("1234.56"),
	}
	return f
}

func TestDetectFlagsAmountOutlier(t *testing.T) {
	f := newAnomalyFixture()
	f.entry.TotalDebits = dec("61234.56")

	f.journalRepo.On("FindEntryByID", mock.Anything, f.entry.EntryID).Return(&f.entry, nil).Once()
	// Mean of 10,000 over 25 samples: 61,234.56 blows past the 5x threshold.
	f.anomalyRepo.On("EntryAmountStats", mock.Anything, domain.SourceManual, f.entry.EntryID).Return(dec("10000"), 25, nil).Once()

	var saved []domain.Anomaly
	f.anomalyRepo.On("SaveAnomalies", mock.Anything, mock.AnythingOfType("[]domain.Anomaly")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).([]domain.Anomaly)
		}).Return(nil).Once()

	anomalies, err := f.svc.Detect(context.Background(), f.entry.EntryID)

	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, domain.SeverityHigh, anomalies[0].Severity)
	assert.Equal(t, domain.AnomalyOpen, anomalies[0].Status)
	assert.Contains(t, anomalies[0].Reason, "historical mean")
	assert.Equal(t, saved[0].AnomalyID, anomalies[0].AnomalyID)
}

func TestDetectStaysSilentWithoutEnoughHistory(t *testing.T) {
	f := newAnomalyFixture()
	f.entry.TotalDebits = dec("60000")

	f.journalRepo.On("FindEntryByID", mock.Anything, f.entry.EntryID).Return(&f.entry, nil).Once()
	f.anomalyRepo.On("EntryAmountStats", mock.Anything, domain.SourceManual, f.entry.EntryID).Return(dec("100"), 3, nil).Once()
	f.anomalyRepo.On("SaveAnomalies", mock.Anything, mock.AnythingOfType("[]domain.Anomaly")).Return(nil).Once()

	anomalies, err := f.svc.Detect(context.Background(), f.entry.EntryID)

	require.NoError(t, err)
	// 60,000 is round and above the floor, so the round-number check still
	// fires; the outlier check does not.
	require.Len(t, anomalies, 1)
	assert.Equal(t, domain.SeverityLow, anomalies[0].Severity)
	assert.Contains(t, anomalies[0].Reason, "round number")
}

func TestDetectFlagsRoundAmount(t *testing.T) {
	f := newAnomalyFixture()
	f.entry.TotalDebits = dec("50000")

	f.journalRepo.On("FindEntryByID", mock.Anything, f.entry.EntryID).Return(&f.entry, nil).Once()
	f.anomalyRepo.On("EntryAmountStats", mock.Anything, domain.SourceManual, f.entry.EntryID).Return(dec("48000"), 50, nil).Once()
	f.anomalyRepo.On("SaveAnomalies", mock.Anything, mock.AnythingOfType("[]domain.Anomaly")).Return(nil).Once()

	anomalies, err := f.svc.Detect(context.Background(), f.entry.EntryID)

	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, domain.SeverityLow, anomalies[0].Severity)
}

func TestDetectFlagsUnseenAccountPairing(t *testing.T) {
	f := newAnomalyFixture()
	f.entry.SourceType = domain.SourceDisbursement
	f.entry.TotalDebits = dec("5200.50")

	debitAccount := uuid.NewString()
	creditAccount := uuid.NewString()
	lines := []domain.JournalLine{
		{AccountID: debitAccount, DebitAmount: dec("5200.50"), CreditAmount: decimal.Zero},
		{AccountID: creditAccount, DebitAmount: decimal.Zero, CreditAmount: dec("5200.50")},
	}

	f.journalRepo.On("FindEntryByID", mock.Anything, f.entry.EntryID).Return(&f.entry, nil).Once()
	f.anomalyRepo.On("EntryAmountStats", mock.Anything, domain.SourceDisbursement, f.entry.EntryID).Return(dec("5000"), 40, nil).Twice()
	f.journalRepo.On("FindLinesByEntryID", mock.Anything, f.entry.EntryID).Return(lines, nil).Once()
	f.anomalyRepo.On("AccountPairSeen", mock.Anything, domain.SourceDisbursement, debitAccount, creditAccount, f.entry.EntryID).Return(false, nil).Once()
	f.anomalyRepo.On("SaveAnomalies", mock.Anything, mock.AnythingOfType("[]domain.Anomaly")).Return(nil).Once()

	anomalies, err := f.svc.Detect(context.Background(), f.entry.EntryID)

	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, domain.SeverityMedium, anomalies[0].Severity)
	assert.Contains(t, anomalies[0].Reason, "pairing")
}

func TestDetectCleanEntryProducesNothing(t *testing.T) {
	f := newAnomalyFixture()

	f.journalRepo.On("FindEntryByID", mock.Anything, f.entry.EntryID).Return(&f.entry, nil).Once()
	f.anomalyRepo.On("EntryAmountStats", mock.Anything, domain.SourceManual, f.entry.EntryID).Return(dec("1200"), 30, nil).Once()

	anomalies, err := f.svc.Detect(context.Background(), f.entry.EntryID)

	require.NoError(t, err)
	assert.Empty(t, anomalies)
	f.anomalyRepo.AssertNotCalled(t, "SaveAnomalies", mock.Anything, mock.Anything)
}

func TestDetectRejectsUnpostedEntry(t *testing.T) {
	f := newAnomalyFixture()
	f.entry.Status = domain.EntryDraft
	f.journalRepo.On("FindEntryByID", mock.Anything, f.entry.EntryID).Return(&f.entry, nil).Once()

	_, err := f.svc.Detect(context.Background(), f.entry.EntryID)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestReviewDismissesOpenAnomaly(t *testing.T) {
	f := newAnomalyFixture()
	anomaly := &domain.Anomaly{
		AnomalyID: uuid.NewString(),
		EntryID:   f.entry.EntryID,
		Severity:  domain.SeverityLow,
		Status:    domain.AnomalyOpen,
	}
	f.anomalyRepo.On("FindAnomalyByID", mock.Anything, anomaly.AnomalyID).Return(anomaly, nil).Once()
	f.anomalyRepo.On("UpdateAnomalyStatus", mock.Anything, anomaly.AnomalyID, domain.AnomalyDismissed, "reviewer", mock.AnythingOfType("time.Time")).Return(nil).Once()

	updated, err := f.svc.Review(context.Background(), anomaly.AnomalyID, "dismissed", "reviewer")

	require.NoError(t, err)
	assert.Equal(t, domain.AnomalyDismissed, updated.Status)
}

func TestReviewAlreadyTriagedAnomalyFails(t *testing.T) {
	f := newAnomalyFixture()
	anomaly := &domain.Anomaly{
		AnomalyID: uuid.NewString(),
		Status:    domain.AnomalyReviewed,
	}
	f.anomalyRepo.On("FindAnomalyByID", mock.Anything, anomaly.AnomalyID).Return(anomaly, nil).Once()

	_, err := f.svc.Review(context.Background(), anomaly.AnomalyID, "dismissed", "reviewer")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestReviewRejectsUnknownAction(t *testing.T) {
	f := newAnomalyFixture()

	_, err := f.svc.Review(context.Background(), uuid.NewString(), "archive", "reviewer")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
