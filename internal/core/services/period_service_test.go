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
)

type periodFixture struct {
	periodRepo    *MockPeriodRepository
	journalRepo   *MockJournalRepository
	anomalyRepo   *MockAnomalyRepository
	reportingRepo *MockReportingRepository
	svc           portssvc.PeriodSvcFacade

	period domain.Period
}

func newPeriodFixture() *periodFixture {
	f := &periodFixture{
		periodRepo:    new(MockPeriodRepository),
		journalRepo:   new(MockJournalRepository),
		anomalyRepo:   new(MockAnomalyRepository),
		reportingRepo: new(MockReportingRepository),
	}
	f.svc = services.NewPeriodService(f.periodRepo, f.journalRepo, f.anomalyRepo, f.reportingRepo)
	f.period = domain.Period{
		PeriodID:  uuid.NewString(),
		Name:      "2026-08",
		StartDate: time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC),
		Status:    domain.PeriodOpen,
	}
	return f
}

func (f *periodFixture) expectBalancedTrial() {
	rows := []domain.TrialBalanceRow{
		{AccountID: uuid.NewString(), Debit: dec("1000"), Credit: dec("0")},
		{AccountID: uuid.NewString(), Debit: dec("0"), Credit: dec("1000")},
	}
	f.reportingRepo.On("GetTrialBalanceData", mock.Anything, f.period.EndDate).Return(rows, nil).Once()
}

func TestCreatePeriodRejectsOverlap(t *testing.T) {
	f := newPeriodFixture()
	existing := f.period
	f.periodRepo.On("FindOverlappingPeriod", mock.Anything, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return(&existing, nil).Once()

	_, err := f.svc.CreatePeriod(context.Background(), "2026-08-dup",
		f.period.StartDate, f.period.EndDate, "admin")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	f.periodRepo.AssertNotCalled(t, "SavePeriod", mock.Anything, mock.Anything)
}

func TestCreatePeriodRejectsInvertedRange(t *testing.T) {
	f := newPeriodFixture()

	_, err := f.svc.CreatePeriod(context.Background(), "backwards",
		f.period.EndDate, f.period.StartDate, "admin")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSoftCloseBlockedByUnpostedEntries(t *testing.T) {
	// Scenario: one draft entry in the period. Readiness reports the failing
	// check and the period stays open.
	f := newPeriodFixture()
	f.periodRepo.On("FindPeriodByID", mock.Anything, f.period.PeriodID).Return(&f.period, nil).Once()
	f.journalRepo.On("CountEntriesByStatusInRange", mock.Anything, f.period.StartDate, f.period.EndDate, mock.AnythingOfType("[]domain.EntryStatus")).Return(1, nil).Once()
	f.expectBalancedTrial()
	f.anomalyRepo.On("CountOpenAnomaliesInRange", mock.Anything, f.period.StartDate, f.period.EndDate).Return(0, nil).Once()

	readiness, err := f.svc.SoftClose(context.Background(), f.period.PeriodID, "admin")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	require.NotNil(t, readiness)
	assert.False(t, readiness.IsReady)

	var failed []string
	for _, c := range readiness.Checks {
		if !c.Passed {
			failed = append(failed, c.Name)
		}
	}
	assert.Equal(t, []string{services.CheckNoUnpostedEntries}, failed)
	f.periodRepo.AssertNotCalled(t, "UpdatePeriodStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSoftCloseSucceedsWhenAllChecksPass(t *testing.T) {
	f := newPeriodFixture()
	f.periodRepo.On("FindPeriodByID", mock.Anything, f.period.PeriodID).Return(&f.period, nil).Once()
	f.journalRepo.On("CountEntriesByStatusInRange", mock.Anything, f.period.StartDate, f.period.EndDate, mock.AnythingOfType("[]domain.EntryStatus")).Return(0, nil).Once()
	f.expectBalancedTrial()
	f.anomalyRepo.On("CountOpenAnomaliesInRange", mock.Anything, f.period.StartDate, f.period.EndDate).Return(0, nil).Once()
	f.periodRepo.On("UpdatePeriodStatus", mock.Anything, f.period.PeriodID, domain.PeriodSoftClose, "admin", mock.AnythingOfType("time.Time")).Return(nil).Once()

	readiness, err := f.svc.SoftClose(context.Background(), f.period.PeriodID, "admin")

	require.NoError(t, err)
	assert.True(t, readiness.IsReady)
	f.periodRepo.AssertExpectations(t)
}

func TestSoftCloseBlockedByOpenAnomalies(t *testing.T) {
	f := newPeriodFixture()
	f.periodRepo.On("FindPeriodByID", mock.Anything, f.period.PeriodID).Return(&f.period, nil).Once()
	f.journalRepo.On("CountEntriesByStatusInRange", mock.Anything, f.period.StartDate, f.period.EndDate, mock.AnythingOfType("[]domain.EntryStatus")).Return(0, nil).Once()
	f.expectBalancedTrial()
	f.anomalyRepo.On("CountOpenAnomaliesInRange", mock.Anything, f.period.StartDate, f.period.EndDate).Return(3, nil).Once()

	readiness, err := f.svc.SoftClose(context.Background(), f.period.PeriodID, "admin")

	require.Error(t, err)
	require.NotNil(t, readiness)
	assert.False(t, readiness.IsReady)
	assert.Contains(t, readiness.Recommendation, services.CheckNoOpenAnomalies)
}

func TestSoftCloseOnNonOpenPeriodFails(t *testing.T) {
	f := newPeriodFixture()
	f.period.Status = domain.PeriodClosed
	f.periodRepo.On("FindPeriodByID", mock.Anything, f.period.PeriodID).Return(&f.period, nil).Once()

	_, err := f.svc.SoftClose(context.Background(), f.period.PeriodID, "admin")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestReopenSoftClosedPeriod(t *testing.T) {
	f := newPeriodFixture()
	f.period.Status = domain.PeriodSoftClose
	f.periodRepo.On("FindPeriodByID", mock.Anything, f.period.PeriodID).Return(&f.period, nil).Once()
	f.periodRepo.On("UpdatePeriodStatus", mock.Anything, f.period.PeriodID, domain.PeriodOpen, "admin", mock.AnythingOfType("time.Time")).Return(nil).Once()

	period, err := f.svc.Reopen(context.Background(), f.period.PeriodID, "admin")

	require.NoError(t, err)
	assert.Equal(t, domain.PeriodOpen, period.Status)
}

func TestReopenClosedPeriodFails(t *testing.T) {
	f := newPeriodFixture()
	f.period.Status = domain.PeriodClosed
	f.periodRepo.On("FindPeriodByID", mock.Anything, f.period.PeriodID).Return(&f.period, nil).Once()

	_, err := f.svc.Reopen(context.Background(), f.period.PeriodID, "admin")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCloseRequiresSoftCloseFirst(t *testing.T) {
	f := newPeriodFixture()
	f.periodRepo.On("FindPeriodByID", mock.Anything, f.period.PeriodID).Return(&f.period, nil).Once()

	_, err := f.svc.Close(context.Background(), f.period.PeriodID, "admin")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCloseFinalizesSoftClosedPeriod(t *testing.T) {
	f := newPeriodFixture()
	f.period.Status = domain.PeriodSoftClose
	f.periodRepo.On("FindPeriodByID", mock.Anything, f.period.PeriodID).Return(&f.period, nil).Once()
	f.periodRepo.On("UpdatePeriodStatus", mock.Anything, f.period.PeriodID, domain.PeriodClosed, "admin", mock.AnythingOfType("time.Time")).Return(nil).Once()

	period, err := f.svc.Close(context.Background(), f.period.PeriodID, "admin")

	require.NoError(t, err)
	assert.Equal(t, domain.PeriodClosed, period.Status)
}
