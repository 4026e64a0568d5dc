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

type reportingFixture struct {
	reportingRepo *MockReportingRepository
	accountRepo   *MockAccountRepository
	svc           portssvc.ReportingSvcFacade
}

func newReportingFixture() *reportingFixture {
	f := &reportingFixture{
		reportingRepo: new(MockReportingRepository),
		accountRepo:   new(MockAccountRepository),
	}
	f.svc = services.NewReportingService(f.reportingRepo, f.accountRepo)
	return f
}

func TestAccountLedgerComputesRunningBalanceForDebitNormalAccount(t *testing.T) {
	f := newReportingFixture()
	account := &domain.Account{
		AccountID:   uuid.NewString(),
		Code:        "1000",
		Name:        "Cash",
		AccountType: domain.Asset,
		IsActive:    true,
	}
	lines := []domain.LedgerLine{
		{EntryNumber: "JE-000001", DebitAmount: dec("1000"), CreditAmount: dec("0")},
		{EntryNumber: "JE-000002", DebitAmount: dec("0"), CreditAmount: dec("300")},
		{EntryNumber: "JE-000003", DebitAmount: dec("50"), CreditAmount: dec("0")},
	}
	f.accountRepo.On("FindAccountByID", mock.Anything, account.AccountID).Return(account, nil).Once()
	f.reportingRepo.On("GetAccountLedgerData", mock.Anything, account.AccountID).Return(lines, nil).Once()

	result, err := f.svc.AccountLedger(context.Background(), account.AccountID)

	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.True(t, result[0].RunningBalance.Equal(dec("1000")))
	assert.True(t, result[1].RunningBalance.Equal(dec("700")))
	assert.True(t, result[2].RunningBalance.Equal(dec("750")))
}

func TestAccountLedgerOrientsBalanceToCreditNormalAccount(t *testing.T) {
	f := newReportingFixture()
	account := &domain.Account{
		AccountID:   uuid.NewString(),
		Code:        "4000",
		Name:        "Interest Income",
		AccountType: domain.Revenue,
		IsActive:    true,
	}
	lines := []domain.LedgerLine{
		{EntryNumber: "JE-000001", DebitAmount: dec("0"), CreditAmount: dec("1000")},
		{EntryNumber: "JE-000002", DebitAmount: dec("200"), CreditAmount: dec("0")},
	}
	f.accountRepo.On("FindAccountByID", mock.Anything, account.AccountID).Return(account, nil).Once()
	f.reportingRepo.On("GetAccountLedgerData", mock.Anything, account.AccountID).Return(lines, nil).Once()

	result, err := f.svc.AccountLedger(context.Background(), account.AccountID)

	require.NoError(t, err)
	// Credits grow a revenue account's balance; debits shrink it.
	assert.True(t, result[0].RunningBalance.Equal(dec("1000")))
	assert.True(t, result[1].RunningBalance.Equal(dec("800")))
}

func TestTrialBalanceReportsBalancedTotals(t *testing.T) {
	f := newReportingFixture()
	asOf := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	rows := []domain.TrialBalanceRow{
		{AccountCode: "1000", Debit: dec("99000"), Credit: dec("0")},
		{AccountCode: "1100", Debit: dec("100000"), Credit: dec("99000")},
		{AccountCode: "2000", Debit: dec("0"), Credit: dec("100000")},
	}
	f.reportingRepo.On("GetTrialBalanceData", mock.Anything, asOf).Return(rows, nil).Once()

	report, err := f.svc.TrialBalance(context.Background(), asOf)

	require.NoError(t, err)
	assert.True(t, report.TotalDebits.Equal(dec("199000")))
	assert.True(t, report.TotalCredits.Equal(dec("199000")))
	assert.True(t, report.IsBalanced)
	assert.Equal(t, asOf, report.AsOf)
}

func TestTrialBalanceFlagsImbalance(t *testing.T) {
	f := newReportingFixture()
	asOf := time.Now().UTC()
	rows := []domain.TrialBalanceRow{
		{AccountCode: "1000", Debit: dec("100"), Credit: dec("0")},
		{AccountCode: "2000", Debit: dec("0"), Credit: dec("99.98")},
	}
	f.reportingRepo.On("GetTrialBalanceData", mock.Anything, asOf).Return(rows, nil).Once()

	report, err := f.svc.TrialBalance(context.Background(), asOf)

	require.NoError(t, err)
	assert.False(t, report.IsBalanced)
}

func TestBalanceSheetFoldsEarningsIntoEquity(t *testing.T) {
	f := newReportingFixture()
	asOf := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	assets := []domain.AccountAmount{{Code: "1000", Name: "Cash", NetAmount: dec("5000")}}
	liabilities := []domain.AccountAmount{{Code: "2000", Name: "Borrowings", NetAmount: dec("3000")}}
	equity := []domain.AccountAmount{{Code: "3000", Name: "Share Capital", NetAmount: dec("1500")}}
	revenue := []domain.AccountAmount{{Code: "4000", Name: "Interest Income", NetAmount: dec("800")}}
	expenses := []domain.AccountAmount{{Code: "5000", Name: "Fees Paid", NetAmount: dec("300")}}

	f.reportingRepo.On("GetBalanceSheetData", mock.Anything, asOf).Return(assets, liabilities, equity, nil).Once()
	f.reportingRepo.On("GetIncomeStatementData", mock.Anything, time.Time{}, asOf).Return(revenue, expenses, nil).Once()

	report, err := f.svc.BalanceSheet(context.Background(), asOf)

	require.NoError(t, err)
	assert.True(t, report.AssetsTotal.Equal(dec("5000")))
	// 3000 liabilities + 1500 equity + 500 current earnings.
	assert.True(t, report.LiabilitiesEquityTotal.Equal(dec("5000")))
	assert.True(t, report.IsBalanced)
	require.Len(t, report.Equity, 2)
	assert.Equal(t, "Current period earnings", report.Equity[1].Name)
	assert.True(t, report.Equity[1].NetAmount.Equal(dec("500")))
}

func TestIncomeStatementNetsRevenueAgainstExpenses(t *testing.T) {
	f := newReportingFixture()
	from := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	revenue := []domain.AccountAmount{
		{Code: "4000", Name: "Interest Income", NetAmount: dec("1200")},
		{Code: "4100", Name: "Fee Income", NetAmount: dec("150")},
	}
	expenses := []domain.AccountAmount{
		{Code: "5000", Name: "Funding Costs", NetAmount: dec("400")},
	}
	f.reportingRepo.On("GetIncomeStatementData", mock.Anything, from, to).Return(revenue, expenses, nil).Once()

	report, err := f.svc.IncomeStatement(context.Background(), from, to)

	require.NoError(t, err)
	assert.True(t, report.RevenueTotal.Equal(dec("1350")))
	assert.True(t, report.ExpenseTotal.Equal(dec("400")))
	assert.True(t, report.NetIncome.Equal(dec("950")))
}

func TestIncomeStatementRejectsInvertedRange(t *testing.T) {
	f := newReportingFixture()
	from := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.IncomeStatement(context.Background(), from, to)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSearchRequiresQuery(t *testing.T) {
	f := newReportingFixture()

	_, err := f.svc.Search(context.Background(), "", 10)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSearchDelegatesWithDefaultLimit(t *testing.T) {
	f := newReportingFixture()
	entries := []domain.JournalEntry{{EntryID: uuid.NewString(), EntryNumber: "JE-000009"}}
	f.reportingRepo.On("SearchEntries", mock.Anything, "JE-0000", 50).Return(entries, nil).Once()

	result, err := f.svc.Search(context.Background(), "JE-0000", 0)

	require.NoError(t, err)
	assert.Len(t, result, 1)
}
