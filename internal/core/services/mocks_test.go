package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/zotta/ledger-core/internal/core/domain"
	portsrepo "github.com/zotta/ledger-core/internal/core/ports/repositories"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/dto"
)

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	args := m.Called(ctx, accountID, userID)
	return args.Error(0)
}

// --- Mock JournalRepository ---

type MockJournalRepository struct {
	mock.Mock
}

var _ portsrepo.JournalRepositoryFacade = (*MockJournalRepository)(nil)

func (m *MockJournalRepository) NextEntryNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	args := m.Called(ctx, entry, lines)
	return args.Error(0)
}

func (m *MockJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalLine), args.Error(1)
}

func (m *MockJournalRepository) FindEntryBySource(ctx context.Context, sourceType string, sourceReference string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, sourceType, sourceReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) UpdateEntryStatus(ctx context.Context, entryID string, fromVersion int64, status domain.EntryStatus, userID string, updatedAt time.Time) error {
	args := m.Called(ctx, entryID, fromVersion, status, userID, updatedAt)
	return args.Error(0)
}

func (m *MockJournalRepository) UpdateEntryStatusAndLinks(ctx context.Context, entryID string, fromVersion int64, status domain.EntryStatus, reversingEntryID *string, userID string, updatedAt time.Time) error {
	args := m.Called(ctx, entryID, fromVersion, status, reversingEntryID, userID, updatedAt)
	return args.Error(0)
}

func (m *MockJournalRepository) CountEntriesByStatusInRange(ctx context.Context, start, end time.Time, statuses []domain.EntryStatus) (int, error) {
	args := m.Called(ctx, start, end, statuses)
	return args.Int(0), args.Error(1)
}

func (m *MockJournalRepository) ListEntries(ctx context.Context, limit int, offset int) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}

// --- Mock PeriodRepository ---

type MockPeriodRepository struct {
	mock.Mock
}

var _ portsrepo.PeriodRepositoryFacade = (*MockPeriodRepository)(nil)

func (m *MockPeriodRepository) SavePeriod(ctx context.Context, period domain.Period) error {
	args := m.Called(ctx, period)
	return args.Error(0)
}

func (m *MockPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.Period, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Period), args.Error(1)
}

func (m *MockPeriodRepository) FindPeriodByDate(ctx context.Context, date time.Time) (*domain.Period, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Period), args.Error(1)
}

func (m *MockPeriodRepository) FindOverlappingPeriod(ctx context.Context, start, end time.Time) (*domain.Period, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Period), args.Error(1)
}

func (m *MockPeriodRepository) UpdatePeriodStatus(ctx context.Context, periodID string, status domain.PeriodStatus, userID string, updatedAt time.Time) error {
	args := m.Called(ctx, periodID, status, userID, updatedAt)
	return args.Error(0)
}

func (m *MockPeriodRepository) ListPeriods(ctx context.Context) ([]domain.Period, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Period), args.Error(1)
}

// --- Mock GLMappingRepository ---

type MockMappingRepository struct {
	mock.Mock
}

var _ portsrepo.GLMappingRepositoryFacade = (*MockMappingRepository)(nil)

func (m *MockMappingRepository) SaveMapping(ctx context.Context, mapping domain.GLMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockMappingRepository) FindActiveMappingByEventType(ctx context.Context, eventType string) (*domain.GLMapping, error) {
	args := m.Called(ctx, eventType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GLMapping), args.Error(1)
}

func (m *MockMappingRepository) ListMappings(ctx context.Context) ([]domain.GLMapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GLMapping), args.Error(1)
}

func (m *MockMappingRepository) DeactivateMapping(ctx context.Context, mappingID string, userID string) error {
	args := m.Called(ctx, mappingID, userID)
	return args.Error(0)
}

// --- Mock LoanRepository ---

type MockLoanRepository struct {
	mock.Mock
}

var _ portsrepo.LoanRepositoryFacade = (*MockLoanRepository)(nil)

func (m *MockLoanRepository) SaveLoan(ctx context.Context, loan domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) FindLoanByIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) MarkDisbursed(ctx context.Context, loanID string, disbursedAt time.Time, userID string) error {
	args := m.Called(ctx, loanID, disbursedAt, userID)
	return args.Error(0)
}

func (m *MockLoanRepository) UpdateLoanStatus(ctx context.Context, loanID string, status domain.LoanStatus, userID string, updatedAt time.Time) error {
	args := m.Called(ctx, loanID, status, userID, updatedAt)
	return args.Error(0)
}

func (m *MockLoanRepository) ListLoans(ctx context.Context, limit int, offset int) ([]domain.Loan, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockLoanRepository) FindPaymentByReference(ctx context.Context, loanID string, reference string) (*domain.Payment, error) {
	args := m.Called(ctx, loanID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

// --- Mock ScheduleRepository ---

type MockScheduleRepository struct {
	mock.Mock
}

var _ portsrepo.ScheduleRepositoryFacade = (*MockScheduleRepository)(nil)

func (m *MockScheduleRepository) SaveScheduleRows(ctx context.Context, rows []domain.ScheduleRow) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockScheduleRepository) FindScheduleByLoanID(ctx context.Context, loanID string) ([]domain.ScheduleRow, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduleRow), args.Error(1)
}

func (m *MockScheduleRepository) UpdateRowPayment(ctx context.Context, rowID string, amountPaid decimal.Decimal, status domain.InstallmentStatus, userID string, updatedAt time.Time) error {
	args := m.Called(ctx, rowID, amountPaid, status, userID, updatedAt)
	return args.Error(0)
}

// --- Mock AnomalyRepository ---

type MockAnomalyRepository struct {
	mock.Mock
}

var _ portsrepo.AnomalyRepositoryFacade = (*MockAnomalyRepository)(nil)

func (m *MockAnomalyRepository) SaveAnomalies(ctx context.Context, anomalies []domain.Anomaly) error {
	args := m.Called(ctx, anomalies)
	return args.Error(0)
}

func (m *MockAnomalyRepository) FindAnomalyByID(ctx context.Context, anomalyID string) (*domain.Anomaly, error) {
	args := m.Called(ctx, anomalyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Anomaly), args.Error(1)
}

func (m *MockAnomalyRepository) UpdateAnomalyStatus(ctx context.Context, anomalyID string, status domain.AnomalyStatus, userID string, updatedAt time.Time) error {
	args := m.Called(ctx, anomalyID, status, userID, updatedAt)
	return args.Error(0)
}

func (m *MockAnomalyRepository) ListAnomaliesByStatus(ctx context.Context, status domain.AnomalyStatus, limit int, offset int) ([]domain.Anomaly, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Anomaly), args.Error(1)
}

func (m *MockAnomalyRepository) CountOpenAnomaliesInRange(ctx context.Context, start, end time.Time) (int, error) {
	args := m.Called(ctx, start, end)
	return args.Int(0), args.Error(1)
}

func (m *MockAnomalyRepository) EntryAmountStats(ctx context.Context, sourceType string, excludeEntryID string) (decimal.Decimal, int, error) {
	args := m.Called(ctx, sourceType, excludeEntryID)
	return args.Get(0).(decimal.Decimal), args.Int(1), args.Error(2)
}

func (m *MockAnomalyRepository) AccountPairSeen(ctx context.Context, sourceType string, debitAccountID string, creditAccountID string, excludeEntryID string) (bool, error) {
	args := m.Called(ctx, sourceType, debitAccountID, creditAccountID, excludeEntryID)
	return args.Bool(0), args.Error(1)
}

// --- Mock ReportingRepository ---

type MockReportingRepository struct {
	mock.Mock
}

var _ portsrepo.ReportingRepositoryFacade = (*MockReportingRepository)(nil)

func (m *MockReportingRepository) GetAccountLedgerData(ctx context.Context, accountID string) ([]domain.LedgerLine, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerLine), args.Error(1)
}

func (m *MockReportingRepository) GetTrialBalanceData(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrialBalanceRow), args.Error(1)
}

func (m *MockReportingRepository) GetBalanceSheetData(ctx context.Context, asOf time.Time) ([]domain.AccountAmount, []domain.AccountAmount, []domain.AccountAmount, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, nil, nil, args.Error(3)
	}
	return args.Get(0).([]domain.AccountAmount), args.Get(1).([]domain.AccountAmount), args.Get(2).([]domain.AccountAmount), args.Error(3)
}

func (m *MockReportingRepository) GetIncomeStatementData(ctx context.Context, from, to time.Time) ([]domain.AccountAmount, []domain.AccountAmount, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.AccountAmount), args.Get(1).([]domain.AccountAmount), args.Error(2)
}

func (m *MockReportingRepository) SearchEntries(ctx context.Context, query string, limit int) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}

// --- Mock PostingService ---

type MockPostingService struct {
	mock.Mock
}

var _ portssvc.PostingSvcFacade = (*MockPostingService)(nil)

func (m *MockPostingService) PostEvent(ctx context.Context, req dto.PostEventRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

// eqDec matches a decimal argument by value. DeepEqual on decimals is
// scale-sensitive, so 300 and 300.00 would otherwise not match.
func eqDec(s string) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		expected, err := decimal.NewFromString(s)
		if err != nil {
			panic(err)
		}
		return d.Equal(expected)
	})
}

// fakeTxManager runs the function directly; service tests assert behavior,
// not transaction plumbing.
type fakeTxManager struct{}

var _ portsrepo.TxManager = (*fakeTxManager)(nil)

func (fakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
