package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerLine is one posted line in an account's ledger view, with the
// running balance after the line was applied.
type LedgerLine struct {
	EntryID        string          `json:"entryID"`
	EntryNumber    string          `json:"entryNumber"`
	EffectiveDate  time.Time       `json:"effectiveDate"`
	Description    string          `json:"description"`
	DebitAmount    decimal.Decimal `json:"debitAmount"`
	CreditAmount   decimal.Decimal `json:"creditAmount"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// TrialBalanceRow is the per-account aggregate of posted debits and credits.
type TrialBalanceRow struct {
	AccountID   string          `json:"accountID"`
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalanceReport sums all posted lines up to a point in time. IsBalanced
// must hold at all times in a correctly functioning ledger.
type TrialBalanceReport struct {
	AsOf         time.Time         `json:"asOf"`
	TotalDebits  decimal.Decimal   `json:"totalDebits"`
	TotalCredits decimal.Decimal   `json:"totalCredits"`
	IsBalanced   bool              `json:"isBalanced"`
	Rows         []TrialBalanceRow `json:"rows"`
}

// AccountAmount is an account with its net balance for financial statements.
type AccountAmount struct {
	AccountID string          `json:"accountID"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	NetAmount decimal.Decimal `json:"netAmount"`
}

// BalanceSheetReport buckets account balances into assets vs liabilities+equity.
type BalanceSheetReport struct {
	Assets                 []AccountAmount `json:"assets"`
	Liabilities            []AccountAmount `json:"liabilities"`
	Equity                 []AccountAmount `json:"equity"`
	AssetsTotal            decimal.Decimal `json:"assetsTotal"`
	LiabilitiesEquityTotal decimal.Decimal `json:"liabilitiesEquityTotal"`
	IsBalanced             bool            `json:"isBalanced"`
}

// IncomeStatementReport nets revenue against expenses.
type IncomeStatementReport struct {
	Revenue      []AccountAmount `json:"revenue"`
	Expenses     []AccountAmount `json:"expenses"`
	RevenueTotal decimal.Decimal `json:"revenueTotal"`
	ExpenseTotal decimal.Decimal `json:"expenseTotal"`
	NetIncome    decimal.Decimal `json:"netIncome"`
}
