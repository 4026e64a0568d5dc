package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// BalanceSide indicates which side of an entry increases an account.
type BalanceSide string

const (
	Debit  BalanceSide = "DEBIT"
	Credit BalanceSide = "CREDIT"
)

// Account represents a GL account in the chart of accounts.
// Accounts are never deleted, only deactivated; deactivation does not
// retroactively invalidate history referencing the account.
type Account struct {
	AccountID   string      `json:"accountID"`   // Primary key (UUID)
	Code        string      `json:"code"`        // Human-readable unique code, e.g. "1100"
	Name        string      `json:"name"`        // Display name
	AccountType AccountType `json:"accountType"` // ASSET, LIABILITY, etc.
	Description string      `json:"description"` // Nullable user description
	IsActive    bool        `json:"isActive"`
	AuditFields
}

// NormalBalance returns the side on which the account normally carries its balance.
func (a Account) NormalBalance() BalanceSide {
	switch a.AccountType {
	case Asset, Expense:
		return Debit
	default:
		return Credit
	}
}
