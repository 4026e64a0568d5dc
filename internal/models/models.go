package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditFields are embedded in every persisted model.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	CreatedBy     string    `db:"created_by"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
	LastUpdatedBy string    `db:"last_updated_by"`
}

// Account is the DB model for a GL account.
type Account struct {
	AccountID   string `db:"account_id"`
	Code        string `db:"code"`
	Name        string `db:"name"`
	AccountType string `db:"account_type"`
	Description string `db:"description"`
	IsActive    bool   `db:"is_active"`
	AuditFields
}

// JournalEntry is the DB model for a journal entry header.
type JournalEntry struct {
	EntryID          string          `db:"entry_id"`
	EntryNumber      string          `db:"entry_number"`
	Status           string          `db:"status"`
	SourceType       string          `db:"source_type"`
	SourceReference  string          `db:"source_reference"`
	Description      string          `db:"description"`
	TransactionDate  time.Time       `db:"transaction_date"`
	EffectiveDate    time.Time       `db:"effective_date"`
	CurrencyCode     string          `db:"currency_code"`
	ExchangeRate     decimal.Decimal `db:"exchange_rate"`
	TotalDebits      decimal.Decimal `db:"total_debits"`
	TotalCredits     decimal.Decimal `db:"total_credits"`
	OriginalEntryID  *string         `db:"original_entry_id"`
	ReversingEntryID *string         `db:"reversing_entry_id"`
	Version          int64           `db:"version"`
	AuditFields
}

// JournalLine is the DB model for a journal line.
type JournalLine struct {
	LineID       string          `db:"line_id"`
	EntryID      string          `db:"entry_id"`
	AccountID    string          `db:"account_id"`
	DebitAmount  decimal.Decimal `db:"debit_amount"`
	CreditAmount decimal.Decimal `db:"credit_amount"`
	Description  string          `db:"description"`
	AuditFields
}

// Loan is the DB model for a loan.
type Loan struct {
	LoanID       string          `db:"loan_id"`
	BorrowerName string          `db:"borrower_name"`
	Principal    decimal.Decimal `db:"principal"`
	AnnualRate   decimal.Decimal `db:"annual_rate"`
	TermMonths   int             `db:"term_months"`
	CurrencyCode string          `db:"currency_code"`
	FeeKind      string          `db:"fee_kind"`
	FeeAmount    decimal.Decimal `db:"fee_amount"`
	FeePercent   decimal.Decimal `db:"fee_percent"`
	Status       string          `db:"status"`
	DisbursedAt  *time.Time      `db:"disbursed_at"`
	AuditFields
}

// Payment is the DB model for a loan repayment.
type Payment struct {
	PaymentID  string          `db:"payment_id"`
	LoanID     string          `db:"loan_id"`
	Amount     decimal.Decimal `db:"amount"`
	Reference  string          `db:"reference"`
	ReceivedAt time.Time       `db:"received_at"`
	AuditFields
}

// ScheduleRow is the DB model for one amortization installment.
type ScheduleRow struct {
	RowID             string          `db:"row_id"`
	LoanID            string          `db:"loan_id"`
	InstallmentNumber int             `db:"installment_number"`
	DueDate           time.Time       `db:"due_date"`
	Principal         decimal.Decimal `db:"principal"`
	Interest          decimal.Decimal `db:"interest"`
	Fee               decimal.Decimal `db:"fee"`
	AmountDue         decimal.Decimal `db:"amount_due"`
	AmountPaid        decimal.Decimal `db:"amount_paid"`
	Status            string          `db:"status"`
	AuditFields
}

// Period is the DB model for an accounting period.
type Period struct {
	PeriodID  string    `db:"period_id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	Status    string    `db:"status"`
	AuditFields
}

// GLMapping is the DB model for event-to-account mapping configuration.
type GLMapping struct {
	MappingID       string `db:"mapping_id"`
	EventType       string `db:"event_type"`
	DebitAccountID  string `db:"debit_account_id"`
	CreditAccountID string `db:"credit_account_id"`
	IsActive        bool   `db:"is_active"`
	RequireMapping  bool   `db:"require_mapping"`
	AuditFields
}

// Anomaly is the DB model for a flagged entry.
type Anomaly struct {
	AnomalyID string `db:"anomaly_id"`
	EntryID   string `db:"entry_id"`
	Reason    string `db:"reason"`
	Severity  string `db:"severity"`
	Status    string `db:"status"`
	AuditFields
}
