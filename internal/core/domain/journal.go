package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the lifecycle state of a journal entry.
type EntryStatus string

const (
	EntryDraft     EntryStatus = "DRAFT"
	EntrySubmitted EntryStatus = "SUBMITTED"
	EntryApproved  EntryStatus = "APPROVED"
	EntryPosted    EntryStatus = "POSTED"
	EntryReversed  EntryStatus = "REVERSED"
)

// CanTransitionTo reports whether the strictly-forward lifecycle permits
// moving from s to target. POSTED entries are append-only; they can only be
// marked REVERSED (by the reversal path, never by direct mutation).
func (s EntryStatus) CanTransitionTo(target EntryStatus) bool {
	switch s {
	case EntryDraft:
		return target == EntrySubmitted
	case EntrySubmitted:
		return target == EntryApproved
	case EntryApproved:
		return target == EntryPosted
	case EntryPosted:
		return target == EntryReversed
	default:
		return false
	}
}

// Source types recorded on journal entries. "manual" entries come through the
// API; the rest are produced by the auto-posting adapter.
const (
	SourceManual       = "manual"
	SourceDisbursement = "disbursement"
	SourceRepayment    = "repayment"
	SourceReversal     = "reversal"
)

// JournalEntry represents a single, balanced financial event composed of
// multiple journal lines. Total debits equal total credits at every state
// from creation onward.
type JournalEntry struct {
	EntryID         string          `json:"entryID"`     // Primary key (UUID)
	EntryNumber     string          `json:"entryNumber"` // Unique human-readable number, e.g. "JE-000042"
	Status          EntryStatus     `json:"status"`
	SourceType      string          `json:"sourceType"`      // manual, disbursement, repayment, reversal
	SourceReference string          `json:"sourceReference"` // Originating loan/payment identifier
	Description     string          `json:"description"`
	TransactionDate time.Time       `json:"transactionDate"`
	EffectiveDate   time.Time       `json:"effectiveDate"`
	CurrencyCode    string          `json:"currencyCode"`
	ExchangeRate    decimal.Decimal `json:"exchangeRate"`
	TotalDebits     decimal.Decimal `json:"totalDebits"`
	TotalCredits    decimal.Decimal `json:"totalCredits"`
	// Reversal links. An entry and its reversal reference each other.
	OriginalEntryID  *string `json:"originalEntryID,omitempty"`
	ReversingEntryID *string `json:"reversingEntryID,omitempty"`
	// Version is incremented on every status transition; used for optimistic
	// locking so concurrent transitions serialize to exactly one winner.
	Version int64 `json:"version"`
	// Lines are loaded separately in most read paths.
	Lines []JournalLine `json:"lines,omitempty"`
	AuditFields
}

// IsReversal reports whether this entry was created to reverse another.
func (e JournalEntry) IsReversal() bool {
	return e.OriginalEntryID != nil
}

// JournalLine is a single line item within a journal entry, affecting one
// account. At most one of DebitAmount/CreditAmount is non-zero in typical
// usage; the entry-level aggregate must balance either way.
type JournalLine struct {
	LineID       string          `json:"lineID"`  // Primary key (UUID)
	EntryID      string          `json:"entryID"` // Owning entry
	AccountID    string          `json:"accountID"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	Description  string          `json:"description"`
	AuditFields
}
