package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zotta/ledger-core/internal/core/domain"
)

// CreateLineRequest is a single debit/credit line in a new journal entry.
type CreateLineRequest struct {
	AccountID    string          `json:"accountID" binding:"required"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	Description  string          `json:"description"`
}

// CreateEntryRequest defines the payload for creating a manual journal entry.
type CreateEntryRequest struct {
	Description     string              `json:"description" binding:"required"`
	TransactionDate time.Time           `json:"transactionDate" binding:"required"`
	EffectiveDate   time.Time           `json:"effectiveDate" binding:"required"`
	CurrencyCode    string              `json:"currencyCode" binding:"required,len=3"`
	ExchangeRate    decimal.Decimal     `json:"exchangeRate"`
	Lines           []CreateLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// ReverseEntryRequest defines the payload for reversing a posted entry.
type ReverseEntryRequest struct {
	Reason        string    `json:"reason" binding:"required"`
	EffectiveDate time.Time `json:"effectiveDate" binding:"required"`
}

// LineResponse defines the data returned for a journal line.
type LineResponse struct {
	LineID       string          `json:"lineID"`
	AccountID    string          `json:"accountID"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	Description  string          `json:"description"`
}

// EntryResponse defines the data returned for a journal entry.
type EntryResponse struct {
	EntryID          string             `json:"entryID"`
	EntryNumber      string             `json:"entryNumber"`
	Status           domain.EntryStatus `json:"status"`
	SourceType       string             `json:"sourceType"`
	SourceReference  string             `json:"sourceReference,omitempty"`
	Description      string             `json:"description"`
	TransactionDate  time.Time          `json:"transactionDate"`
	EffectiveDate    time.Time          `json:"effectiveDate"`
	CurrencyCode     string             `json:"currencyCode"`
	TotalDebits      decimal.Decimal    `json:"totalDebits"`
	TotalCredits     decimal.Decimal    `json:"totalCredits"`
	OriginalEntryID  *string            `json:"originalEntryID,omitempty"`
	ReversingEntryID *string            `json:"reversingEntryID,omitempty"`
	Lines            []LineResponse     `json:"lines,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	CreatedBy        string             `json:"createdBy"`
}

// ToLineResponses converts domain lines to response DTOs.
func ToLineResponses(lines []domain.JournalLine) []LineResponse {
	responses := make([]LineResponse, len(lines))
	for i, l := range lines {
		responses[i] = LineResponse{
			LineID:       l.LineID,
			AccountID:    l.AccountID,
			DebitAmount:  l.DebitAmount,
			CreditAmount: l.CreditAmount,
			Description:  l.Description,
		}
	}
	return responses
}

// ToEntryResponse converts a domain.JournalEntry to EntryResponse.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	return EntryResponse{
		EntryID:          e.EntryID,
		EntryNumber:      e.EntryNumber,
		Status:           e.Status,
		SourceType:       e.SourceType,
		SourceReference:  e.SourceReference,
		Description:      e.Description,
		TransactionDate:  e.TransactionDate,
		EffectiveDate:    e.EffectiveDate,
		CurrencyCode:     e.CurrencyCode,
		TotalDebits:      e.TotalDebits,
		TotalCredits:     e.TotalCredits,
		OriginalEntryID:  e.OriginalEntryID,
		ReversingEntryID: e.ReversingEntryID,
		Lines:            ToLineResponses(e.Lines),
		CreatedAt:        e.CreatedAt,
		CreatedBy:        e.CreatedBy,
	}
}

// ToEntryResponses converts a slice of entries.
func ToEntryResponses(entries []domain.JournalEntry) []EntryResponse {
	responses := make([]EntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToEntryResponse(&entries[i])
	}
	return responses
}
