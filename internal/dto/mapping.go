package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zotta/ledger-core/internal/core/domain"
)

// CreateMappingRequest defines the payload for configuring a GL mapping.
type CreateMappingRequest struct {
	EventType       string `json:"eventType" binding:"required"`
	DebitAccountID  string `json:"debitAccountID" binding:"required"`
	CreditAccountID string `json:"creditAccountID" binding:"required"`
	RequireMapping  bool   `json:"requireMapping"`
}

// MappingResponse defines the data returned for a GL mapping.
type MappingResponse struct {
	MappingID       string `json:"mappingID"`
	EventType       string `json:"eventType"`
	DebitAccountID  string `json:"debitAccountID"`
	CreditAccountID string `json:"creditAccountID"`
	IsActive        bool   `json:"isActive"`
	RequireMapping  bool   `json:"requireMapping"`
}

// ToMappingResponse converts a domain.GLMapping to MappingResponse.
func ToMappingResponse(m *domain.GLMapping) MappingResponse {
	return MappingResponse{
		MappingID:       m.MappingID,
		EventType:       m.EventType,
		DebitAccountID:  m.DebitAccountID,
		CreditAccountID: m.CreditAccountID,
		IsActive:        m.IsActive,
		RequireMapping:  m.RequireMapping,
	}
}

// ToMappingResponses converts a slice of mappings.
func ToMappingResponses(mappings []domain.GLMapping) []MappingResponse {
	responses := make([]MappingResponse, len(mappings))
	for i := range mappings {
		responses[i] = ToMappingResponse(&mappings[i])
	}
	return responses
}

// PostEventRequest is the auto-posting adapter's input: a loan lifecycle
// event to be translated into a balanced journal entry.
type PostEventRequest struct {
	EventType       string          `json:"eventType" binding:"required"`
	SourceReference string          `json:"sourceReference" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	EffectiveDate   time.Time       `json:"effectiveDate" binding:"required"`
	CurrencyCode    string          `json:"currencyCode" binding:"required,len=3"`
	Description     string          `json:"description"`
}
