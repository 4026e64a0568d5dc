package dto

import (
	"time"

	"github.com/zotta/ledger-core/internal/core/domain"
)

// ReviewAnomalyRequest defines the payload for triaging an anomaly.
type ReviewAnomalyRequest struct {
	Action string `json:"action" binding:"required,oneof=reviewed dismissed"`
}

// AnomalyResponse defines the data returned for an anomaly.
type AnomalyResponse struct {
	AnomalyID string                 `json:"anomalyID"`
	EntryID   string                 `json:"entryID"`
	Reason    string                 `json:"reason"`
	Severity  domain.AnomalySeverity `json:"severity"`
	Status    domain.AnomalyStatus   `json:"status"`
	CreatedAt time.Time              `json:"createdAt"`
}

// DetectionResponse summarizes a detector run over one entry.
type DetectionResponse struct {
	EntryID      string            `json:"entryID"`
	AnomalyCount int               `json:"anomalyCount"`
	Anomalies    []AnomalyResponse `json:"anomalies"`
}

// ToAnomalyResponse converts a domain.Anomaly to AnomalyResponse.
func ToAnomalyResponse(a *domain.Anomaly) AnomalyResponse {
	return AnomalyResponse{
		AnomalyID: a.AnomalyID,
		EntryID:   a.EntryID,
		Reason:    a.Reason,
		Severity:  a.Severity,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
}

// ToAnomalyResponses converts a slice of anomalies.
func ToAnomalyResponses(anomalies []domain.Anomaly) []AnomalyResponse {
	responses := make([]AnomalyResponse, len(anomalies))
	for i := range anomalies {
		responses[i] = ToAnomalyResponse(&anomalies[i])
	}
	return responses
}
