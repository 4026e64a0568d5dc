package domain

// AnomalySeverity grades how suspicious a flagged entry is.
type AnomalySeverity string

const (
	SeverityLow    AnomalySeverity = "LOW"
	SeverityMedium AnomalySeverity = "MEDIUM"
	SeverityHigh   AnomalySeverity = "HIGH"
)

// AnomalyStatus tracks the human triage state of an anomaly.
type AnomalyStatus string

const (
	AnomalyOpen      AnomalyStatus = "OPEN"
	AnomalyReviewed  AnomalyStatus = "REVIEWED"
	AnomalyDismissed AnomalyStatus = "DISMISSED"
)

// Anomaly flags a posted journal entry for human review. Detection is
// advisory: resolving an anomaly annotates it and never alters the entry.
// If the entry was actually wrong, correction goes through the normal
// reversal path.
type Anomaly struct {
	AnomalyID string          `json:"anomalyID"` // Primary key (UUID)
	EntryID   string          `json:"entryID"`
	Reason    string          `json:"reason"`
	Severity  AnomalySeverity `json:"severity"`
	Status    AnomalyStatus   `json:"status"`
	AuditFields
}
