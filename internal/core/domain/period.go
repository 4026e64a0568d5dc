package domain

import "time"

// PeriodStatus indicates the accounting period lifecycle state.
type PeriodStatus string

const (
	PeriodOpen      PeriodStatus = "OPEN"
	PeriodSoftClose PeriodStatus = "SOFT_CLOSE"
	PeriodClosed    PeriodStatus = "CLOSED"
)

// Period is an accounting period. Non-open periods block new postings whose
// effective date falls inside them. Soft-close is reversible; full close is
// terminal for normal operation.
type Period struct {
	PeriodID  string       `json:"periodID"` // Primary key (UUID)
	Name      string       `json:"name"`     // e.g. "2026-08"
	StartDate time.Time    `json:"startDate"`
	EndDate   time.Time    `json:"endDate"`
	Status    PeriodStatus `json:"status"`
	AuditFields
}

// Contains reports whether d falls within the period (inclusive bounds).
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

// ReadinessCheck is one gating check evaluated before a period may be closed.
type ReadinessCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// CloseReadiness summarizes whether a period can be soft-closed.
type CloseReadiness struct {
	PeriodID       string           `json:"periodID"`
	IsReady        bool             `json:"isReady"`
	Checks         []ReadinessCheck `json:"checks"`
	Recommendation string           `json:"recommendation"`
}
