package domain

// GLMapping links a business event type to the debit/credit accounts it
// posts to. Mappings are configuration: read at posting time, never baked
// into compiled logic, so new product types can be supported without a
// redeployment.
type GLMapping struct {
	MappingID       string `json:"mappingID"` // Primary key (UUID)
	EventType       string `json:"eventType"` // e.g. "disbursement", "repayment"
	DebitAccountID  string `json:"debitAccountID"`
	CreditAccountID string `json:"creditAccountID"`
	IsActive        bool   `json:"isActive"`
	// RequireMapping carries the source system's asymmetry: disbursement
	// expects a mapping to exist, repayment tolerates its absence. Policy,
	// not code.
	RequireMapping bool `json:"requireMapping"`
	AuditFields
}
