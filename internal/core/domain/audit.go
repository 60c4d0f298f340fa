package domain

import "time"

// AuditEntry records a security-relevant action for the audit trail.
type AuditEntry struct {
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	Subject    string    `json:"subject,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
