package domain

import "time"

// EscalationRecord is written whenever a processed message required
// escalation. It carries what a reviewer needs to follow up: who, when,
// and the concerns the safety checker named.
type EscalationRecord struct {
	ID        EscalationID `json:"id"`
	SessionID SessionID    `json:"session_id"`
	UserID    UserID       `json:"user_id"`
	CreatedAt time.Time    `json:"created_at"`

	RiskLevel RiskLevel `json:"risk_level"`
	Concerns  []string  `json:"concerns,omitempty"`

	// MessageExcerpt is a short excerpt of the triggering message.
	MessageExcerpt string `json:"message_excerpt,omitempty"`
}

// EscalationStore defines the minimum operations to persist escalations
type EscalationStore interface {
	AppendEscalation(rec *EscalationRecord) error
	ListEscalationsByUser(userID UserID, limit int) ([]*EscalationRecord, error)
}
