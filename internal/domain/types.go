package domain

import "time"

type SessionID string
type UserID string
type MessageID string
type EscalationID string

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// RiskLevel is the ordered risk category produced by the safety checker.
type RiskLevel string

const (
	RiskUnknown  RiskLevel = "UNKNOWN"
	RiskNone     RiskLevel = "NONE"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Severity ranks risk levels so they can be compared.
// UNKNOWN ranks below NONE: an unreported level must never outrank a real one.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskNone:
		return 1
	case RiskLow:
		return 2
	case RiskMedium:
		return 3
	case RiskHigh:
		return 4
	case RiskCritical:
		return 5
	default:
		return 0
	}
}

type Timestamp = time.Time
