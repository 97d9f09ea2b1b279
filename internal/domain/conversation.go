package domain

// Message represents any message in a session timeline (user or agent)
type Message struct {
	ID        MessageID
	SessionID SessionID
	Author    Role
	Text      string
	CreatedAt Timestamp

	// Metadata holds additional information about the message
	Tags    []string
	ReplyTo *MessageID

	// Agent messages carry the safety outcome of the exchange
	RiskLevel          RiskLevel
	RequiresEscalation bool
}

// Session represents a concrete "relationship" between a user and the agent
// (could last days)
type Session struct {
	ID        SessionID
	UserID    UserID
	CreatedAt Timestamp
	UpdatedAt Timestamp

	Title string
}
