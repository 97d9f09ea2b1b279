package domain

import "context"

// EmotionAnalyzer classifies the emotional content of a message.
type EmotionAnalyzer interface {
	AnalyzeEmotion(ctx context.Context, text string) (EmotionAssessment, error)
}

// SafetyChecker assesses a message for risk and escalation.
type SafetyChecker interface {
	CheckMessage(ctx context.Context, text string) (SafetyAssessment, error)
}

// ResponseGenerator produces the reply shown to the user, given the message
// and the assessments gathered for it.
type ResponseGenerator interface {
	GenerateResponse(ctx context.Context, message string, rc ResponseContext) (ResponseEnvelope, error)
}

// MetricsSink receives interaction metrics. It is injected explicitly
// (no process-wide collector) so tests can substitute their own.
type MetricsSink interface {
	ObserveResponseTime(seconds float64)
	IncInteraction(kind string)
	SetEmotionIntensity(emotion string, intensity float64)
	IncSafetyFlag(level RiskLevel)
	IncAssessmentCompleted()
}

// SessionStore defines session persistence
type SessionStore interface {
	CreateSession(session *Session) error
	UpdateSession(session *Session) error
	GetSession(id SessionID) (*Session, error)
	ListSessionsByUser(userID UserID, limit int) ([]*Session, error)
}

// MessageStore defines message persistence
type MessageStore interface {
	AppendMessage(msg *Message) error
	GetMessagesBySession(sessionID SessionID, limit int) ([]*Message, error)
}
