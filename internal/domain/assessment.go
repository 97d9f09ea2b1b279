package domain

import "time"

// EmotionAssessment is the structured output of the emotion analyzer.
// Intensity is always kept in [1,10] and Confidence in [0,1]; use
// Normalized before storing or comparing raw collaborator output.
type EmotionAssessment struct {
	PrimaryEmotion     string    `json:"primary_emotion"`
	SecondaryEmotions  []string  `json:"secondary_emotions,omitempty"`
	Intensity          int       `json:"intensity"`
	Triggers           []string  `json:"triggers,omitempty"`
	ClinicalIndicators []string  `json:"clinical_indicators,omitempty"`
	Confidence         float64   `json:"confidence"`
	Timestamp          time.Time `json:"timestamp"`
}

// SafetyAssessment is the structured output of the safety checker.
// EmergencyProtocol is authoritative for escalation: the risk level is
// informational and never overrides the flag.
type SafetyAssessment struct {
	RiskLevel         RiskLevel `json:"risk_level"`
	EmergencyProtocol bool      `json:"emergency_protocol"`
	Concerns          []string  `json:"concerns,omitempty"`
	Confidence        float64   `json:"confidence"`
}

// ResponseEnvelope is the response generator's output.
type ResponseEnvelope struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ResponseContext is the bundle handed to the response generator.
// Generators must ignore Extra keys they do not recognize.
type ResponseContext struct {
	Emotion EmotionAssessment
	Safety  SafetyAssessment
	Extra   map[string]any
}

// InteractionResult is what the orchestrator returns to the caller.
// On the degraded path Error is set, Response carries a fixed apology,
// and the assessment pointers are nil.
type InteractionResult struct {
	Response           string             `json:"response"`
	Emotion            *EmotionAssessment `json:"emotion_analysis,omitempty"`
	Safety             *SafetyAssessment  `json:"safety_assessment,omitempty"`
	Timestamp          string             `json:"timestamp"`
	RequiresEscalation bool               `json:"requires_escalation"`
	Error              string             `json:"error,omitempty"`
}

// Degraded reports whether this result came from the failure-containment path.
func (r InteractionResult) Degraded() bool {
	return r.Error != ""
}

// Interaction is one conversation-history entry.
type Interaction struct {
	UserMessage string            `json:"user_message"`
	Result      InteractionResult `json:"system_response"`
	Timestamp   string            `json:"timestamp"`
}

const (
	minIntensity = 1
	maxIntensity = 10

	// defaultIntensity stands in for an unreported intensity.
	defaultIntensity = 5
)

// Normalized clamps intensity and confidence and fills defaults for
// unreported fields. The zero value of a field is read as "missing":
// confidence 0 means the collaborator did not report one and defaults to
// 1.0, so an absent confidence never trips the low-confidence warning.
func (e EmotionAssessment) Normalized(now time.Time) EmotionAssessment {
	if e.PrimaryEmotion == "" {
		e.PrimaryEmotion = "unknown"
	}
	if e.Intensity == 0 {
		e.Intensity = defaultIntensity
	}
	if e.Intensity < minIntensity {
		e.Intensity = minIntensity
	}
	if e.Intensity > maxIntensity {
		e.Intensity = maxIntensity
	}
	e.Confidence = normalizeConfidence(e.Confidence)
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	return e
}

// Normalized fills defaults for unreported fields, same zero-value rules
// as EmotionAssessment.Normalized.
func (s SafetyAssessment) Normalized() SafetyAssessment {
	if s.RiskLevel == "" {
		s.RiskLevel = RiskUnknown
	}
	s.Confidence = normalizeConfidence(s.Confidence)
	return s
}

func normalizeConfidence(c float64) float64 {
	if c == 0 {
		return 1.0
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
