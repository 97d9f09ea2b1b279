package agentflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/havenlabs/haven-agent/internal/domain"
	"github.com/havenlabs/haven-agent/internal/observability"
)

// FallbackResponse is what the user sees when any step of the pipeline
// fails. It must stay a fixed, polite apology: raw error text never
// reaches the user as a response.
const FallbackResponse = "I apologize, but I'm having trouble processing your message. Please try again."

// lowConfidenceThreshold is the point below which an assessment's
// confidence triggers the low-confidence warning.
const lowConfidenceThreshold = 0.5

// Collaborators holds the three analysis agents the orchestrator drives.
// All three are required.
type Collaborators struct {
	Emotion domain.EmotionAnalyzer
	Safety  domain.SafetyChecker
	Chat    domain.ResponseGenerator
}

// Orchestrator runs each incoming message through emotion analysis, safety
// assessment, and response generation, in that order, and keeps three
// append-only histories of what it saw.
//
// Process never returns an error: a failing collaborator degrades into a
// well-formed apology result. A safety bot must not drop a user's message
// on the floor, and a failure must never read as "no escalation needed".
type Orchestrator struct {
	emotion domain.EmotionAnalyzer
	safety  domain.SafetyChecker
	chat    domain.ResponseGenerator

	metrics     domain.MetricsSink
	log         *slog.Logger
	now         func() time.Time
	stepTimeout time.Duration

	mu           sync.RWMutex
	conversation []domain.Interaction
	emotionHist  []domain.EmotionAssessment
	safetyHist   []domain.SafetyAssessment
}

type Option func(*Orchestrator)

// WithLogger injects the logging sink. Tests pass a capturing handler.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithMetrics injects the metrics sink.
func WithMetrics(m domain.MetricsSink) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithStepTimeout bounds each collaborator call. A step that exceeds the
// timeout degrades through the normal containment path. Zero means no
// orchestrator-imposed timeout.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stepTimeout = d }
}

// NewOrchestrator validates that every role is configured and returns an
// orchestrator with empty histories.
func NewOrchestrator(c Collaborators, opts ...Option) (*Orchestrator, error) {
	switch {
	case c.Emotion == nil:
		return nil, fmt.Errorf("collaborator not configured: emotion")
	case c.Safety == nil:
		return nil, fmt.Errorf("collaborator not configured: safety")
	case c.Chat == nil:
		return nil, fmt.Errorf("collaborator not configured: chat")
	}

	o := &Orchestrator{
		emotion: c.Emotion,
		safety:  c.Safety,
		chat:    c.Chat,
		metrics: nopSink{},
		log:     observability.Component("agentflow"),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// Process runs the full pipeline for one user message. extra is
// caller-supplied context forwarded to the response generator, which
// ignores keys it does not recognize.
//
// The returned result is always well formed. On failure it carries
// FallbackResponse plus an error descriptor, no assessments, and no
// escalation flag. Every call, degraded or not, appends exactly one
// conversation-history entry.
func (o *Orchestrator) Process(ctx context.Context, message string, extra map[string]any) domain.InteractionResult {
	start := o.now()

	result, err := o.run(ctx, message, extra)
	if err != nil {
		o.log.Error("message processing failed", "error", err)
		result = domain.InteractionResult{
			Response:  FallbackResponse,
			Error:     err.Error(),
			Timestamp: o.timestamp(),
		}
	}

	o.mu.Lock()
	o.conversation = append(o.conversation, domain.Interaction{
		UserMessage: message,
		Result:      result,
		Timestamp:   result.Timestamp,
	})
	o.mu.Unlock()

	o.metrics.ObserveResponseTime(o.now().Sub(start).Seconds())
	o.metrics.IncInteraction("chat")

	return result
}

// run executes steps 1-5 and reports any failure to Process, which owns
// the degraded-result contract. A panic in a broken collaborator
// implementation is recovered here so the never-raise guarantee holds.
func (o *Orchestrator) run(ctx context.Context, message string, extra map[string]any) (res domain.InteractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collaborator panic: %v", r)
		}
	}()

	// Step 1: emotion. Its history entry is durable even if a later
	// step fails.
	emotion, err := o.analyzeEmotion(ctx, message)
	if err != nil {
		return res, fmt.Errorf("emotion analysis: %w", err)
	}
	emotion = emotion.Normalized(o.now())

	o.mu.Lock()
	o.emotionHist = append(o.emotionHist, emotion)
	o.mu.Unlock()

	// Step 2: safety. Runs after emotion by contract, even though it
	// does not consume emotion's output.
	safety, err := o.checkMessage(ctx, message)
	if err != nil {
		return res, fmt.Errorf("safety assessment: %w", err)
	}
	safety = safety.Normalized()

	o.mu.Lock()
	o.safetyHist = append(o.safetyHist, safety)
	o.mu.Unlock()

	// Step 3: response, given both assessments.
	reply, err := o.generateResponse(ctx, message, domain.ResponseContext{
		Emotion: emotion,
		Safety:  safety,
		Extra:   extra,
	})
	if err != nil {
		return res, fmt.Errorf("response generation: %w", err)
	}

	// The emergency flag is authoritative for escalation; the risk
	// level is never consulted here.
	result := domain.InteractionResult{
		Response:           reply.Text,
		Emotion:            &emotion,
		Safety:             &safety,
		Timestamp:          o.timestamp(),
		RequiresEscalation: safety.EmergencyProtocol,
	}

	o.logInteraction(message, emotion, safety, reply)
	o.observeAssessments(emotion, safety)

	return result, nil
}

func (o *Orchestrator) analyzeEmotion(ctx context.Context, message string) (domain.EmotionAssessment, error) {
	ctx, cancel := o.stepContext(ctx)
	defer cancel()
	return o.emotion.AnalyzeEmotion(ctx, message)
}

func (o *Orchestrator) checkMessage(ctx context.Context, message string) (domain.SafetyAssessment, error) {
	ctx, cancel := o.stepContext(ctx)
	defer cancel()
	return o.safety.CheckMessage(ctx, message)
}

func (o *Orchestrator) generateResponse(ctx context.Context, message string, rc domain.ResponseContext) (domain.ResponseEnvelope, error) {
	ctx, cancel := o.stepContext(ctx)
	defer cancel()
	return o.chat.GenerateResponse(ctx, message, rc)
}

func (o *Orchestrator) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.stepTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.stepTimeout)
}

// logInteraction emits the structured record for a successful pipeline run.
// The emergency warning and the low-confidence warning fire independently.
func (o *Orchestrator) logInteraction(message string, emotion domain.EmotionAssessment, safety domain.SafetyAssessment, reply domain.ResponseEnvelope) {
	if safety.EmergencyProtocol {
		o.log.Warn("emergency protocol activated",
			"concerns", safety.Concerns,
			"risk_level", safety.RiskLevel)
	}

	if emotion.Confidence < lowConfidenceThreshold || safety.Confidence < lowConfidenceThreshold {
		o.log.Warn("low confidence in analysis",
			"emotion_confidence", emotion.Confidence,
			"safety_confidence", safety.Confidence)
	}

	o.log.Info("interaction processed",
		"user_message", message,
		"primary_emotion", emotion.PrimaryEmotion,
		"intensity", emotion.Intensity,
		"emotion_confidence", emotion.Confidence,
		"risk_level", safety.RiskLevel,
		"safety_confidence", safety.Confidence,
		"requires_escalation", safety.EmergencyProtocol,
		"response", reply.Text)
}

func (o *Orchestrator) observeAssessments(emotion domain.EmotionAssessment, safety domain.SafetyAssessment) {
	o.metrics.SetEmotionIntensity(emotion.PrimaryEmotion, float64(emotion.Intensity))
	if safety.EmergencyProtocol {
		o.metrics.IncSafetyFlag(safety.RiskLevel)
	}
	o.metrics.IncAssessmentCompleted()
}

func (o *Orchestrator) timestamp() string {
	return o.now().Format(time.RFC3339Nano)
}

// nopSink is the default metrics sink when none is injected.
type nopSink struct{}

func (nopSink) ObserveResponseTime(float64)         {}
func (nopSink) IncInteraction(string)               {}
func (nopSink) SetEmotionIntensity(string, float64) {}
func (nopSink) IncSafetyFlag(domain.RiskLevel)      {}
func (nopSink) IncAssessmentCompleted()             {}
