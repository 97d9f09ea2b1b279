package agentflow_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenlabs/haven-agent/internal/app/agentflow"
	"github.com/havenlabs/haven-agent/internal/domain"
)

// ---- collaborator stubs ----

type stubEmotion struct {
	res   domain.EmotionAssessment
	err   error
	block bool
}

func (s *stubEmotion) AnalyzeEmotion(ctx context.Context, text string) (domain.EmotionAssessment, error) {
	if s.block {
		<-ctx.Done()
		return domain.EmotionAssessment{}, ctx.Err()
	}
	return s.res, s.err
}

type stubSafety struct {
	res domain.SafetyAssessment
	err error
}

func (s *stubSafety) CheckMessage(ctx context.Context, text string) (domain.SafetyAssessment, error) {
	return s.res, s.err
}

type stubChat struct {
	res   domain.ResponseEnvelope
	err   error
	panic bool
}

func (s *stubChat) GenerateResponse(ctx context.Context, message string, rc domain.ResponseContext) (domain.ResponseEnvelope, error) {
	if s.panic {
		panic("broken responder")
	}
	return s.res, s.err
}

// recordSink captures slog records so tests can assert on emitted warnings.
type recordSink struct {
	mu      sync.Mutex
	records []slog.Record
}

func (s *recordSink) Enabled(context.Context, slog.Level) bool { return true }

func (s *recordSink) Handle(_ context.Context, r slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r.Clone())
	return nil
}

func (s *recordSink) WithAttrs([]slog.Attr) slog.Handler { return s }
func (s *recordSink) WithGroup(string) slog.Handler      { return s }

func (s *recordSink) count(message string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if r.Message == message {
			n++
		}
	}
	return n
}

func calmEmotion() domain.EmotionAssessment {
	return domain.EmotionAssessment{
		PrimaryEmotion:    "neutral",
		SecondaryEmotions: []string{"calm"},
		Intensity:         3,
		Confidence:        0.9,
	}
}

func safeAssessment() domain.SafetyAssessment {
	return domain.SafetyAssessment{
		RiskLevel:  domain.RiskNone,
		Confidence: 0.9,
	}
}

func newOrchestrator(t *testing.T, c agentflow.Collaborators, opts ...agentflow.Option) *agentflow.Orchestrator {
	t.Helper()
	o, err := agentflow.NewOrchestrator(c, opts...)
	require.NoError(t, err)
	return o
}

// ---- construction ----

func TestNewOrchestratorMissingCollaborator(t *testing.T) {
	cases := []struct {
		name string
		c    agentflow.Collaborators
	}{
		{"emotion", agentflow.Collaborators{Safety: &stubSafety{}, Chat: &stubChat{}}},
		{"safety", agentflow.Collaborators{Emotion: &stubEmotion{}, Chat: &stubChat{}}},
		{"chat", agentflow.Collaborators{Emotion: &stubEmotion{}, Safety: &stubSafety{}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := agentflow.NewOrchestrator(tc.c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "collaborator not configured: "+tc.name)
		})
	}
}

// ---- the happy path ----

func TestProcessSuccess(t *testing.T) {
	o := newOrchestrator(t, agentflow.Collaborators{
		Emotion: &stubEmotion{res: calmEmotion()},
		Safety:  &stubSafety{res: safeAssessment()},
		Chat:    &stubChat{res: domain.ResponseEnvelope{Text: "I hear you."}},
	})

	res := o.Process(context.Background(), "hello", nil)

	assert.Equal(t, "I hear you.", res.Response)
	assert.False(t, res.Degraded())
	assert.False(t, res.RequiresEscalation)
	require.NotNil(t, res.Emotion)
	require.NotNil(t, res.Safety)
	assert.Equal(t, "neutral", res.Emotion.PrimaryEmotion)
	assert.Equal(t, domain.RiskNone, res.Safety.RiskLevel)
	assert.NotEmpty(t, res.Timestamp)

	history := o.ConversationHistory()
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].UserMessage)
	assert.Equal(t, res, history[0].Result)
}

func TestProcessForwardsAssessmentsToResponder(t *testing.T) {
	var seen domain.ResponseContext
	chat := responderFunc(func(ctx context.Context, message string, rc domain.ResponseContext) (domain.ResponseEnvelope, error) {
		seen = rc
		return domain.ResponseEnvelope{Text: "ok"}, nil
	})

	o := newOrchestrator(t, agentflow.Collaborators{
		Emotion: &stubEmotion{res: calmEmotion()},
		Safety:  &stubSafety{res: safeAssessment()},
		Chat:    chat,
	})

	o.Process(context.Background(), "hey", map[string]any{"locale": "en"})

	assert.Equal(t, "neutral", seen.Emotion.PrimaryEmotion)
	assert.Equal(t, domain.RiskNone, seen.Safety.RiskLevel)
	assert.Equal(t, "en", seen.Extra["locale"])
}

type responderFunc func(ctx context.Context, message string, rc domain.ResponseContext) (domain.ResponseEnvelope, error)

func (f responderFunc) GenerateResponse(ctx context.Context, message string, rc domain.ResponseContext) (domain.ResponseEnvelope, error) {
	return f(ctx, message, rc)
}

// ---- escalation fidelity ----

func TestEscalationMirrorsEmergencyFlag(t *testing.T) {
	cases := []struct {
		name   string
		safety domain.SafetyAssessment
		want   bool
	}{
		{
			// The flag is authoritative even at a low risk level.
			name:   "emergency with low risk level",
			safety: domain.SafetyAssessment{RiskLevel: domain.RiskLow, EmergencyProtocol: true, Confidence: 0.9},
			want:   true,
		},
		{
			// A critical level alone never escalates.
			name:   "critical without emergency",
			safety: domain.SafetyAssessment{RiskLevel: domain.RiskCritical, EmergencyProtocol: false, Confidence: 0.9},
			want:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := newOrchestrator(t, agentflow.Collaborators{
				Emotion: &stubEmotion{res: calmEmotion()},
				Safety:  &stubSafety{res: tc.safety},
				Chat:    &stubChat{res: domain.ResponseEnvelope{Text: "ok"}},
			})

			res := o.Process(context.Background(), "msg", nil)
			assert.Equal(t, tc.want, res.RequiresEscalation)
		})
	}
}

// ---- failure containment ----

func TestProcessNeverFails(t *testing.T) {
	boom := errors.New("upstream exploded")

	cases := []struct {
		name string
		c    agentflow.Collaborators
	}{
		{
			name: "emotion fails",
			c: agentflow.Collaborators{
				Emotion: &stubEmotion{err: boom},
				Safety:  &stubSafety{res: safeAssessment()},
				Chat:    &stubChat{res: domain.ResponseEnvelope{Text: "ok"}},
			},
		},
		{
			name: "safety fails",
			c: agentflow.Collaborators{
				Emotion: &stubEmotion{res: calmEmotion()},
				Safety:  &stubSafety{err: boom},
				Chat:    &stubChat{res: domain.ResponseEnvelope{Text: "ok"}},
			},
		},
		{
			name: "chat fails",
			c: agentflow.Collaborators{
				Emotion: &stubEmotion{res: calmEmotion()},
				Safety:  &stubSafety{res: safeAssessment()},
				Chat:    &stubChat{err: boom},
			},
		},
		{
			name: "chat panics",
			c: agentflow.Collaborators{
				Emotion: &stubEmotion{res: calmEmotion()},
				Safety:  &stubSafety{res: safeAssessment()},
				Chat:    &stubChat{panic: true},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := newOrchestrator(t, tc.c)

			res := o.Process(context.Background(), "msg", nil)

			assert.Equal(t, agentflow.FallbackResponse, res.Response)
			assert.True(t, res.Degraded())
			assert.NotEmpty(t, res.Error)
			assert.False(t, res.RequiresEscalation)
			assert.Nil(t, res.Emotion)
			assert.Nil(t, res.Safety)
			assert.NotEmpty(t, res.Timestamp)
		})
	}
}

func TestDegradedResultMasksPartialSuccess(t *testing.T) {
	o := newOrchestrator(t, agentflow.Collaborators{
		Emotion: &stubEmotion{res: calmEmotion()},
		Safety:  &stubSafety{res: safeAssessment()},
		Chat:    &stubChat{err: errors.New("model unavailable")},
	})

	res := o.Process(context.Background(), "msg", nil)

	// The caller sees an all-or-nothing degraded result.
	assert.Equal(t, agentflow.FallbackResponse, res.Response)
	assert.Nil(t, res.Emotion)
	assert.Nil(t, res.Safety)
	assert.Contains(t, res.Error, "model unavailable")

	// The internal histories keep the entries of the steps that succeeded.
	trends := o.EmotionalTrends()
	require.Len(t, trends.PrimaryEmotions, 1)
	assert.Equal(t, "neutral", trends.PrimaryEmotions[0])
	require.Len(t, o.SafetySummary().RiskLevelHistory, 1)
}

func TestStepTimeoutDegrades(t *testing.T) {
	o := newOrchestrator(t, agentflow.Collaborators{
		Emotion: &stubEmotion{block: true},
		Safety:  &stubSafety{res: safeAssessment()},
		Chat:    &stubChat{res: domain.ResponseEnvelope{Text: "ok"}},
	}, agentflow.WithStepTimeout(10*time.Millisecond))

	res := o.Process(context.Background(), "msg", nil)

	assert.True(t, res.Degraded())
	assert.Contains(t, res.Error, "emotion analysis")
}

// ---- history monotonicity ----

func TestHistoryMonotonicity(t *testing.T) {
	emotion := &stubEmotion{res: calmEmotion()}
	safety := &stubSafety{res: safeAssessment()}
	chat := &stubChat{res: domain.ResponseEnvelope{Text: "ok"}}

	o := newOrchestrator(t, agentflow.Collaborators{Emotion: emotion, Safety: safety, Chat: chat})

	for i := 0; i < 3; i++ {
		o.Process(context.Background(), "fine", nil)
	}

	// Two calls degrade on the response step; emotion+safety still succeed.
	chat.err = errors.New("down")
	for i := 0; i < 2; i++ {
		o.Process(context.Background(), "fine", nil)
	}

	assert.Len(t, o.ConversationHistory(), 5)
	assert.Len(t, o.EmotionalTrends().PrimaryEmotions, 5)
	assert.Len(t, o.SafetySummary().RiskLevelHistory, 5)

	// A failure in the emotion step leaves both analysis histories alone.
	emotion.err = errors.New("analyzer down")
	o.Process(context.Background(), "fine", nil)

	assert.Len(t, o.ConversationHistory(), 6)
	assert.Len(t, o.EmotionalTrends().PrimaryEmotions, 5)
	assert.Len(t, o.SafetySummary().RiskLevelHistory, 5)
}

func TestConversationHistoryIsSnapshot(t *testing.T) {
	o := newOrchestrator(t, agentflow.Collaborators{
		Emotion: &stubEmotion{res: calmEmotion()},
		Safety:  &stubSafety{res: safeAssessment()},
		Chat:    &stubChat{res: domain.ResponseEnvelope{Text: "ok"}},
	})

	o.Process(context.Background(), "one", nil)

	snapshot := o.ConversationHistory()
	snapshot[0].UserMessage = "tampered"

	assert.Equal(t, "one", o.ConversationHistory()[0].UserMessage)
}

func TestConcurrentProcess(t *testing.T) {
	o := newOrchestrator(t, agentflow.Collaborators{
		Emotion: &stubEmotion{res: calmEmotion()},
		Safety:  &stubSafety{res: safeAssessment()},
		Chat:    &stubChat{res: domain.ResponseEnvelope{Text: "ok"}},
	})

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				o.Process(context.Background(), "hi", nil)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, o.ConversationHistory(), workers*perWorker)
	assert.Len(t, o.EmotionalTrends().PrimaryEmotions, workers*perWorker)
	assert.Len(t, o.SafetySummary().RiskLevelHistory, workers*perWorker)
}

// ---- logging ----

func TestLowConfidenceWarningFiresOnce(t *testing.T) {
	sink := &recordSink{}

	emotion := calmEmotion()
	emotion.Confidence = 0.3
	safety := safeAssessment()
	safety.Confidence = 0.9

	o := newOrchestrator(t, agentflow.Collaborators{
		Emotion: &stubEmotion{res: emotion},
		Safety:  &stubSafety{res: safety},
		Chat:    &stubChat{res: domain.ResponseEnvelope{Text: "ok"}},
	}, agentflow.WithLogger(slog.New(sink)))

	o.Process(context.Background(), "msg", nil)

	assert.Equal(t, 1, sink.count("low confidence in analysis"))
	assert.Equal(t, 0, sink.count("emergency protocol activated"))
	assert.Equal(t, 1, sink.count("interaction processed"))
}

func TestEmergencyWarningIndependentOfConfidence(t *testing.T) {
	sink := &recordSink{}

	emotion := calmEmotion()
	emotion.Confidence = 0.2

	o := newOrchestrator(t, agentflow.Collaborators{
		Emotion: &stubEmotion{res: emotion},
		Safety: &stubSafety{res: domain.SafetyAssessment{
			RiskLevel:         domain.RiskCritical,
			EmergencyProtocol: true,
			Concerns:          []string{"self-harm language"},
			Confidence:        0.95,
		}},
		Chat: &stubChat{res: domain.ResponseEnvelope{Text: "ok"}},
	}, agentflow.WithLogger(slog.New(sink)))

	o.Process(context.Background(), "msg", nil)

	assert.Equal(t, 1, sink.count("emergency protocol activated"))
	assert.Equal(t, 1, sink.count("low confidence in analysis"))
}

// ---- leniency toward malformed assessments ----

func TestMalformedAssessmentDefaults(t *testing.T) {
	sink := &recordSink{}

	o := newOrchestrator(t, agentflow.Collaborators{
		// Zero values throughout: no confidence, no intensity, no risk level.
		Emotion: &stubEmotion{res: domain.EmotionAssessment{}},
		Safety:  &stubSafety{res: domain.SafetyAssessment{}},
		Chat:    &stubChat{res: domain.ResponseEnvelope{Text: "ok"}},
	}, agentflow.WithLogger(slog.New(sink)))

	res := o.Process(context.Background(), "msg", nil)

	require.False(t, res.Degraded())
	assert.Equal(t, "unknown", res.Emotion.PrimaryEmotion)
	assert.Equal(t, 5, res.Emotion.Intensity)
	assert.Equal(t, 1.0, res.Emotion.Confidence)
	assert.Equal(t, domain.RiskUnknown, res.Safety.RiskLevel)
	assert.False(t, res.Emotion.Timestamp.IsZero())

	// A defaulted confidence of 1.0 must not trip the warning.
	assert.Equal(t, 0, sink.count("low confidence in analysis"))
}

func TestIntensityClamped(t *testing.T) {
	emotion := calmEmotion()
	emotion.Intensity = 14
	emotion.Confidence = 1.7

	o := newOrchestrator(t, agentflow.Collaborators{
		Emotion: &stubEmotion{res: emotion},
		Safety:  &stubSafety{res: safeAssessment()},
		Chat:    &stubChat{res: domain.ResponseEnvelope{Text: "ok"}},
	})

	res := o.Process(context.Background(), "msg", nil)

	assert.Equal(t, 10, res.Emotion.Intensity)
	assert.Equal(t, 1.0, res.Emotion.Confidence)
}
