package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/havenlabs/haven-agent/internal/domain"
)

// Mock collaborators for local mode and tests. Deterministic, no network.

type MockEmotionAnalyzer struct{}

func NewMockEmotionAnalyzer() *MockEmotionAnalyzer {
	return &MockEmotionAnalyzer{}
}

func (m *MockEmotionAnalyzer) AnalyzeEmotion(ctx context.Context, text string) (domain.EmotionAssessment, error) {
	return domain.EmotionAssessment{
		PrimaryEmotion:    "neutral",
		SecondaryEmotions: []string{"calm"},
		Intensity:         5,
		Confidence:        0.7,
		Timestamp:         time.Now(),
	}, nil
}

type MockSafetyChecker struct{}

func NewMockSafetyChecker() *MockSafetyChecker {
	return &MockSafetyChecker{}
}

func (m *MockSafetyChecker) CheckMessage(ctx context.Context, text string) (domain.SafetyAssessment, error) {
	return domain.SafetyAssessment{
		RiskLevel:  domain.RiskNone,
		Confidence: 0.9,
	}, nil
}

type MockResponder struct{}

func NewMockResponder() *MockResponder {
	return &MockResponder{}
}

func (m *MockResponder) GenerateResponse(ctx context.Context, message string, rc domain.ResponseContext) (domain.ResponseEnvelope, error) {
	return domain.ResponseEnvelope{
		Text: fmt.Sprintf("I hear you. You said %q. Tell me a bit more about how that feels.", message),
	}, nil
}
