package agents

import (
	"context"
	"strings"

	"github.com/havenlabs/haven-agent/internal/domain"
)

// KeywordSafetyChecker assesses messages against tiered phrase lists.
// The critical tier activates the emergency protocol; the lower tiers only
// raise the risk level and record concerns.
type KeywordSafetyChecker struct{}

func NewKeywordSafetyChecker() *KeywordSafetyChecker {
	return &KeywordSafetyChecker{}
}

type riskTier struct {
	level     domain.RiskLevel
	emergency bool
	concern   string
	phrases   []string
}

// Tiers are ordered most severe first; the first matching tier sets the
// level and the scan keeps collecting concerns from lower tiers.
var riskTiers = []riskTier{
	{
		level:     domain.RiskCritical,
		emergency: true,
		concern:   "self-harm language",
		phrases: []string{
			"kill myself", "suicide", "suicidal", "end my life",
			"want to die", "hurt myself", "self-harm", "self harm",
		},
	},
	{
		level:   domain.RiskHigh,
		concern: "acute distress",
		phrases: []string{
			"hopeless", "no way out", "can't go on", "cant go on",
			"nothing matters", "give up on everything",
		},
	},
	{
		level:   domain.RiskMedium,
		concern: "crisis indicators",
		phrases: []string{
			"panic attack", "can't cope", "cant cope", "breaking down",
			"falling apart", "crisis",
		},
	},
	{
		level:   domain.RiskLow,
		concern: "elevated stress",
		phrases: []string{
			"stressed", "anxious", "overwhelmed", "can't sleep", "cant sleep",
		},
	},
}

// CheckMessage implements domain.SafetyChecker.
func (c *KeywordSafetyChecker) CheckMessage(ctx context.Context, text string) (domain.SafetyAssessment, error) {
	if err := ctx.Err(); err != nil {
		return domain.SafetyAssessment{}, err
	}

	lower := strings.ToLower(text)

	assessment := domain.SafetyAssessment{
		RiskLevel:  domain.RiskNone,
		Confidence: 0.9,
	}

	for _, tier := range riskTiers {
		if !matchesAny(lower, tier.phrases) {
			continue
		}
		if assessment.RiskLevel.Severity() < tier.level.Severity() {
			assessment.RiskLevel = tier.level
		}
		if tier.emergency {
			assessment.EmergencyProtocol = true
		}
		assessment.Concerns = append(assessment.Concerns, tier.concern)
	}

	// Keyword matches carry more signal than their absence.
	if len(assessment.Concerns) > 0 {
		assessment.Confidence = 0.8
	}
	if assessment.EmergencyProtocol {
		assessment.Confidence = 0.95
	}

	return assessment, nil
}

func matchesAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
