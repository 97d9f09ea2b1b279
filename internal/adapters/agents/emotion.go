package agents

import (
	"context"
	"strings"
	"time"

	"github.com/jonreiter/govader"

	"github.com/havenlabs/haven-agent/internal/domain"
)

// emotionConfidence is the fixed confidence of the lexicon-based analyzer.
// It has no calibration signal of its own.
const emotionConfidence = 0.7

// VaderEmotionAnalyzer classifies messages with VADER sentiment scoring
// plus keyword heuristics for triggers and clinical indicators.
type VaderEmotionAnalyzer struct {
	vader *govader.SentimentIntensityAnalyzer
	now   func() time.Time
}

func NewVaderEmotionAnalyzer() *VaderEmotionAnalyzer {
	return &VaderEmotionAnalyzer{
		vader: govader.NewSentimentIntensityAnalyzer(),
		now:   time.Now,
	}
}

// AnalyzeEmotion implements domain.EmotionAnalyzer.
func (a *VaderEmotionAnalyzer) AnalyzeEmotion(ctx context.Context, text string) (domain.EmotionAssessment, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmotionAssessment{}, err
	}

	scores := a.vader.PolarityScores(text)
	compound := scores.Compound

	assessment := domain.EmotionAssessment{
		Intensity:  intensityFromCompound(compound),
		Confidence: emotionConfidence,
		Timestamp:  a.now(),
	}

	switch {
	case compound > 0.05:
		assessment.PrimaryEmotion = "happy"
		assessment.SecondaryEmotions = []string{"content", "satisfied"}
	case compound < -0.05:
		assessment.PrimaryEmotion = "sad"
		assessment.SecondaryEmotions = []string{"disappointed", "frustrated"}
	default:
		assessment.PrimaryEmotion = "neutral"
		assessment.SecondaryEmotions = []string{"calm", "balanced"}
	}

	lower := strings.ToLower(text)
	assessment.Triggers = detectTriggers(lower)
	assessment.ClinicalIndicators = detectClinicalIndicators(lower)

	return assessment, nil
}

// intensityFromCompound maps |compound| in [0,1] onto the 1..10 scale.
func intensityFromCompound(compound float64) int {
	if compound < 0 {
		compound = -compound
	}
	intensity := int(compound * 10)
	if intensity < 1 {
		return 1
	}
	if intensity > 10 {
		return 10
	}
	return intensity
}

func detectTriggers(lower string) []string {
	var triggers []string
	if strings.Contains(lower, "work") || strings.Contains(lower, "job") {
		triggers = append(triggers, "work-related stress")
	}
	if strings.Contains(lower, "family") || strings.Contains(lower, "parent") {
		triggers = append(triggers, "family dynamics")
	}
	if strings.Contains(lower, "health") || strings.Contains(lower, "sick") {
		triggers = append(triggers, "health concerns")
	}
	return triggers
}

func detectClinicalIndicators(lower string) []string {
	var indicators []string
	if strings.Contains(lower, "depressed") || strings.Contains(lower, "hopeless") {
		indicators = append(indicators, "depression symptoms")
	}
	if strings.Contains(lower, "anxious") || strings.Contains(lower, "worried") {
		indicators = append(indicators, "anxiety symptoms")
	}
	if strings.Contains(lower, "angry") || strings.Contains(lower, "frustrated") {
		indicators = append(indicators, "emotional dysregulation")
	}
	return indicators
}
