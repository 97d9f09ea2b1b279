package agentflow

import "github.com/havenlabs/haven-agent/internal/domain"

// EmotionalTrends is the rollup over the emotion history.
type EmotionalTrends struct {
	PrimaryEmotions   []string `json:"primary_emotions"`
	IntensityTrend    []int    `json:"intensity_trend"`
	AverageIntensity  float64  `json:"average_intensity"`
	MostCommonEmotion string   `json:"most_common_emotion"`
}

// SafetySummary is the rollup over the safety history.
type SafetySummary struct {
	RiskLevelHistory            []domain.RiskLevel `json:"risk_level_history"`
	EmergencyProtocolsActivated int                `json:"emergency_protocols_activated"`
	CurrentRiskLevel            domain.RiskLevel   `json:"current_risk_level"`
}

// ConversationHistory returns a snapshot copy of the recorded interactions,
// in chronological order. The internal history never escapes.
func (o *Orchestrator) ConversationHistory() []domain.Interaction {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]domain.Interaction, len(o.conversation))
	copy(out, o.conversation)
	return out
}

// EmotionalTrends aggregates the emotion history. An empty history yields
// the zero aggregate. Entries are normalized at append time, so intensity
// defaults are already applied here.
func (o *Orchestrator) EmotionalTrends() EmotionalTrends {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if len(o.emotionHist) == 0 {
		return EmotionalTrends{}
	}

	trends := EmotionalTrends{
		PrimaryEmotions: make([]string, 0, len(o.emotionHist)),
		IntensityTrend:  make([]int, 0, len(o.emotionHist)),
	}

	total := 0
	for _, e := range o.emotionHist {
		trends.PrimaryEmotions = append(trends.PrimaryEmotions, e.PrimaryEmotion)
		trends.IntensityTrend = append(trends.IntensityTrend, e.Intensity)
		total += e.Intensity
	}

	trends.AverageIntensity = float64(total) / float64(len(trends.IntensityTrend))
	trends.MostCommonEmotion = mostCommon(trends.PrimaryEmotions)

	return trends
}

// SafetySummary aggregates the safety history. An empty history yields a
// zero count and an UNKNOWN current level.
func (o *Orchestrator) SafetySummary() SafetySummary {
	o.mu.RLock()
	defer o.mu.RUnlock()

	summary := SafetySummary{
		CurrentRiskLevel: domain.RiskUnknown,
	}

	if len(o.safetyHist) == 0 {
		return summary
	}

	summary.RiskLevelHistory = make([]domain.RiskLevel, 0, len(o.safetyHist))
	for _, s := range o.safetyHist {
		summary.RiskLevelHistory = append(summary.RiskLevelHistory, s.RiskLevel)
		if s.EmergencyProtocol {
			summary.EmergencyProtocolsActivated++
		}
	}
	summary.CurrentRiskLevel = summary.RiskLevelHistory[len(summary.RiskLevelHistory)-1]

	return summary
}

// mostCommon returns the label with the highest count. Ties break toward
// the label that appeared first chronologically.
func mostCommon(labels []string) string {
	counts := make(map[string]int, len(labels))
	order := make([]string, 0, len(labels))

	for _, l := range labels {
		if counts[l] == 0 {
			order = append(order, l)
		}
		counts[l]++
	}

	best, bestCount := "", 0
	for _, l := range order {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best
}
