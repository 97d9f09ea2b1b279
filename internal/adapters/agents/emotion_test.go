package agents_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenlabs/haven-agent/internal/adapters/agents"
)

func TestAnalyzeEmotionPolarity(t *testing.T) {
	analyzer := agents.NewVaderEmotionAnalyzer()
	ctx := context.Background()

	cases := []struct {
		name string
		text string
		want string
	}{
		{"positive", "I feel really happy and grateful today, things are going great", "happy"},
		{"negative", "I feel terrible and sad, everything went wrong", "sad"},
		{"neutral", "The meeting is scheduled for three in the afternoon", "neutral"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := analyzer.AnalyzeEmotion(ctx, tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.PrimaryEmotion)
			assert.GreaterOrEqual(t, res.Intensity, 1)
			assert.LessOrEqual(t, res.Intensity, 10)
			assert.InDelta(t, 0.7, res.Confidence, 0.001)
			assert.False(t, res.Timestamp.IsZero())
			assert.NotEmpty(t, res.SecondaryEmotions)
		})
	}
}

func TestAnalyzeEmotionTriggersAndIndicators(t *testing.T) {
	analyzer := agents.NewVaderEmotionAnalyzer()

	res, err := analyzer.AnalyzeEmotion(context.Background(),
		"I'm so anxious about my job, work has been brutal and my family doesn't get it")
	require.NoError(t, err)

	assert.Contains(t, res.Triggers, "work-related stress")
	assert.Contains(t, res.Triggers, "family dynamics")
	assert.Contains(t, res.ClinicalIndicators, "anxiety symptoms")
}

func TestAnalyzeEmotionCanceledContext(t *testing.T) {
	analyzer := agents.NewVaderEmotionAnalyzer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := analyzer.AnalyzeEmotion(ctx, "anything")
	assert.Error(t, err)
}
