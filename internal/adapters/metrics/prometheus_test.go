package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenlabs/haven-agent/internal/adapters/metrics"
	"github.com/havenlabs/haven-agent/internal/domain"
)

func TestPrometheusSinkRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	sink := metrics.NewPrometheusSink(reg)

	sink.IncInteraction("chat")
	sink.IncInteraction("chat")
	sink.ObserveResponseTime(0.25)
	sink.SetEmotionIntensity("sad", 7)
	sink.IncSafetyFlag(domain.RiskCritical)
	sink.IncAssessmentCompleted()

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64, len(families))
	for _, f := range families {
		switch f.GetName() {
		case "chat_interaction_types", "safety_flag_triggers", "assessment_completed":
			values[f.GetName()] = f.GetMetric()[0].GetCounter().GetValue()
		case "user_emotion_intensity":
			values[f.GetName()] = f.GetMetric()[0].GetGauge().GetValue()
		case "response_time_seconds":
			values[f.GetName()] = float64(f.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}

	assert.Equal(t, 2.0, values["chat_interaction_types"])
	assert.Equal(t, 1.0, values["response_time_seconds"])
	assert.Equal(t, 7.0, values["user_emotion_intensity"])
	assert.Equal(t, 1.0, values["safety_flag_triggers"])
	assert.Equal(t, 1.0, values["assessment_completed"])
}

func TestPrometheusSinkSeparateRegistries(t *testing.T) {
	// Two sinks must not collide: no process-global registry involved.
	a := metrics.NewPrometheusSink(prometheus.NewRegistry())
	b := metrics.NewPrometheusSink(prometheus.NewRegistry())

	a.IncAssessmentCompleted()
	b.IncAssessmentCompleted()
}
