package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/havenlabs/haven-agent/internal/domain"
)

// PrometheusSink implements domain.MetricsSink on a caller-owned registry.
// Nothing here is process-global: construct one, register it, inject it.
type PrometheusSink struct {
	interactionTypes *prometheus.CounterVec
	responseTime     prometheus.Histogram
	emotionGauge     *prometheus.GaugeVec
	safetyFlags      *prometheus.CounterVec
	assessments      prometheus.Counter
}

func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	factory := promauto.With(reg)

	return &PrometheusSink{
		interactionTypes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_interaction_types",
			Help: "Count of different interaction types",
		}, []string{"type"}),
		responseTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "response_time_seconds",
			Help:    "Time taken to generate responses",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		}),
		emotionGauge: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "user_emotion_intensity",
			Help: "Intensity of detected emotions",
		}, []string{"emotion"}),
		safetyFlags: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safety_flag_triggers",
			Help: "Count of triggered safety flags",
		}, []string{"severity_level"}),
		assessments: factory.NewCounter(prometheus.CounterOpts{
			Name: "assessment_completed",
			Help: "Number of completed assessments",
		}),
	}
}

func (s *PrometheusSink) ObserveResponseTime(seconds float64) {
	s.responseTime.Observe(seconds)
}

func (s *PrometheusSink) IncInteraction(kind string) {
	s.interactionTypes.WithLabelValues(kind).Inc()
}

func (s *PrometheusSink) SetEmotionIntensity(emotion string, intensity float64) {
	s.emotionGauge.WithLabelValues(emotion).Set(intensity)
}

func (s *PrometheusSink) IncSafetyFlag(level domain.RiskLevel) {
	s.safetyFlags.WithLabelValues(string(level)).Inc()
}

func (s *PrometheusSink) IncAssessmentCompleted() {
	s.assessments.Inc()
}
