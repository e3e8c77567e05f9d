// Package metrics records interview engine metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives engine events
type Recorder interface {
	Submission(autoSubmitted bool)
	Fallback(operation string)
	Completed()
	AnswerScore(score float64)
}

// Nop discards every event
type Nop struct{}

func (Nop) Submission(bool) {}
func (Nop) Fallback(string) {}
func (Nop) Completed() {}
func (Nop) AnswerScore(float64) {}

// PrometheusRecorder implements Recorder with Prometheus collectors
type PrometheusRecorder struct {
	submissions *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	completed   prometheus.Counter
	scores      prometheus.Histogram
}

// NewPrometheusRecorder registers the engine collectors on reg
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mockly_submissions_total",
				Help: "Answer submissions by mode",
			},
			[]string{"mode"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mockly_ai_fallbacks_total",
				Help: "AI calls replaced by the deterministic fallback, by operation",
			},
			[]string{"operation"},
		),
		completed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mockly_interviews_completed_total",
			Help: "Interviews that reached the completed stage",
		}),
		scores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mockly_answer_score",
			Help:    "Recorded answer scores",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		}),
	}
}

func (p *PrometheusRecorder) Submission(autoSubmitted bool) {
	mode := "manual"
	if autoSubmitted {
		mode = "auto"
	}
	p.submissions.WithLabelValues(mode).Inc()
}

func (p *PrometheusRecorder) Fallback(operation string) {
	p.fallbacks.WithLabelValues(operation).Inc()
}

func (p *PrometheusRecorder) Completed() {
	p.completed.Inc()
}

func (p *PrometheusRecorder) AnswerScore(score float64) {
	p.scores.Observe(score)
}
