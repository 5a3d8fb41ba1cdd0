// Package metrics exposes Prometheus collectors for interview activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "interview"

// Evaluation results.
const (
	ResultScored     = "scored"
	ResultDegenerate = "degenerate"
)

// AI review statuses.
const (
	ReviewSuccess  = "success"
	ReviewError    = "error"
	ReviewDisabled = "disabled"
)

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	sessionsStarted *prometheus.CounterVec
	questionsServed *prometheus.CounterVec
	evaluations     *prometheus.CounterVec
	scores          *prometheus.HistogramVec
	aiReviews       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_started_total",
				Help:      "Total number of interview sessions started",
			},
			[]string{"major"},
		),
		questionsServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "questions_served_total",
				Help:      "Total number of questions handed out",
			},
			[]string{"category"},
		),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Total number of evaluated answers",
			},
			[]string{"result"}, // result: scored, degenerate
		),
		scores: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_score",
				Help:      "Distribution of evaluation scores per dimension",
				Buckets:   prometheus.LinearBuckets(10, 10, 10),
			},
			[]string{"dimension"},
		),
		aiReviews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_reviews_total",
				Help:      "Total number of AI review attempts",
			},
			[]string{"status"}, // status: success, error, disabled
		),
	}

	if reg != nil {
		reg.MustRegister(m.sessionsStarted, m.questionsServed, m.evaluations, m.scores, m.aiReviews)
	}

	return m
}

func (m *Metrics) SessionStarted(major string) {
	if m == nil {
		return
	}
	if major == "" {
		major = "general"
	}
	m.sessionsStarted.WithLabelValues(major).Inc()
}

func (m *Metrics) QuestionServed(category string) {
	if m == nil {
		return
	}
	m.questionsServed.WithLabelValues(category).Inc()
}

// Evaluated records one evaluation. Scores are keyed by dimension name.
func (m *Metrics) Evaluated(degenerate bool, scores map[string]int) {
	if m == nil {
		return
	}
	result := ResultScored
	if degenerate {
		result = ResultDegenerate
	}
	m.evaluations.WithLabelValues(result).Inc()
	for dimension, score := range scores {
		m.scores.WithLabelValues(dimension).Observe(float64(score))
	}
}

func (m *Metrics) AIReview(status string) {
	if m == nil {
		return
	}
	m.aiReviews.WithLabelValues(status).Inc()
}
