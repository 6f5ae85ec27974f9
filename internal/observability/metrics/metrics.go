package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trois-dimensions/site-backend/internal/leads"
)

// Outcome labels recorded for each submission.
const (
	OutcomeConfigFailed = "config_failed"
	OutcomeRejected     = "rejected"
	OutcomeStoreFailed  = "store_failed"
	OutcomeEmailFailed  = "email_failed"
	OutcomeFlagFailed   = "flag_failed"
	OutcomeDelivered    = "delivered"
)

// categoryInvalid is the label for submissions whose type is not a category.
const categoryInvalid = "invalid"

// IntakeMetrics exposes counters/histograms for the lead intake pipeline.
type IntakeMetrics struct {
	categories       map[string]struct{}
	submissionsTotal *prometheus.CounterVec
	emailTotal       *prometheus.CounterVec
	stepLatency      *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "troisdimensions",
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Total lead submissions by category and outcome",
		}, []string{"category", "outcome"}),
		emailTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "troisdimensions",
			Subsystem: "intake",
			Name:      "notification_emails_total",
			Help:      "Total notification email attempts",
		}, []string{"status"}),
		stepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "troisdimensions",
			Subsystem: "intake",
			Name:      "step_latency_seconds",
			Help:      "Latency of each intake pipeline step",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m.categories = make(map[string]struct{}, len(leads.Categories))
	for _, c := range leads.Categories {
		m.categories[string(c)] = struct{}{}
	}
	reg.MustRegister(m.submissionsTotal, m.emailTotal, m.stepLatency)
	return m
}

// ObserveSubmission records the terminal outcome of one submission. Unknown
// categories are folded into "invalid" to bound label cardinality.
func (m *IntakeMetrics) ObserveSubmission(category, outcome string) {
	if m == nil {
		return
	}
	if _, ok := m.categories[category]; !ok {
		category = categoryInvalid
	}
	m.submissionsTotal.WithLabelValues(category, outcome).Inc()
}

func (m *IntakeMetrics) ObserveEmail(sent bool) {
	if m == nil {
		return
	}
	label := "failed"
	if sent {
		label = "sent"
	}
	m.emailTotal.WithLabelValues(label).Inc()
}

func (m *IntakeMetrics) ObserveStep(step string, seconds float64) {
	if m == nil {
		return
	}
	m.stepLatency.WithLabelValues(step).Observe(seconds)
}
