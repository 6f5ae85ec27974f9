package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const (
	submissionsFamily = "troisdimensions_intake_submissions_total"
	emailsFamily      = "troisdimensions_intake_notification_emails_total"
	stepLatencyFamily = "troisdimensions_intake_step_latency_seconds"
)

// StepLatency summarizes one pipeline step since process start.
type StepLatency struct {
	Count      uint64  `json:"count"`
	AvgSeconds float64 `json:"avg_seconds"`
}

// IntakeSnapshot is a point-in-time read of the intake metrics, counted
// since the process started.
type IntakeSnapshot struct {
	ByOutcome    map[string]float64     `json:"by_outcome"`
	EmailsSent   float64                `json:"emails_sent"`
	EmailsFailed float64                `json:"emails_failed"`
	Steps        map[string]StepLatency `json:"steps"`
}

// Snapshot reads the intake families out of gatherer. A gather failure
// yields an empty snapshot.
func Snapshot(gatherer prometheus.Gatherer) IntakeSnapshot {
	snap := IntakeSnapshot{
		ByOutcome: map[string]float64{},
		Steps:     map[string]StepLatency{},
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return snap
	}

	for _, mf := range mfs {
		if mf == nil {
			continue
		}
		switch mf.GetName() {
		case submissionsFamily:
			for _, metric := range mf.Metric {
				if metric.GetCounter() == nil {
					continue
				}
				snap.ByOutcome[labelValue(metric, "outcome")] += metric.GetCounter().GetValue()
			}
		case emailsFamily:
			for _, metric := range mf.Metric {
				if metric.GetCounter() == nil {
					continue
				}
				switch labelValue(metric, "status") {
				case "sent":
					snap.EmailsSent += metric.GetCounter().GetValue()
				case "failed":
					snap.EmailsFailed += metric.GetCounter().GetValue()
				}
			}
		case stepLatencyFamily:
			for _, metric := range mf.Metric {
				h := metric.GetHistogram()
				if h == nil || h.GetSampleCount() == 0 {
					continue
				}
				snap.Steps[labelValue(metric, "step")] = StepLatency{
					Count:      h.GetSampleCount(),
					AvgSeconds: h.GetSampleSum() / float64(h.GetSampleCount()),
				}
			}
		}
	}
	return snap
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.Label {
		if lp != nil && lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
