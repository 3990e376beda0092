// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "surveylab"

var (
	// WizardEvents counts wizard actions.
	// Labels: event (create, select, ...), outcome (ok or the error code)
	WizardEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "wizard",
		Name:      "events_total",
		Help:      "Wizard actions processed, by event and outcome",
	}, []string{"event", "outcome"})

	// PipelineDuration measures simulate + analysis runs.
	// Labels: effect (deploy, analyze)
	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "analysis",
		Name:      "pipeline_duration_seconds",
		Help:      "Time spent running the analysis pipeline",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"effect"})

	SimulatedParticipants = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "simulation",
		Name:      "participants_total",
		Help:      "Participant records generated by deployments",
	})

	// Logins counts login attempts. Labels: result (success, invalid)
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts by result",
	}, []string{"result"})

	ActiveWSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Open wizard WebSocket connections",
	})

	// ArchivedReports counts reports written by the report worker.
	// Labels: mode (bulk, single, requeued)
	ArchivedReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "archive",
		Name:      "reports_total",
		Help:      "Analysis reports persisted to the archive",
	}, []string{"mode"})
)

// ObservePipeline records the elapsed time since start for effect.
func ObservePipeline(effect string, start time.Time) {
	PipelineDuration.WithLabelValues(effect).Observe(time.Since(start).Seconds())
}
