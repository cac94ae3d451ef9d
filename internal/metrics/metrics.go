// Package metrics declares the Prometheus collectors for the dialogue engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Message outcomes recorded by MessagesHandled.
const (
	OutcomeAccepted = "accepted" // answer recorded, cursor advanced
	OutcomeFollowUp = "followup" // rating recorded, follow-up requested
	OutcomeRejected = "rejected" // validation failed, re-prompted
	OutcomeEmpty    = "empty"    // blank input, re-prompted
	OutcomeClosed   = "closed"   // survey already complete
)

var (
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulsebot_sessions_started_total",
			Help: "Total number of interview sessions started",
		},
	)

	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsebot_messages_total",
			Help: "Total number of inbound messages by outcome",
		},
		[]string{"outcome"},
	)

	SurveysCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulsebot_surveys_completed_total",
			Help: "Total number of sessions that answered every question",
		},
	)

	RetrievalSnippets = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pulsebot_retrieval_snippets",
			Help:    "Number of knowledge snippets attached to a reply",
			Buckets: []float64{0, 1, 2},
		},
	)
)

// Handler serves the default registry at /metrics.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
