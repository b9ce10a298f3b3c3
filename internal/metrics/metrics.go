// Package metrics provides Prometheus instrumentation for the chat bot:
// session and queue gauges plus counters for matching, termination, relay
// and reveal outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveSessions tracks sessions currently held by the session runtime.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "anonchat_active_sessions",
		Help: "Current number of runtime-tracked chat sessions",
	})

	// QueueSize tracks the number of users waiting for a partner.
	QueueSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "anonchat_queue_size",
		Help: "Current number of users in the matching queue",
	})

	MatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "anonchat_matches_total",
		Help: "Total number of sessions started by the matcher",
	})

	// SessionsEnded counts terminations by reason: "stop", "next", "timeout".
	SessionsEnded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anonchat_sessions_ended_total",
		Help: "Total number of terminated sessions",
	}, []string{"reason"})

	// RelayedMessages counts relayed payloads by kind, plus "rejected" and "throttled".
	RelayedMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anonchat_relayed_messages_total",
		Help: "Total number of messages handled by the relay",
	}, []string{"kind"})

	Redactions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "anonchat_redactions_total",
		Help: "Total number of relayed texts that had contact details removed",
	})

	// Reveals counts disclosure requests by outcome.
	Reveals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anonchat_reveals_total",
		Help: "Total number of reveal requests",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		ActiveSessions,
		QueueSize,
		MatchesTotal,
		SessionsEnded,
		RelayedMessages,
		Redactions,
		Reveals,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
