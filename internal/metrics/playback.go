// SPDX-License-Identifier: MIT

// Package metrics exposes the prometheus instruments of the playback core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uniplay_state_transitions_total",
		Help: "Total number of canonical playback state transitions",
	}, []string{"from", "to"})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uniplay_errors_total",
		Help: "Total number of normalized playback errors by category and fatality",
	}, []string{"category", "fatal"})

	BackendSelectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uniplay_backend_selected_total",
		Help: "Total number of backend selections by kind and reason",
	}, []string{"kind", "reason"})

	LoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "uniplay_load_duration_seconds",
		Help:    "Time from load request to backend load completion",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 20},
	}, []string{"backend", "result"})
)

// IncStateTransition records one canonical state transition.
func IncStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}
	StateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// IncError records one normalized error.
func IncError(category string, fatal bool) {
	if category == "" {
		category = "unknown"
	}
	f := "false"
	if fatal {
		f = "true"
	}
	ErrorsTotal.WithLabelValues(category, f).Inc()
}

// IncBackendSelected records one backend selection decision.
func IncBackendSelected(kind, reason string) {
	if kind == "" {
		kind = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	BackendSelectedTotal.WithLabelValues(kind, reason).Inc()
}

// ObserveLoadDuration records one facade load attempt.
func ObserveLoadDuration(backend, result string, seconds float64) {
	if backend == "" {
		backend = "unknown"
	}
	if result == "" {
		result = "unknown"
	}
	LoadDuration.WithLabelValues(backend, result).Observe(seconds)
}
