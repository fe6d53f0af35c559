// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TrackingFiresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uniplay_tracking_fires_total",
		Help: "Total number of interstitial tracking beacon attempts by event",
	}, []string{"event"})

	TrackingDedupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uniplay_tracking_dedup_total",
		Help: "Total number of tracking fires suppressed by session dedup",
	}, []string{"event"})

	SignalingSourceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uniplay_signaling_source_total",
		Help: "Total number of signaling acquisitions by ranked source",
	}, []string{"source"})
)

// IncTrackingFire records one beacon attempt for a tracking event.
func IncTrackingFire(event string) {
	if event == "" {
		event = "unknown"
	}
	TrackingFiresTotal.WithLabelValues(event).Inc()
}

// IncTrackingDedup records a suppressed duplicate fire.
func IncTrackingDedup(event string) {
	if event == "" {
		event = "unknown"
	}
	TrackingDedupTotal.WithLabelValues(event).Inc()
}

// IncSignalingSource records which ranked source supplied signaling.
func IncSignalingSource(source string) {
	if source == "" {
		source = "unknown"
	}
	SignalingSourceTotal.WithLabelValues(source).Inc()
}
