// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BusDropsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uniplay_bus_drop_total",
		Help: "Total number of events dropped on a closed bus",
	}, []string{"topic"})

	ProbeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uniplay_manifest_probe_total",
		Help: "Total number of manifest-type probe attempts by result",
	}, []string{"result"})
)

// IncBusDrop records an event dropped after bus close.
func IncBusDrop(topic string) {
	if topic == "" {
		topic = "unknown"
	}
	BusDropsTotal.WithLabelValues(topic).Inc()
}

// IncProbe records a manifest-type probe outcome.
func IncProbe(result string) {
	if result == "" {
		result = "unknown"
	}
	ProbeTotal.WithLabelValues(result).Inc()
}
