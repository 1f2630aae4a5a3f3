// Package metrics holds the prometheus collectors exported by hostspin.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostspin_cycles_total",
			Help: "Completed cycles by status.",
		},
		[]string{"status"},
	)
	ProbeLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hostspin_probe_latency_seconds",
			Help:    "TCP connect latency of reachable candidates.",
			Buckets: []float64{.01, .025, .05, .1, .2, .3, .5, .75, 1},
		},
	)
	ProbeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hostspin_probe_failures_total",
			Help: "Candidates that could not be reached within the timeout.",
		},
	)
	DomainsPinned = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostspin_domains_pinned",
			Help: "Domains written to the hosts file by the last successful cycle.",
		},
	)
	LastCycle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostspin_last_cycle_timestamp_seconds",
			Help: "Unix time at which the last cycle finished.",
		},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, ProbeLatency, ProbeFailures, DomainsPinned, LastCycle)
}

// ObserveProbe records one probe outcome.
func ObserveProbe(reachable bool, latency time.Duration) {
	if !reachable {
		ProbeFailures.Inc()
		return
	}
	ProbeLatency.Observe(latency.Seconds())
}

// ObserveCycle records the end of a cycle.
func ObserveCycle(status string, pinned int, finished time.Time) {
	CyclesTotal.WithLabelValues(status).Inc()
	if status == "success" {
		DomainsPinned.Set(float64(pinned))
	}
	LastCycle.Set(float64(finished.Unix()))
}
