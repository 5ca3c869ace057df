// Package metrics exposes the relayer's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LastScannedBlock = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "porthmos_last_scanned_block", Help: "Highest source block covered by the scan cursor"},
		[]string{"chain"},
	)
	LatestBlock = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "porthmos_chain_latest_block", Help: "Latest block reported by the chain"},
		[]string{"chain"},
	)
	EventsScanned = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "porthmos_events_scanned_total", Help: "Deposit events fetched from the source chain"},
		[]string{"chain"},
	)
	ScanFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "porthmos_scan_faults_total", Help: "Scan cycles that hit a fault"},
		[]string{"chain", "kind"},
	)
	ScanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "porthmos_scan_duration_seconds", Help: "Scan cycle latency", Buckets: prometheus.DefBuckets},
		[]string{"chain"},
	)
	RelayOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "porthmos_relay_outcomes_total", Help: "Processed deposit events by outcome"},
		[]string{"outcome"},
	)
	ComponentFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "porthmos_component_failures_total", Help: "Component start and stop failures"},
		[]string{"component", "op"},
	)
)

func init() {
	prometheus.MustRegister(
		LastScannedBlock,
		LatestBlock,
		EventsScanned,
		ScanFaults,
		ScanDuration,
		RelayOutcomes,
		ComponentFailures,
	)
}
