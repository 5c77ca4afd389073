// Package metrics holds the prometheus collectors of a fix run. They are registered on the
// controller-runtime registry and can be exported to a node_exporter textfile at exit.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	flrtvcRunTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flrtvc_run_total",
			Help: "Number of fix runs by outcome.",
		},
		[]string{"outcome"},
	)

	flrtvcStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flrtvc_stage_duration_seconds",
			Help:    "Time taken by each stage of a fix run.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	epkgAcceptedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flrtvc_epkg_accepted_total",
			Help: "Total number of epkgs accepted for installation.",
		},
	)
	epkgRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flrtvc_epkg_rejected_total",
			Help: "Total number of epkgs rejected, by cause.",
		},
		[]string{"cause"},
	)

	epkgPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flrtvc_epkg_pending",
			Help: "Number of epkgs that reached the batch interlock pass in the last resolution.",
		},
	)
)

func init() {
	metrics.Registry.MustRegister(
		flrtvcRunTotal,
		flrtvcStageDuration,
		epkgAcceptedTotal,
		epkgRejectedTotal,
		epkgPending,
	)
}

// ObserveResolution records the outcome of one resolution pass.
func ObserveResolution(pending, accepted int, rejectedByCause map[string]int) {
	epkgPending.Set(float64(pending))
	epkgAcceptedTotal.Add(float64(accepted))
	for cause, n := range rejectedByCause {
		epkgRejectedTotal.WithLabelValues(cause).Add(float64(n))
	}
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, started time.Time) {
	flrtvcStageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// ObserveRun counts a finished run.
func ObserveRun(outcome string) {
	flrtvcRunTotal.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes every registered metric to path in the text exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, metrics.Registry)
}
