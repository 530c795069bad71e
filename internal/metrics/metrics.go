// Package metrics exposes Prometheus collectors for workout syncs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rumhabit",
		Subsystem: "smartwatch",
		Name:      "syncs_total",
		Help:      "Workout sync calls by brand and result.",
	}, []string{"brand", "result"})

	recordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rumhabit",
		Subsystem: "smartwatch",
		Name:      "records_total",
		Help:      "Workout records handled by brand and outcome (saved, skipped, failed).",
	}, []string{"brand", "outcome"})

	syncDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rumhabit",
		Subsystem: "smartwatch",
		Name:      "sync_duration_seconds",
		Help:      "Duration of workout sync calls including vendor and storage time.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"brand"})
)

func init() {
	prometheus.MustRegister(syncsTotal, recordsTotal, syncDuration)
}

// Sync results.
const (
	ResultOK          = "ok"
	ResultPlaceholder = "placeholder"
	ResultError       = "error"
)

// ObserveSync records one sync call.
func ObserveSync(brand, result string, elapsed time.Duration) {
	syncsTotal.WithLabelValues(brand, result).Inc()
	syncDuration.WithLabelValues(brand).Observe(elapsed.Seconds())
}

// AddRecords adds n to the record counter for outcome. Zero is ignored.
func AddRecords(brand, outcome string, n int) {
	if n <= 0 {
		return
	}
	recordsTotal.WithLabelValues(brand, outcome).Add(float64(n))
}
