package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const callkitNamespace string = "callkit"

var (
	promCallsActive  prometheus.Gauge
	promCallDuration prometheus.Histogram

	CallOperationCounter *prometheus.CounterVec
)

func init() {
	promCallsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: callkitNamespace,
		Subsystem: "calls",
		Name:      "active",
	})

	promCallDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: callkitNamespace,
		Subsystem: "calls",
		Name:      "duration_seconds",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 7),
	})

	CallOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: callkitNamespace,
			Subsystem: "calls",
			Name:      "operation",
		},
		[]string{"type", "status", "error_type"},
	)

	prometheus.MustRegister(promCallsActive)
	prometheus.MustRegister(promCallDuration)
	prometheus.MustRegister(CallOperationCounter)
}

func CallConnected() {
	promCallsActive.Inc()
	CallOperationCounter.WithLabelValues("connect", "success", "").Inc()
}

func CallEnded(reason string, wasActive bool, duration time.Duration) {
	if wasActive {
		promCallsActive.Dec()
		promCallDuration.Observe(duration.Seconds())
	}
	CallOperationCounter.WithLabelValues("end", "success", reason).Inc()
}
