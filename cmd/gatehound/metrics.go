package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatehoundlib/go-gatehound/hound"
)

var (
	consecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gatehound_consecutive_failures",
			Help: "Consecutive failed health probes per target.",
		},
		[]string{"target"},
	)

	probeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatehound_probe_duration_seconds",
			Help:    "Duration of health probe executions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"target", "outcome"},
	)

	alertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatehound_alerts_total",
			Help: "Watchdog alerts by delivery outcome.",
		},
		[]string{"target", "outcome"},
	)

	recoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatehound_recovery_attempts_total",
			Help: "Recovery attempts by outcome.",
		},
		[]string{"target", "outcome"},
	)
)

func newMetricsEventNotifier() hound.EventNotifier {
	return func(ev hound.Event) {
		target := ev.GetTarget()
		switch ev.GetTag() {
		case hound.ProbeSucceeded:
			consecutiveFailures.WithLabelValues(target).Set(0)
			probeDuration.WithLabelValues(target, "healthy").
				Observe(ev.GetDuration().Seconds())
		case hound.ProbeFailed:
			consecutiveFailures.WithLabelValues(target).
				Set(float64(ev.GetFailures()))
			probeDuration.WithLabelValues(target, "unhealthy").
				Observe(ev.GetDuration().Seconds())
		case hound.AlertDelivered:
			alertsTotal.WithLabelValues(target, "delivered").Inc()
		case hound.AlertFailed:
			alertsTotal.WithLabelValues(target, "failed").Inc()
		case hound.RecoveryAttempted:
			recoveriesTotal.WithLabelValues(target, "attempted").Inc()
		case hound.RecoveryFailed:
			recoveriesTotal.WithLabelValues(target, "failed").Inc()
		}
	}
}

// newHTTPServer exposes Prometheus metrics and a healthz endpoint backed by
// the watchdog's own event stream.
func newHTTPServer(addr string, monitor *hound.HealthMonitor) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		report := monitor.GetHealthReport()
		if report.IsHealthyReport() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		for _, target := range report.GetFailedTargets() {
			_, _ = w.Write([]byte("failing: " + target + "\n"))
		}
		for _, target := range report.GetStalledTargets() {
			_, _ = w.Write([]byte("stalled: " + target + "\n"))
		}
	})
	return &http.Server{Addr: addr, Handler: mux}
}
