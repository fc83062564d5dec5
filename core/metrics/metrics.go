// Package metrics holds the Prometheus collectors shared by the bot runtime.
// Collectors live on a private registry, not the global default one.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "coinbot"

var (
	// Registry is the registry exposed on /metrics.
	Registry = prometheus.NewRegistry()

	handled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_handled_total",
		Help:      "Telegram updates handled, by handler and outcome.",
	}, []string{"handler", "outcome"})

	handlerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "handler_duration_seconds",
		Help:      "Time spent in update handlers.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"handler"})

	ledgerOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_operations_total",
		Help:      "Ledger store operations, by operation and status.",
	}, []string{"op", "status"})

	ledgerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ledger_operation_duration_seconds",
		Help:      "Latency of ledger store operations.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"op"})

	sendFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "send_failures_total",
		Help:      "Outbound Telegram calls that failed after retries, by error kind.",
	}, []string{"kind"})

	rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Updates dropped by the per-user rate limiter.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		handled,
		handlerDuration,
		ledgerOps,
		ledgerDuration,
		sendFailures,
		rateLimited,
	)
}

// ObserveHandler records one handled update.
func ObserveHandler(handler, outcome string, took time.Duration) {
	handled.WithLabelValues(handler, outcome).Inc()
	handlerDuration.WithLabelValues(handler).Observe(took.Seconds())
}

// ObserveLedger records one ledger store operation.
func ObserveLedger(op string, err error, took time.Duration) {
	status := "ok"
	if err != nil {
		status = "fail"
	}
	ledgerOps.WithLabelValues(op, status).Inc()
	ledgerDuration.WithLabelValues(op).Observe(took.Seconds())
}

// IncSendFailure counts an outbound call that gave up.
func IncSendFailure(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	sendFailures.WithLabelValues(kind).Inc()
}

// IncRateLimited counts a dropped update.
func IncRateLimited() {
	rateLimited.Inc()
}
