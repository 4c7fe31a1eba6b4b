// Package metrics holds the process's Prometheus registry and the gauges
// and counters the collector, the order-book fetcher, the scan loop and
// the alert gate update.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Registry struct {
	VenueHealthy       *prometheus.GaugeVec
	WorkerLastSuccess  *prometheus.GaugeVec
	WorkerFailureCount *prometheus.CounterVec
	SignalsEmitted     *prometheus.CounterVec
	SignalsRejected    *prometheus.CounterVec
	AlertsDispatched   prometheus.Counter
	AlertsSuppressed   *prometheus.CounterVec
	OrderbookCacheHit  prometheus.Counter
	OrderbookCacheMiss prometheus.Counter
}

func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		VenueHealthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arbiscan_venue_healthy",
			Help: "1 if the venue's last poll succeeded, 0 otherwise.",
		}, []string{"venue"}),
		WorkerLastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arbiscan_worker_last_success_unixtime",
			Help: "Unix timestamp of the worker's last successful tick.",
		}, []string{"worker"}),
		WorkerFailureCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbiscan_worker_failures_total",
			Help: "Total worker tick failures.",
		}, []string{"worker"}),
		SignalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbiscan_signals_emitted_total",
			Help: "Signals that passed validation, by strategy type.",
		}, []string{"strategy_type"}),
		SignalsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbiscan_signals_rejected_total",
			Help: "Signals rejected, by failed check name.",
		}, []string{"check"}),
		AlertsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbiscan_alerts_dispatched_total",
			Help: "Notifications successfully sent.",
		}),
		AlertsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbiscan_alerts_suppressed_total",
			Help: "Alerts suppressed, by reason.",
		}, []string{"reason"}),
		OrderbookCacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbiscan_orderbook_cache_hit_total",
			Help: "Fresh cache hits on the order-book fetcher.",
		}),
		OrderbookCacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbiscan_orderbook_cache_miss_total",
			Help: "Cache misses forcing a live order-book fetch.",
		}),
	}
	reg.MustRegister(r.VenueHealthy, r.WorkerLastSuccess, r.WorkerFailureCount,
		r.SignalsEmitted, r.SignalsRejected, r.AlertsDispatched, r.AlertsSuppressed,
		r.OrderbookCacheHit, r.OrderbookCacheMiss)
	return r
}
