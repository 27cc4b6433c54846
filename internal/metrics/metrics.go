package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "oee_orders_submitted_total",
			Help: "Total number of accepted order submissions.",
		},
	)

	FallbackEnqueues = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "oee_fallback_enqueues_total",
			Help: "Jobs routed to the in-memory queue instead of the durable backend.",
		},
	)

	OrdersFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oee_orders_finished_total",
			Help: "Orders that reached a terminal status.",
		},
		[]string{"status"},
	)

	ActiveWorkers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "oee_active_workers",
			Help: "Pipelines currently executing inside the worker pool.",
		},
	)

	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "oee_status_events_dropped_total",
			Help: "Status events dropped because no client was attached and the pending buffer was full or expired.",
		},
	)
)

func init() {
	prometheus.MustRegister(OrdersSubmitted)
	prometheus.MustRegister(FallbackEnqueues)
	prometheus.MustRegister(OrdersFinished)
	prometheus.MustRegister(ActiveWorkers)
	prometheus.MustRegister(EventsDropped)
}
