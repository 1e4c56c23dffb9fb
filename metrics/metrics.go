// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Subscribers is the current number of subscribers.
	Subscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "greeter_subscribers",
		Help: "Number of subscribed chats.",
	})

	// Watermark is the last processed update id.
	Watermark = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "greeter_update_watermark",
		Help: "Highest update id processed by the poller.",
	})

	// UpdatesProcessed counts inbound updates by outcome.
	UpdatesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "greeter_updates_processed_total",
		Help: "Inbound updates handled by the poller.",
	}, []string{"action"})

	// PollErrors counts failed long-poll requests.
	PollErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greeter_poll_errors_total",
		Help: "Long-poll requests that failed and were retried.",
	})

	// ZonesGreeted counts zones that became due.
	ZonesGreeted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greeter_zones_greeted_total",
		Help: "Zones whose morning greeting fired.",
	})

	// Sends counts outbound sends by kind (message, sticker) and result.
	Sends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "greeter_sends_total",
		Help: "Outbound sends by kind and result.",
	}, []string{"kind", "result"})
)

func init() {
	prometheus.MustRegister(
		Subscribers,
		Watermark,
		UpdatesProcessed,
		PollErrors,
		ZonesGreeted,
		Sends,
	)
}
