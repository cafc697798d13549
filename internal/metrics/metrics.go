package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, route and status code",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// kind is "status" or "intervention"
	ShipmentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipment_transitions_total",
		Help: "Accepted shipment state changes",
	}, []string{"kind", "status"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Email delivery attempts by type and result",
	}, []string{"email_type", "status"})

	OutboxPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_pending",
		Help: "Notification tasks waiting to be delivered",
	})

	AttentionRequired = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shipments_attention_required",
		Help: "Active shipments without an update for three days",
	})
)
