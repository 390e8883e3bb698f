package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careplus_api_requests_total",
			Help: "Total number of API requests served",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "careplus_api_request_duration_seconds",
			Help:    "Duration of API request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ClientRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careplus_client_requests_total",
			Help: "Requests issued by the API client, by outcome",
		},
		[]string{"method", "outcome"},
	)

	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careplus_alerts_generated_total",
			Help: "Glucose alerts raised by the rule engine",
		},
		[]string{"severity"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careplus_cache_lookups_total",
			Help: "Dashboard summary cache lookups",
		},
		[]string{"result"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careplus_notifications_sent_total",
			Help: "Alert notifications delivered, by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)
