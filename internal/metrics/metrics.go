package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Campaign sends by outcome (sent|failed)
	CampaignMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_messages_total",
			Help: "Campaign messages handed to the gateway, by outcome",
		},
		[]string{"outcome"},
	)

	// Orchestrator runs by result (completed|interrupted|empty|error)
	CampaignRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_runs_total",
			Help: "Campaign runs finished, by result",
		},
		[]string{"result"},
	)

	WebhookReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_replies_total",
			Help: "Auto-replies produced by the webhook, by intent",
		},
		[]string{"intent"},
	)
)

const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"

	RunCompleted   = "completed"
	RunInterrupted = "interrupted"
	RunEmpty       = "empty"
	RunError       = "error"
)
