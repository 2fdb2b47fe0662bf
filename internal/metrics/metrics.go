package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmcp_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gmcp_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Chat metrics
	ChatsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gmcp_chats_created_total",
			Help: "Total chats created",
		},
	)

	MessagesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gmcp_messages_appended_total",
			Help: "Total messages appended to chats",
		},
	)

	MessagesEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gmcp_messages_evicted_total",
			Help: "Total messages evicted by history truncation",
		},
	)

	MessagesSanitized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gmcp_messages_sanitized_total",
			Help: "Total messages altered by injection stripping",
		},
	)

	LockTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gmcp_lock_timeouts_total",
			Help: "Total chat lock acquisition timeouts",
		},
	)

	ChatsCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gmcp_chats_cleaned_total",
			Help: "Total chats removed by the TTL sweep",
		},
	)

	// Gemini CLI metrics
	GeminiCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmcp_gemini_calls_total",
			Help: "Total Gemini CLI invocations",
		},
		[]string{"model", "outcome"}, // outcome: "ok" or "error"
	)

	GeminiLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gmcp_gemini_latency_seconds",
			Help:    "Gemini CLI invocation latency",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	GeminiCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gmcp_gemini_cache_hits_total",
			Help: "Total Gemini responses served from cache",
		},
	)
)
