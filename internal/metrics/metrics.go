package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bridge Metrics
var (
	// BridgeSnapshotsPublished tracks snapshots received from the producer and published
	BridgeSnapshotsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_snapshots_published_total",
			Help: "Total snapshots republished by the broadcast bridge",
		},
	)

	// BridgeUnheardPublishes tracks publishes that found no subscribers
	BridgeUnheardPublishes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_unheard_publishes_total",
			Help: "Total snapshots published while no subscriber was attached",
		},
	)

	// BridgeWorkerRunning is 1 while the bridge worker goroutine is alive
	BridgeWorkerRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_worker_running",
			Help: "Whether the broadcast bridge worker is running (1) or has exited (0)",
		},
	)
)

// Broadcast Channel Metrics
var (
	// ChannelSubscribers tracks currently registered subscriptions
	ChannelSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_channel_subscribers",
			Help: "Number of subscriptions attached to the broadcast channel",
		},
	)

	// ChannelLaggedDrops tracks values replaced before a slow subscriber read them
	ChannelLaggedDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_channel_lagged_drops_total",
			Help: "Total values dropped for subscribers that lagged behind the producer",
		},
	)
)

// Stream Session Metrics
var (
	// StreamSessionsActive tracks running stream sessions
	StreamSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_sessions_active",
			Help: "Number of active stream sessions",
		},
	)

	// StreamSessionsEnded tracks finished sessions by end reason
	StreamSessionsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_sessions_ended_total",
			Help: "Total stream sessions ended, by reason",
		},
		[]string{"reason"},
	)

	// StreamMessagesSent tracks snapshots delivered to clients
	StreamMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_messages_sent_total",
			Help: "Total snapshot messages written to stream transports",
		},
	)
)

// WebSocket Metrics
var (
	// WebSocketMessageSendDuration tracks time to write a single message
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "Time to write a single WebSocket message",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)

	// WebSocketPingFailures tracks failed keepalive pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket ping failures",
		},
	)

	// WebSocketConnectionsRejected tracks refused upgrades by reason
	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "Total WebSocket connections rejected, by reason",
		},
		[]string{"reason"},
	)

	// WebSocketConnectionCapacity tracks utilization of the global connection limit
	WebSocketConnectionCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connection_capacity_percent",
			Help: "Current WebSocket connection capacity utilization in percent",
		},
	)
)

// Daily Cache Metrics
var (
	// CacheHits tracks reads served from a fresh entry
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daily_cache_hits_total",
			Help: "Total daily cache hits, by cache",
		},
		[]string{"cache"},
	)

	// CacheMisses tracks reads that required an upstream fetch
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daily_cache_misses_total",
			Help: "Total daily cache misses (absent or stale entry), by cache",
		},
		[]string{"cache"},
	)

	// CacheFetchFailures tracks failed upstream fetches
	CacheFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daily_cache_fetch_failures_total",
			Help: "Total failed upstream fetches, by cache",
		},
		[]string{"cache"},
	)

	// CacheFetchDuration tracks upstream fetch latency
	CacheFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "daily_cache_fetch_duration_seconds",
			Help:    "Upstream fetch duration in seconds, by cache",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"cache"},
	)
)

// Upstream Metrics
var (
	// UpstreamRequestsTotal tracks outbound requests by target and status
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total upstream HTTP requests by target and status",
		},
		[]string{"target", "status"},
	)
)

// Monitor Metrics
var (
	// MonitorSamplesTotal tracks snapshots produced by the network monitor
	MonitorSamplesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitor_samples_total",
			Help: "Total network snapshots produced by the monitor",
		},
	)

	// MonitorDevicesOnline tracks reachable devices in the latest snapshot
	MonitorDevicesOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitor_devices_online",
			Help: "Number of devices reachable in the latest snapshot",
		},
	)
)

// HTTP Metrics
var (
	// HTTPErrorsTotal tracks error responses by error type and status code
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total HTTP error responses by type and status code",
		},
		[]string{"type", "status"},
	)

	// RateLimitRejections tracks requests rejected by the API rate limiter
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limit_rejections_total",
			Help: "Total API requests rejected by the rate limiter",
		},
	)
)
