// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fitting_edge"

var (
	// CacheOperationsTotal tracks response-cache operations.
	// Labels:
	//   - operation: get, set
	//   - status: hit, miss, success, error
	//   - cache_type: redis, memory
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of response cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// UpstreamRequestsTotal tracks fetches against the reviews upstream.
	// Labels:
	//   - status: ok, http_error, rejected, transport_error
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream review fetches",
		},
		[]string{"status"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior on cache misses.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)

	// UploadsTotal tracks upload pipeline outcomes.
	// Labels:
	//   - result: accepted, rejected, storage_error
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of upload requests by outcome",
		},
		[]string{"result"},
	)

	// NotificationsTotal tracks notification channel deliveries.
	// Labels:
	//   - channel: webhook, email, queue
	//   - status: success, error
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of notification deliveries by channel",
		},
		[]string{"channel", "status"},
	)
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet = "get"
	CacheOpSet = "set"
)

// Cache type constants.
const (
	CacheTypeRedis  = "redis"
	CacheTypeMemory = "memory"
)

// Upstream status constants.
const (
	UpstreamOK             = "ok"
	UpstreamHTTPError      = "http_error"
	UpstreamRejected       = "rejected"
	UpstreamTransportError = "transport_error"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)

// Upload result constants.
const (
	UploadAccepted     = "accepted"
	UploadRejected     = "rejected"
	UploadStorageError = "storage_error"
)

// Notification channel and status constants.
const (
	ChannelWebhook = "webhook"
	ChannelEmail   = "email"
	ChannelQueue   = "queue"

	NotifySuccess = "success"
	NotifyError   = "error"
)
