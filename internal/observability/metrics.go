package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolverFallbackHits counts identity resolutions by the fallback step
	// that produced the hit ("session", "own_handle", "identities",
	// "published_content", "scan", "miss").
	ResolverFallbackHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_resolver_fallback_hits_total",
		Help: "Total identity resolutions by fallback step",
	}, []string{"step"})

	// LiveViewsOpen is the gauge of currently open live content views.
	LiveViewsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inkwell_live_views_open",
		Help: "Number of currently open live content views",
	})

	// SnapshotsDelivered counts snapshots emitted to live views by viewer role.
	SnapshotsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_snapshots_delivered_total",
		Help: "Total snapshots emitted to live views by viewer role",
	}, []string{"role"})

	// ResolverErrors counts store failures swallowed by the resolver
	// fallback chain, by the step that hit them.
	ResolverErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_resolver_errors_total",
		Help: "Total store errors absorbed by resolver fallback steps",
	}, []string{"step"})

	// StoreErrors counts document store failures by collection and operation.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_store_errors_total",
		Help: "Total document store errors by collection and operation",
	}, []string{"collection", "operation"})

	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ActiveWebSockets is the gauge of open profile stream sockets.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inkwell_websocket_connections",
		Help: "Number of active profile stream WebSocket connections",
	})

	// SubscriptionReconnects counts backoff-driven resubscriptions after a
	// live delivery failure.
	SubscriptionReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_subscription_reconnects_total",
		Help: "Total live subscription reconnect attempts after errors",
	})
)
