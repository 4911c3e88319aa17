package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "entity_chat"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route and status.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	grpcHandledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "handled_total",
			Help:      "gRPC calls handled, by service, method and code.",
		},
		[]string{"grpc_service", "grpc_method", "grpc_code"},
	)
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Open chat room websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "events_total",
			Help:      "Websocket lifecycle events.",
		},
		[]string{"event"},
	)
	messagesPostedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_posted_total",
			Help:      "Messages appended to chats, by message type.",
		},
		[]string{"type"},
	)
	versionConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflicts_total",
			Help:      "Chat saves rejected because the aggregate changed since it was loaded.",
		},
	)
	notifierEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "events_total",
			Help:      "Realtime events by sink and outcome.",
		},
		[]string{"sink", "outcome"},
	)
	notifierDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "dropped_total",
			Help:      "Realtime events dropped because the dispatch queue was full.",
		},
	)
	brokerPublishErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "publish_errors_total",
			Help:      "Outbound event publish failures, by broker.",
		},
		[]string{"broker"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		grpcHandledTotal,
		wsConnections,
		wsEventsTotal,
		messagesPostedTotal,
		versionConflictsTotal,
		notifierEventsTotal,
		notifierDroppedTotal,
		brokerPublishErrorsTotal,
	)
}

// WSConnected and WSDisconnected track the open connection gauge.
func WSConnected() {
	wsConnections.Inc()
	wsEventsTotal.WithLabelValues("connect").Inc()
}

func WSDisconnected() {
	wsConnections.Dec()
	wsEventsTotal.WithLabelValues("disconnect").Inc()
}

// IncWSEvent counts a websocket event other than connect/disconnect.
func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncMessagePosted(messageType string) {
	messagesPostedTotal.WithLabelValues(messageType).Inc()
}

func IncVersionConflict() {
	versionConflictsTotal.Inc()
}

func IncNotifierEvent(sink, outcome string) {
	notifierEventsTotal.WithLabelValues(sink, outcome).Inc()
}

func IncNotifierDropped() {
	notifierDroppedTotal.Inc()
}

func IncBrokerPublishError(broker string) {
	brokerPublishErrorsTotal.WithLabelValues(broker).Inc()
}
