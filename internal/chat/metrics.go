package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connected_sessions",
		Help: "Number of currently registered sessions",
	})

	InboundMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_inbound_messages_total",
		Help: "Inbound client messages by kind",
	}, []string{"kind"})

	DeliveryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_delivery_seconds",
		Help:    "Time to route one message to its recipients",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	DroppedWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_dropped_writes_total",
		Help: "Outbound lines dropped because a session's buffer was full",
	})
)

func init() {
	prometheus.MustRegister(ConnectedSessions)
	prometheus.MustRegister(InboundMessages)
	prometheus.MustRegister(DeliveryDuration)
	prometheus.MustRegister(DroppedWrites)
}
