package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionsTotal counts connections that reached ready, by direction
	ConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_connections_total",
			Help: "Total number of connections that became ready",
		},
		[]string{"direction"},
	)

	// ReconnectAttemptsTotal counts automatic outbound reconnects
	ReconnectAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pilot_reconnect_attempts_total",
			Help: "Total number of automatic reconnect attempts after a transient abort",
		},
	)

	// ConnectionFailuresTotal counts terminal connection failures
	ConnectionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_connection_failures_total",
			Help: "Total number of connections that ended in failure",
		},
		[]string{"reason"},
	)

	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_messages_sent_total",
			Help: "Total number of messages written to a connection",
		},
		[]string{"type"},
	)

	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_messages_received_total",
			Help: "Total number of messages decoded from a connection",
		},
		[]string{"type"},
	)

	// DecodeErrorsTotal counts frames dropped because they did not decode
	DecodeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pilot_decode_errors_total",
			Help: "Total number of received frames that failed to decode",
		},
	)

	// InboundRejectedTotal counts inbound streams closed because a
	// connection was already active
	InboundRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pilot_inbound_rejected_total",
			Help: "Total number of inbound connections rejected while one was active",
		},
	)

	DiscoveredPeers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pilot_discovered_peers",
			Help: "Number of peers in the latest discovery snapshot",
		},
	)

	// RestartsTotal counts advertiser and discoverer restarts after a
	// defunct discovery service
	RestartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_restarts_total",
			Help: "Total number of advertisement or browse restarts",
		},
		[]string{"component"},
	)

	// Mode is the current session mode: 0 idle, 1 hosting, 2 discovering, 3 connected
	Mode = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pilot_mode",
			Help: "Current session mode",
		},
	)
)
