package netio

import "github.com/prometheus/client_golang/prometheus"

var (
	connectionsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "netio",
		Name:      "accepted_connections_total",
		Help:      "Total number of connections accepted by listeners.",
	})

	activeConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "netio",
		Name:      "active_connections",
		Help:      "Number of accepted connections currently open.",
	})

	bytesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "netio",
		Name:      "stream_bytes_read_total",
		Help:      "Total bytes delivered by completed stream reads.",
	})

	bytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "netio",
		Name:      "stream_bytes_written_total",
		Help:      "Total bytes sent by completed stream writes.",
	})

	datagramsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "netio",
		Name:      "datagrams_received_total",
		Help:      "Total datagrams delivered by reads.",
	})

	datagramsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "netio",
		Name:      "datagrams_sent_total",
		Help:      "Total datagrams sent by writes.",
	})
)

func init() {
	prometheus.MustRegister(
		connectionsAccepted,
		activeConnections,
		bytesRead,
		bytesWritten,
		datagramsReceived,
		datagramsSent,
	)
}
