// Package metrics exposes the gateway's Prometheus collectors: simple
// global counters for a long-running ingestion daemon rather than
// per-scrape device metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// FramesAccepted counts AVL frames that parsed successfully.
	FramesAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_frames_accepted_total",
		Help: "Total number of AVL frames parsed successfully.",
	})

	// FramesRejected counts AVL frames that failed to parse.
	FramesRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_frames_rejected_total",
		Help: "Total number of AVL frames that failed to parse.",
	})

	// HandshakeRejected counts IMEI handshakes rejected (bad encoding or
	// failed checksum).
	HandshakeRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_handshake_rejected_total",
		Help: "Total number of IMEI handshakes rejected.",
	})

	// EventsSent counts events successfully delivered to the Vehicle
	// Management API, by handler name.
	EventsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_events_sent_total",
		Help: "Total number of events delivered to the Vehicle Management API, by handler.",
	}, []string{"handler"})

	// EventsFailed counts events that could not be delivered and were
	// persisted to the failed-event store, by handler name.
	EventsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_events_failed_total",
		Help: "Total number of events persisted to the failed-event store, by handler.",
	}, []string{"handler"})

	// PurgeBatchesReplayed counts replay batches run by either the
	// opportunistic or background purge paths.
	PurgeBatchesReplayed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_purge_batches_replayed_total",
		Help: "Total number of failed-event replay batches executed.",
	})
)

func init() {
	prometheus.MustRegister(
		FramesAccepted,
		FramesRejected,
		HandshakeRejected,
		EventsSent,
		EventsFailed,
		PurgeBatchesReplayed,
	)
}
