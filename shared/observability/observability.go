// Package observability exposes Prometheus metrics for the messaging core.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesSent counts committed messages by kind (text / attachment).
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messaging_messages_sent_total",
		Help: "Number of messages committed to the ledger",
	}, []string{"kind"})

	// AttachmentsUploaded counts attachment objects successfully uploaded.
	AttachmentsUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_attachments_uploaded_total",
		Help: "Number of attachment objects uploaded to storage",
	})

	// UploadBytes tracks the byte volume of uploaded attachments.
	UploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_upload_bytes_total",
		Help: "Total attachment bytes uploaded to storage",
	})

	// CompensationSweeps counts commit-phase failures that triggered a
	// best-effort storage cleanup.
	CompensationSweeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_compensation_sweeps_total",
		Help: "Number of compensation sweeps after commit-phase failures",
	})

	// CompensationFailures counts individual objects a sweep failed to delete.
	CompensationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_compensation_failures_total",
		Help: "Number of objects a compensation sweep could not delete",
	})

	// ConversationsTornDown counts last-participant conversation teardowns.
	ConversationsTornDown = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_conversations_torn_down_total",
		Help: "Number of conversations deleted after the last participant left",
	})

	// RequestDuration observes messaging operation latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "messaging_operation_duration_seconds",
		Help:    "Latency of messaging operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
