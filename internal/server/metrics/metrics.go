// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/csvbrowser/internal/server/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csvbrowser_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "csvbrowser_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csvbrowser_auth_attempts_total",
			Help: "Signup and login attempts by outcome",
		},
		[]string{"operation", "outcome"},
	)

	UploadedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "csvbrowser_uploaded_bytes_total",
			Help: "Total bytes of CSV payload persisted",
		},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "csvbrowser_ws_connections",
			Help: "Current number of registered push connections",
		},
	)

	Broadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "csvbrowser_broadcasts_total",
			Help: "Total number of events broadcast",
		},
	)

	BroadcastDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "csvbrowser_broadcast_deliveries_total",
			Help: "Total number of successful per-connection event deliveries",
		},
	)

	BroadcastPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "csvbrowser_broadcast_pruned_total",
			Help: "Connections removed after a failed send",
		},
	)
)

// RecordHTTPRequest observes one finished request. route should be the
// router pattern, not the raw path, to keep label cardinality bounded.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordAuth counts an auth attempt; outcome is "ok" or a short failure tag.
func RecordAuth(operation, outcome string) {
	AuthAttempts.WithLabelValues(operation, outcome).Inc()
}

func RecordUpload(size int64) {
	UploadedBytes.Add(float64(size))
}

// Notify feeds registry observations into the websocket collectors.
type Notify struct{}

var _ notify.Metrics = Notify{}

func (Notify) ConnectionsChanged(n int) {
	WSConnections.Set(float64(n))
}

func (Notify) Broadcasted(res notify.BroadcastResult) {
	Broadcasts.Inc()
	BroadcastDeliveries.Add(float64(res.Delivered))
	BroadcastPruned.Add(float64(res.Pruned))
}
