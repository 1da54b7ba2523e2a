// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herd_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "herd_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "herd_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herd_mutations_total",
			Help: "Record store writes issued by the farm provider",
		},
		[]string{"entity", "operation", "result"},
	)

	storeLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herd_store_loads_total",
			Help: "Full reloads of the in-memory collections",
		},
		[]string{"result"},
	)

	dashboardRecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "herd_dashboard_recompute_seconds",
			Help:    "Time spent recomputing the dashboard snapshot",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	animalsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "herd_animals",
			Help: "Animals currently on the farm by type",
		},
		[]string{"type"},
	)

	doseStatusGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "herd_doses",
			Help: "Reminder-enabled doses by status at the last poll",
		},
		[]string{"status"},
	)

	messagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herd_whatsapp_messages_total",
			Help: "Outbound WhatsApp messages by kind and result",
		},
		[]string{"kind", "result"},
	)

	authEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herd_auth_events_total",
			Help: "Authentication events by action and result",
		},
		[]string{"action", "result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency. Paths are taken from the
// matched route template so ids do not explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordMutation records one provider write.
func RecordMutation(entity, operation string, err error) {
	mutationsTotal.WithLabelValues(entity, operation, result(err)).Inc()
}

// RecordStoreLoad records a full reload.
func RecordStoreLoad(err error) {
	storeLoads.WithLabelValues(result(err)).Inc()
}

// RecordRecompute records how long a dashboard recomputation took.
func RecordRecompute(d time.Duration) {
	dashboardRecomputeDuration.Observe(d.Seconds())
}

// SetAnimalCount publishes the head count of one animal type.
func SetAnimalCount(animalType string, count int) {
	animalsGauge.WithLabelValues(animalType).Set(float64(count))
}

// SetDoseCount publishes the number of doses in one status.
func SetDoseCount(status string, count int) {
	doseStatusGauge.WithLabelValues(status).Set(float64(count))
}

// RecordMessage records an outbound WhatsApp message.
func RecordMessage(kind string, err error) {
	messagesSent.WithLabelValues(kind, result(err)).Inc()
}

// RecordAuth records an authentication attempt.
func RecordAuth(action string, err error) {
	authEvents.WithLabelValues(action, result(err)).Inc()
}
