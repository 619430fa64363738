package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP 请求指标
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total number of requests",
		},
		[]string{"service", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)

	// 同步层指标
	StoreRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_refresh_total",
			Help: "Total number of store refreshes",
		},
		[]string{"store", "status"},
	)

	CatalogMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_mutations_total",
			Help: "Total number of catalog write operations",
		},
		[]string{"op", "status"},
	)

	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Total number of file uploads",
		},
		[]string{"status"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of toasts pushed",
		},
		[]string{"severity"},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_events_total",
			Help: "Total number of catalog events published",
		},
		[]string{"type", "status"},
	)

	CatalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_materials",
			Help: "Number of materials in the last successful refresh",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StoreRefreshes,
		CatalogMutations,
		UploadsTotal,
		NotificationsTotal,
		EventsPublished,
		CatalogSize,
	)
}

// StartMetricsServer 启动独立的 metrics HTTP 服务器
func StartMetricsServer(port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("failed to start metrics server: " + err.Error())
		}
	}()
	return srv
}

func RecordRequest(service, method, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(service, method, status).Inc()
	RequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// Outcome maps an error to the status label used across counters.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
