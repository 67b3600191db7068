package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pms_sync", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pms_sync", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pms_sync", Name: "gateway_requests_total", Help: "Outbound PMS API requests."},
		[]string{"pms", "endpoint", "status"},
	)
	GatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pms_sync", Name: "gateway_request_duration_seconds",
			Help:    "Outbound PMS API request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pms", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pms_sync", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	RecordWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pms_sync", Name: "record_writes_total", Help: "Guest/Stay upsert outcomes."},
		[]string{"entity", "op"}, // op: created|updated|unchanged
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pms_sync", Name: "webhook_events_total", Help: "Reconciled reservation events."},
		[]string{"pms", "outcome"},
	)
)

// Serve exposes reg on its own listener in the background. An empty addr
// disables it and returns nil.
func Serve(addr string, reg *prometheus.Registry) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return srv
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, GatewayRequests, GatewayLatency, CacheEvents, RecordWrites, WebhookEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveGateway records one outbound call; status 0 means a transport error.
func ObserveGateway(pms, endpoint string, status int, dur time.Duration) {
	GatewayRequests.WithLabelValues(pms, endpoint, strconv.Itoa(status)).Inc()
	GatewayLatency.WithLabelValues(pms, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveRecordWrite(entity, op string) {
	RecordWrites.WithLabelValues(entity, op).Inc()
}

func ObserveWebhookEvent(pms, outcome string) {
	WebhookEvents.WithLabelValues(pms, outcome).Inc()
}
