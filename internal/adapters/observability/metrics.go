package observability

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "flexrev", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flexrev", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	FeedFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "flexrev", Name: "feed_fetches_total", Help: "Feed fetch attempts."},
		[]string{"source", "status"}, // status: ok|error
	)
	NormalizedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "flexrev", Name: "normalized_records_total", Help: "Records normalized into the canonical shape."},
		[]string{"source"},
	)
	NormalizationSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "flexrev", Name: "normalization_skips_total", Help: "Raw records rejected during normalization."},
		[]string{"source", "reason"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "flexrev", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	SelectionToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "flexrev", Name: "selection_toggles_total", Help: "Approved-review toggles."},
		[]string{"state"}, // state: on|off
	)
)

func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, FeedFetches, NormalizedRecords, NormalizationSkips, CacheEvents, SelectionToggles)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveFeed(source, status string) {
	FeedFetches.WithLabelValues(source, status).Inc()
}

func AddNormalized(source string, n int) {
	if n > 0 {
		NormalizedRecords.WithLabelValues(source).Add(float64(n))
	}
}

func ObserveNormalization(source, reason string) {
	NormalizationSkips.WithLabelValues(source, reason).Inc()
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveToggle(selected bool) {
	state := "off"
	if selected {
		state = "on"
	}
	SelectionToggles.WithLabelValues(state).Inc()
}
