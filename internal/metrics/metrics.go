// Package metrics exposes Prometheus collectors for the catalog service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlCollectionFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamepass_crawl_collection_fetch_total",
			Help: "Collection membership fetches, labeled by market and result.",
		},
		[]string{"market", "result"},
	)

	crawlChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamepass_crawl_chunks_total",
			Help: "Product detail chunks processed, labeled by language and result.",
		},
		[]string{"language", "result"},
	)

	crawlRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamepass_crawl_runs_total",
			Help: "Completed crawl runs, labeled by outcome.",
		},
		[]string{"status"},
	)

	imageCacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamepass_image_cache_requests_total",
			Help: "Image serve requests, labeled by cache result.",
		},
		[]string{"result"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamepass_http_requests_total",
			Help: "HTTP requests handled, labeled by method and status code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gamepass_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCollectionFetch counts one collection fetch attempt.
func ObserveCollectionFetch(market, result string) {
	crawlCollectionFetchTotal.WithLabelValues(market, result).Inc()
}

// ObserveChunk counts one processed product detail chunk.
func ObserveChunk(language, result string) {
	crawlChunksTotal.WithLabelValues(language, result).Inc()
}

// ObserveRun counts one finished crawl run.
func ObserveRun(status string) {
	crawlRunsTotal.WithLabelValues(status).Inc()
}

// ObserveImageCache counts one image serve request by cache result
// ("hit" or "miss").
func ObserveImageCache(result string) {
	imageCacheRequestsTotal.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest records one handled HTTP request.
func ObserveHTTPRequest(method string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method).Observe(duration.Seconds())
}
