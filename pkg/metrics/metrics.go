// Package metrics exposes the Prometheus metrics of the Clockify client.
// All metrics are defined in their respective packages (client, pagination)
// to keep those packages self-contained and avoid import cycles.
//
// This package documents them and serves them over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registerer used by the Clockify client.
// All metrics are registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics registered with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - clockify_requests_total{method, status} (Counter): Requests by HTTP method and status
//   - clockify_request_duration_seconds{method} (Histogram): Request duration by HTTP method
//   - clockify_errors_total{class} (Counter): Errors by class (network, parse, not_found, server)
//
// Pagination Metrics (pkg/pagination):
//   - clockify_pages_fetched_total (Counter): List pages requested
//   - clockify_page_items (Histogram): Items returned per page
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   sum(rate(clockify_errors_total{class!="not_found"}[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(clockify_request_duration_seconds_bucket[5m]))
//
//   # Average Pages per Listing
//   rate(clockify_pages_fetched_total[5m]) / rate(clockify_requests_total{method="GET"}[5m])
