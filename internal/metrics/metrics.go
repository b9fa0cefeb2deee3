// Package metrics holds the prometheus collectors for HTTP traffic and
// spreadsheet imports. Collectors register on the default registry the first
// time they are used.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "planoacao"

// Import modes and outcomes used as label values.
const (
	ModeImport = "import"
	ModeUpdate = "update"
	ModeCoord  = "coord"

	OutcomeInserted = "inserted"
	OutcomeUpserted = "upserted"
	OutcomeSkipped  = "skipped"

	JobCompleted = "completed"
	JobFailed    = "failed"
)

type collectors struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	importRows   *prometheus.CounterVec
	importJobs   *prometheus.CounterVec
	importActive prometheus.Gauge
}

var get = sync.OnceValue(func() *collectors {
	return &collectors{
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		importRows: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Spreadsheet rows processed by mode and outcome.",
		}, []string{"mode", "outcome"}),
		importJobs: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_jobs_total",
			Help:      "Finished background import jobs by outcome.",
		}, []string{"outcome"}),
		importActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "import_active",
			Help:      "Imports currently holding an upload slot.",
		}),
	}
})

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c := get()
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// AddImportRows counts rows handled by an import mode.
func AddImportRows(mode, outcome string, n int64) {
	if n <= 0 {
		return
	}
	get().importRows.WithLabelValues(mode, outcome).Add(float64(n))
}

// JobFinished counts a background job by outcome.
func JobFinished(outcome string) {
	get().importJobs.WithLabelValues(outcome).Inc()
}

// ImportStarted and ImportDone track slots in use.
func ImportStarted() { get().importActive.Inc() }

func ImportDone() { get().importActive.Dec() }

// Handler serves the default registry.
func Handler() http.Handler {
	get()
	return promhttp.Handler()
}
