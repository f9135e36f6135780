// Package metrics exposes Prometheus collectors for databuilder jobs.
//
// Collectors are registered on the default registry through promauto, so
// serving promhttp.Handler() is enough to scrape them.
//
// # Basic Usage
//
//	metrics.RecordsExtracted.WithLabelValues("pg_tables", "postgres_metadata").Inc()
//
//	timer := metrics.NewTimer()
//	err := task.Run(ctx)
//	metrics.TaskDuration.WithLabelValues("pg_tables", metrics.Status(err)).Observe(timer.Stop().Seconds())
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Status maps an error to a status label.
func Status(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}

var (
	// RecordsExtracted counts records pulled from an extractor.
	// Labels: job, extractor
	RecordsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "databuilder_records_extracted_total",
			Help: "Total number of records returned by extractors",
		},
		[]string{"job", "extractor"},
	)

	// RecordsTransformed counts records leaving the transformer chain.
	// Labels: job, result (emitted/filtered)
	RecordsTransformed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "databuilder_records_transformed_total",
			Help: "Total number of records passed through the transformer chain",
		},
		[]string{"job", "result"},
	)

	// RecordsLoaded counts entities written by a loader.
	// Labels: job, loader
	RecordsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "databuilder_records_loaded_total",
			Help: "Total number of entities written by loaders",
		},
		[]string{"job", "loader"},
	)

	// Skipped counts items dropped as data-quality tolerances.
	// Labels: component, reason
	Skipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "databuilder_skipped_total",
			Help: "Items skipped instead of failing the job",
		},
		[]string{"component", "reason"},
	)

	// TaskDuration tracks extract-transform-load runs in seconds.
	// Labels: job, status
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "databuilder_task_duration_seconds",
			Help:    "Duration of the extract, transform and load task",
			Buckets: []float64{0.1, 1, 10, 60, 300, 900, 3600},
		},
		[]string{"job", "status"},
	)

	// PublishDuration tracks publisher runs in seconds.
	// Labels: job, publisher, status
	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "databuilder_publish_duration_seconds",
			Help:    "Duration of the publish step",
			Buckets: []float64{0.1, 1, 10, 60, 300, 900, 3600},
		},
		[]string{"job", "publisher", "status"},
	)

	// HTTPRequests counts catalog service API calls.
	// Labels: host, method, code ("error" when no response arrived)
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "databuilder_http_requests_total",
			Help: "HTTP requests made to catalog service APIs",
		},
		[]string{"host", "method", "code"},
	)

	// HTTPDuration tracks catalog service API latency in seconds.
	// Labels: host, method
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "databuilder_http_request_duration_seconds",
			Help:    "Latency of HTTP requests made to catalog service APIs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host", "method"},
	)

	// Throughput tracks records per second of the last task.
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "databuilder_throughput_records_per_second",
			Help: "Extracted records per second over the last task",
		},
		[]string{"job"},
	)
)

// Timer measures one operation.
type Timer struct {
	start time.Time
}

// NewTimer starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed time. It can be called more than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker computes records per second for a job and publishes it
// to the Throughput gauge. Safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64
	lastReset time.Time
	job       string
}

// NewThroughputTracker starts a tracker for job.
func NewThroughputTracker(job string) *ThroughputTracker {
	return &ThroughputTracker{lastReset: time.Now(), job: job}
}

// Increment adds n to the record count.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// Count returns the records counted since the last reset.
func (t *ThroughputTracker) Count() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// GetAndReset returns the current rate, updates the gauge and restarts the
// window.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}
	throughput := float64(t.count) / elapsed

	t.count = 0
	t.lastReset = time.Now()
	Throughput.WithLabelValues(t.job).Set(throughput)
	return throughput
}
