package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domprox "github.com/kailas-cloud/plzgeo/internal/domain/proximity"
)

// Proximity index metrics.
var (
	IndexBuildProgress = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_build_progress_ratio",
			Help:      "Fraction of records persisted by the running index build",
		},
		[]string{"strategy"},
	)

	IndexRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_records",
			Help:      "Records in the last successfully built index",
		},
		[]string{"strategy"},
	)

	IndexBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Index build duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"strategy"},
	)

	IndexBuildFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_build_failures_total",
			Help:      "Total number of aborted index builds",
		},
		[]string{"strategy"},
	)

	QueryNeighbors = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_neighbors",
			Help:      "Neighbours returned per radius query",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"strategy"},
	)
)

func init() {
	prometheus.MustRegister(IndexBuildProgress)
	prometheus.MustRegister(IndexRecords)
	prometheus.MustRegister(IndexBuildDuration)
	prometheus.MustRegister(IndexBuildFailuresTotal)
	prometheus.MustRegister(QueryNeighbors)
}

// Observer exports build and query events as Prometheus metrics.
type Observer struct{}

// NewObserver returns an Observer backed by the package collectors.
func NewObserver() Observer { return Observer{} }

// BuildProgress sets the progress gauge to done/total.
func (Observer) BuildProgress(strategy domprox.Strategy, done, total int) {
	if total <= 0 {
		return
	}
	IndexBuildProgress.WithLabelValues(string(strategy)).Set(float64(done) / float64(total))
}

// BuildCompleted records the final record count and build duration.
func (Observer) BuildCompleted(strategy domprox.Strategy, records int, elapsed time.Duration) {
	s := string(strategy)
	IndexBuildProgress.WithLabelValues(s).Set(1)
	IndexRecords.WithLabelValues(s).Set(float64(records))
	IndexBuildDuration.WithLabelValues(s).Observe(elapsed.Seconds())
}

// BuildFailed counts an aborted build.
func (Observer) BuildFailed(strategy domprox.Strategy) {
	IndexBuildFailuresTotal.WithLabelValues(string(strategy)).Inc()
}

// NeighborsReturned observes the size of one radius query result.
func (Observer) NeighborsReturned(strategy domprox.Strategy, n int) {
	QueryNeighbors.WithLabelValues(string(strategy)).Observe(float64(n))
}
