package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "disksim_operations_total",
		Help: "Partition operations by operation and result kind",
	}, []string{"operation", "result"})

	OperationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "disksim_operation_duration_seconds",
		Help:    "Time spent applying and persisting an operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	DiskSegments = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "disksim_disk_segments",
		Help: "Number of segments on each disk",
	}, []string{"disk"})

	DiskFreeMB = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "disksim_disk_free_megabytes",
		Help: "Unallocated space on each disk in MB",
	}, []string{"disk"})

	MissionChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "disksim_mission_checks_total",
		Help: "Mission checks by mission and outcome",
	}, []string{"mission", "success"})

	PersistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "disksim_persist_failures_total",
		Help: "Snapshots that could not be written to the state store",
	})
)

func init() {
	prometheus.MustRegister(OperationsTotal, OperationLatency, DiskSegments, DiskFreeMB, MissionChecks, PersistFailures)
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveOperation counts one operation outcome and its latency.
// result is "ok" or an error kind such as "ProtectedSegment".
func ObserveOperation(operation, result string, elapsed time.Duration) {
	OperationsTotal.WithLabelValues(operation, result).Inc()
	OperationLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// SetDiskLayout publishes the segment count and free space of a disk.
func SetDiskLayout(diskID string, segments int, freeMB int64) {
	DiskSegments.WithLabelValues(diskID).Set(float64(segments))
	DiskFreeMB.WithLabelValues(diskID).Set(float64(freeMB))
}

// ForgetDisk drops the gauges of a detached disk.
func ForgetDisk(diskID string) {
	DiskSegments.DeleteLabelValues(diskID)
	DiskFreeMB.DeleteLabelValues(diskID)
}
