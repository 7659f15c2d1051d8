// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placement_operations_total",
			Help: "Total number of placement operations processed",
		},
		[]string{"operation"},
	)

	OperationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placement_operation_failures_total",
			Help: "Total number of placement operations refused or failed",
		},
		[]string{"operation", "error_code"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "placement_operation_duration_seconds",
			Help: "Duration of placement operations in seconds",
		},
		[]string{"operation"},
	)

	AutoWithdrawals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "placement_auto_withdrawals_total",
			Help: "Total number of sibling applications auto-withdrawn after a confirmed acceptance",
		},
	)
)
