package tracker

import (
	"time"

	"github.com/Bindu232003/expense-tracker-api/apperr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var histogramOperationTime = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "expense_tracker",
		Subsystem: "tracker",
		Name:      "operation_duration_seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	},
	[]string{"operation", "outcome"},
)

var counterCompensations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "expense_tracker",
		Subsystem: "tracker",
		Name:      "compensations_total",
	},
	[]string{"result"},
)

// observeOperation is deferred by callers, so it reads the named result
// through errp.
func observeOperation(operation string, started time.Time, errp *error) {
	outcome := "ok"
	if *errp != nil {
		outcome = apperr.KindOf(*errp).String()
	}
	histogramOperationTime.
		WithLabelValues(operation, outcome).
		Observe(time.Since(started).Seconds())
}
