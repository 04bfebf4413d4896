// Package metrics defines and registers the custom Prometheus metrics of the
// ColisApp shipping API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto); HTTP level metrics come from echoprometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "colisapp"

// ── Simulation metrics ───────────────────────────────────────────────────────

// SimulationsTotal counts lifecycle operations that succeeded.
// Label:
//   - op: "created", "edited", "cancelled", "confirmed", "claimed"
var SimulationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulations_total",
		Help:      "Total number of successful simulation lifecycle operations, by operation.",
	},
	[]string{"op"},
)

// SimulationErrorsTotal counts lifecycle operations that failed.
// Labels:
//   - op: the attempted operation
//   - kind: "validation", "not_found", "conflict", "capacity" or "internal"
var SimulationErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulation_errors_total",
		Help:      "Total number of failed simulation operations, by operation and error kind.",
	},
	[]string{"op", "kind"},
)

// QuotedPrice observes the price of every created or edited draft.
var QuotedPrice = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "quoted_price",
		Help:      "Distribution of quoted simulation prices.",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
	},
)

// ── Transport metrics ─────────────────────────────────────────────────────────

// TransportAssignmentsTotal counts assignment attempts.
// Label:
//   - result: "assigned", "existing", "no_fit" or "error"
var TransportAssignmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transport_assignments_total",
		Help:      "Total number of transport assignment attempts, by result.",
	},
	[]string{"result"},
)

// ── Durations ──────────────────────────────────────────────────────────────────

// OperationDuration measures how long a service operation takes end-to-end.
// Labels:
//   - op: the operation name
//   - outcome: "ok" or "error"
var OperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of simulation and transport operations.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"op", "outcome"},
)

// ObserveOperation records the duration of op started at start.
func ObserveOperation(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	OperationDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}
