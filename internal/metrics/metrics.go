// Package metrics exports Prometheus metrics for schema builds and operation
// invocations by listening to the instrumentation eventbus.
package metrics

import (
	"context"

	eventbus "github.com/anhldbk/graphqly/internal/eventbus"
	events "github.com/anhldbk/graphqly/internal/events"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the graphqly metrics.
type Collector struct {
	Invocations *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Builds      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		Invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphqly",
			Name:      "operation_invocations_total",
			Help:      "Operation invocations by kind, name and outcome.",
		}, []string{"kind", "operation", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "graphqly",
			Name:      "operation_duration_seconds",
			Help:      "Time spent in composed operation handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "operation"}),
		Builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphqly",
			Name:      "builds_total",
			Help:      "Schema builds by result.",
		}, []string{"result"}),
	}
	for _, col := range []prometheus.Collector{c.Invocations, c.Duration, c.Builds} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Attach subscribes c to b. The returned function detaches it.
func (c *Collector) Attach(b *eventbus.Bus) (detach func()) {
	offOp := eventbus.On(b, func(_ context.Context, e events.OperationFinish) {
		c.Invocations.WithLabelValues(e.Kind, e.Operation, e.Outcome).Inc()
		c.Duration.WithLabelValues(e.Kind, e.Operation).Observe(e.Duration.Seconds())
	})
	offBuild := eventbus.On(b, func(_ context.Context, e events.BuildFinish) {
		result := "ok"
		if e.Err != nil {
			result = "error"
		}
		c.Builds.WithLabelValues(result).Inc()
	})
	return func() {
		offOp()
		offBuild()
	}
}
