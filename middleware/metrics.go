package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/flowmesh/flow"
)

// Metrics holds Prometheus collectors for node invocations.
type Metrics struct {
	calls    *prometheus.CounterVec   // by type and status (ok/error)
	duration *prometheus.HistogramVec // by type
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered by an earlier call are reused. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flowmesh",
		Subsystem: "node",
		Name:      "calls_total",
		Help:      "Total number of node invocations",
	}, []string{"type", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "flowmesh",
		Subsystem: "node",
		Name:      "duration_seconds",
		Help:      "Node invocation duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"type"})

	m := &Metrics{calls: calls, duration: duration}
	if reg == nil {
		return m, nil
	}

	if err := reg.Register(calls); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		m.calls = existing
	}
	if err := reg.Register(duration); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		m.duration = existing
	}
	return m, nil
}

// Middleware counts and times every invocation of the owning node.
func (m *Metrics) Middleware() flow.Middleware {
	return func(owner *flow.Base, next flow.Handler) flow.Handler {
		return func(ctx context.Context, in flow.Input) (any, error) {
			start := time.Now()
			out, err := next(ctx, in)

			status := "ok"
			if err != nil {
				status = "error"
			}
			m.calls.WithLabelValues(owner.TypeName(), status).Inc()
			m.duration.WithLabelValues(owner.TypeName()).Observe(time.Since(start).Seconds())
			return out, err
		}
	}
}
