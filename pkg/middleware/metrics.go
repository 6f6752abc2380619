package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/exchange"
)

const metricsNamespace = "merchant"

// Metrics exports order and observation counters as prometheus collectors.
type Metrics struct {
	orders       *prometheus.CounterVec
	observations *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orders_total",
			Help:      "Orders submitted to the broker, by result.",
		}, []string{"result"}),
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "observations_total",
			Help:      "Portfolio observations, by result.",
		}, []string{"result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "handler_duration_seconds",
			Help:      "Wall time spent in broker handlers.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"handler"}),
	}

	for _, c := range []prometheus.Collector{m.orders, m.observations, m.latency} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func orderResult(err error) string {
	switch {
	case err == nil:
		return "executed"
	case errors.Is(err, exchange.ErrInsufficientAssets):
		return "insufficient_assets"
	case errors.Is(err, exchange.ErrOrderAfterValuation):
		return "after_valuation"
	case errors.Is(err, exchange.ErrUnsupportedPair):
		return "unsupported_pair"
	}
	return "other"
}

func (m *Metrics) WithExecute(handler exchange.ExecuteFunc) exchange.ExecuteFunc {
	return func(ctx context.Context, order common.Order) (common.OrderExecution, error) {
		startTime := time.Now()
		execution, err := handler(ctx, order)
		m.latency.WithLabelValues("execute").Observe(time.Since(startTime).Seconds())
		m.orders.WithLabelValues(orderResult(err)).Inc()
		return execution, err
	}
}

func (m *Metrics) WithObserve(handler ObserveFunc) ObserveFunc {
	return func(ctx context.Context) (exchange.Observation, error) {
		startTime := time.Now()
		observation, err := handler(ctx)
		m.latency.WithLabelValues("observe").Observe(time.Since(startTime).Seconds())
		if err != nil {
			m.observations.WithLabelValues("failed").Inc()
		} else {
			m.observations.WithLabelValues("ok").Inc()
		}
		return observation, err
	}
}
