package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/exchange"
)

// Performance measures the time spent in the wrapped handlers.
type Performance struct {
	logger *zap.Logger

	totalExecuteDur time.Duration
	totalObserveDur time.Duration
}

func NewPerformance(logger *zap.Logger) *Performance {
	return &Performance{
		logger: logger,
	}
}

func (p *Performance) WithExecute(handler exchange.ExecuteFunc) exchange.ExecuteFunc {
	return func(ctx context.Context, order common.Order) (common.OrderExecution, error) {
		startTime := time.Now()
		defer func() { p.totalExecuteDur += time.Since(startTime) }()
		return handler(ctx, order)
	}
}

func (p *Performance) WithObserve(handler ObserveFunc) ObserveFunc {
	return func(ctx context.Context) (exchange.Observation, error) {
		startTime := time.Now()
		defer func() { p.totalObserveDur += time.Since(startTime) }()
		return handler(ctx)
	}
}

func (p *Performance) PrintStatistics(t *Telemetry) {
	if t == nil {
		p.logger.Warn("telemetry is nil, cannot compute performance statistics")
		return
	}

	var fields []zap.Field

	if t.orderCounter > 0 {
		fields = append(fields,
			zap.Duration("execute_avg_duration", p.totalExecuteDur/time.Duration(t.orderCounter)),
			zap.Duration("execute_total_duration", p.totalExecuteDur))
	}

	if t.observationCounter > 0 {
		fields = append(fields,
			zap.Duration("observe_avg_duration", p.totalObserveDur/time.Duration(t.observationCounter)),
			zap.Duration("observe_total_duration", p.totalObserveDur))
	}

	p.logger.Info("performance statistics", fields...)
}
