package middleware

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/exchange"
)

// Telemetry counts orders and observations, rejections by cause.
type Telemetry struct {
	logger *zap.Logger

	orderCounter              int64
	executionCounter          int64
	insufficientAssetsCounter int64
	afterValuationCounter     int64
	unsupportedPairCounter    int64
	otherRejectionCounter     int64
	observationCounter        int64
	failedObservationCounter  int64
}

func NewTelemetry(logger *zap.Logger) *Telemetry {
	return &Telemetry{
		logger: logger,
	}
}

func (t *Telemetry) WithExecute(handler exchange.ExecuteFunc) exchange.ExecuteFunc {
	return func(ctx context.Context, order common.Order) (common.OrderExecution, error) {
		t.orderCounter++
		execution, err := handler(ctx, order)
		switch {
		case err == nil:
			t.executionCounter++
		case errors.Is(err, exchange.ErrInsufficientAssets):
			t.insufficientAssetsCounter++
		case errors.Is(err, exchange.ErrOrderAfterValuation):
			t.afterValuationCounter++
		case errors.Is(err, exchange.ErrUnsupportedPair):
			t.unsupportedPairCounter++
		default:
			t.otherRejectionCounter++
		}
		return execution, err
	}
}

func (t *Telemetry) WithObserve(handler ObserveFunc) ObserveFunc {
	return func(ctx context.Context) (exchange.Observation, error) {
		t.observationCounter++
		observation, err := handler(ctx)
		if err != nil {
			t.failedObservationCounter++
		}
		return observation, err
	}
}

func (t *Telemetry) Orders() int64     { return t.orderCounter }
func (t *Telemetry) Executions() int64 { return t.executionCounter }

// Rejections is the number of orders that failed for any reason.
func (t *Telemetry) Rejections() int64 {
	return t.orderCounter - t.executionCounter
}

func (t *Telemetry) Observations() int64 { return t.observationCounter }

func (t *Telemetry) PrintStatistics() {
	t.logger.Info("order statistics",
		zap.Int64("orders", t.orderCounter),
		zap.Int64("executions", t.executionCounter),
		zap.Int64("insufficient_assets", t.insufficientAssetsCounter),
		zap.Int64("after_valuation", t.afterValuationCounter),
		zap.Int64("unsupported_pair", t.unsupportedPairCounter),
		zap.Int64("other_rejections", t.otherRejectionCounter),
		zap.Int64("observations", t.observationCounter),
		zap.Int64("failed_observations", t.failedObservationCounter))
}
