package middleware

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/exchange"
)

func TestMiddlewareMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := NewMetrics(registry)
	require.NoError(t, err)

	ctx := context.Background()
	order := testOrder(t)
	insufficient := func(context.Context, common.Order) (common.OrderExecution, error) {
		return common.OrderExecution{}, exchange.ErrInsufficientAssets
	}
	failingObserve := func(context.Context) (exchange.Observation, error) {
		return nil, errors.New("boom")
	}

	_, _ = metrics.WithExecute(executeOK)(ctx, order)
	_, _ = metrics.WithExecute(insufficient)(ctx, order)
	_, _ = metrics.WithExecute(executeFail)(ctx, order)
	_, _ = metrics.WithObserve(observeOK)(ctx)
	_, _ = metrics.WithObserve(failingObserve)(ctx)

	path := filepath.Join(t.TempDir(), "merchant.prom")
	require.NoError(t, prometheus.WriteToTextfile(path, registry))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)

	assert.Contains(t, text, `merchant_orders_total{result="executed"} 1`)
	assert.Contains(t, text, `merchant_orders_total{result="insufficient_assets"} 1`)
	assert.Contains(t, text, `merchant_orders_total{result="after_valuation"} 1`)
	assert.Contains(t, text, `merchant_observations_total{result="ok"} 1`)
	assert.Contains(t, text, `merchant_observations_total{result="failed"} 1`)
	assert.Contains(t, text, `merchant_handler_duration_seconds_count{handler="execute"} 3`)
}

func TestMiddlewareMetrics_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewMetrics(registry)
	require.NoError(t, err)

	_, err = NewMetrics(registry)
	assert.Error(t, err)
}
