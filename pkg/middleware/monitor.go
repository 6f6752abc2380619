package middleware

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/exchange"
)

type MonitorFlags uint16

//goland:noinspection GoUnusedConst
const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorOrders
	MonitorExecutions
	MonitorRejections
	MonitorObservations
)

var monitorFlagNames = map[string]MonitorFlags{
	"none":         MonitorNone,
	"all":          MonitorAll,
	"orders":       MonitorOrders,
	"executions":   MonitorExecutions,
	"rejections":   MonitorRejections,
	"observations": MonitorObservations,
}

// ParseMonitorFlags combines flags given by name, e.g. "orders" or "rejections".
func ParseMonitorFlags(names []string) (MonitorFlags, error) {
	flags := MonitorNone
	for _, name := range names {
		flag, ok := monitorFlagNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return MonitorNone, fmt.Errorf("unknown monitor flag %q", name)
		}
		flags |= flag
	}
	return flags, nil
}

// Monitor logs what passes through the wrapped handlers.
type Monitor struct {
	logger *zap.Logger
	flags  MonitorFlags
}

func NewMonitor(logger *zap.Logger, flags MonitorFlags) *Monitor {
	return &Monitor{
		logger: logger,
		flags:  flags,
	}
}

func (m *Monitor) enabled(flag MonitorFlags) bool {
	return m.flags&flag != 0 || m.flags&MonitorAll != 0
}

func (m *Monitor) WithExecute(handler exchange.ExecuteFunc) exchange.ExecuteFunc {
	return func(ctx context.Context, order common.Order) (common.OrderExecution, error) {
		if m.enabled(MonitorOrders) {
			m.logger.Info("order", order.Fields()...)
		}
		execution, err := handler(ctx, order)
		if err != nil {
			if m.enabled(MonitorRejections) {
				m.logger.Info("order rejected", append(order.Fields(), zap.Error(err))...)
			}
			return execution, err
		}
		if m.enabled(MonitorExecutions) {
			m.logger.Info("order executed",
				zap.Stringer("order_id", order.ID),
				zap.String("rate", execution.Rate.String()),
				execution.Fees.Field("fees"),
				zap.Time("ts", execution.TimeStamp))
		}
		return execution, nil
	}
}

func (m *Monitor) WithObserve(handler ObserveFunc) ObserveFunc {
	return func(ctx context.Context) (exchange.Observation, error) {
		observation, err := handler(ctx)
		if err == nil && m.enabled(MonitorObservations) {
			m.logger.Info("observation", zap.Any("holdings", observation))
		}
		return observation, err
	}
}
