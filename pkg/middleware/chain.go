package middleware

import (
	"context"

	"github.com/peter-kozarec/merchant/pkg/exchange"
)

// ObserveFunc produces the observation of an environment step.
type ObserveFunc func(ctx context.Context) (exchange.Observation, error)

// Chain composes wrappers so that the first one is the outermost.
func Chain[T any](wrappers ...func(T) T) func(T) T {
	return func(handler T) T {
		for i := len(wrappers) - 1; i >= 0; i-- {
			handler = wrappers[i](handler)
		}
		return handler
	}
}
