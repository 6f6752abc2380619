package clock

import (
	"context"

	"go.uber.org/zap"
)

type scopeKey struct{}

// Scope marks the lifetime of a clock as the active clock of a context.
type Scope struct {
	clock Clock
}

// Enter makes c the active clock of the returned context. Entering while an
// unstopped clock is already active fails with ErrScopeActive.
func Enter(ctx context.Context, c Clock) (context.Context, *Scope, error) {
	if active, ok := ctx.Value(scopeKey{}).(*Scope); ok && !active.clock.Stopped() {
		return ctx, nil, ErrScopeActive
	}
	scope := &Scope{clock: c}
	return context.WithValue(ctx, scopeKey{}, scope), scope, nil
}

func (s *Scope) Clock() Clock {
	return s.clock
}

// Exit stops the clock. Its time stays frozen afterwards.
func (s *Scope) Exit() {
	s.clock.Stop()
}

// FromContext returns the active clock. Without one it warns and falls back
// to a fresh wall clock.
func FromContext(ctx context.Context, logger *zap.Logger) Clock {
	if scope, ok := ctx.Value(scopeKey{}).(*Scope); ok {
		return scope.clock
	}
	if logger != nil {
		logger.Warn("no active clock scope, falling back to wall clock")
	}
	return NewWall()
}
