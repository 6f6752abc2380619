package clock

import (
	"errors"
	"time"
)

var (
	ErrAmbiguousStep        = errors.New("ambiguous step: give either a target time or an increment")
	ErrUnsupportedOperation = errors.New("operation not supported by this clock")
	ErrStopped              = errors.New("clock is stopped")
	ErrReentrantStep        = errors.New("clock cannot be stepped from inside a hook")
	ErrScopeActive          = errors.New("another clock scope is active")
)

// Clock is the source of simulated time for every time-dependent component.
type Clock interface {
	Time() time.Time
	Stopped() bool
	Stop()
}

// Stepper is a clock whose time is driven by the caller.
type Stepper interface {
	Clock
	Step(opts ...StepOption) error
	Reset() error
	Attach(fn HookFunc, trigger Trigger) HookID
	Detach(id HookID) bool
}

type stepConfig struct {
	to    *time.Time
	by    *time.Duration
	count int
}

type StepOption func(*stepConfig)

// To moves the clock to an absolute time.
func To(t time.Time) StepOption {
	return func(c *stepConfig) {
		c.to = &t
		c.count++
	}
}

// By moves the clock by a relative increment.
func By(d time.Duration) StepOption {
	return func(c *stepConfig) {
		c.by = &d
		c.count++
	}
}

// AlignDown returns the start of the period of length d that contains t.
// Periods are aligned to the unix epoch.
func AlignDown(t time.Time, d time.Duration) time.Time {
	if d <= 0 {
		return t
	}
	ns := t.UnixNano()
	offset := ns % int64(d)
	if offset < 0 {
		offset += int64(d)
	}
	return time.Unix(0, ns-offset).In(t.Location())
}

// AlignUp returns the first period boundary strictly after t.
func AlignUp(t time.Time, d time.Duration) time.Time {
	return AlignDown(t, d).Add(d)
}
