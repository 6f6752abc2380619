package clock

import (
	"fmt"
	"time"
)

const DefaultIncrement = time.Minute

// Virtual is a manually stepped clock. It is not safe for concurrent use.
type Virtual struct {
	start     time.Time
	now       time.Time
	increment time.Duration

	hooks       hooks
	dispatching bool
	stopped     bool
}

func NewVirtual(start time.Time, increment time.Duration) *Virtual {
	if increment <= 0 {
		increment = DefaultIncrement
	}
	return &Virtual{
		start:     start,
		now:       start,
		increment: increment,
	}
}

func (v *Virtual) Time() time.Time          { return v.now }
func (v *Virtual) Start() time.Time         { return v.start }
func (v *Virtual) Increment() time.Duration { return v.increment }
func (v *Virtual) Stopped() bool            { return v.stopped }

// Stop freezes the clock at its current time. It cannot be restarted.
func (v *Virtual) Stop() {
	v.stopped = true
}

// Step advances the clock either to an absolute time (To), by an increment
// (By) or, without options, by the configured increment. Hooks run before
// Step returns.
func (v *Virtual) Step(opts ...StepOption) error {
	var cfg stepConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.count > 1 || (cfg.to != nil && cfg.by != nil) {
		return ErrAmbiguousStep
	}
	if err := v.checkMutable(); err != nil {
		return err
	}

	switch {
	case cfg.to != nil:
		v.now = *cfg.to
	case cfg.by != nil:
		v.now = v.now.Add(*cfg.by)
	default:
		v.now = v.now.Add(v.increment)
	}

	v.dispatch()
	return nil
}

// Reset moves the clock back to its start time and re-arms every time hook.
func (v *Virtual) Reset() error {
	if err := v.checkMutable(); err != nil {
		return err
	}
	v.now = v.start
	v.hooks.rearm()
	v.dispatch()
	return nil
}

func (v *Virtual) Attach(fn HookFunc, trigger Trigger) HookID {
	return v.hooks.attach(fn, trigger)
}

func (v *Virtual) Detach(id HookID) bool {
	return v.hooks.detach(id)
}

func (v *Virtual) String() string {
	return fmt.Sprintf("virtual clock at %s", v.now.Format(time.RFC3339Nano))
}

func (v *Virtual) checkMutable() error {
	if v.stopped {
		return ErrStopped
	}
	if v.dispatching {
		return ErrReentrantStep
	}
	return nil
}

func (v *Virtual) dispatch() {
	v.dispatching = true
	defer func() { v.dispatching = false }()
	v.hooks.dispatch(v.now)
}
