package clock

import "time"

// Wall follows the system time. It cannot be stepped or reset.
type Wall struct {
	stoppedAt time.Time
	stopped   bool
	hooks     hooks
}

func NewWall() *Wall {
	return &Wall{}
}

func (w *Wall) Time() time.Time {
	if w.stopped {
		return w.stoppedAt
	}
	return time.Now()
}

func (w *Wall) Stopped() bool { return w.stopped }

func (w *Wall) Stop() {
	if w.stopped {
		return
	}
	w.stoppedAt = time.Now()
	w.stopped = true
}

func (w *Wall) Step(...StepOption) error { return ErrUnsupportedOperation }
func (w *Wall) Reset() error             { return ErrUnsupportedOperation }

// Attach registers the hook, it never runs because a wall clock is never stepped.
func (w *Wall) Attach(fn HookFunc, trigger Trigger) HookID {
	return w.hooks.attach(fn, trigger)
}

func (w *Wall) Detach(id HookID) bool {
	return w.hooks.detach(id)
}
