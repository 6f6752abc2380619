package clock

import "time"

type HookID uint64

type HookFunc func(now time.Time)

// Trigger decides when a hook runs.
type Trigger struct {
	everyTick bool
	at        time.Time
}

// EveryTick runs the hook after every step and reset.
func EveryTick() Trigger {
	return Trigger{everyTick: true}
}

// At runs the hook once, the first time the clock reaches t. Reset re-arms it.
func At(t time.Time) Trigger {
	return Trigger{at: t}
}

type hook struct {
	id      HookID
	fn      HookFunc
	trigger Trigger
	armed   bool
}

func (h *hook) due(now time.Time) bool {
	if h.trigger.everyTick {
		return true
	}
	return h.armed && !now.Before(h.trigger.at)
}

type hooks struct {
	lastID  HookID
	entries []*hook
}

func (h *hooks) attach(fn HookFunc, trigger Trigger) HookID {
	h.lastID++
	h.entries = append(h.entries, &hook{id: h.lastID, fn: fn, trigger: trigger, armed: true})
	return h.lastID
}

func (h *hooks) detach(id HookID) bool {
	for i, entry := range h.entries {
		if entry.id == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (h *hooks) rearm() {
	for _, entry := range h.entries {
		entry.armed = true
	}
}

// dispatch runs due hooks in attachment order. Time hooks are disarmed
// before they run.
func (h *hooks) dispatch(now time.Time) {
	due := make([]*hook, 0, len(h.entries))
	for _, entry := range h.entries {
		if entry.due(now) {
			if !entry.trigger.everyTick {
				entry.armed = false
			}
			due = append(due, entry)
		}
	}
	for _, entry := range due {
		entry.fn(now)
	}
}
