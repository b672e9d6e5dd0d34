package watch

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	// DefaultPollInterval is the outer cadence at which an armed condition
	// is examined.
	DefaultPollInterval = time.Second

	// DefaultProbeInterval is the fine-grained cadence used to confirm that
	// a condition holds for the whole debounce window. A single false probe
	// aborts the confirmation.
	DefaultProbeInterval = 10 * time.Millisecond

	// DefaultRearmDelay is the cooldown before a repeating watch may fire
	// again.
	DefaultRearmDelay = 5 * time.Minute
)

// State is the lifecycle position of a watch.
type State int32

const (
	StateIdle State = iota
	StatePolling
	StateConfirming
	StateFired
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateConfirming:
		return "confirming"
	case StateFired:
		return "fired"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Watch is one armed rule: a predicate evaluated on a cadence, a debounce
// gate requiring the predicate to hold continuously, an action performed
// once confirmed, and a cooldown before the rule may fire again.
//
// A watch is owned exclusively by the scheduler once armed. External code
// must not mutate it after arming; the only permitted interaction is
// cancellation through the scheduler.
type Watch struct {
	// Name identifies the watch in logs.
	Name string

	// Predicate is evaluated on the poll cadence. It must be safe to call
	// repeatedly from the scheduler's context.
	Predicate func() bool

	// OnFire runs synchronously in the scheduler's context once the
	// condition is confirmed.
	OnFire func()

	// PollInterval is the outer evaluation cadence. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration

	// DebounceWindow is how long the predicate must hold continuously
	// before firing. Zero disables confirmation: the watch fires on the
	// first true poll.
	DebounceWindow time.Duration

	// ProbeInterval is the inner confirmation cadence. Zero means
	// DefaultProbeInterval. Ignored when DebounceWindow is zero.
	ProbeInterval time.Duration

	// RearmDelay is slept after a fire before polling resumes. Zero means
	// DefaultRearmDelay. Ignored for one-shot watches.
	RearmDelay time.Duration

	// Repeat keeps the watch armed after firing. One-shot watches run
	// exactly once.
	Repeat bool

	state atomic.Int32
}

// State returns the watch's current lifecycle position.
func (w *Watch) State() State {
	return State(w.state.Load())
}

func (w *Watch) setState(s State) {
	w.state.Store(int32(s))
}

func (w *Watch) pollInterval() time.Duration {
	if w.PollInterval <= 0 {
		return DefaultPollInterval
	}

	return w.PollInterval
}

func (w *Watch) probeInterval() time.Duration {
	if w.ProbeInterval <= 0 {
		return DefaultProbeInterval
	}

	return w.ProbeInterval
}

func (w *Watch) rearmDelay() time.Duration {
	if w.RearmDelay <= 0 {
		return DefaultRearmDelay
	}

	return w.RearmDelay
}

// run drives the state machine until the watch completes or ctx is
// cancelled. State transitions are strictly sequential; the predicate is
// never evaluated re-entrantly.
func (w *Watch) run(ctx context.Context) {
	w.setState(StatePolling)

	for {
		if !sleep(ctx, w.pollInterval()) {
			w.setState(StateCancelled)
			return
		}

		if !w.Predicate() {
			continue
		}

		if w.DebounceWindow > 0 {
			w.setState(StateConfirming)
			held := w.confirm(ctx)
			if ctx.Err() != nil {
				w.setState(StateCancelled)
				return
			}
			if !held {
				// The streak broke; a fresh uninterrupted streak is required.
				w.setState(StatePolling)
				continue
			}
		}

		w.setState(StateFired)
		w.OnFire()

		if !w.Repeat {
			w.setState(StateCancelled)
			return
		}

		if !sleep(ctx, w.rearmDelay()) {
			w.setState(StateCancelled)
			return
		}
		w.setState(StatePolling)
	}
}

// confirm re-probes the predicate until the debounce window has elapsed.
// It returns true only if every probe saw the predicate true.
func (w *Watch) confirm(ctx context.Context) bool {
	deadline := time.Now().Add(w.DebounceWindow)
	for time.Now().Before(deadline) {
		if !sleep(ctx, w.probeInterval()) {
			return false
		}
		if !w.Predicate() {
			return false
		}
	}

	return true
}

// sleep blocks for d or until ctx is cancelled. It returns false on
// cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
