package watch_test

import (
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/sysmond/internal/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func armWatch(t *testing.T, s *watch.Scheduler, w *watch.Watch) {
	t.Helper()
	require.NoError(t, s.Arm(w))
}

func TestDebounceFiresAfterWindow(t *testing.T) {
	s := watch.NewScheduler()
	defer s.Shutdown(time.Second)

	fired := make(chan time.Time, 1)
	start := time.Now()

	armWatch(t, s, &watch.Watch{
		Name:           "debounce",
		Predicate:      func() bool { return true },
		OnFire:         func() { fired <- time.Now() },
		PollInterval:   10 * time.Millisecond,
		ProbeInterval:  10 * time.Millisecond,
		DebounceWindow: 50 * time.Millisecond,
	})

	select {
	case at := <-fired:
		elapsed := at.Sub(start)
		assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond,
			"watch must not fire before the debounce window elapses")
	case <-time.After(2 * time.Second):
		t.Fatal("watch never fired")
	}
}

func TestDebounceRequiresConsecutiveTruePolls(t *testing.T) {
	s := watch.NewScheduler()
	defer s.Shutdown(time.Second)

	var counter atomic.Int64
	fired := make(chan int64, 1)

	armWatch(t, s, &watch.Watch{
		Name: "counter",
		Predicate: func() bool {
			return counter.Add(1) > 3
		},
		OnFire:         func() { fired <- counter.Load() },
		PollInterval:   10 * time.Millisecond,
		ProbeInterval:  10 * time.Millisecond,
		DebounceWindow: 50 * time.Millisecond,
	})

	select {
	case calls := <-fired:
		// Three false polls, one true poll, then a full probe streak.
		assert.GreaterOrEqual(t, calls, int64(8),
			"watch fired before the condition held for the full window")
	case <-time.After(2 * time.Second):
		t.Fatal("watch never fired")
	}
}

func TestDebounceResetsOnSingleFalseProbe(t *testing.T) {
	s := watch.NewScheduler()
	defer s.Shutdown(time.Second)

	var calls atomic.Int64
	var brokeAt atomic.Int64 // unix nanos of the injected false
	fired := make(chan time.Time, 1)

	armWatch(t, s, &watch.Watch{
		Name: "flappy",
		Predicate: func() bool {
			if calls.Add(1) == 4 {
				brokeAt.Store(time.Now().UnixNano())
				return false
			}
			return true
		},
		OnFire:         func() { fired <- time.Now() },
		PollInterval:   10 * time.Millisecond,
		ProbeInterval:  10 * time.Millisecond,
		DebounceWindow: 80 * time.Millisecond,
	})

	select {
	case at := <-fired:
		require.NotZero(t, brokeAt.Load(), "the false probe was never reached")
		sinceBreak := at.Sub(time.Unix(0, brokeAt.Load()))
		assert.GreaterOrEqual(t, sinceBreak, 80*time.Millisecond,
			"a broken streak must restart the debounce window")
	case <-time.After(5 * time.Second):
		t.Fatal("watch never fired after the streak broke")
	}
}

func TestOneShotFiresExactlyOnce(t *testing.T) {
	s := watch.NewScheduler()
	defer s.Shutdown(time.Second)

	var fires atomic.Int64
	w := &watch.Watch{
		Name:         "oneshot",
		Predicate:    func() bool { return true },
		OnFire:       func() { fires.Add(1) },
		PollInterval: 5 * time.Millisecond,
		Repeat:       false,
	}
	armWatch(t, s, w)

	assert.Eventually(t, func() bool { return fires.Load() == 1 },
		time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), fires.Load(), "one-shot watch fired more than once")
	assert.Equal(t, watch.StateCancelled, w.State())
}

func TestRepeatHonorsRearmDelay(t *testing.T) {
	s := watch.NewScheduler()
	defer s.Shutdown(time.Second)

	times := make(chan time.Time, 8)
	armWatch(t, s, &watch.Watch{
		Name:         "repeat",
		Predicate:    func() bool { return true },
		OnFire:       func() { times <- time.Now() },
		PollInterval: 5 * time.Millisecond,
		RearmDelay:   60 * time.Millisecond,
		Repeat:       true,
	})

	first := <-times
	second := <-times
	assert.GreaterOrEqual(t, second.Sub(first), 60*time.Millisecond,
		"repeating watch fired again before the rearm delay elapsed")
}

func TestZeroDebounceFiresOnFirstTruePoll(t *testing.T) {
	s := watch.NewScheduler()
	defer s.Shutdown(time.Second)

	var fires atomic.Int64
	armWatch(t, s, &watch.Watch{
		Name:         "immediate",
		Predicate:    func() bool { return true },
		OnFire:       func() { fires.Add(1) },
		PollInterval: 5 * time.Millisecond,
	})

	assert.Eventually(t, func() bool { return fires.Load() >= 1 },
		time.Second, time.Millisecond)
}
