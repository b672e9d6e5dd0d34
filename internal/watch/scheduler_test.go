package watch_test

import (
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/sysmond/internal/errors"
	"codeberg.org/mutker/sysmond/internal/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownPreventsFurtherFires(t *testing.T) {
	s := watch.NewScheduler()

	var fires atomic.Int64
	// Long debounce keeps the watch mid-confirmation at shutdown time.
	require.NoError(t, s.Arm(&watch.Watch{
		Name:           "midconfirm",
		Predicate:      func() bool { return true },
		OnFire:         func() { fires.Add(1) },
		PollInterval:   time.Millisecond,
		ProbeInterval:  time.Millisecond,
		DebounceWindow: 10 * time.Second,
		Repeat:         true,
	}))

	// Let it reach the confirmation phase.
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, s.Shutdown(time.Second))

	after := fires.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, fires.Load(), "a watch fired after Shutdown returned")
	assert.Zero(t, after, "mid-confirmation watch must not fire on shutdown")
}

func TestShutdownJoinsFiringWatches(t *testing.T) {
	s := watch.NewScheduler()

	started := make(chan struct{})
	var completed atomic.Bool
	require.NoError(t, s.Arm(&watch.Watch{
		Name:      "slowfire",
		Predicate: func() bool { return true },
		OnFire: func() {
			close(started)
			time.Sleep(50 * time.Millisecond)
			completed.Store(true)
		},
		PollInterval: time.Millisecond,
	}))

	<-started
	require.NoError(t, s.Shutdown(time.Second))
	assert.True(t, completed.Load(), "Shutdown returned while an action was in flight")
}

func TestArmAfterShutdown(t *testing.T) {
	s := watch.NewScheduler()
	require.NoError(t, s.Shutdown(time.Second))

	err := s.Arm(&watch.Watch{
		Name:      "late",
		Predicate: func() bool { return true },
		OnFire:    func() {},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrSchedulerStopped))
}

func TestArmValidation(t *testing.T) {
	s := watch.NewScheduler()
	defer s.Shutdown(time.Second)

	err := s.Arm(&watch.Watch{Name: "nopredicate"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidArgument))
}

func TestCancelStopsSingleWatch(t *testing.T) {
	s := watch.NewScheduler()
	defer s.Shutdown(time.Second)

	var cancelled, surviving atomic.Int64

	target := &watch.Watch{
		Name:         "target",
		Predicate:    func() bool { return true },
		OnFire:       func() { cancelled.Add(1) },
		PollInterval: 5 * time.Millisecond,
		RearmDelay:   5 * time.Millisecond,
		Repeat:       true,
	}
	other := &watch.Watch{
		Name:         "other",
		Predicate:    func() bool { return true },
		OnFire:       func() { surviving.Add(1) },
		PollInterval: 5 * time.Millisecond,
		RearmDelay:   5 * time.Millisecond,
		Repeat:       true,
	}
	require.NoError(t, s.Arm(target))
	require.NoError(t, s.Arm(other))

	assert.Eventually(t, func() bool { return cancelled.Load() >= 1 },
		time.Second, time.Millisecond)

	require.NoError(t, s.Cancel(target))
	assert.Eventually(t, func() bool { return target.State() == watch.StateCancelled },
		time.Second, time.Millisecond)

	frozen := cancelled.Load()
	before := surviving.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, frozen, cancelled.Load(), "cancelled watch kept firing")
	assert.Greater(t, surviving.Load(), before, "unrelated watch was affected by Cancel")
}

func TestSchedulerHostsManyWatches(t *testing.T) {
	s := watch.NewScheduler()
	defer s.Shutdown(time.Second)

	var fires atomic.Int64
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Arm(&watch.Watch{
			Name:         "bulk",
			Predicate:    func() bool { return true },
			OnFire:       func() { fires.Add(1) },
			PollInterval: 5 * time.Millisecond,
		}))
	}

	assert.Eventually(t, func() bool { return fires.Load() == 20 },
		2*time.Second, 5*time.Millisecond)
}
