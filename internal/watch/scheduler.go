package watch

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/sysmond/internal/errors"
	"codeberg.org/mutker/sysmond/internal/logger"
)

// DefaultShutdownTimeout bounds how long Shutdown waits for armed watches
// to drain before giving up.
const DefaultShutdownTimeout = 5 * time.Second

type commandKind int

const (
	cmdArm commandKind = iota
	cmdCancel
)

type command struct {
	kind  commandKind
	watch *Watch
}

// Scheduler hosts any number of concurrently armed watches on its own
// background execution context. Arm and Cancel are safe to call from any
// goroutine: requests are marshaled into the scheduler's run loop as
// messages rather than mutating its state directly.
type Scheduler struct {
	cmds     chan command
	quit     chan struct{}
	loopDone chan struct{}
	watches  sync.WaitGroup

	closeOnce sync.Once
}

// NewScheduler creates a scheduler and starts its run loop.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		cmds:     make(chan command),
		quit:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	go s.run()

	return s
}

func (s *Scheduler) run() {
	defer close(s.loopDone)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancels := make(map[*Watch]context.CancelFunc)

	for {
		select {
		case <-s.quit:
			for _, cancelWatch := range cancels {
				cancelWatch()
			}
			return
		case cmd := <-s.cmds:
			switch cmd.kind {
			case cmdArm:
				watchCtx, cancelWatch := context.WithCancel(ctx)
				cancels[cmd.watch] = cancelWatch
				s.watches.Add(1)
				go func(w *Watch) {
					defer s.watches.Done()
					w.run(watchCtx)
				}(cmd.watch)
				logger.Debug().Str("watch", cmd.watch.Name).Msg("Watch armed")
			case cmdCancel:
				if cancelWatch, ok := cancels[cmd.watch]; ok {
					cancelWatch()
					delete(cancels, cmd.watch)
					logger.Debug().Str("watch", cmd.watch.Name).Msg("Watch cancelled")
				}
			}
		}
	}
}

// Arm registers a watch and starts polling it. It takes effect
// asynchronously and returns an error only if the scheduler has been shut
// down.
func (s *Scheduler) Arm(w *Watch) error {
	errFactory := errors.New()

	if w == nil || w.Predicate == nil || w.OnFire == nil {
		return errFactory.WithMessage(errors.ErrInvalidArgument, "watch requires a predicate and an action")
	}

	select {
	case s.cmds <- command{kind: cmdArm, watch: w}:
		return nil
	case <-s.quit:
		return errFactory.New(errors.ErrSchedulerStopped)
	}
}

// Cancel requests cooperative cancellation of one watch. The watch stops at
// its next poll boundary; Cancel itself does not block for that.
func (s *Scheduler) Cancel(w *Watch) error {
	errFactory := errors.New()

	select {
	case s.cmds <- command{kind: cmdCancel, watch: w}:
		return nil
	case <-s.quit:
		return errFactory.New(errors.ErrSchedulerStopped)
	}
}

// Shutdown signals every armed watch to stop and blocks until the
// scheduler's execution context has fully drained, so that no watch fires
// after it returns. If draining exceeds timeout, it returns
// scheduler_shutdown_timeout; callers should treat that as fatal and force
// process exit rather than wait indefinitely.
func (s *Scheduler) Shutdown(timeout time.Duration) error {
	errFactory := errors.New()

	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.loopDone

	drained := make(chan struct{})
	go func() {
		s.watches.Wait()
		close(drained)
	}()

	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-drained:
		logger.Debug().Msg("Scheduler drained")
		return nil
	case <-timer.C:
		return errFactory.New(errors.ErrSchedulerShutdownTime)
	}
}
