package feed

import (
	"context"
	"time"

	"codeberg.org/mutker/sysmond/internal/errors"
	"codeberg.org/mutker/sysmond/internal/logger"
	"codeberg.org/mutker/sysmond/internal/sensors"
	"codeberg.org/mutker/sysmond/internal/series"
	"golang.org/x/sync/errgroup"
)

// Target pairs one sample buffer with the producer that fills it. Buffers
// are owned by the feed: nothing else writes to them.
type Target struct {
	Buffer   *series.Buffer
	Producer sensors.Producer
}

// Feed drives the live chart data path: on every tick it invokes each
// target's producer exactly once, concurrently, records the results with an
// elapsed-since-first-tick timestamp, and notifies the renderer only after
// every sample of the tick has landed.
//
// Ticks are independent. A slow producer delays only its own tick; under
// sustained slowness the ticker drops beats and the feed degrades to a
// lower effective sampling rate with no queueing.
type Feed struct {
	interval time.Duration
	targets  []Target
	onTick   func()
}

// New creates a feed. onTick, if non-nil, runs after each tick's barrier;
// the renderer reads buffer snapshots from it.
func New(interval time.Duration, onTick func()) *Feed {
	return &Feed{
		interval: interval,
		onTick:   onTick,
	}
}

// Attach registers a buffer/producer pair. Must be called before Run.
func (f *Feed) Attach(buf *series.Buffer, producer sensors.Producer) {
	f.targets = append(f.targets, Target{Buffer: buf, Producer: producer})
}

// Targets returns the registered pairs, for renderers that iterate buffers.
func (f *Feed) Targets() []Target {
	return f.targets
}

// Run ticks until ctx is cancelled. A producer failure is fatal for the
// run: it is returned to the caller rather than masked, because silently
// dropping a sample would corrupt the buffers' temporal contiguity.
func (f *Feed) Run(ctx context.Context) error {
	errFactory := errors.New()

	if f.interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, f.interval)
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	var start time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if start.IsZero() {
				start = time.Now()
				logger.Debug().Int("targets", len(f.targets)).Msg("Feed started")
			}

			if err := f.tick(ctx, start); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return errFactory.Wrap(errors.ErrProducerFailure, err)
			}

			if f.onTick != nil {
				f.onTick()
			}
		}
	}
}

// tick invokes every producer concurrently and waits for the full
// invocation set, bounding tick latency to the slowest single producer.
func (f *Feed) tick(ctx context.Context, start time.Time) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, target := range f.targets {
		target := target
		g.Go(func() error {
			value, err := target.Producer(gctx)
			if err != nil {
				return err
			}
			target.Buffer.Record(time.Since(start).Seconds(), value)
			return nil
		})
	}

	return g.Wait()
}
