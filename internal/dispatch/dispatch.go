package dispatch

import (
	"context"
	"time"

	"codeberg.org/mutker/sysmond/internal/errors"
	"codeberg.org/mutker/sysmond/internal/history"
	"codeberg.org/mutker/sysmond/internal/logger"
	"codeberg.org/mutker/sysmond/internal/logroute"
	"codeberg.org/mutker/sysmond/internal/notify"
	"codeberg.org/mutker/sysmond/internal/watch"
)

const (
	summaryTitle    = "Performance Info"
	composeTimeout  = 30 * time.Second
	summaryLogLevel = "INFO"
)

// Dispatcher arms notification rules on a scheduler and performs their
// side effects: delivery through the notification channel, per-stream
// audit lines, and history records. Delivery and audit failures get one
// attempt per fire and never propagate.
type Dispatcher struct {
	scheduler *watch.Scheduler
	delivery  notify.Delivery
	routes    *logroute.Registry
	audit     history.Collector

	// Cadences applied to alert watches that leave them zero.
	CheckInterval  time.Duration
	DebounceWindow time.Duration
	ProbeInterval  time.Duration
	RearmDelay     time.Duration
}

func New(scheduler *watch.Scheduler, delivery notify.Delivery, routes *logroute.Registry, audit history.Collector) *Dispatcher {
	return &Dispatcher{
		scheduler: scheduler,
		delivery:  delivery,
		routes:    routes,
		audit:     audit,
	}
}

// AlertSpec is one conditional notification rule.
type AlertSpec struct {
	Name string

	// Condition is the armed predicate.
	Condition func() bool

	// Notification builds the message at fire time, so it reflects the
	// metric values that confirmed the condition.
	Notification func() notify.Notification

	// LogTarget, when non-empty, receives one audit line per fire with the
	// level derived from the notification's urgency.
	LogTarget string

	// OneShot fires at most once.
	OneShot bool

	PollInterval   time.Duration
	DebounceWindow time.Duration
	ProbeInterval  time.Duration
	RearmDelay     time.Duration
}

// NotifyWhen arms a conditional notification watch. The returned watch can
// be passed to the scheduler's Cancel.
func (d *Dispatcher) NotifyWhen(spec AlertSpec) (*watch.Watch, error) {
	errFactory := errors.New()

	if spec.Condition == nil || spec.Notification == nil {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "alert requires a condition and a notification")
	}

	w := &watch.Watch{
		Name:           spec.Name,
		Predicate:      spec.Condition,
		PollInterval:   firstDuration(spec.PollInterval, d.CheckInterval),
		DebounceWindow: firstDuration(spec.DebounceWindow, d.DebounceWindow),
		ProbeInterval:  firstDuration(spec.ProbeInterval, d.ProbeInterval),
		RearmDelay:     firstDuration(spec.RearmDelay, d.RearmDelay),
		Repeat:         !spec.OneShot,
	}
	w.OnFire = func() {
		d.fire(spec)
	}

	if err := d.scheduler.Arm(w); err != nil {
		return nil, err
	}

	return w, nil
}

// PeriodicallySend arms a repeating watch that composes the batch into one
// summary and dispatches it every delay, indefinitely. Scheduled dispatch
// carries no persistence requirement: the elapsed-time predicate fires on
// its first true poll.
func (d *Dispatcher) PeriodicallySend(name string, batch []DumpInfo, delay time.Duration, buttons ...notify.Button) (*watch.Watch, error) {
	errFactory := errors.New()

	if len(batch) == 0 {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "empty summary batch")
	}
	if delay <= 0 {
		return nil, errFactory.WithData(errors.ErrInvalidInterval, delay)
	}

	start := time.Now()
	w := &watch.Watch{
		Name:         name,
		Predicate:    func() bool { return time.Since(start) > delay },
		PollInterval: firstDuration(d.CheckInterval, 0),
		RearmDelay:   delay,
		Repeat:       true,
		OnFire: func() {
			d.sendSummary(batch, buttons)
		},
	}

	if err := d.scheduler.Arm(w); err != nil {
		return nil, err
	}

	return w, nil
}

func (d *Dispatcher) fire(spec AlertSpec) {
	n := spec.Notification()

	if spec.LogTarget != "" {
		line := n.Title + " : " + n.Message
		if err := d.routes.Append(spec.LogTarget, n.Urgency.LogLevel(), line); err != nil {
			logger.Warn().Err(err).Str("stream", spec.LogTarget).Msg("Audit append failed")
		}
	}

	d.deliver(n, spec.LogTarget)
}

func (d *Dispatcher) sendSummary(batch []DumpInfo, buttons []notify.Button) {
	ctx, cancel := context.WithTimeout(context.Background(), composeTimeout)
	defer cancel()

	message, lines := composeSummary(ctx, batch)
	for _, line := range lines {
		if err := d.routes.Append(line.stream, summaryLogLevel, line.text); err != nil {
			logger.Warn().Err(err).Str("stream", line.stream).Msg("Audit append failed")
		}
	}

	d.deliver(notify.Notification{
		Title:   summaryTitle,
		Message: message,
		Urgency: notify.UrgencyNormal,
		Buttons: buttons,
	}, "")
}

// deliver makes a single delivery attempt and records the fire. A failed
// delivery is visible only as a missing notification.
func (d *Dispatcher) deliver(n notify.Notification, stream string) {
	if err := d.delivery.Deliver(n); err != nil {
		logger.Warn().Err(err).Str("backend", d.delivery.Name()).Str("title", n.Title).
			Msg("Notification delivery failed")
	}

	if err := d.audit.Record(context.Background(), &history.Entry{
		Timestamp: time.Now(),
		Title:     n.Title,
		Message:   n.Message,
		Urgency:   n.Urgency.String(),
		Stream:    stream,
	}); err != nil {
		logger.Warn().Err(err).Msg("History record failed")
	}
}

func firstDuration(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}

	return 0
}
