package coro1

import (
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// schedulerOptions holds configuration resolved from [SchedulerOption] values.
type schedulerOptions struct {
	clock      Clock
	logger     *logiface.Logger[*stumpy.Event]
	rateLimit  *catrate.Limiter
	ioQueue    ioEventQueue
	extraQueue []GenericEventQueue
}

// SchedulerOption configures a [Scheduler] at construction time.
type SchedulerOption interface {
	applyScheduler(*schedulerOptions)
}

type schedulerOptionFunc func(*schedulerOptions)

func (f schedulerOptionFunc) applyScheduler(opts *schedulerOptions) { f(opts) }

// WithClock overrides the source of time used for timer deadlines. The
// default is [time.Now]. The rate limiter governing diagnostic logging
// keeps its own time source and does not use this clock. Tests substitute
// a fake clock to make timer ordering deterministic.
func WithClock(clock Clock) SchedulerOption {
	return schedulerOptionFunc(func(opts *schedulerOptions) {
		opts.clock = clock
	})
}

// WithLogger overrides the [Scheduler]'s diagnostic logger. The default
// logs at [logiface.LevelInformational] and above to stderr via stumpy.
func WithLogger(logger *logiface.Logger[*stumpy.Event]) SchedulerOption {
	return schedulerOptionFunc(func(opts *schedulerOptions) {
		opts.logger = logger
	})
}

// WithRateLimiter overrides the limiter used to cap the rate of recurring
// diagnostic log entries, i.e. repeated I/O queue failure warnings.
// Passing nil disables rate limiting (every event is logged).
func WithRateLimiter(limiter *catrate.Limiter) SchedulerOption {
	return schedulerOptionFunc(func(opts *schedulerOptions) {
		opts.rateLimit = limiter
	})
}

// WithIOQueue overrides the queue used to service [Frame.IOWait] awaiters.
// The default is a select(2)-based implementation on unix targets, and a
// queue that rejects every registration elsewhere.
func WithIOQueue(queue ioEventQueue) SchedulerOption {
	return schedulerOptionFunc(func(opts *schedulerOptions) {
		opts.ioQueue = queue
	})
}

// WithExtraQueue registers an additional [GenericEventQueue] to be polled
// alongside the timer and I/O queues, e.g. a signal queue or a custom
// blocking resource. Queues are polled in registration order.
func WithExtraQueue(queue GenericEventQueue) SchedulerOption {
	return schedulerOptionFunc(func(opts *schedulerOptions) {
		opts.extraQueue = append(opts.extraQueue, queue)
	})
}

// resolveSchedulerOptions applies opts over a default configuration.
func resolveSchedulerOptions(opts []SchedulerOption) *schedulerOptions {
	cfg := &schedulerOptions{
		clock: func() time.Time { return time.Now() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt.applyScheduler(cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = stumpy.L.New(
			stumpy.L.WithStumpy(),
			stumpy.L.WithLevel(logiface.LevelInformational),
		)
	}
	if cfg.rateLimit == nil {
		cfg.rateLimit = catrate.NewLimiter(map[time.Duration]int{
			time.Second: 5,
			time.Minute: 30,
		})
	}
	if cfg.ioQueue == nil {
		cfg.ioQueue = NewIOQueue()
	}
	return cfg
}
