// Structured logging for the scheduler, backed by logiface/stumpy.
//
// The scheduler never formats or writes log lines directly; it holds a
// *logiface.Logger[*stumpy.Event] (configurable via [WithLogger]) and calls
// through the small set of helpers below, each named for the scheduler
// event it reports. I/O queue failure reports go through a
// [catrate.Limiter], keyed by fd, so repeated failures can't flood stderr.
// Bad fds that the I/O queue resolves in-band are not logged.
package coro1

import (
	"time"
)

func (s *Scheduler) logFrameSpawned(f *Frame) {
	s.opts.logger.Debug().
		Int64(`frame`, int64(f.cb.id)).
		Log(`frame spawned`)
}

func (s *Scheduler) logFrameResumed(f *Frame) {
	s.opts.logger.Trace().
		Int64(`frame`, int64(f.cb.id)).
		Log(`frame resumed`)
}

func (s *Scheduler) logFrameCompleted(f *Frame, err error) {
	e := s.opts.logger.Debug()
	if err != nil {
		e = s.opts.logger.Warning().Err(err)
	}
	e.Int64(`frame`, int64(f.cb.id)).Log(`frame completed`)
}

func (s *Scheduler) logTimerScheduled(deadline time.Time) {
	s.opts.logger.Trace().
		Int64(`deadline_unix_ns`, deadline.UnixNano()).
		Log(`timer scheduled`)
}

func (s *Scheduler) logTimerFired(count int) {
	s.opts.logger.Trace().
		Int64(`count`, int64(count)).
		Log(`timers fired`)
}

// logIOQueueError reports a failure returned by the active I/O queue's
// poll. The scheduler calls it with fd -1 for a multiplexer failure the
// queue could not attribute to a single fd. Repeats for the same fd are
// throttled by the scheduler's [catrate.Limiter], so at most a handful of
// log lines are written per window.
func (s *Scheduler) logIOQueueError(fd FD, err error) {
	if s.opts.rateLimit != nil {
		if _, ok := s.opts.rateLimit.Allow(fd); !ok {
			return
		}
	}
	s.opts.logger.Warning().
		Int64(`fd`, int64(fd)).
		Err(err).
		Log(`io queue reported an error for a registered fd`)
}

func (s *Scheduler) logDeadlock() {
	s.opts.logger.Err().
		Log(`no ready frames and no queue can produce more work`)
}
