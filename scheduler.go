package coro1

import (
	"sync/atomic"
	"time"
)

// Scheduler drives a tree of frames to completion, one goroutine at a
// time. It owns a ready queue, a timer queue, the active I/O readiness
// queue, and any extra queues registered via [WithExtraQueue]. Every
// exported method is safe to call from a single external goroutine; it is
// not safe to call [Scheduler.Run] or [Scheduler.Step] concurrently, nor
// reentrantly from within a running task (both return
// [ErrSchedulerRunning]).
type Scheduler struct {
	opts *schedulerOptions

	ready    []*controlBlock
	timers   *timerQueue
	ioQueue  ioEventQueue
	extra    []GenericEventQueue

	frameSeq int64
	running  atomic.Bool
	metrics  Metrics
}

// NewScheduler constructs a [Scheduler] with opts applied over the
// defaults: a real-time [Clock], a stumpy-backed logger, a catrate rate
// limiter for diagnostic logging, and a select(2)-based I/O queue.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	cfg := resolveSchedulerOptions(opts)
	return &Scheduler{
		opts:    cfg,
		timers:  newTimerQueue(),
		ioQueue: cfg.ioQueue,
		extra:   cfg.extraQueue,
	}
}

func (s *Scheduler) now() time.Time {
	return s.opts.clock()
}

func (s *Scheduler) readyPush(cb *controlBlock) {
	s.ready = append(s.ready, cb)
}

func (s *Scheduler) readyPop() (*controlBlock, bool) {
	if len(s.ready) == 0 {
		return nil, false
	}
	cb := s.ready[0]
	s.ready = s.ready[1:]
	return cb, true
}

// Run drives the scheduler until there is no more work anywhere: the
// ready queue, the timer queue, the I/O queue, and every extra queue are
// all empty. It returns nil in that case, or the first error raised by a
// queue poll.
func (s *Scheduler) Run() error {
	return s.RunUntil(func() bool { return s.idle() })
}

// Step resumes at most one ready frame, or, if none is ready, polls every
// queue exactly once without blocking. It returns true if it did
// something (resumed a frame, or a poll delivered at least one wakeup).
func (s *Scheduler) Step() (bool, error) {
	if !s.running.CompareAndSwap(false, true) {
		return false, ErrSchedulerRunning
	}
	defer s.running.Store(false)
	return s.step(0)
}

// RunUntil drives the scheduler until done reports true, or there is no
// more work anywhere (see [Scheduler.Run]), or a queue poll errors.
func (s *Scheduler) RunUntil(done func() bool) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSchedulerRunning
	}
	defer s.running.Store(false)

	for !done() {
		if s.idle() {
			return ErrNoReadyQueues
		}
		budget := s.pollBudget()
		if _, err := s.step(budget); err != nil {
			return err
		}
	}
	return nil
}

// idle reports whether every source of future work is exhausted.
func (s *Scheduler) idle() bool {
	if len(s.ready) > 0 || !s.timers.empty() {
		return false
	}
	if s.ioQueue != nil && !s.ioQueue.Empty() {
		return false
	}
	for _, q := range s.extra {
		if !q.Empty() {
			return false
		}
	}
	return true
}

// pollBudget computes how long the scheduler may safely block in
// BlockingPoll: zero if the ready queue is non-empty (never block),
// otherwise the time remaining until the next timer deadline, or -1
// (block indefinitely) if there are no timers and something else is
// outstanding.
func (s *Scheduler) pollBudget() time.Duration {
	if len(s.ready) > 0 {
		return 0
	}
	next := s.timers.next()
	if next.IsZero() {
		return -1
	}
	if d := next.Sub(s.now()); d > 0 {
		return d
	}
	return 0
}

// step performs one scheduling turn: resume a ready frame if there is
// one, otherwise poll every queue (blocking up to budget on the I/O
// queue) and report whether anything was delivered.
func (s *Scheduler) step(budget time.Duration) (did bool, err error) {
	if cb, ok := s.readyPop(); ok {
		s.resumeAndWait(cb)
		return true, nil
	}

	fired, _ := s.timers.poll(s.now())
	s.metrics.TimersFired += int64(fired)
	if fired > 0 {
		s.logTimerFired(fired)
	}
	did = did || fired > 0

	if s.ioQueue != nil {
		n, ioErr := s.ioQueue.BlockingPoll(budget)
		s.metrics.IOReady += int64(n)
		did = did || n > 0
		if ioErr != nil {
			// Individual bad fds are already resolved in-band as
			// IOErrors by the queue itself; reaching here means the
			// multiplexer failed in a way the queue couldn't recover
			// from on its own, which is terminal for the scheduler.
			s.logIOQueueError(-1, ioErr)
			return did, ioErr
		}
	}

	for _, q := range s.extra {
		n, qErr := q.Poll()
		if qErr != nil {
			return did, qErr
		}
		did = did || n > 0
	}

	s.metrics.PollCount++
	if !did && s.idle() {
		s.logDeadlock()
		return false, ErrNoReadyQueues
	}
	return did, nil
}

// resumeAndWait hands control to cb's goroutine and blocks until it
// either finishes or suspends itself again.
func (s *Scheduler) resumeAndWait(cb *controlBlock) {
	s.logFrameResumed(&Frame{cb: cb})
	cb.resume <- struct{}{}
	sig := <-cb.toSched
	s.metrics.FramesResumed++
	if sig.finished {
		s.metrics.FramesCompleted++
		s.logFrameCompleted(&Frame{cb: cb}, cb.finalErr)
	}
}
