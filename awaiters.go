package coro1

// Wait suspends the calling frame until w's deadline elapses. It never
// returns an error: a timer cannot fail, only fire late if the scheduler
// itself is busy with other ready frames.
func (f *Frame) Wait(w Wait) error {
	sched := f.cb.sched
	sched.logTimerScheduled(w.Deadline)
	f.Suspend(func(wake func(any)) {
		sched.timers.add(w.Deadline, f.cb)
	})
	return nil
}

// IOWait suspends the calling frame until w's fd becomes ready for
// w.Kind, or the active I/O queue reports an error for it (typically
// because the fd was closed out from under the poller, or because
// w.Kind is neither [IOReadable] nor [IOWritable]). A reported error is
// returned as an [*IOError] or [ErrFDOutOfRange] (or, from the fallback
// queue on non-unix targets, [ErrIOQueueUnsupported]), never panicked.
// Registering the same (fd, kind) pair more than once is allowed; each
// registration is woken independently.
//
// The fd must already be set non-blocking by the caller. IOWait only
// waits for readiness; it never touches O_NONBLOCK itself, and a
// blocking fd that's "ready" by select(2)'s definition can still stall
// the read/write syscall the caller makes afterward, which stalls the
// whole scheduler goroutine along with it.
func (f *Frame) IOWait(w IOWait) error {
	sched := f.cb.sched
	result := f.Suspend(func(wake func(any)) {
		if err := sched.ioQueue.register(w.FD, w.Kind, f.cb); err != nil {
			wake(err)
		}
	})
	if err, ok := result.(error); ok {
		return err
	}
	return nil
}
