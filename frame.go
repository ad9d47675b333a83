package coro1

// frameSignal is what a frame's goroutine sends back to the scheduler
// goroutine that resumed it: either "I finished" or "I suspended myself
// and already registered with whatever will wake me".
type frameSignal struct {
	finished bool
}

// controlBlock is the scheduler-side state backing exactly one goroutine.
// A structured [Await] does not get its own controlBlock: the child body
// runs as a plain nested call sharing its parent's, which is this
// package's analogue of symmetric transfer. [Spawn] is the path that
// allocates a new controlBlock and its own goroutine.
type controlBlock struct {
	id    int64
	sched *Scheduler

	resume  chan struct{}    // sched -> goroutine: proceed
	toSched chan frameSignal // goroutine -> sched: suspended or finished

	// wakeResult is set by whatever queue woke this block (an *IOError,
	// or nil for a plain timer fire) and consumed immediately by the
	// Suspend caller upon resumption. Only ever touched while the
	// frame's goroutine is not running, so no synchronization is needed.
	wakeResult any

	// finalErr is the task's own error result, set just before a
	// [Spawn]ed control block signals finished. Read by the scheduler
	// to log a spawned-and-discarded task's error even if nobody ever
	// calls [TaskHandle.Get].
	finalErr error
}

func newControlBlock(s *Scheduler) *controlBlock {
	s.frameSeq++
	return &controlBlock{
		id:      s.frameSeq,
		sched:   s,
		resume:  make(chan struct{}),
		toSched: make(chan frameSignal),
	}
}

// wake marks cb ready to run again, stashing result for its next
// [Frame.Suspend] call to return, and pushes it onto the scheduler's
// ready queue. Called only from the scheduler's own goroutine, while
// cb's goroutine is parked inside Suspend.
func (cb *controlBlock) wake(result any) {
	cb.wakeResult = result
	cb.sched.readyPush(cb)
}

// Frame is the handle a task body uses to suspend itself on a timer, an
// fd, or any other pluggable event queue. It carries no result of its
// own: a [Frame] is the coro1 analogue of a bare coroutine_handle, not
// of the task's return value.
type Frame struct {
	cb *controlBlock
}

// Suspend yields control back to the scheduler until something calls the
// wake function passed to register. register runs synchronously, after
// the frame has been marked not-ready but before control returns to the
// scheduler, so a queue that fires register's wake reentrantly (from
// inside register itself) can never be missed. Suspend returns whatever
// value wake was called with.
//
// This is the primitive [Frame.Wait] and [Frame.IOWait] are built on; it
// is exported so a custom [GenericEventQueue] wired in via
// [WithExtraQueue] can suspend frames of its own.
func (f *Frame) Suspend(register func(wake func(result any))) any {
	cb := f.cb
	register(cb.wake)
	cb.toSched <- frameSignal{finished: false}
	<-cb.resume
	result := cb.wakeResult
	cb.wakeResult = nil
	return result
}
