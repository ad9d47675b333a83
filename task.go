package coro1

import (
	"runtime/debug"
	"sync/atomic"
)

// Task is a suspendable unit of work: a function from a [Frame] to a
// result and error. Constructing one with [New] does no work and starts
// no goroutine. Like the move-only `task<T>` it translates, a Task is
// meant to be driven exactly once — by [Spawn], [Start], or [Await] — a
// second attempt returns [ErrAlreadyStarted] (or, from [Await], panics
// with one, since that call site has no error return to report it
// through).
type Task[T any] struct {
	fn      func(f *Frame) (T, error)
	started *atomic.Bool
}

// New wraps fn as a [Task]. fn may call [Frame.Wait], [Frame.IOWait], or
// [Await] any number of times before returning.
func New[T any](fn func(f *Frame) (T, error)) Task[T] {
	return Task[T]{fn: fn, started: new(atomic.Bool)}
}

func (t Task[T]) claim() bool {
	return t.started.CompareAndSwap(false, true)
}

// TaskHandle observes a task spawned with its own control block. Unlike a
// structured [Await], a handle's task runs on an independent goroutine,
// scheduled via the ready queue alongside everything else; the caller
// decides when (or whether) to wait for it.
type TaskHandle[T any] struct {
	done *chan struct{}
	r    *T
	e    *error
}

// Get returns the task's result and whether it is ready. Before the task
// finishes it returns the zero value, [ErrResultNotReady], and false.
func (h TaskHandle[T]) Get() (T, error, bool) {
	select {
	case <-*h.done:
		return *h.r, *h.e, true
	default:
		var zero T
		return zero, ErrResultNotReady, false
	}
}

// Wait blocks the calling goroutine (not a frame — this is for use by
// whatever goroutine is driving [Scheduler.Run], not from inside a task
// body) until the task finishes, then returns its result.
func (h TaskHandle[T]) Wait() (T, error) {
	<-*h.done
	return *h.r, *h.e
}

// Spawn gives t its own control block and goroutine, and schedules it to
// run on s. The returned [TaskHandle] observes completion independently
// of whoever called Spawn; nothing here suspends the caller. Spawning an
// already-started Task returns [ErrAlreadyStarted].
func Spawn[T any](s *Scheduler, t Task[T]) (TaskHandle[T], error) {
	if !t.claim() {
		return TaskHandle[T]{}, ErrAlreadyStarted
	}

	cb := newControlBlock(s)
	done := make(chan struct{})
	var result T
	var taskErr error
	h := TaskHandle[T]{done: &done, r: &result, e: &taskErr}
	s.logFrameSpawned(&Frame{cb: cb})

	go func() {
		<-cb.resume
		func() {
			defer func() {
				if r := recover(); r != nil {
					if pe, ok := r.(*TaskPanicError); ok {
						taskErr = pe
					} else {
						taskErr = &TaskPanicError{Value: r, Stack: debug.Stack()}
					}
				}
			}()
			result, taskErr = t.fn(&Frame{cb: cb})
		}()
		cb.finalErr = taskErr
		close(done)
		cb.toSched <- frameSignal{finished: true}
	}()

	s.metrics.FramesSpawned++
	s.readyPush(cb)
	return h, nil
}

// Start spawns t and runs s until it completes, returning its result.
// Intended for the top-level task of a program; nested tasks should
// normally use [Await] (structured) or [Spawn] (detached, but still
// observed via its own [TaskHandle]) from within an already-running task.
func Start[T any](s *Scheduler, t Task[T]) (T, error) {
	h, err := Spawn(s, t)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := s.RunUntil(func() bool {
		_, _, ready := h.Get()
		return ready
	}); err != nil {
		var zero T
		return zero, err
	}
	return h.Wait()
}

// Await runs t as a structured child of f's task: t's body executes as a
// plain nested call on the calling goroutine, sharing f's control block.
// This is symmetric transfer, Go-style — no extra goroutine, no extra
// scheduling round trip. Awaiting an already-started Task panics with
// [ErrAlreadyStarted], since this call site has no error return to report
// it through. A panic from t is recovered and wrapped as a
// [*TaskPanicError] (idempotently, if t itself already awaited a child
// whose panic was wrapped), then re-panicked so it surfaces at this call
// site exactly as an ordinary panic from t.fn would.
func Await[T any](f *Frame, t Task[T]) (result T, err error) {
	if !t.claim() {
		panic(ErrAlreadyStarted)
	}
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*TaskPanicError); ok {
				panic(pe)
			}
			panic(&TaskPanicError{Value: r, Stack: debug.Stack()})
		}
	}()
	return t.fn(f)
}
