// Package coro1 is a single-threaded cooperative task runtime.
//
// Application code expresses sequential suspending logic ("tasks") composed
// of await points on timers, fd readiness, and other tasks. A [Scheduler]
// drives those tasks to completion on one goroutine at a time, interleaving
// ready-resumption with polling of pluggable event queues.
//
// # Model
//
// Go has no stackful coroutine primitive, so a task is a dedicated goroutine
// that rendezvouses with the scheduler over a pair of unbuffered channels:
// the scheduler sends to resume it, then blocks until the task either
// suspends itself (by registering with an event queue and yielding back) or
// completes. Exactly one goroutine performs application-visible work at any
// instant — that is this module's definition of "single-threaded
// cooperative", and every exported type is documented against it.
//
// A structured await of a child task ([Await]) does not spawn a second
// goroutine: the child body runs as a plain nested call on the parent's own
// goroutine, sharing its control block — the direct analogue of symmetric
// transfer in the stackful-coroutine runtime this package is modeled on.
// [Spawn] is the other path: it gives the child its own control block and
// its own goroutine, scheduled independently via the ready queue.
//
// # Platform support
//
// The reference I/O readiness queue ([NewIOQueue]) is backed by select(2)
// and is level-triggered: an unconsumed ready fd is reported again on the
// next poll. It is built for POSIX targets; other GOOS values get a queue
// that reports every registration as an error, so [Frame.IOWait] fails
// cleanly rather than blocking forever. A caller on such a platform can
// still wait on its own readiness source by registering directly with
// [Frame.Suspend] through a custom [GenericEventQueue] wired in via
// [WithExtraQueue].
//
// # Usage
//
//	sched := coro1.NewScheduler()
//	result, err := coro1.Start(sched, coro1.New(func(f *coro1.Frame) (int, error) {
//	    if err := f.Wait(f.After(time.Second)); err != nil {
//	        return 0, err
//	    }
//	    return 42, nil
//	}))
//
// [Spawn] and [Start] take an explicit [*Scheduler]; [Await] takes the
// calling [*Frame]. Callers that don't want to thread a scheduler through
// explicitly can use [Run], [Step], [RunDefault], and [SpawnDefault], which
// operate on a lazily-created default scheduler.
//
// # Error types
//
//   - [IOError]: in-band result of an [IOWait] awaiter, never panicked.
//   - [TaskPanicError]: wraps a panic recovered from a task body.
//   - [ErrResultNotReady], [ErrSchedulerRunning]: usage errors.
//
// All error types implement [error], [errors.Unwrap], and are matchable via
// [errors.Is] / [errors.As].
package coro1
