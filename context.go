package coro1

import "sync"

// defaultScheduler is lazily constructed the first time one of the
// package-level convenience functions below is used, mirroring the
// original's single implicit scheduler instance for programs that don't
// need more than one.
var (
	defaultSchedulerOnce sync.Once
	defaultSchedulerVal  *Scheduler
)

func defaultScheduler() *Scheduler {
	defaultSchedulerOnce.Do(func() {
		defaultSchedulerVal = NewScheduler()
	})
	return defaultSchedulerVal
}

// Run drives the package-level default scheduler; see [Scheduler.Run].
func Run() error {
	return defaultScheduler().Run()
}

// Step advances the package-level default scheduler by one turn; see
// [Scheduler.Step].
func Step() (bool, error) {
	return defaultScheduler().Step()
}

// RunDefault runs t to completion on the package-level default scheduler;
// see [Start]. Most programs with more than one independent task tree
// should construct their own [Scheduler] instead.
func RunDefault[T any](t Task[T]) (T, error) {
	return Start(defaultScheduler(), t)
}

// SpawnDefault spawns t on the package-level default scheduler and
// returns its [TaskHandle] without running anything; see [Spawn]. Pair
// it with [Run]/[Step] to drive the default scheduler from outside.
func SpawnDefault[T any](t Task[T]) (TaskHandle[T], error) {
	return Spawn(defaultScheduler(), t)
}
