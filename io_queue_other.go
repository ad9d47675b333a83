//go:build !unix

package coro1

import "time"

// unsupportedIOQueue is the fallback on platforms with no select(2).
// Every registration fails with [ErrIOQueueUnsupported], so [Frame.IOWait]
// returns that error immediately instead of suspending forever.
type unsupportedIOQueue struct{}

// NewIOQueue returns the default I/O readiness queue for this platform.
// Outside unix targets there is no select(2)-based implementation wired
// in, so this rejects every registration; a program needing fd readiness
// on such a platform should wait on it via its own [GenericEventQueue]
// and [Frame.Suspend] instead of [Frame.IOWait].
func NewIOQueue() ioEventQueue {
	return unsupportedIOQueue{}
}

func (unsupportedIOQueue) register(FD, IOKind, *controlBlock) error {
	return ErrIOQueueUnsupported
}

func (unsupportedIOQueue) Empty() bool { return true }

func (unsupportedIOQueue) Poll() (int, error) { return 0, nil }

func (unsupportedIOQueue) BlockingPoll(time.Duration) (int, error) { return 0, nil }
