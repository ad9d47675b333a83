package coro1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerQueue_PollFiresDueEntriesInOrder(t *testing.T) {
	q := newTimerQueue()
	base := time.Unix(0, 0)

	cbA := &controlBlock{}
	cbB := &controlBlock{}
	cbC := &controlBlock{}

	// add out of order; poll must fire in deadline order.
	q.add(base.Add(3*time.Second), cbC)
	q.add(base.Add(1*time.Second), cbA)
	q.add(base.Add(2*time.Second), cbB)

	sched := &Scheduler{}
	cbA.sched, cbB.sched, cbC.sched = sched, sched, sched

	fired, next := q.poll(base.Add(2500 * time.Millisecond))
	require.Equal(t, 2, fired)
	require.Equal(t, base.Add(3*time.Second), next)
	require.Len(t, sched.ready, 2)
	require.Same(t, cbA, sched.ready[0])
	require.Same(t, cbB, sched.ready[1])

	fired, next = q.poll(base.Add(10 * time.Second))
	require.Equal(t, 1, fired)
	require.True(t, next.IsZero())
	require.True(t, q.empty())
}

func TestTimerQueue_PollOnEmptyQueueReportsZeroTime(t *testing.T) {
	q := newTimerQueue()
	fired, next := q.poll(time.Now())
	require.Zero(t, fired)
	require.True(t, next.IsZero())
}

func TestTimerQueue_CancelRemovesPendingEntry(t *testing.T) {
	q := newTimerQueue()
	sched := &Scheduler{}
	cb := &controlBlock{sched: sched}
	e := q.add(time.Now().Add(time.Hour), cb)
	require.False(t, q.empty())

	q.cancel(e)
	require.True(t, q.empty())

	// cancelling twice is a no-op, not a panic.
	q.cancel(e)
}
