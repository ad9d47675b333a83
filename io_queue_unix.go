//go:build unix

package coro1

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioEntry is one pending registration: an fd/kind pair waited on by cb.
// Duplicate (fd, kind) registrations are allowed and tracked
// independently, so two frames can both wait on the same fd for the
// same kind without one clobbering the other.
type ioEntry struct {
	fd   FD
	kind IOKind
	cb   *controlBlock
}

// selectIOQueue is a level-triggered I/O readiness queue backed by
// select(2). An unconsumed ready fd is reported again on the next poll,
// matching the original's io_queue::select: callers are expected to
// re-register (or stop waiting) once they've drained the fd.
type selectIOQueue struct {
	entries []ioEntry
}

// NewIOQueue returns the default I/O readiness queue: select(2)-based,
// level-triggered, suitable for the modest fd counts a cooperative
// scheduler typically juggles. See [WithIOQueue].
func NewIOQueue() ioEventQueue {
	return &selectIOQueue{}
}

func (q *selectIOQueue) register(fd FD, kind IOKind, cb *controlBlock) error {
	if fd < 0 || uintptr(fd) >= uintptr(unix.FD_SETSIZE) {
		return ErrFDOutOfRange
	}
	if kind != IOReadable && kind != IOWritable {
		return &IOError{FD: fd, Kind: kind, Cause: ErrInvalidIOKind}
	}
	q.entries = append(q.entries, ioEntry{fd: fd, kind: kind, cb: cb})
	return nil
}

func (q *selectIOQueue) Empty() bool {
	return len(q.entries) == 0
}

func (q *selectIOQueue) Poll() (delivered int, err error) {
	return q.poll(&unix.Timeval{})
}

func (q *selectIOQueue) BlockingPoll(timeout time.Duration) (delivered int, err error) {
	if timeout < 0 {
		return q.poll(nil)
	}
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	return q.poll(&tv)
}

// buildFDSets partitions entries into read/write fd_sets and reports the
// highest fd plus one, as required by select(2)'s first argument.
func buildFDSets(entries []ioEntry) (rfds, wfds unix.FdSet, nfd int) {
	for _, e := range entries {
		if e.kind == IOWritable {
			fdSetAdd(&wfds, int(e.fd))
		} else {
			fdSetAdd(&rfds, int(e.fd))
		}
		nfd = maxInt(nfd, int(e.fd)+1)
	}
	return
}

// poll implements spec.md §4.2's poll steps 3-7: call the multiplexer,
// retry on EINTR/EAGAIN, isolate and complete individually-bad fds on
// EBADF while retrying for the rest, and escalate any other failure as
// terminal.
func (q *selectIOQueue) poll(timeout *unix.Timeval) (delivered int, err error) {
	for {
		if q.Empty() {
			return delivered, nil
		}

		rfds, wfds, nfd := buildFDSets(q.entries)
		n, serr := unix.Select(nfd, &rfds, &wfds, nil, timeout)
		if serr != nil {
			switch serr {
			case unix.EINTR, unix.EAGAIN:
				continue
			case unix.EBADF:
				n := q.recoverBadFD()
				delivered += n
				if n == 0 {
					// Couldn't reproduce the failure against any single
					// fd in isolation; avoid spinning forever on an
					// error we can't attribute.
					return delivered, serr
				}
				// zero-timeout retry: don't re-block the caller's
				// budget a second time for this one poll() call.
				timeout = &unix.Timeval{}
				continue
			default:
				return delivered, serr
			}
		}

		if n > 0 {
			delivered += q.deliver(&rfds, &wfds)
		}
		return delivered, nil
	}
}

// deliver wakes every entry whose fd is ready in rfds/wfds, removing it
// from the pending set, and reports how many were delivered.
func (q *selectIOQueue) deliver(rfds, wfds *unix.FdSet) int {
	delivered := 0
	kept := q.entries[:0]
	for _, e := range q.entries {
		var ready bool
		if e.kind == IOWritable {
			ready = fdSetIsSet(wfds, int(e.fd))
		} else {
			ready = fdSetIsSet(rfds, int(e.fd))
		}
		if ready {
			e.cb.wake(nil)
			delivered++
		} else {
			kept = append(kept, e)
		}
	}
	q.entries = kept
	return delivered
}

// recoverBadFD implements spec.md §4.2 step 5: probe each pending entry
// alone with a zero-timeout select so a single closed/invalid fd doesn't
// fail every other, perfectly healthy, registration sharing the same
// poll. Entries that fail in isolation are completed with a
// "bad file descriptor" [IOError]; entries that don't reproduce the
// failure are left pending for the caller to retry.
func (q *selectIOQueue) recoverBadFD() (delivered int) {
	zero := unix.Timeval{}
	kept := q.entries[:0]
	for _, e := range q.entries {
		var fds unix.FdSet
		fdSetAdd(&fds, int(e.fd))
		var rp, wp *unix.FdSet
		if e.kind == IOWritable {
			wp = &fds
		} else {
			rp = &fds
		}
		_, perr := unix.Select(int(e.fd)+1, rp, wp, nil, &zero)
		if perr == unix.EBADF {
			e.cb.wake(&IOError{FD: e.fd, Kind: e.kind, Cause: unix.EBADF})
			delivered++
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return delivered
}

// fdSetBytes views an FdSet's platform-specific word array (int32 on
// Darwin, int64 on Linux, and so on) as a flat byte slice, so bit
// indexing doesn't need to know the word width for the current GOOS.
func fdSetBytes(set *unix.FdSet) *[unsafe.Sizeof(unix.FdSet{}.Bits)]byte {
	return (*[unsafe.Sizeof(unix.FdSet{}.Bits)]byte)(unsafe.Pointer(&set.Bits))
}

func fdSetAdd(set *unix.FdSet, fd int) {
	b := fdSetBytes(set)
	b[fd/8] |= 1 << uint(fd%8)
}

func fdSetIsSet(set *unix.FdSet, fd int) bool {
	b := fdSetBytes(set)
	return b[fd/8]&(1<<uint(fd%8)) != 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
