package achan

import (
	"sync"
	"time"

	"github.com/joeycumines/go-asyncrt/executor"
)

// inner is the state shared between every Sender/OneSender handle and the
// single Receiver of a channel. It mirrors fezer_sync::channel::Inner: a
// buffer, a count of live senders, a flag for whether the receiver side has
// gone away, a single-cell receiver waker, and a FIFO of sender wakers —
// guarded by one mutex, per the "single mutual-exclusion lock" rule in the
// wake-discipline invariant.
//
// cond backs the blocking (OS-thread) operations; it is broadcast any time
// the buffer's occupancy or either side's liveness changes, so that a
// blocked sendBlocking/recvBlocking wakes up to recheck its condition. The
// async operations (pollSend/pollRecv) never wait on cond; they register a
// Waker and return, to be re-polled later.
type inner[T any] struct {
	mu   sync.Mutex
	cond sync.Cond

	buf *ringBuffer[T]

	senderCount      int64
	receiverDropped  bool
	receiverWaker    executor.Waker
	hasReceiverWaker bool
	senderWakers     []executor.Waker
}

func newInner[T any](capacity int, senders int64) *inner[T] {
	in := &inner[T]{
		buf:         newRingBuffer[T](capacity),
		senderCount: senders,
	}
	in.cond.L = &in.mu
	return in
}

// takeSenderWakersLocked removes and returns every registered sender waker.
// Must be called with mu held.
func (in *inner[T]) takeSenderWakersLocked() []executor.Waker {
	if len(in.senderWakers) == 0 {
		return nil
	}
	w := in.senderWakers
	in.senderWakers = nil
	return w
}

// takeReceiverWakerLocked removes and returns the registered receiver
// waker, if any. Must be called with mu held.
func (in *inner[T]) takeReceiverWakerLocked() (executor.Waker, bool) {
	if !in.hasReceiverWaker {
		return executor.Waker{}, false
	}
	w := in.receiverWaker
	in.receiverWaker = executor.Waker{}
	in.hasReceiverWaker = false
	return w, true
}

func wakeAll(ws []executor.Waker) {
	for _, w := range ws {
		w.Wake()
	}
}

// trySend attempts a non-blocking push. It always takes and releases mu
// itself, waking outside the lock as the invariant requires.
func (in *inner[T]) trySend(v T) error {
	in.mu.Lock()
	if in.receiverDropped {
		in.mu.Unlock()
		return TrySendError{Kind: TrySendDisconnected}
	}
	if in.buf.Full() {
		in.mu.Unlock()
		return TrySendError{Kind: TrySendFull}
	}

	in.buf.PushBack(v)
	rw, hadRW := in.takeReceiverWakerLocked()
	in.cond.Broadcast()
	in.mu.Unlock()

	if hadRW {
		rw.Wake()
	}
	return nil
}

// sendBlocking pushes v, blocking the calling goroutine until there is
// room or the receiver is gone.
func (in *inner[T]) sendBlocking(v T) error {
	in.mu.Lock()
	for {
		if in.receiverDropped {
			in.mu.Unlock()
			return SendError{}
		}
		if !in.buf.Full() {
			in.buf.PushBack(v)
			rw, hadRW := in.takeReceiverWakerLocked()
			in.cond.Broadcast()
			in.mu.Unlock()
			if hadRW {
				rw.Wake()
			}
			return nil
		}
		in.cond.Wait()
	}
}

// pollSend is the Future-facing counterpart of trySend/sendBlocking: on
// contention it appends the given waker to the sender-waker FIFO before
// releasing the lock, per the wake-discipline invariant, rather than
// blocking the calling goroutine.
func (in *inner[T]) pollSend(v T, w executor.Waker) (done bool, err error) {
	in.mu.Lock()
	if in.receiverDropped {
		in.mu.Unlock()
		return true, SendError{}
	}
	if !in.buf.Full() {
		in.buf.PushBack(v)
		rw, hadRW := in.takeReceiverWakerLocked()
		in.cond.Broadcast()
		in.mu.Unlock()
		if hadRW {
			rw.Wake()
		}
		return true, nil
	}

	in.senderWakers = append(in.senderWakers, w)
	in.mu.Unlock()
	return false, nil
}

// tryRecv attempts a non-blocking pop.
func (in *inner[T]) tryRecv() (v T, err error) {
	in.mu.Lock()
	if in.buf.Len() > 0 {
		v = in.buf.PopFront()
		sw := in.takeSenderWakersLocked()
		in.cond.Broadcast()
		in.mu.Unlock()
		wakeAll(sw)
		return v, nil
	}

	disconnected := in.senderCount == 0
	in.mu.Unlock()
	if disconnected {
		var zero T
		return zero, TryRecvError{Kind: TryRecvDisconnected}
	}
	var zero T
	return zero, TryRecvError{Kind: TryRecvEmpty}
}

// recvBlocking pops a value, blocking until one is available or every
// sender has disconnected.
func (in *inner[T]) recvBlocking() (v T, err error) {
	in.mu.Lock()
	for {
		if in.buf.Len() > 0 {
			v = in.buf.PopFront()
			sw := in.takeSenderWakersLocked()
			in.cond.Broadcast()
			in.mu.Unlock()
			wakeAll(sw)
			return v, nil
		}
		if in.senderCount == 0 {
			in.mu.Unlock()
			var zero T
			return zero, RecvError{}
		}
		in.cond.Wait()
	}
}

// recvWithTimeout is recvBlocking bounded by a deadline. It uses a helper
// timer goroutine to break the cond.Wait early, rather than a timer wheel,
// matching the design's allowance for a helper-thread sleep primitive.
func (in *inner[T]) recvWithTimeout(d time.Duration) (v T, err error) {
	deadline := time.Now().Add(d)

	in.mu.Lock()
	defer in.mu.Unlock()
	for {
		if in.buf.Len() > 0 {
			v = in.buf.PopFront()
			sw := in.takeSenderWakersLocked()
			in.cond.Broadcast()
			in.mu.Unlock()
			wakeAll(sw)
			in.mu.Lock()
			return v, nil
		}
		if in.senderCount == 0 {
			var zero T
			return zero, RecvTimeoutError{Kind: RecvTimeoutDisconnected}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			var zero T
			return zero, RecvTimeoutError{Kind: RecvTimeoutTimeout}
		}
		in.condWaitTimeout(remaining)
	}
}

// condWaitTimeout waits on in.cond, or until d elapses, whichever comes
// first. mu must be held on entry and is held again on return.
func (in *inner[T]) condWaitTimeout(d time.Duration) {
	timer := time.AfterFunc(d, func() {
		in.mu.Lock()
		in.cond.Broadcast()
		in.mu.Unlock()
	})
	defer timer.Stop()
	in.cond.Wait()
}

// pollRecv is the Future-facing counterpart of tryRecv/recvBlocking. On
// contention (empty buffer, at least one live sender) it installs w as the
// single-cell receiver waker, replacing any stale registration, per the
// wake-discipline invariant.
func (in *inner[T]) pollRecv(w executor.Waker) (v T, done bool, err error) {
	in.mu.Lock()
	if in.buf.Len() > 0 {
		v = in.buf.PopFront()
		sw := in.takeSenderWakersLocked()
		in.cond.Broadcast()
		in.mu.Unlock()
		wakeAll(sw)
		return v, true, nil
	}

	if in.senderCount == 0 {
		in.mu.Unlock()
		var zero T
		return zero, true, RecvError{}
	}

	in.receiverWaker = w
	in.hasReceiverWaker = true
	in.mu.Unlock()
	var zero T
	return zero, false, nil
}

// closeReceiver marks the receiver side gone, waking every registered
// sender so blocked/suspended senders observe Disconnected.
func (in *inner[T]) closeReceiver() {
	in.mu.Lock()
	in.receiverDropped = true
	sw := in.takeSenderWakersLocked()
	in.cond.Broadcast()
	in.mu.Unlock()
	wakeAll(sw)
}

// releaseSender decrements the live sender count; once it reaches zero, the
// receiver-waiter (if any) is woken to observe Disconnected.
func (in *inner[T]) releaseSender() {
	in.mu.Lock()
	in.senderCount--
	var rw executor.Waker
	var hadRW bool
	if in.senderCount == 0 {
		rw, hadRW = in.takeReceiverWakerLocked()
		in.cond.Broadcast()
	}
	in.mu.Unlock()
	if hadRW {
		rw.Wake()
	}
}

func (in *inner[T]) addSender() {
	in.mu.Lock()
	in.senderCount++
	in.mu.Unlock()
}
