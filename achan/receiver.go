package achan

import (
	"iter"
	"time"

	"github.com/joeycumines/go-asyncrt/executor"
)

// Receiver is the single receiving half of a channel created by OneShot or
// Bounded. Every channel has exactly one Receiver; there is no clone
// operation on this side, mirroring "only one receiver exists" from the
// wake-discipline rationale.
type Receiver[T any] struct {
	in     *inner[T]
	closed bool
}

// TryRecv pops a value without blocking.
func (r *Receiver[T]) TryRecv() (T, error) {
	return r.in.tryRecv()
}

// RecvBlocking pops a value, blocking the calling goroutine until one
// arrives or every sender has disconnected.
func (r *Receiver[T]) RecvBlocking() (T, error) {
	return r.in.recvBlocking()
}

// RecvWithTimeout is RecvBlocking bounded by d.
func (r *Receiver[T]) RecvWithTimeout(d time.Duration) (T, error) {
	return r.in.recvWithTimeout(d)
}

// RecvAsync returns a Future that resolves with the next value, or with the
// error that ended the receive (Disconnected).
func (r *Receiver[T]) RecvAsync() executor.Future[Result[T]] {
	return &recvFuture[T]{in: r.in}
}

// Close releases the Receiver, waking every sender so that any subsequent
// send observes Disconnected instead of blocking or suspending forever.
func (r *Receiver[T]) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.in.closeReceiver()
}

// Iter returns a lazy sequence of every value the channel yields, blocking
// between items, and stopping once the channel disconnects.
func (r *Receiver[T]) Iter() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := r.in.recvBlocking()
			if err != nil {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// TryIter returns a lazy sequence that stops at the first value the
// channel cannot immediately supply (empty or disconnected), rather than
// blocking.
func (r *Receiver[T]) TryIter() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := r.in.tryRecv()
			if err != nil {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

type recvFuture[T any] struct {
	in   *inner[T]
	done bool
}

func (f *recvFuture[T]) Poll(cx *executor.Context) (Result[T], bool) {
	if f.done {
		panic("achan: RecvAsync future polled after completion")
	}
	v, done, err := f.in.pollRecv(cx.Waker)
	if !done {
		return Result[T]{}, false
	}
	f.done = true
	return Result[T]{Value: v, Err: err}, true
}
