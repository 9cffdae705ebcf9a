package achan

import "github.com/joeycumines/go-asyncrt/executor"

// Sender is the sending half of a bounded multi-producer channel. Any
// number of goroutines or tasks may hold and use their own Sender value
// concurrently; use Clone to create an additional handle that counts
// towards the live sender count (so the receiver only observes
// Disconnected once every clone has been Closed).
type Sender[T any] struct {
	in     *inner[T]
	closed bool
}

// Bounded creates a channel whose buffer holds up to capacity values.
// capacity must be at least 1.
func Bounded[T any](capacity int) (*Sender[T], *Receiver[T]) {
	if capacity < 1 {
		panic("achan: Bounded: capacity must be >= 1")
	}
	in := newInner[T](capacity, 1)
	return &Sender[T]{in: in}, &Receiver[T]{in: in}
}

// Clone returns a new Sender handle sharing the same underlying channel,
// incrementing the live sender count. The original and the clone are both
// independently usable and must each eventually be Closed.
func (s *Sender[T]) Clone() *Sender[T] {
	s.in.addSender()
	return &Sender[T]{in: s.in}
}

// TrySend pushes v without blocking, failing with TrySendError if the
// buffer is full or the receiver has gone.
func (s *Sender[T]) TrySend(v T) error {
	return s.in.trySend(v)
}

// SendBlocking pushes v, blocking the calling goroutine until there is
// room or the receiver has gone.
func (s *Sender[T]) SendBlocking(v T) error {
	return s.in.sendBlocking(v)
}

// SendAsync returns a Future that resolves once v has been pushed, or the
// receiver is observed to have gone.
func (s *Sender[T]) SendAsync(v T) executor.Future[error] {
	return &sendFuture[T]{in: s.in, value: v}
}

// Close releases this Sender handle, decrementing the live sender count.
// Once every Sender handle for a channel has been closed, the receiver
// observes Disconnected rather than suspending or blocking further.
func (s *Sender[T]) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.in.releaseSender()
}

type sendFuture[T any] struct {
	in    *inner[T]
	value T
	sent  bool
}

func (f *sendFuture[T]) Poll(cx *executor.Context) (error, bool) {
	if f.sent {
		panic("achan: SendAsync future polled after completion")
	}
	done, err := f.in.pollSend(f.value, cx.Waker)
	if !done {
		return nil, false
	}
	f.sent = true
	return err, true
}
