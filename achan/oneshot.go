package achan

// OneSender is the single-use sending half of a one-shot channel. Only
// Send is exposed, matching spec.md's "on the one-shot variant only send(v)
// (single-shot, consumes the sender) is exposed".
//
// Calling Send more than once panics: a one-shot sender, like Rust's
// consuming send, is only meaningful to call exactly once, and Go has no
// move semantics to enforce that at compile time.
type OneSender[T any] struct {
	in   *inner[T]
	used bool
}

// Send delivers v to the receiver, or reports that the receiver has
// already been dropped. It never blocks: the one-shot buffer has capacity
// 1 and is guaranteed empty (nothing else can have written to it).
func (s *OneSender[T]) Send(v T) error {
	if s.used {
		panic("achan: OneSender.Send called more than once")
	}
	s.used = true
	err := s.in.trySend(v)
	s.in.releaseSender()
	if fe, ok := err.(TrySendError); ok && fe.Kind == TrySendDisconnected {
		return SendError{}
	}
	return err
}

// OneShot creates a single-value channel: exactly one value may ever be
// sent, by the returned OneSender, and received once by the returned
// Receiver.
func OneShot[T any]() (*OneSender[T], *Receiver[T]) {
	in := newInner[T](1, 1)
	return &OneSender[T]{in: in}, &Receiver[T]{in: in}
}
