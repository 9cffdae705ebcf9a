// Package amutex implements an async-aware mutex: a lock that a task may
// hold across suspension points, unlike sync.Mutex (whose critical section
// must not yield the goroutine to unrelated work while still held, and
// which has no notion of "suspend while holding").
package amutex

import (
	"sync"

	"github.com/joeycumines/go-asyncrt/executor"
)

// Mutex guards a value of type T, allowing holders of the returned Guard to
// suspend (return false from a Future.Poll) without releasing it, and to
// resume later exactly where they left off.
//
// Adapted from fezer_sync::mutex: an inner state lock (state below) guards
// a FIFO of waiters and a boolean flag (locked, below) recording whether T
// is currently possessed — there is no second lock, just the one state
// mutex serializing both. Go has no poisoning primitive equivalent to
// Rust's std::sync::Mutex, so poisoning is modeled directly: an explicit
// Poison method a recovering caller invokes, checked by both the fast and
// slow acquisition paths, which panic rather than hand out a guard over a
// value a prior holder may have left inconsistent after panicking inside
// the critical section.
type Mutex[T any] struct {
	value T

	state   sync.Mutex // guards locked and waiters only
	locked  bool
	waiters []executor.Waker

	poisoned bool
}

// New constructs a Mutex holding the given initial value.
func New[T any](value T) *Mutex[T] {
	return &Mutex[T]{value: value}
}

// Guard grants exclusive access to the value guarded by a Mutex. Callers
// must call Unlock exactly once, when finished, to release the lock;
// failing to do so (e.g. by abandoning the Guard after a panic) leaves the
// Mutex locked forever. Poisoning happens only through an explicit call to
// Mutex.Poison.
type Guard[T any] struct {
	m        *Mutex[T]
	unlocked bool
}

// Get returns a pointer to the guarded value, valid until Unlock is called.
func (g *Guard[T]) Get() *T {
	if g.unlocked {
		panic("amutex: Guard used after Unlock")
	}
	return &g.m.value
}

// Unlock releases the guard, waking every waiter queued while it was held,
// in FIFO order. Barging is still possible: a task that calls LockAsync (or
// TryLock) after Unlock returns but before a previously-queued waiter gets
// re-polled may acquire the lock first. This is an accepted tradeoff: every
// waiter still gets woken and retried on each release — it is simply not a
// strict hand-off.
func (g *Guard[T]) Unlock() {
	if g.unlocked {
		panic("amutex: Guard.Unlock called more than once")
	}
	g.unlocked = true

	m := g.m
	m.state.Lock()
	m.locked = false
	taken := m.waiters
	m.waiters = nil
	m.state.Unlock()

	for _, w := range taken {
		w.Wake()
	}
}

// TryLock attempts an immediate, non-blocking acquisition. It reports false
// if the mutex is currently held.
func (m *Mutex[T]) TryLock() (*Guard[T], bool) {
	m.state.Lock()
	defer m.state.Unlock()

	if m.poisoned {
		panic("amutex: Mutex is poisoned: a prior holder panicked while holding the guard")
	}
	if m.locked {
		return nil, false
	}
	m.locked = true
	return &Guard[T]{m: m}, true
}

// LockAsync returns a Future that resolves to a Guard once acquired.
// Acquisition follows fezer_sync's loop: first attempt a non-blocking
// TryLock; on contention, take the state lock and, if still locked, enqueue
// the caller's waker at the back of the FIFO and suspend — otherwise loop
// and retry (someone released it between the fast-path check and taking
// the state lock).
func (m *Mutex[T]) LockAsync() executor.Future[*Guard[T]] {
	return &lockFuture[T]{m: m}
}

type lockFuture[T any] struct {
	m *Mutex[T]
}

func (f *lockFuture[T]) Poll(cx *executor.Context) (*Guard[T], bool) {
	m := f.m

	for {
		if g, ok := m.TryLock(); ok {
			return g, true
		}

		m.state.Lock()
		if m.poisoned {
			m.state.Unlock()
			panic("amutex: Mutex is poisoned: a prior holder panicked while holding the guard")
		}
		if m.locked {
			m.waiters = append(m.waiters, cx.Waker)
			m.state.Unlock()
			return nil, false
		}
		// lost the race: someone unlocked between TryLock and taking
		// state; loop and retry the fast path.
		m.state.Unlock()
	}
}

// Poison marks the mutex permanently unusable. It is exposed for a Guard
// holder's recover() path: if a task's Poll panics while it holds a Guard,
// the recovering code should call Poison before propagating, since an
// abandoned Guard never calls Unlock and would otherwise leave the mutex
// locked forever with no poisoning signal.
func (m *Mutex[T]) Poison() {
	m.state.Lock()
	m.poisoned = true
	taken := m.waiters
	m.waiters = nil
	m.state.Unlock()
	for _, w := range taken {
		w.Wake()
	}
}
