package executor

// Waker is a sendable handle that reschedules a suspended task for
// re-polling. It is safe to copy, store, and call from any goroutine —
// including goroutines other than the one running the owning Executor.
//
// A zero Waker is inert: Wake on it is a no-op. This matches the contract
// that waking a task enqueues it exactly once per call, and that cloning a
// waker (here, copying the struct) shares the same underlying task.
type Waker struct {
	t *task
}

// Wake consumes nothing (Go has no move semantics to consume): it schedules
// the task for re-polling. Calling Wake multiple times, including
// concurrently, is safe; every call enqueues the task once.
func (w Waker) Wake() {
	if w.t != nil {
		w.t.schedule()
	}
}

// WakeByRef has the same effect as Wake. It exists to mirror the
// wake_by_ref entry point from the original waker vtable, for call sites
// that want to signal they are not discarding their own copy of the waker
// afterwards; in Go both forms are identical since Waker is a plain value.
func (w Waker) WakeByRef() {
	w.Wake()
}

// IsNil reports whether this Waker was never bound to a task (the zero
// value), e.g. a Context constructed for testing a Future in isolation.
func (w Waker) IsNil() bool {
	return w.t == nil
}
