// Package executor implements a minimal single-threaded, cooperative task
// scheduler: spawn a [Future], and the [Executor] polls it to completion on
// whichever goroutine calls [Executor.Run].
//
// There is no work-stealing and no parallelism between tasks — exactly one
// goroutine (the one running Run) ever calls Poll on a given task, and a
// task only makes progress between suspension points it chooses itself by
// returning false (not ready) from Poll. A suspended task is woken by
// calling Wake on the [Waker] it was given; waking re-enqueues it for
// another Poll.
package executor
