package pool

import "sync/atomic"

// atomicCounter hands out strictly increasing values, used to number each
// worker thread this pool ever spawns ("<prefix>-<n>"), so a respawned
// worker never reuses a name that might still be referenced in a log line
// about the worker it replaced.
//
// Grounded on fezer_threadpool::atomic_counter: a trivial wrapper over a
// single atomic integer exposing only fetch-and-increment.
type atomicCounter struct {
	v atomic.Uint64
}

// next returns the next value in the sequence, starting at 0.
func (c *atomicCounter) next() uint64 {
	return c.v.Add(1) - 1
}
