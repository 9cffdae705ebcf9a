package executor

import (
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Executor drives a set of spawned [Future] values to completion on a
// single goroutine: whichever one calls [Executor.Run]. It has no
// work-stealing and no multi-threaded polling; that scheduling model is
// deliberately out of scope (see the pool package for the OS-thread side of
// this runtime).
type Executor struct {
	ready *readyQueue

	// liveTasks counts tasks that have been spawned but have not yet
	// returned (value, true) from Poll. Run exits once the ready queue is
	// drained and liveTasks reaches zero, mirroring the prototype
	// executor's "sender dropped, channel recv fails" shutdown signal,
	// which Go's unbounded ready queue has no equivalent of on its own.
	liveTasks int64

	// Logger is consulted for lifecycle events (spawn, completion).
	// A nil Logger is a valid no-op, matching logiface's documented
	// contract for a zero-value *Logger.
	Logger *logiface.Logger[*stumpy.Event]
}

// New constructs an Executor with an empty ready queue and a disabled
// (no-op) logger. Use [Executor.SetLogger] to attach structured logging.
func New() *Executor {
	return &Executor{
		ready:  newReadyQueue(),
		Logger: stumpy.L.New(stumpy.L.WithLevel(logiface.LevelDisabled)),
	}
}

// SetLogger replaces the Executor's logger.
func (e *Executor) SetLogger(l *logiface.Logger[*stumpy.Event]) {
	e.Logger = l
}

// Spawn schedules f to begin running the next time Run drains the ready
// queue. Spawn may be called before Run starts (to seed initial work) or
// from within a Future being polled by this Executor (via the package-level
// [Spawn]); it must not be called concurrently with Run from any goroutine
// that isn't itself inside a Poll call belonging to this Executor, except
// before the first call to Run.
func (e *Executor) Spawn(f Future[Unit]) {
	atomic.AddInt64(&e.liveTasks, 1)
	t := &task{future: f, exec: e, state: taskQueued}
	e.Logger.Debug().Log("task spawned")
	e.ready.push(t)
}

// enqueue is the scheduling entry point used by task.schedule (i.e. by
// Waker.Wake); it does not affect liveTasks, since the task was already
// counted by Spawn and hasn't completed.
func (e *Executor) enqueue(t *task) {
	e.ready.push(t)
}

// Run polls queued tasks, one at a time, until every spawned task has
// completed and no more remain queued or outstanding. It blocks the calling
// goroutine for as long as any task is live, including while waiting for an
// external Waker.Wake call to re-enqueue a suspended task.
//
// Run returns once liveTasks reaches zero; at that point it is safe to call
// again with freshly spawned work, as the ready queue is not closed by a
// drained Run (only the terminal shutdown of the Executor closes it, which
// this type does not currently expose, since the spec's single-threaded
// executor has no notion of a hard shutdown distinct from "ran out of
// work").
func (e *Executor) Run() {
	for atomic.LoadInt64(&e.liveTasks) > 0 || e.ready.Len() > 0 {
		t, ok := e.ready.pop()
		if !ok {
			// the queue was closed from under us; nothing further to do.
			return
		}
		if t.done {
			// a stale wake of a task that already completed; never re-poll it.
			continue
		}

		ready := t.poll()
		if ready {
			atomic.AddInt64(&e.liveTasks, -1)
			e.Logger.Debug().Log("task completed")
		}
	}
}

// Pending reports the number of tasks that have been spawned but have not
// yet completed, including tasks currently suspended awaiting a wake.
func (e *Executor) Pending() int {
	return int(atomic.LoadInt64(&e.liveTasks))
}
