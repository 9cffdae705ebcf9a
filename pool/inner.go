package pool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// globalMaxWorkers is a process-wide upper bound on the number of worker
// goroutines any pool in this process may have live at once, mirroring
// fezer_threadpool::inner::INTERNAL_MAX_THREADS. Zero (the default) means
// unbounded. It exists mainly so tests can force spawn failures
// deterministically, without needing to actually exhaust OS resources.
var globalMaxWorkers atomic.Int64

// SetMaxWorkers sets the process-wide cap on the number of live worker
// goroutines each pool may have; every pool compares it against its own
// live count. Pass 0 to remove the cap.
func SetMaxWorkers(n int64) { globalMaxWorkers.Store(n) }

// MaxWorkers returns the current process-wide cap, or 0 if unbounded.
func MaxWorkers() int64 { return globalMaxWorkers.Load() }

var errGlobalMaxWorkersExceeded = errors.New("pool: process-wide max worker threads exceeded")

// spawnFunc starts run on a new worker, returning an error if the worker
// could not be started at all (run is never called in that case). The real
// implementation (spawnGoroutine) cannot fail in ordinary operation — Go
// goroutine creation doesn't have Rust's fallible thread::Builder::spawn —
// but the indirection is kept injectable so tests can simulate the
// NoThreads/Respawn spawn-failure paths deterministically.
type spawnFunc func(name string, run func()) error

func spawnGoroutine(_ string, run func()) error {
	go run()
	return nil
}

// inner is the state shared by every worker goroutine of a Pool: the job
// queue, its receive-side lock, and the bookkeeping needed to replenish
// workers after a panic or transient spawn failure.
//
// Grounded on fezer_threadpool::inner::Inner. The Rust version derives live
// worker count from Arc::strong_count(&self.inner) - 1 (each worker thread
// holds a clone of the Arc); Go's GC makes that trick unnecessary, so
// liveWorkers is tracked directly with an atomic counter instead.
type inner struct {
	prefix  string
	size    int
	counter atomicCounter

	liveWorkers atomic.Int64

	jobs   chan func()
	recvMu sync.Mutex // guards receiving from jobs; see Pool doc for why this is explicit

	spawn  spawnFunc
	logger *logiface.Logger[*stumpy.Event]
}

func newInner(prefix string, size int, spawn spawnFunc, logger *logiface.Logger[*stumpy.Event]) *inner {
	return &inner{
		prefix: prefix,
		size:   size,
		jobs:   make(chan func(), size*jobQueueCapacityPerWorker),
		spawn:  spawn,
		logger: logger,
	}
}

func (in *inner) liveCount() int64 { return in.liveWorkers.Load() }

// classify turns a raw spawn failure into a StartThreadsError, using the
// live worker count observed at the moment of failure (after any
// optimistic increment has been rolled back) to distinguish "the pool is
// now completely inert" from "merely a blip".
func (in *inner) classify(err error) StartThreadsError {
	if in.liveCount() == 0 {
		return StartThreadsError{Kind: StartThreadsNoThreads, Err: err}
	}
	return StartThreadsError{Kind: StartThreadsRespawn, Err: err}
}

// spawnOne starts exactly one additional worker.
func (in *inner) spawnOne() error {
	if max := MaxWorkers(); max > 0 && in.liveCount() >= max {
		return in.classify(errGlobalMaxWorkersExceeded)
	}

	name := fmt.Sprintf("%s-%d", in.prefix, in.counter.next())

	// optimistic increment: counted as live for the duration of the spawn
	// attempt, rolled back below if the attempt fails. This keeps
	// concurrent spawnOne calls (from replenish loops on multiple workers)
	// from all observing liveCount()==0 and racing to classify as
	// NoThreads when only the first one should.
	in.liveWorkers.Add(1)

	err := in.spawn(name, func() {
		defer in.liveWorkers.Add(-1)
		in.work(name)
	})
	if err != nil {
		in.liveWorkers.Add(-1)
		return in.classify(err)
	}
	return nil
}

// replenish spawns workers until liveCount reaches size, returning the
// first error encountered (if any); it does not retry on its own.
func (in *inner) replenish() error {
	for in.liveCount() < int64(in.size) {
		if err := in.spawnOne(); err != nil {
			return err
		}
	}
	return nil
}

// replenishBestEffort is used from inside a worker's own loop, where a
// replenishment failure is expected and already surfaced to anyone calling
// schedule/trySchedule; it only logs.
func (in *inner) replenishBestEffort() {
	if err := in.replenish(); err != nil {
		in.logger.Debug().Str("err", err.Error()).Log("worker replenish attempt failed")
	}
}

// receiveJob takes the receive lock, then waits up to 500ms for a job.
// gotJob is false on a timeout; disconnected is true once the job channel
// has been closed and drained.
func (in *inner) receiveJob() (job func(), gotJob, disconnected bool) {
	in.recvMu.Lock()
	defer in.recvMu.Unlock()

	select {
	case j, ok := <-in.jobs:
		if !ok {
			return nil, false, true
		}
		return j, true, false
	case <-time.After(500 * time.Millisecond):
		return nil, false, false
	}
}

// runJob executes job, recovering a panic so that only this worker's
// goroutine ends (simulating the Rust worker OS thread terminating),
// rather than crashing the process.
func (in *inner) runJob(job func()) (ok bool) {
	ok = true
	defer func() {
		if r := recover(); r != nil {
			ok = false
			in.logger.Err().Str("panic", fmt.Sprint(r)).Log("worker panicked; worker terminating")
		}
	}()
	job()
	return
}

// work is the body of every worker goroutine.
func (in *inner) work(name string) {
	in.logger.Debug().Str("worker", name).Log("worker started")
	for {
		job, gotJob, disconnected := in.receiveJob()
		if disconnected {
			in.logger.Debug().Str("worker", name).Log("worker exiting: job queue disconnected")
			return
		}
		if !gotJob {
			continue
		}

		in.replenishBestEffort()

		if !in.runJob(job) {
			return
		}

		in.replenishBestEffort()
	}
}
