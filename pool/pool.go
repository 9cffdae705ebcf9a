// Package pool implements a small, self-healing fixed-size OS-thread
// (goroutine) worker pool: a bounded job queue serviced by exactly `size`
// workers, which replenish themselves after a panic or a transient spawn
// failure.
//
// Grounded on fezer_threadpool::threadpool and, for the general worker-pool
// naming and error-sentinel idiom, ChuLiYu-raft-recovery's
// internal/worker.Pool.
package pool

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

const jobQueueCapacityPerWorker = 200

// retryInterval is the fixed backoff used by both Schedule's infinite retry
// loop and Join/TryJoin's busy-wait polling.
const retryInterval = 10 * time.Millisecond

// Pool maintains exactly Size() live workers, accepting jobs on a bounded
// queue of capacity Size() * 200.
//
// The job queue's receive side is deliberately guarded by an explicit
// mutex (inner.recvMu), even though a Go channel already supports safe
// concurrent receivers on its own: the single-receiver-at-a-time property
// is a named, testable behavior of this pool, not
// an implementation accident to be optimized away by relying on channel
// internals.
type Pool struct {
	in *inner

	closed atomic.Bool
}

// New creates a pool of size workers, each named "prefix-<n>". prefix must
// be non-empty and size must be at least 1.
func New(prefix string, size int) (*Pool, error) {
	return newPool(prefix, size, spawnGoroutine, nil)
}

// NewWithLogger is New, additionally attaching a structured logger for
// lifecycle events (worker start/exit, panics, replenish failures).
func NewWithLogger(prefix string, size int, logger *logiface.Logger[*stumpy.Event]) (*Pool, error) {
	return newPool(prefix, size, spawnGoroutine, logger)
}

func newPool(prefix string, size int, spawn spawnFunc, logger *logiface.Logger[*stumpy.Event]) (*Pool, error) {
	if prefix == "" {
		return nil, NewPoolError{Kind: NewPoolParameter, Err: errors.New("prefix must not be empty")}
	}
	if size < 1 {
		return nil, NewPoolError{Kind: NewPoolParameter, Err: errors.New("size must be >= 1")}
	}
	if logger == nil {
		logger = stumpy.L.New(stumpy.L.WithLevel(logiface.LevelDisabled))
	}

	in := newInner(prefix, size, spawn, logger)
	if err := in.replenish(); err != nil {
		return nil, NewPoolError{Kind: NewPoolSpawn, Err: err}
	}

	return &Pool{in: in}, nil
}

// Size returns the pool's configured worker count.
func (p *Pool) Size() int { return p.in.size }

// LiveThreadCount returns the number of currently live workers, which may
// transiently differ from Size() after a panic and before replenishment
// catches up.
func (p *Pool) LiveThreadCount() int { return int(p.in.liveCount()) }

// Schedule enqueues f, retrying indefinitely (with a 10ms backoff) while
// the queue is full or while workers cannot currently be spawned. It never
// returns an error: a Respawn classification is a transient blip that is
// ignored (the remaining workers keep serving the queue), and a NoThreads
// classification just means "keep sleeping and trying until something can
// spawn again".
func (p *Pool) Schedule(f func()) {
	for {
		if err := p.in.replenish(); err != nil {
			p.in.logger.Debug().Str("err", err.Error()).Log("schedule replenish attempt failed")
			var ste StartThreadsError
			if errors.As(err, &ste) && ste.Kind == StartThreadsNoThreads {
				time.Sleep(retryInterval)
				continue
			}
		}

		select {
		case p.in.jobs <- f:
			p.in.replenishBestEffort()
			return
		default:
			time.Sleep(retryInterval)
		}
	}
}

// TrySchedule enqueues f without blocking or retrying. The enqueue attempt
// happens first: if the queue has room, f is sent and will be serviced
// regardless of what happens next. Only after a successful enqueue does
// TrySchedule attempt a replenish, returning its classified error (if any)
// to the caller — but the job itself is never dropped on account of a
// replenish failure; it stays queued for a worker that recovers later (via
// Schedule's retry loop, another successful TrySchedule, or a worker's own
// post-job replenish).
func (p *Pool) TrySchedule(f func()) error {
	select {
	case p.in.jobs <- f:
	default:
		return TryScheduleError{Kind: TryScheduleQueueFull}
	}

	if err := p.in.replenish(); err != nil {
		var ste StartThreadsError
		if errors.As(err, &ste) {
			switch ste.Kind {
			case StartThreadsNoThreads:
				return TryScheduleError{Kind: TryScheduleNoThreads, Err: ste}
			default:
				return TryScheduleError{Kind: TryScheduleRespawn, Err: ste}
			}
		}
		return TryScheduleError{Kind: TryScheduleRespawn, Err: err}
	}
	return nil
}

// Join closes the job queue (once drained, every worker's next receive
// observes disconnect and exits) and busy-waits, polling every 10ms, until
// no workers remain live.
func (p *Pool) Join() {
	p.closeOnce()
	for p.in.liveCount() > 0 {
		time.Sleep(retryInterval)
	}
}

// TryJoin is Join bounded by a deadline; it returns JoinTimeoutError if
// workers have not all stopped before timeout elapses.
func (p *Pool) TryJoin(timeout time.Duration) error {
	p.closeOnce()
	deadline := time.Now().Add(timeout)
	for p.in.liveCount() > 0 {
		if time.Now().After(deadline) {
			return JoinTimeoutError{}
		}
		time.Sleep(retryInterval)
	}
	return nil
}

func (p *Pool) closeOnce() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.in.jobs)
	}
}
