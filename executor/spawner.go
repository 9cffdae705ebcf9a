package executor

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// spawnEndpoints maps a goroutine ID to the Executor currently polling a
// task on that goroutine, so Spawn can recover "the executor for the
// currently running task" without threading a context parameter through
// every Future.
//
// This is the Go analogue of the Rust prototype's thread_local!
// CURRENT_TASK_SENDER: a goroutine, like an OS thread, only ever polls one
// task at a time, so keying by goroutine ID gives the same scoping. The
// retrieval pack's goroutineid package (same author, same monorepo) is
// named for exactly this technique but its source wasn't present beyond
// go.mod, so the well-known runtime.Stack-parsing approach is implemented
// directly here.
var spawnEndpoints sync.Map // map[uint64]*Executor

// pushSpawner records exec as the spawn endpoint for the calling goroutine,
// returning whatever was previously recorded (nil if nothing was).
func pushSpawner(exec *Executor) *Executor {
	gid := goroutineID()
	prev, _ := spawnEndpoints.Load(gid)
	spawnEndpoints.Store(gid, exec)
	if prev == nil {
		return nil
	}
	return prev.(*Executor)
}

// popSpawner restores whatever spawn endpoint was recorded before the
// matching pushSpawner call, guaranteeing clear-on-unwind via defer at the
// call site (task.poll), even if Poll panics.
func popSpawner(prev *Executor) {
	gid := goroutineID()
	if prev == nil {
		spawnEndpoints.Delete(gid)
	} else {
		spawnEndpoints.Store(gid, prev)
	}
}

// currentSpawner returns the Executor registered for the calling goroutine,
// if any.
func currentSpawner() (*Executor, bool) {
	v, ok := spawnEndpoints.Load(goroutineID())
	if !ok {
		return nil, false
	}
	return v.(*Executor), true
}

// goroutineID extracts the runtime's goroutine ID from the "goroutine N
// [state]:" prefix of a stack trace. It is slow and is only ever called
// around a task poll, never in a hot per-item loop.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		buf = make([]byte, len(buf)*2)
	}

	const prefix = "goroutine "
	buf = bytes.TrimPrefix(buf, []byte(prefix))
	if i := bytes.IndexByte(buf, ' '); i >= 0 {
		buf = buf[:i]
	}

	id, err := strconv.ParseUint(string(buf), 10, 64)
	if err != nil {
		panic("executor: could not parse goroutine ID: " + err.Error())
	}
	return id
}
