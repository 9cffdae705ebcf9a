package executor

import "time"

// sleepFuture completes once its deadline has passed. The first Poll spawns
// a helper goroutine that sleeps for the remaining duration and then wakes
// the task; this is the "timer wheel beyond a helper-thread sleep" escape
// hatch the design calls for, rather than a real timer wheel.
type sleepFuture struct {
	deadline time.Time
	started  bool
}

func (s *sleepFuture) Poll(cx *Context) (Unit, bool) {
	if time.Now().After(s.deadline) || time.Now().Equal(s.deadline) {
		return Unit{}, true
	}

	if !s.started {
		s.started = true
		remaining := time.Until(s.deadline)
		waker := cx.Waker
		go func() {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			<-timer.C
			waker.Wake()
		}()
	}

	return Unit{}, false
}

// Sleep returns a Future that completes after d has elapsed. It is driven
// entirely by the Executor that polls it; the elapsed-time wait itself
// happens on a dedicated helper goroutine outside the executor, since the
// executor has no built-in timer wheel.
func Sleep(d time.Duration) Future[Unit] {
	return &sleepFuture{deadline: time.Now().Add(d)}
}
