package achan

import (
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/go-asyncrt/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneShot_SendThenRecv(t *testing.T) {
	tx, rx := OneShot[int]()

	require.NoError(t, tx.Send(42))

	v, err := rx.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestOneShot_SendTwicePanics(t *testing.T) {
	tx, _ := OneShot[int]()
	require.NoError(t, tx.Send(1))
	assert.Panics(t, func() { _ = tx.Send(2) })
}

func TestOneShot_SendAfterReceiverClosed(t *testing.T) {
	tx, rx := OneShot[int]()
	rx.Close()

	err := tx.Send(1)
	assert.Equal(t, SendError{}, err)
}

func TestBounded_TrySend_FullAndDisconnected(t *testing.T) {
	tx, rx := Bounded[int](2)

	require.NoError(t, tx.TrySend(1))
	require.NoError(t, tx.TrySend(2))

	err := tx.TrySend(3)
	assert.Equal(t, TrySendError{Kind: TrySendFull}, err)

	rx.Close()
	err = tx.TrySend(4)
	assert.Equal(t, TrySendError{Kind: TrySendDisconnected}, err)
}

func TestBounded_TryRecv_EmptyAndDisconnected(t *testing.T) {
	tx, rx := Bounded[int](1)

	_, err := rx.TryRecv()
	assert.Equal(t, TryRecvError{Kind: TryRecvEmpty}, err)

	tx.Close()
	_, err = rx.TryRecv()
	assert.Equal(t, TryRecvError{Kind: TryRecvDisconnected}, err)
}

func TestBounded_SendBlocking_WakesOnSpace(t *testing.T) {
	tx, rx := Bounded[int](1)
	require.NoError(t, tx.TrySend(0)) // fill the buffer

	done := make(chan error, 1)
	go func() {
		done <- tx.SendBlocking(1)
	}()

	time.Sleep(10 * time.Millisecond)
	v, err := rx.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("SendBlocking never woke up after space freed")
	}

	v, err = rx.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestBounded_RecvBlocking_WakesOnSend(t *testing.T) {
	tx, rx := Bounded[int](4)

	done := make(chan int, 1)
	go func() {
		v, err := rx.RecvBlocking()
		require.NoError(t, err)
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, tx.TrySend(7))

	select {
	case v := <-done:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("RecvBlocking never woke up after a send")
	}
}

func TestBounded_RecvWithTimeout_ExpiresWhenIdle(t *testing.T) {
	_, rx := Bounded[int](1)

	_, err := rx.RecvWithTimeout(20 * time.Millisecond)
	assert.Equal(t, RecvTimeoutError{Kind: RecvTimeoutTimeout}, err)
}

func TestBounded_RecvWithTimeout_SucceedsBeforeDeadline(t *testing.T) {
	tx, rx := Bounded[int](1)

	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = tx.TrySend(9)
	}()

	v, err := rx.RecvWithTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

// TestBounded_Backpressure_TwoProducersSlowConsumer matches the design's
// backpressure scenario: two producers sending ten items each into a small
// buffer, with a slow consumer, must deliver every item and never deadlock.
func TestBounded_Backpressure_TwoProducersSlowConsumer(t *testing.T) {
	tx, rx := Bounded[int](3)
	tx2 := tx.Clone()

	const perProducer = 10
	var wg sync.WaitGroup
	wg.Add(2)
	produce := func(sender *Sender[int], base int) {
		defer wg.Done()
		defer sender.Close()
		for i := 0; i < perProducer; i++ {
			require.NoError(t, sender.SendBlocking(base+i))
		}
	}
	go produce(tx, 0)
	go produce(tx2, 1000)

	var received []int
	for {
		v, err := rx.RecvBlocking()
		if err != nil {
			break
		}
		received = append(received, v)
		time.Sleep(time.Millisecond) // slow consumer
	}

	wg.Wait()
	assert.Len(t, received, perProducer*2)
}

func TestBounded_CloseReceiver_WakesBlockedSender(t *testing.T) {
	tx, rx := Bounded[int](1)
	require.NoError(t, tx.TrySend(0))

	done := make(chan error, 1)
	go func() {
		done <- tx.SendBlocking(1)
	}()

	time.Sleep(10 * time.Millisecond)
	rx.Close()

	select {
	case err := <-done:
		assert.Equal(t, SendError{}, err)
	case <-time.After(time.Second):
		t.Fatal("blocked sender was never woken by receiver close")
	}
}

func TestBounded_CloseAllSenders_WakesBlockedReceiver(t *testing.T) {
	tx, rx := Bounded[int](1)

	done := make(chan error, 1)
	go func() {
		_, err := rx.RecvBlocking()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	tx.Close()

	select {
	case err := <-done:
		assert.Equal(t, RecvError{}, err)
	case <-time.After(time.Second):
		t.Fatal("blocked receiver was never woken by the last sender closing")
	}
}

func TestBounded_AsyncSendAndRecv_OverExecutor(t *testing.T) {
	tx, rx := Bounded[int](1)
	exec := executor.New()

	var got Result[int]
	exec.Spawn(executor.FuncFuture[executor.Unit](func(cx *executor.Context) (executor.Unit, bool) {
		r, ready := rx.RecvAsync().Poll(cx)
		if !ready {
			return executor.Unit{}, false
		}
		got = r
		return executor.Unit{}, true
	}))

	sendDone := make(chan struct{})
	exec.Spawn(executor.FuncFuture[executor.Unit](func(cx *executor.Context) (executor.Unit, bool) {
		_, ready := tx.SendAsync(5).Poll(cx)
		if !ready {
			return executor.Unit{}, false
		}
		close(sendDone)
		return executor.Unit{}, true
	}))

	exec.Run()

	<-sendDone
	require.NoError(t, got.Err)
	assert.Equal(t, 5, got.Value)
}

func TestReceiver_Iter_StopsOnDisconnect(t *testing.T) {
	tx, rx := Bounded[int](4)
	require.NoError(t, tx.TrySend(1))
	require.NoError(t, tx.TrySend(2))
	tx.Close()

	var got []int
	for v := range rx.Iter() {
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2}, got)
}

func TestReceiver_TryIter_StopsAtWouldBlock(t *testing.T) {
	tx, rx := Bounded[int](4)
	require.NoError(t, tx.TrySend(1))
	require.NoError(t, tx.TrySend(2))
	// tx intentionally left open: TryIter must stop at Empty, not block.

	var got []int
	for v := range rx.TryIter() {
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2}, got)
}
