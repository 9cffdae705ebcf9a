package executor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadyQueue_FIFOOrder(t *testing.T) {
	q := newReadyQueue()

	want := make([]*task, 0, taskQueueChunkSize*3)
	for i := 0; i < cap(want); i++ {
		tk := &task{}
		want = append(want, tk)
		q.push(tk)
	}

	for _, tk := range want {
		got, ok := q.tryPop()
		assert.True(t, ok)
		assert.Same(t, tk, got)
	}

	_, ok := q.tryPop()
	assert.False(t, ok)
}

func TestReadyQueue_PopBlocksUntilPush(t *testing.T) {
	q := newReadyQueue()

	done := make(chan *task)
	go func() {
		tk, ok := q.pop()
		if !ok {
			done <- nil
			return
		}
		done <- tk
	}()

	sentinel := &task{}
	q.push(sentinel)

	got := <-done
	assert.Same(t, sentinel, got)
}

func TestReadyQueue_CloseUnblocksPop(t *testing.T) {
	q := newReadyQueue()

	done := make(chan bool)
	go func() {
		_, ok := q.pop()
		done <- ok
	}()

	q.close()
	assert.False(t, <-done)
}

func TestReadyQueue_ConcurrentPush(t *testing.T) {
	q := newReadyQueue()

	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	wg.Add(producers)
	for i := 0; i < producers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				q.push(&task{})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
}
