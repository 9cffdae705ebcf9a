package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtomicCounter_SequentialIncrement(t *testing.T) {
	var c atomicCounter
	for i := uint64(0); i < 10; i++ {
		assert.Equal(t, i, c.next())
	}
}

func TestAtomicCounter_ConcurrentIncrement_AllValuesUnique(t *testing.T) {
	var c atomicCounter
	const goroutines = 10
	const perGoroutine = 10

	results := make(chan uint64, goroutines*perGoroutine)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				results <- c.next()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint64]bool, goroutines*perGoroutine)
	for v := range results {
		assert.False(t, seen[v], "duplicate counter value %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}
