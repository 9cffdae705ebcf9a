package executor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpawnerRegistry_ScopedToExecutorAndGoroutine(t *testing.T) {
	_, ok := currentSpawner()
	assert.False(t, ok)

	e1 := New()
	prev := pushSpawner(e1)
	assert.Nil(t, prev)

	got, ok := currentSpawner()
	assert.True(t, ok)
	assert.Same(t, e1, got)

	popSpawner(prev)
	_, ok = currentSpawner()
	assert.False(t, ok)
}

func TestSpawnerRegistry_NestedPushRestoresPrevious(t *testing.T) {
	e1 := New()
	e2 := New()

	prev1 := pushSpawner(e1)
	prev2 := pushSpawner(e2)

	got, ok := currentSpawner()
	assert.True(t, ok)
	assert.Same(t, e2, got)

	popSpawner(prev2)
	got, ok = currentSpawner()
	assert.True(t, ok)
	assert.Same(t, e1, got)

	popSpawner(prev1)
	_, ok = currentSpawner()
	assert.False(t, ok)
}

func TestSpawnerRegistry_IsolatedPerGoroutine(t *testing.T) {
	e1 := New()
	prev := pushSpawner(e1)
	defer popSpawner(prev)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, ok := currentSpawner()
		assert.False(t, ok)
	}()
	wg.Wait()
}
