package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockStartsAtZero(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
}

func TestClockMonotonic(t *testing.T) {
	c := NewClock()
	prev := int64(0)
	for i := 0; i < 100; i++ {
		next := c.Next()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestClockAt(t *testing.T) {
	c := NewClockAt(42)
	assert.Equal(t, int64(42), c.Current())
	assert.Equal(t, int64(43), c.Next())
}

func TestClockConcurrentUniqueness(t *testing.T) {
	c := NewClock()
	const n = 50

	var wg sync.WaitGroup
	seen := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool, n)
	for v := range seen {
		assert.False(t, unique[v], "seq %d issued twice", v)
		unique[v] = true
	}
	assert.Len(t, unique, n)
}
