// ABOUTME: Tests for the idle timer manager
// ABOUTME: Uses millisecond windows to check firing, restart and cancellation

package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firings struct {
	mu   sync.Mutex
	seen []string
}

func (f *firings) record(id string, gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, id)
}

func (f *firings) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func TestIdleTimers_Fires(t *testing.T) {
	var f firings
	it := NewIdleTimers(10*time.Millisecond, f.record)

	it.Reset("room-1")
	require.Eventually(t, func() bool { return f.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"room-1"}, f.seen)
}

func TestIdleTimers_ResetRestartsWindow(t *testing.T) {
	var f firings
	it := NewIdleTimers(60*time.Millisecond, f.record)

	it.Reset("room-1")
	for i := 0; i < 4; i++ {
		time.Sleep(20 * time.Millisecond)
		it.Reset("room-1")
	}
	assert.Equal(t, 0, f.count(), "timer fired despite activity")

	require.Eventually(t, func() bool { return f.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, f.count(), "superseded timers must not fire")
}

func TestIdleTimers_Generations(t *testing.T) {
	it := NewIdleTimers(time.Hour, func(string, uint64) {})
	defer it.StopAll()

	g1 := it.Reset("room-1")
	assert.True(t, it.Current("room-1", g1))

	g2 := it.Reset("room-1")
	assert.False(t, it.Current("room-1", g1))
	assert.True(t, it.Current("room-1", g2))

	it.Clear("room-1", g1)
	assert.Equal(t, 1, it.Len(), "stale clear is ignored")

	it.Clear("room-1", g2)
	assert.Equal(t, 0, it.Len())
}

func TestIdleTimers_Stop(t *testing.T) {
	var f firings
	it := NewIdleTimers(10*time.Millisecond, f.record)

	it.Reset("room-1")
	it.Reset("room-2")
	it.Stop("room-1")
	assert.Equal(t, 1, it.Len())

	it.StopAll()
	assert.Equal(t, 0, it.Len())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, f.count())
}
