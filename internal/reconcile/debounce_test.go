package reconcile

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesSameKey(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Close()

	var (
		mu    sync.Mutex
		calls []int
	)
	for i := 1; i <= 5; i++ {
		n := i
		d.Trigger("goal-1", func() {
			mu.Lock()
			calls = append(calls, n)
			mu.Unlock()
		})
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{5}, calls)
}

func TestDebouncerIndependentKeys(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Close()

	var a, b atomic.Int32
	d.Trigger("a", func() { a.Add(1) })
	d.Trigger("b", func() { b.Add(1) })
	assert.Equal(t, 2, d.Pending())

	assert.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncerResetExtendsWindow(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Close()

	var fired atomic.Int32
	start := time.Now()
	for i := 0; i < 4; i++ {
		d.Trigger("k", func() { fired.Add(1) })
		time.Sleep(20 * time.Millisecond)
	}
	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Close()

	var fired atomic.Bool
	d.Trigger("k", func() { fired.Store(true) })
	assert.True(t, d.Cancel("k"))
	assert.False(t, d.Cancel("k"))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	d := NewDebouncer(time.Hour)
	defer d.Close()

	var fired atomic.Int32
	d.Trigger("a", func() { fired.Add(1) })
	d.Trigger("b", func() { fired.Add(1) })

	d.Flush()
	assert.Equal(t, int32(2), fired.Load())
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncerFlushKey(t *testing.T) {
	d := NewDebouncer(time.Hour)
	defer d.Close()

	var fired atomic.Int32
	d.Trigger("a", func() { fired.Add(1) })
	d.Trigger("b", func() { fired.Add(10) })

	require.True(t, d.FlushKey("a"))
	assert.Equal(t, int32(1), fired.Load())
	assert.True(t, d.IsPending("b"))
	assert.False(t, d.FlushKey("a"))
}

func TestDebouncerCloseStopsEverything(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var fired atomic.Int32
	d.Trigger("a", func() { fired.Add(1) })
	d.Close()
	d.Trigger("b", func() { fired.Add(1) })

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, 0, d.Pending())
}
