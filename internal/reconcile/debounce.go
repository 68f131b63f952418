package reconcile

import (
	"sync"
	"time"
)

// Debouncer coalesces calls per key: each Trigger resets that key's timer and
// only the most recent fn runs once the key has been idle for the delay.
// Different keys run independent timers.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingCall
	seq     uint64
	closed  bool
	running sync.WaitGroup
}

type pendingCall struct {
	timer *time.Timer
	fn    func()
	seq   uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*pendingCall),
	}
}

// Trigger arms or re-arms the timer for key. It is a no-op after Close.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending[key] = &pendingCall{
		fn:    fn,
		seq:   seq,
		timer: time.AfterFunc(d.delay, func() { d.fire(key, seq) }),
	}
}

func (d *Debouncer) fire(key string, seq uint64) {
	d.mu.Lock()
	p, ok := d.pending[key]
	// A timer that lost the race with Trigger/Cancel/Flush must not run.
	if !ok || p.seq != seq || d.closed {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	p.fn()
}

// Cancel drops the pending call for key. It reports whether one existed.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.pending, key)
	return true
}

// Flush runs every pending call now, on the calling goroutine, and waits for
// timers that already fired to finish.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	calls := make([]*pendingCall, 0, len(d.pending))
	for key, p := range d.pending {
		p.timer.Stop()
		calls = append(calls, p)
		delete(d.pending, key)
	}
	d.running.Add(len(calls))
	d.mu.Unlock()

	for _, p := range calls {
		func() {
			defer d.running.Done()
			p.fn()
		}()
	}
	d.running.Wait()
}

// FlushKey runs the pending call for key now, if any.
func (d *Debouncer) FlushKey(key string) bool {
	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok {
		d.mu.Unlock()
		return false
	}
	p.timer.Stop()
	delete(d.pending, key)
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	p.fn()
	return true
}

func (d *Debouncer) IsPending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Pending returns the number of armed keys.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close stops every timer without running it. Later Triggers are ignored.
// Calls already executing are waited for.
func (d *Debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()
	d.running.Wait()
}
