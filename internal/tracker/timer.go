package tracker

import (
	"fmt"
	"time"
)

// SlotTimer measures focus time spent on one routine entry. Elapsed time is
// folded into the entry when the timer stops.
type SlotTimer struct {
	Slot      string
	Running   bool
	StartedAt time.Time
	Elapsed   time.Duration // accumulated before StartedAt
}

// Current returns the time on the timer at now.
func (t SlotTimer) Current(now time.Time) time.Duration {
	if !t.Running {
		return t.Elapsed
	}
	return t.Elapsed + now.Sub(t.StartedAt)
}

// StartTimer begins timing slot, stopping and saving any other timer.
func (r *Routine) StartTimer(slot string) error {
	now := r.deps.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[slot]; !ok {
		return fmt.Errorf("%w: no entry at %s", ErrInvalidInput, slot)
	}
	if r.timer != nil && r.timer.Slot != slot {
		r.foldTimerLocked(now)
	}
	if r.timer == nil {
		r.timer = &SlotTimer{Slot: slot}
	}
	if !r.timer.Running {
		r.timer.Running = true
		r.timer.StartedAt = now
	}
	return nil
}

// PauseTimer stops the clock but keeps the timer attached to its slot.
func (r *Routine) PauseTimer() {
	now := r.deps.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer == nil || !r.timer.Running {
		return
	}
	r.timer.Elapsed = r.timer.Current(now)
	r.timer.Running = false
}

// StopTimer adds the measured time to the entry's elapsedSeconds.
func (r *Routine) StopTimer() {
	now := r.deps.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.foldTimerLocked(now)
}

func (r *Routine) foldTimerLocked(now time.Time) {
	if r.timer == nil {
		return
	}
	if e, ok := r.entries[r.timer.Slot]; ok {
		e.ElapsedSeconds += int(r.timer.Current(now).Seconds())
		r.entries[r.timer.Slot] = e
		r.dirty = true
	}
	r.timer = nil
}

// Timer returns the active timer, if any.
func (r *Routine) Timer() (SlotTimer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer == nil {
		return SlotTimer{}, false
	}
	return *r.timer, true
}
