package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
)

// Routine edits one day's plan locally. Unlike goals it is saved as a
// whole-day batch: explicitly, or automatically after loading a template.
type Routine struct {
	deps Deps

	mu        sync.Mutex
	date      string
	entries   map[string]api.RoutineEntry
	templates []api.RoutineTemplate
	days      map[string]bool
	timer     *SlotTimer
	dirty     bool
}

func NewRoutine(d Deps) *Routine {
	d = d.withDefaults()
	return &Routine{
		deps:    d,
		date:    d.today(),
		entries: make(map[string]api.RoutineEntry),
		days:    make(map[string]bool),
	}
}

// Load fetches the routine for date, replacing any unsaved local plan.
func (r *Routine) Load(ctx context.Context, date string) error {
	rt, err := r.deps.API.Routine(ctx, date)
	if err != nil {
		return fmt.Errorf("load routine %s: %w", date, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.date = date
	r.entries = derive.EntryMap(rt.Entries)
	r.timer = nil
	r.dirty = false
	return nil
}

// LoadTemplates fetches saved templates and the month's calendar dots.
func (r *Routine) LoadTemplates(ctx context.Context) error {
	tpls, err := r.deps.API.RoutineTemplates(ctx)
	if err != nil {
		return fmt.Errorf("load routine templates: %w", err)
	}
	r.mu.Lock()
	r.templates = tpls
	r.mu.Unlock()
	return nil
}

// LoadCalendar marks which days of a month have a saved routine.
func (r *Routine) LoadCalendar(ctx context.Context, month time.Month, year int) ([]api.RoutineDay, error) {
	days, err := r.deps.API.RoutineCalendar(ctx, int(month), year)
	if err != nil {
		return nil, fmt.Errorf("load routine calendar: %w", err)
	}
	r.mu.Lock()
	for _, d := range days {
		r.days[d.Date] = true
	}
	r.mu.Unlock()
	return days, nil
}

func (r *Routine) Streak(ctx context.Context) (api.RoutineStreak, error) {
	return r.deps.API.RoutineStreak(ctx)
}

func (r *Routine) Date() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.date
}

func (r *Routine) HasRoutine(date string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.days[date]
}

// Entries returns the plan in slot order.
func (r *Routine) Entries() []api.RoutineEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return derive.EntryList(r.entries)
}

func (r *Routine) Entry(slot string) (api.RoutineEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[slot]
	return e, ok
}

func (r *Routine) Templates() []api.RoutineTemplate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]api.RoutineTemplate(nil), r.templates...)
}

// Dirty reports unsaved local changes.
func (r *Routine) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

// SetEntry adds or replaces the entry for slot. A replaced entry keeps its
// completion state.
func (r *Routine) SetEntry(slot string, e api.RoutineEntry) error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.entries[slot]
	e.Slot = slot
	e.Completed = ok && prev.Completed
	if ok && e.ElapsedSeconds == 0 {
		e.ElapsedSeconds = prev.ElapsedSeconds
	}
	r.entries[slot] = e
	r.dirty = true
	return nil
}

func (r *Routine) RemoveEntry(slot string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[slot]; !ok {
		return
	}
	delete(r.entries, slot)
	if r.timer != nil && r.timer.Slot == slot {
		r.timer = nil
	}
	r.dirty = true
}

// Move drags the entry at from onto to, swapping with any entry there.
func (r *Routine) Move(from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[from]; !ok || from == to {
		return
	}
	r.entries = derive.SwapSlots(r.entries, from, to)
	r.dirty = true
}

// ToggleComplete flips an entry's completion. A linked task is completed or
// reopened on the server to match; that failure is logged and returned but
// the local flip stays.
func (r *Routine) ToggleComplete(ctx context.Context, slot string) error {
	r.mu.Lock()
	e, ok := r.entries[slot]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: no entry at %s", ErrInvalidInput, slot)
	}
	e.Completed = !e.Completed
	r.entries[slot] = e
	r.dirty = true
	r.mu.Unlock()

	if e.LinkedTaskID == "" {
		return nil
	}
	if err := r.deps.API.SetTaskCompleted(ctx, e.LinkedTaskID, e.Completed); err != nil {
		r.deps.Log.Warn("sync linked task", zap.String("task", e.LinkedTaskID), zap.Error(err))
		return fmt.Errorf("sync linked task: %w", err)
	}
	return nil
}

// Save sends the whole day.
func (r *Routine) Save(ctx context.Context) error {
	r.mu.Lock()
	date := r.date
	entries := derive.EntryList(r.entries)
	r.mu.Unlock()

	if _, err := r.deps.API.SaveRoutine(ctx, api.Routine{Date: date, Entries: entries}); err != nil {
		return fmt.Errorf("save routine %s: %w", date, err)
	}
	r.mu.Lock()
	if r.date == date {
		r.dirty = false
	}
	r.days[date] = true
	r.mu.Unlock()
	return nil
}

// SaveAsTemplate stores the current plan, without completions, as name.
func (r *Routine) SaveAsTemplate(ctx context.Context, name string) (api.RoutineTemplate, error) {
	name = strings.TrimSpace(name)
	r.mu.Lock()
	entries := derive.ResetCompletion(derive.EntryList(r.entries))
	r.mu.Unlock()
	if name == "" || len(entries) == 0 {
		return api.RoutineTemplate{}, fmt.Errorf("%w: template needs a name and entries", ErrInvalidInput)
	}

	tpl, err := r.deps.API.CreateRoutineTemplate(ctx, api.RoutineTemplate{Name: name, Entries: entries})
	if err != nil {
		return api.RoutineTemplate{}, fmt.Errorf("save template: %w", err)
	}
	r.mu.Lock()
	r.templates = append([]api.RoutineTemplate{tpl}, r.templates...)
	r.mu.Unlock()
	return tpl, nil
}

// ApplyTemplate replaces the plan with a template and saves it at once.
func (r *Routine) ApplyTemplate(ctx context.Context, id string) error {
	r.mu.Lock()
	var tpl *api.RoutineTemplate
	for i := range r.templates {
		if r.templates[i].ID == id {
			tpl = &r.templates[i]
			break
		}
	}
	if tpl == nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: unknown template %s", ErrInvalidInput, id)
	}
	r.entries = derive.EntryMap(derive.ResetCompletion(tpl.Entries))
	r.timer = nil
	r.dirty = true
	r.mu.Unlock()

	return r.Save(ctx)
}

func (r *Routine) DeleteTemplate(ctx context.Context, id string) error {
	if err := r.deps.API.DeleteRoutineTemplate(ctx, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.templates[:0]
	for _, t := range r.templates {
		if t.ID != id {
			out = append(out, t)
		}
	}
	r.templates = out
	return nil
}

// CopyPreviousDay merges the day before the loaded date into the plan,
// uncompleted. Slots present in both take the copied entry.
func (r *Routine) CopyPreviousDay(ctx context.Context) error {
	date := r.Date()
	day, err := time.Parse(derive.DateLayout, date)
	if err != nil {
		return fmt.Errorf("%w: date %q", ErrInvalidInput, date)
	}
	prev := day.AddDate(0, 0, -1).Format(derive.DateLayout)
	rt, err := r.deps.API.Routine(ctx, prev)
	if err != nil {
		return fmt.Errorf("load routine %s: %w", prev, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.date != date {
		return nil
	}
	for _, e := range derive.ResetCompletion(rt.Entries) {
		r.entries[e.Slot] = e
	}
	r.dirty = true
	return nil
}

// Summary aggregates the loaded day.
type RoutineSummary struct {
	Planned    int
	Focus      int
	Completion int
	Completed  int
	Total      int
	Ring       []derive.RingSlice
}

func (r *Routine) Summary() RoutineSummary {
	entries := r.Entries()
	ring, _ := derive.CategoryRing(entries)
	s := RoutineSummary{
		Planned:    derive.PlannedMinutes(entries),
		Focus:      derive.FocusMinutes(entries),
		Completion: derive.CompletionPercent(entries),
		Total:      len(entries),
		Ring:       ring,
	}
	for _, e := range entries {
		if e.Completed {
			s.Completed++
		}
	}
	return s
}
