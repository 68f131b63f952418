package session

import (
	"sync"

	"github.com/sadopc/focusflow/internal/api"
)

// Selection is what the pomodoro timer is attributed to.
type Selection struct {
	ActiveTask    *api.Task
	ProjectID     string
	ProjectTaskID string
}

// Focus is the timer selection. It is kept apart from Session so identity
// subscribers are not woken by every selection change.
type Focus struct {
	mu   sync.Mutex
	sel  Selection
	subs map[int]func(Selection)
	next int
}

func NewFocus() *Focus {
	return &Focus{subs: make(map[int]func(Selection))}
}

func (f *Focus) Selection() Selection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyLocked()
}

func (f *Focus) copyLocked() Selection {
	sel := f.sel
	if sel.ActiveTask != nil {
		t := *sel.ActiveTask
		sel.ActiveTask = &t
	}
	return sel
}

func (f *Focus) Subscribe(fn func(Selection)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *Focus) update(mutate func(*Selection)) {
	f.mu.Lock()
	mutate(&f.sel)
	sel := f.copyLocked()
	subs := make([]func(Selection), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(sel)
	}
}

// SetActiveTask focuses a standalone task; nil clears it.
func (f *Focus) SetActiveTask(t *api.Task) {
	f.update(func(s *Selection) {
		if t == nil {
			s.ActiveTask = nil
			return
		}
		c := *t
		s.ActiveTask = &c
	})
}

// SetProject selects a project and clears a task from another project.
func (f *Focus) SetProject(projectID string) {
	f.update(func(s *Selection) {
		if s.ProjectID != projectID {
			s.ProjectTaskID = ""
		}
		s.ProjectID = projectID
	})
}

// SetProjectTask selects a task within projectID.
func (f *Focus) SetProjectTask(projectID, taskID string) {
	f.update(func(s *Selection) {
		s.ProjectID = projectID
		s.ProjectTaskID = taskID
	})
}

func (f *Focus) Clear() {
	f.update(func(s *Selection) { *s = Selection{} })
}

// Session builds the record logged when a pomodoro finishes.
func (sel Selection) Session(typ api.SessionType, seconds int) api.FocusSession {
	return api.FocusSession{
		DurationSeconds: seconds,
		Type:            typ,
		ProjectID:       sel.ProjectID,
		ProjectTaskID:   sel.ProjectTaskID,
	}
}
