package derive

import (
	"sort"
	"time"

	"github.com/sadopc/focusflow/internal/api"
)

// SortGoals returns goals pinned first, then by ascending order, ties broken
// by newest creation first. The input is not modified.
func SortGoals(goals []api.Goal) []api.Goal {
	out := append([]api.Goal(nil), goals...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return createdAt(a).After(createdAt(b))
	})
	return out
}

var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	DateLayout,
}

func createdAt(g api.Goal) time.Time {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, g.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Band classifies how close a deadline is.
type Band int

const (
	BandNone Band = iota
	BandNormal
	BandDueSoon
	BandDueToday
	BandOverdue
)

func (b Band) String() string {
	switch b {
	case BandNormal:
		return "normal"
	case BandDueSoon:
		return "soon"
	case BandDueToday:
		return "today"
	case BandOverdue:
		return "overdue"
	}
	return "none"
}

// DeadlineStatus is a banded deadline. Days is always non-negative: days
// overdue for BandOverdue, days remaining otherwise.
type DeadlineStatus struct {
	Band Band
	Days int
}

// Deadline compares a YYYY-MM-DD deadline with now, both truncated to local
// midnight.
func Deadline(deadline string, now time.Time) DeadlineStatus {
	due, ok := ParseDate(deadline, now.Location())
	if !ok {
		return DeadlineStatus{Band: BandNone}
	}
	diff := DaysBetween(now, due)
	switch {
	case diff < 0:
		return DeadlineStatus{Band: BandOverdue, Days: -diff}
	case diff == 0:
		return DeadlineStatus{Band: BandDueToday}
	case diff <= 3:
		return DeadlineStatus{Band: BandDueSoon, Days: diff}
	default:
		return DeadlineStatus{Band: BandNormal, Days: diff}
	}
}

func (s DeadlineStatus) Label() string {
	switch s.Band {
	case BandOverdue:
		return "Overdue by " + plural(s.Days, "day")
	case BandDueToday:
		return "Due today"
	case BandDueSoon:
		return "Due in " + plural(s.Days, "day")
	case BandNormal:
		return plural(s.Days, "day") + " left"
	}
	return ""
}

// StepProgress returns done and total step counts and the rounded percentage.
func StepProgress(g api.Goal) (done, total, percent int) {
	total = len(g.Steps)
	for _, s := range g.Steps {
		if s.Done {
			done++
		}
	}
	return done, total, Percent(done, total)
}

// BlockingGoals returns the dependencies of g that are not done yet. Unknown
// ids are ignored.
func BlockingGoals(g api.Goal, all []api.Goal) []api.Goal {
	if len(g.DependencyIDs) == 0 {
		return nil
	}
	byID := make(map[string]api.Goal, len(all))
	for _, o := range all {
		byID[o.ID] = o
	}
	var blocking []api.Goal
	for _, id := range g.DependencyIDs {
		if dep, ok := byID[id]; ok && dep.Status != api.StatusDone {
			blocking = append(blocking, dep)
		}
	}
	return blocking
}

// GoalCounts aggregates a goal list for the summary header.
type GoalCounts struct {
	Total      int
	Todo       int
	InProgress int
	Done       int
	Archived   int
	Overdue    int
	Categories map[string]int
}

func GoalStats(goals []api.Goal, now time.Time) GoalCounts {
	c := GoalCounts{Categories: make(map[string]int)}
	for _, g := range goals {
		if g.IsArchived {
			c.Archived++
			continue
		}
		c.Total++
		switch g.Status {
		case api.StatusDone:
			c.Done++
		case api.StatusInProgress:
			c.InProgress++
		default:
			c.Todo++
		}
		if g.Status != api.StatusDone && Deadline(g.Deadline, now).Band == BandOverdue {
			c.Overdue++
		}
		if g.Category != "" {
			c.Categories[g.Category]++
		}
	}
	return c
}

// ApplyOrder moves the goal at from to index to and renumbers order from 0.
// It returns the new slice and the ordered ids to send to the server.
func ApplyOrder(goals []api.Goal, from, to int) ([]api.Goal, []string) {
	out := append([]api.Goal(nil), goals...)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out, goalIDs(out)
	}
	g := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]api.Goal{g}, out[to:]...)...)
	for i := range out {
		out[i].Order = i
	}
	return out, goalIDs(out)
}

func goalIDs(goals []api.Goal) []string {
	ids := make([]string, len(goals))
	for i, g := range goals {
		ids[i] = g.ID
	}
	return ids
}

// FilterGoals keeps goals of the given type, hiding archived ones unless
// showArchived is set.
func FilterGoals(goals []api.Goal, typ api.GoalType, showArchived bool) []api.Goal {
	var out []api.Goal
	for _, g := range goals {
		if g.Type != typ || g.IsArchived != showArchived {
			continue
		}
		out = append(out, g)
	}
	return out
}
