package derive

import (
	"fmt"
	"math"
	"time"

	"github.com/sadopc/focusflow/internal/api"
)

var ProjectStatuses = []string{"backlog", "in-progress", "review", "completed"}

// DueBadge labels a project due within three days or overdue. Dates are
// compared as UTC midnight against the current instant, and partial days
// round up. Completed projects never get a badge.
func DueBadge(dueDate, status string, now time.Time) (label string, overdue bool) {
	if dueDate == "" || status == "completed" {
		return "", false
	}
	due, ok := ParseDate(dueDate, time.UTC)
	if !ok {
		return "", false
	}
	days := int(math.Ceil(due.Sub(now).Hours() / 24))
	switch {
	case days < 0:
		return fmt.Sprintf("Overdue %dd", -days), true
	case days <= 3:
		return fmt.Sprintf("%dd left", days), false
	}
	return "", false
}

// ProjectProgress is the rounded share of completed tasks.
func ProjectProgress(p api.Project) int {
	done := 0
	for _, t := range p.Tasks {
		if t.IsCompleted {
			done++
		}
	}
	return Percent(done, len(p.Tasks))
}

// FormatDuration renders tracked seconds as "1h 20m" or "15m".
func FormatDuration(seconds int) string {
	return FormatMinutes(seconds / 60)
}

// RelativeTime renders an activity timestamp relative to now.
func RelativeTime(ts, now time.Time) string {
	d := now.Sub(ts)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
	return ts.Format("2 Jan")
}
