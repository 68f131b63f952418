package tracker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
)

// Calendar loads the events shown on a month grid.
type Calendar struct {
	deps Deps
}

func NewCalendar(d Deps) *Calendar {
	return &Calendar{deps: d.withDefaults()}
}

// MonthEvents groups the events of m by date. The range covers the whole
// six-week grid so leading and trailing days are filled too.
func (c *Calendar) MonthEvents(ctx context.Context, m derive.Month) (map[string][]api.CalendarEvent, error) {
	first, last := GridRange(m)
	events, err := c.deps.API.CalendarEvents(ctx, first.Format(derive.DateLayout), last.Format(derive.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("load calendar: %w", err)
	}
	out := make(map[string][]api.CalendarEvent)
	for _, ev := range events {
		day := ev.Date
		if len(day) > len(derive.DateLayout) {
			day = day[:len(derive.DateLayout)]
		}
		out[day] = append(out[day], ev)
	}
	for day := range out {
		sort.SliceStable(out[day], func(i, j int) bool { return out[day][i].Type < out[day][j].Type })
	}
	return out, nil
}

// GridRange returns the Monday on or before the 1st of m and the 42nd day
// after it.
func GridRange(m derive.Month) (first, last time.Time) {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(start.Weekday()) + 6) % 7
	first = start.AddDate(0, 0, -offset)
	return first, first.AddDate(0, 0, 41)
}
