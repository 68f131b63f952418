package api

import (
	"context"
	"net/url"
)

func (c *Client) Routine(ctx context.Context, date string) (Routine, error) {
	var out Routine
	err := c.get(ctx, "/routines/"+escape(date), nil, &out)
	if out.Date == "" {
		out.Date = date
	}
	return out, err
}

// SaveRoutine writes the whole day as one batch.
func (c *Client) SaveRoutine(ctx context.Context, r Routine) (Routine, error) {
	var out Routine
	body := map[string][]RoutineEntry{"entries": r.Entries}
	err := c.put(ctx, "/routines/"+escape(r.Date), body, &out)
	return out, err
}

func (c *Client) RoutineCalendar(ctx context.Context, month, year int) ([]RoutineDay, error) {
	var out []RoutineDay
	q := url.Values{}
	if month > 0 && year > 0 {
		q.Set("month", itoa(month))
		q.Set("year", itoa(year))
	}
	err := c.get(ctx, "/routines/calendar", q, &out)
	return out, err
}

func (c *Client) RoutineStreak(ctx context.Context) (RoutineStreak, error) {
	var out RoutineStreak
	err := c.get(ctx, "/routines/streak", nil, &out)
	return out, err
}

func (c *Client) RoutineTemplates(ctx context.Context) ([]RoutineTemplate, error) {
	var out []RoutineTemplate
	err := c.get(ctx, "/routines/templates", nil, &out)
	return out, err
}

func (c *Client) CreateRoutineTemplate(ctx context.Context, t RoutineTemplate) (RoutineTemplate, error) {
	var out RoutineTemplate
	err := c.post(ctx, "/routines/templates", t, &out)
	return out, err
}

func (c *Client) DeleteRoutineTemplate(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.delete(ctx, "/routines/templates/"+escape(id))
}
