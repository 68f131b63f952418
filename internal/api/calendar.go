package api

import (
	"context"
	"net/url"
)

// CalendarEvents returns goal deadlines, interviews and card bills between
// start and end inclusive (YYYY-MM-DD).
func (c *Client) CalendarEvents(ctx context.Context, start, end string) ([]CalendarEvent, error) {
	q := url.Values{}
	q.Set("start_date", start)
	q.Set("end_date", end)
	var out []CalendarEvent
	err := c.get(ctx, "/calendar/events", q, &out)
	return out, err
}
