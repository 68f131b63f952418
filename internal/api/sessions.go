package api

import "context"

// LogSession records a finished focus or break phase.
func (c *Client) LogSession(ctx context.Context, s FocusSession) (FocusSession, error) {
	var out FocusSession
	err := c.post(ctx, "/sessions", s, &out)
	return out, err
}

func (c *Client) TodayStats(ctx context.Context) (TodayStats, error) {
	var out TodayStats
	err := c.get(ctx, "/sessions/stats/today", nil, &out)
	return out, err
}

// WeeklyStats returns seven days of pomodoro counts, oldest first.
func (c *Client) WeeklyStats(ctx context.Context) ([]DayCount, error) {
	var out []DayCount
	err := c.get(ctx, "/sessions/stats/weekly", nil, &out)
	return out, err
}
