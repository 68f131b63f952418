package api

import "context"

// Me is the startup "who am I" probe.
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.get(ctx, "/auth/me", nil, &u)
	return u, err
}

func (c *Client) UpdateDailyGoal(ctx context.Context, dailyGoal int) (User, error) {
	var u User
	err := c.put(ctx, "/auth/me", map[string]int{"daily_goal": dailyGoal}, &u)
	return u, err
}

func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResponse, error) {
	var out AuthResponse
	err := c.post(ctx, "/auth/login", creds, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, creds Credentials) (AuthResponse, error) {
	var out AuthResponse
	err := c.post(ctx, "/auth/register", creds, &out)
	return out, err
}

func (c *Client) UpdatePassword(ctx context.Context, current, next string) error {
	body := map[string]string{
		"current_password": current,
		"new_password":     next,
	}
	return c.put(ctx, "/auth/password", body, nil)
}
