package api

import "context"

func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var out []Task
	err := c.get(ctx, "/tasks", nil, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, t Task) (Task, error) {
	var out Task
	err := c.post(ctx, "/tasks", t, &out)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, t Task) (Task, error) {
	if err := requireID(t.ID); err != nil {
		return Task{}, err
	}
	var out Task
	err := c.put(ctx, "/tasks/"+escape(t.ID), t, &out)
	return out, err
}

// SetTaskCompleted sends only the completion flag, as routine entries do for
// their linked task.
func (c *Client) SetTaskCompleted(ctx context.Context, id string, done bool) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.put(ctx, "/tasks/"+escape(id), map[string]bool{"is_completed": done}, nil)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.delete(ctx, "/tasks/"+escape(id))
}
